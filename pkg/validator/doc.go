// Package validator runs declarative field rules and reports every failure
// at once.
//
//	err := validator.Apply(
//		validator.Required("description", in.Description),
//		validator.MaxLen("description", in.Description, 200),
//		validator.OneOf("type", in.Type, "income", "expense"),
//	)
//	if ve := validator.Extract(err); ve != nil {
//		// ve.Map() -> {"description": ["field is required"]}
//	}
package validator
