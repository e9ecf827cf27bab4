// Package transactions serves the user's income and expense entries, the
// data the paywall protects.
//
// Amounts arrive as decimal strings typed by the user and are stored as
// signed cents: income positive, expense negative. Access requires a
// session and an entitlement the gate accepts, so a lapsed trial gets 402
// here even if the web app skips its own redirect.
package transactions
