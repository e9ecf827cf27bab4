// Package billing is the HTTP surface of the paywall: the checkout and
// portal endpoints called by the web app, the provider webhook, and the
// entitlement read used by the paywall page.
//
// Paths keep the names of the hosted functions the web app already calls.
// Errors are always {"error": "..."}; bridge and webhook failures answer
// 400, missing sessions 401.
package billing
