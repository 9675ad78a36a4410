// Package audit verifies that every user's profile projection still matches
// its identity record and classifies anything that drifted.
//
// Audits are deliberately conservative about repairs. A missing profile is
// recreated automatically because that is always safe: the identity record
// is canonical and the extended subset starts empty anyway. A field-level
// mismatch is only reported, because blindly overwriting could mask a write
// that is still in flight; the copy happens when an operator (or an admin
// endpoint) explicitly asks for it via ValidateAndSyncConsistency.
package audit
