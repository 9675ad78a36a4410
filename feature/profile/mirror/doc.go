// Package mirror is the single source of truth for which identity fields are
// mirrored onto the profile and how.
//
// Both the sync engine and the consistency auditor are built on this rules
// table, so the event-driven path and the scheduled audit can never disagree
// about what "consistent" means. The rules are keyed by field name rather
// than dispatched through type switches so adding a mirrored field is a
// one-place change.
package mirror
