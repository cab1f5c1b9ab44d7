// Package badges maintains per-form and per-category total/unread counts for
// navigation UI.
//
// Counts are computed in full once per session and maintained incrementally
// on create/delete/view events afterwards, so the UI never needs a full
// refetch to keep badges live. Initialization fans out across forms with
// bounded concurrency, and a single form's fetch failure is isolated: its
// badge stays at the last known (or zero) state while the others complete.
// Badge failures are cosmetic and never block the operations they annotate.
package badges
