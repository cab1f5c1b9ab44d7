// Package access implements the permission and visibility decisions of the
// engine: the eight-way CRUD-by-scope permission matrix, the per-record
// share-visibility filter, and the row access gate that composes the two.
//
// Evaluate is a pure function over (user, form, admin flag); it is total and
// never returns an error, treating malformed rules as non-matching. The
// ShareInspector carries the only state in the package, a per-form-id cache
// of share-settings panel detection.
//
// The matrix and the row gate are deliberately separate decisions: the
// matrix governs whether the user may use a form at all (and bulk
// operations), while the gate governs whether one fetched row is shown in a
// filtered list. Callers compose them; conflating the two would hide rows
// from users who hold read_own plus a group-granted read_all.
package access
