// Package session owns the per-login state of the access engine.
//
// The role cache, viewed set, share-panel cache and badge counts are
// singletons scoped to the logged-in session. Session wires them behind one
// object with an explicit lifecycle, so logout resets everything in one
// place and nothing leaks across sessions or tests.
package session
