// Package platform defines the contract between the access engine and the
// form platform's record API.
//
// The engine consumes roles, form definitions, submissions and view events
// from an externally-defined JSON shape; this package holds the Go types for
// that shape, the Client interface the engine calls through, and the
// normalization helpers that flatten the API's variant encodings (bare id
// strings vs objects carrying an "_id" field, single rule objects vs rule
// lists) into the single forms the rest of the engine works with.
//
// Nothing in this package performs I/O. Implementations of Client live with
// the host application; tests use in-memory fakes.
package platform
