// Package observability provides Prometheus metrics for the access engine.
//
// Badge and permission failures are cosmetic, so metrics are the
// primary way to notice degraded behavior (count fetch failures, ledger
// write errors, cache churn) in production. Components accept a *Metrics
// that may be nil; a nil receiver turns every record helper into a no-op.
package observability
