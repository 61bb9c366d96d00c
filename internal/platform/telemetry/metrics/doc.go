// Package metrics provides operational metrics collection.
//
// # Metric Categories
//
//   - Hunks: applied, failed (by error code), and reverted counts
//   - Recompute: how often the expensive universe recompute runs
//   - Diffs: the number of currently active diffs
//
// # Integration
//
// Collectors register on a prometheus.Registerer supplied by the caller so
// tests can use an isolated registry. A nil *Metrics records nothing.
package metrics
