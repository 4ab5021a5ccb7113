// Package trace observes dispatch traversals.
//
// A Recorder stamps every engine dispatch with a logical sequence number
// and keeps the ordered events; the store persists them and the harness
// snapshots them as golden files. Metrics exports the same notifications
// as Prometheus counters. Run IDs come from an IDGenerator so tests can
// substitute fixed values.
package trace
