// Package store provides SQLite-backed storage for transpile runs and their
// dispatch traces.
//
// Tables:
//   - runs: one row per Transpile call (language, canonical input tree,
//     context data, output or error)
//   - dispatch_events: the ordered handler invocations of a run
//
// # Ordering
//
// Events are ordered by their logical seq, never by wall-clock time, and
// runs by ID with COLLATE BINARY. Run IDs are UUIDv7 in production, so ID
// order is creation order.
//
// # Schema
//
// schema.sql is embedded and applied on every Open. Later changes are
// numbered migrations tracked in PRAGMA user_version; an older database is
// upgraded in place.
//
// Trees and data are stored as canonical JSON, so identical inputs always
// produce identical rows and hashes.
package store
