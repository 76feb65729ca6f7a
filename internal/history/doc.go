// Package history persists one record per export run in SQLite.
//
// The export controller opens a record when a run starts validating and
// closes it when the run reaches a terminal state, so completed, failed, and
// cancelled runs stay distinguishable after the process exits. The CLI lists,
// shows, and clears records.
//
// Schema changes bump schemaVersion in schema.go; an older database is
// rejected with ErrSchemaMismatch and must be cleared.
package history
