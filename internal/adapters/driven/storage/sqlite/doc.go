// Package sqlite provides a SQLite-backed registry store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. The registry
// snapshot is stored normalised across two tables (stores, documents);
// Load and Save operate on the whole snapshot at once, matching the
// write-through persistence model of the registry service.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory.
//
// # Data Location
//
// By default, the database is stored at ~/.docask/data/registry.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
