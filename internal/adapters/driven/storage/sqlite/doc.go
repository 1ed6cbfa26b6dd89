// Package sqlite persists the vector index in a single SQLite file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// The index is one metadata row plus one row per entry, with vectors stored as
// little-endian float32 blobs.
//
// # Data Location
//
// By default, the database is stored at ./vector_store/index.db
//
// # Replacement
//
// Save replaces the whole index inside one transaction, so a reader never
// observes a mix of old and new entries. A file that is not a readable
// SQLite database is moved aside on open and treated as absent.
package sqlite
