// Package sqlite provides a SQLite-based implementation of the fragment and
// scheduler store ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both stores share one database:
//
//   - FragmentStore: Fragment persistence, cascade deletes and ranking
//   - SchedulerStore: Poll task state and run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// (document_path, start_line, end_line) is unique and parent_id is a foreign
// key with ON DELETE CASCADE; triggers keep parents inside their document.
//
// # Data Location
//
// By default, the database is stored at ~/.synindex/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode, so searches can read while the indexer writes.
package sqlite
