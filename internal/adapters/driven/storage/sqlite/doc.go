// Package sqlite provides a SQLite-based implementation of the favorite and
// panel state stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Both stores share one database connection:
//
//   - FavoriteStore: saved searches per model, private or shared
//   - StateStore: exported panel state per view, restored on the next run
//
// # Schema
//
// The schema is managed by goose migrations embedded from the migrations/
// directory. Each file holds its Up and Down sections.
//
// # Data Location
//
// By default, the database is stored at ~/.cpanel/data/cpanel.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite locking in WAL
// mode.
package sqlite
