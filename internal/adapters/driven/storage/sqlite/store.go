package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/cpanel/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/cpanel/internal/core/ports/driven"
	"github.com/custodia-labs/cpanel/internal/logger"
)

// DatabaseFile is the name of the database inside the data directory.
const DatabaseFile = "cpanel.db"

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// Store is a SQLite database holding favorites and saved panel states.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (and migrates) the database in dataDir.
// If dataDir is empty, defaults to ~/.cpanel/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".cpanel", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// FavoriteStore returns a FavoriteStore backed by this store.
func (s *Store) FavoriteStore() driven.FavoriteStore {
	return &favoriteStore{store: s}
}

// StateStore returns a StateStore backed by this store.
func (s *Store) StateStore() driven.StateStore {
	return &stateStore{store: s}
}

// Version returns the applied schema version.
func (s *Store) Version(ctx context.Context) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, s.db)
}

func (s *Store) migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// gooseLogger routes migration output to the verbose log.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	logger.Debug("sqlite: "+format, v...)
}

func (gooseLogger) Fatalf(format string, v ...any) {
	logger.Error("sqlite: "+format, v...)
}
