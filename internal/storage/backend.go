package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend names accepted by New.
const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// New returns an unopened storage for the named backend. dsn is a MongoDB
// connection URI or a SQLite file path.
func New(backend, dsn string) (Storage, error) {
	switch backend {
	case BackendMongo, "mongodb":
		return NewMongoStorage(dsn), nil
	case BackendSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		return NewSQLiteStorage(dsn), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// OpenAndMigrate opens s and brings its schema up to date.
func OpenAndMigrate(s Storage) error {
	if err := s.Open(); err != nil {
		return err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
