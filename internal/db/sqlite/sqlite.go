package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/AI2HU/taskcollab-setup/internal/config"
	"github.com/AI2HU/taskcollab-setup/internal/db"
	"github.com/AI2HU/taskcollab-setup/internal/logger"
)

// attachedSchema is the alias the target file is attached under while it is created
const attachedSchema = "provisioned"

// SQLite implements db.Dialect for file databases. The data directory plays
// the role of the server; the administrative connection is in-memory.
type SQLite struct{}

func init() {
	db.Register(New(), "sqlite3")
}

// New creates a new SQLite dialect
func New() *SQLite {
	return &SQLite{}
}

func (s *SQLite) Name() string       { return "sqlite" }
func (s *SQLite) DriverName() string { return "sqlite3" }

func (s *SQLite) AdminDSN(cfg *config.Config) (string, error) {
	if cfg.AdminDatabase != "" {
		return cfg.AdminDatabase, nil
	}
	return ":memory:", nil
}

// Path returns the file backing the target database. A bare name gets a .db
// extension and is placed in the data directory.
func Path(cfg *config.Config) string {
	name := cfg.Database
	if filepath.Ext(name) == "" {
		name += ".db"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(cfg.DataDir, name)
}

func (s *SQLite) Exists(ctx context.Context, conn db.Conn, cfg *config.Config) (bool, error) {
	info, err := os.Stat(Path(cfg))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat database file: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("database path %s is a directory", Path(cfg))
	}
	return true, nil
}

// Create attaches the target file to the admin connection and writes to it,
// which makes SQLite lay down the file header.
func (s *SQLite) Create(ctx context.Context, conn db.Conn, cfg *config.Config) error {
	path := Path(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "ATTACH DATABASE ? AS "+attachedSchema, path); err != nil {
		return fmt.Errorf("failed to create database %q: %w", cfg.Database, err)
	}
	defer func() {
		if _, err := conn.ExecContext(ctx, "DETACH DATABASE "+attachedSchema); err != nil {
			logger.Warning("failed to detach %s: %v", path, err)
		}
	}()

	stmts := []string{
		"CREATE TABLE " + attachedSchema + ".provision_init (id INTEGER)",
		"DROP TABLE " + attachedSchema + ".provision_init",
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create database %q: %w", cfg.Database, err)
		}
	}
	return nil
}

// Drop removes the database file along with any journal files
func (s *SQLite) Drop(ctx context.Context, conn db.Conn, cfg *config.Config) error {
	path := Path(cfg)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to drop database %q: %w", cfg.Database, err)
	}
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", path+suffix, err)
		}
	}
	return nil
}

// IsServerError treats engine errors and filesystem refusals as statement failures
func (s *SQLite) IsServerError(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return true
	}
	var pathErr *fs.PathError
	return errors.As(err, &pathErr)
}

// IsConnectivityError only matches transport errors; opening the in-memory
// admin connection is the only step that can fail to "connect".
func (s *SQLite) IsConnectivityError(err error) bool {
	return db.IsNetworkError(err)
}
