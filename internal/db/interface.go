package db

import (
	"context"
	"database/sql"

	"github.com/AI2HU/taskcollab-setup/internal/config"
)

// Conn is the part of *sql.Conn a dialect needs. Statements issued through it
// run outside any transaction, so each one takes effect immediately.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect defines the server-level operations needed to provision a database
type Dialect interface {
	// Name is the canonical dialect name, e.g. "postgres"
	Name() string
	// DriverName is the database/sql driver the dialect connects through
	DriverName() string
	// AdminDSN builds a DSN for the server's administrative database,
	// never the target database itself.
	AdminDSN(cfg *config.Config) (string, error)

	Exists(ctx context.Context, conn Conn, cfg *config.Config) (bool, error)
	Create(ctx context.Context, conn Conn, cfg *config.Config) error
	Drop(ctx context.Context, conn Conn, cfg *config.Config) error

	// IsServerError reports whether err was raised by the server while
	// executing a statement
	IsServerError(err error) bool
	// IsConnectivityError reports whether err means the server could not be
	// reached or refused the session
	IsConnectivityError(err error) bool
}
