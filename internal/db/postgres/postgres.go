package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/AI2HU/taskcollab-setup/internal/config"
	"github.com/AI2HU/taskcollab-setup/internal/db"
)

// DefaultAdminDatabase is the bookkeeping database every PostgreSQL server ships with
const DefaultAdminDatabase = "postgres"

const existsQuery = "SELECT 1 FROM pg_database WHERE datname = $1"

// Postgres implements db.Dialect for PostgreSQL through lib/pq
type Postgres struct{}

func init() {
	db.Register(New(), "postgresql", "pg")
}

// New creates a new PostgreSQL dialect
func New() *Postgres {
	return &Postgres{}
}

func (p *Postgres) Name() string       { return "postgres" }
func (p *Postgres) DriverName() string { return "postgres" }

// AdminDSN builds a postgres:// URL pointing at the administrative database
func (p *Postgres) AdminDSN(cfg *config.Config) (string, error) {
	admin := cfg.AdminDatabase
	if admin == "" {
		admin = DefaultAdminDatabase
	}

	query := url.Values{}
	if cfg.SSLMode != "" {
		query.Set("sslmode", cfg.SSLMode)
	}
	if cfg.ConnectTimeout > 0 {
		// connect_timeout has whole-second resolution
		secs := (cfg.ConnectTimeout + time.Second - 1) / time.Second
		query.Set("connect_timeout", strconv.FormatInt(int64(secs), 10))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + admin,
		RawQuery: query.Encode(),
	}
	return u.String(), nil
}

// Exists checks pg_database for the target name
func (p *Postgres) Exists(ctx context.Context, conn db.Conn, cfg *config.Config) (bool, error) {
	var one int
	err := conn.QueryRowContext(ctx, existsQuery, cfg.Database).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query pg_database: %w", err)
	}
	return true, nil
}

// Create issues CREATE DATABASE for the target name
func (p *Postgres) Create(ctx context.Context, conn db.Conn, cfg *config.Config) error {
	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(cfg.Database)); err != nil {
		return fmt.Errorf("failed to create database %q: %w", cfg.Database, err)
	}
	return nil
}

// Drop issues DROP DATABASE for the target name
func (p *Postgres) Drop(ctx context.Context, conn db.Conn, cfg *config.Config) error {
	if _, err := conn.ExecContext(ctx, "DROP DATABASE "+pq.QuoteIdentifier(cfg.Database)); err != nil {
		return fmt.Errorf("failed to drop database %q: %w", cfg.Database, err)
	}
	return nil
}

func (p *Postgres) IsServerError(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr)
}

// IsConnectivityError covers transport failures plus the SQLSTATEs a server
// reports when it refuses a session: connection exceptions (08), invalid
// authorization (28), too many connections and shutdown/startup states.
func (p *Postgres) IsConnectivityError(err error) bool {
	if db.IsNetworkError(err) || errors.Is(err, pq.ErrSSLNotSupported) {
		return true
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code.Class() {
	case "08", "28":
		return true
	}
	switch pqErr.Code {
	case "53300", "57P01", "57P02", "57P03":
		return true
	}
	return false
}
