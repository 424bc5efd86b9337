package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/AI2HU/taskcollab-setup/internal/config"
	"github.com/AI2HU/taskcollab-setup/internal/db"
)

const existsQuery = "SELECT 1 FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?"

// server error numbers that mean the session itself was refused
var sessionErrors = map[uint16]bool{
	1040: true, // ER_CON_COUNT_ERROR
	1042: true, // ER_BAD_HOST_ERROR
	1043: true, // ER_HANDSHAKE_ERROR
	1045: true, // ER_ACCESS_DENIED_ERROR
	1129: true, // ER_HOST_IS_BLOCKED
	1130: true, // ER_HOST_NOT_PRIVILEGED
	1251: true, // ER_NOT_SUPPORTED_AUTH_MODE
}

// sslmode values mapped onto the driver's tls parameter
var tlsModes = map[string]string{
	"disable":     "false",
	"prefer":      "preferred",
	"require":     "skip-verify",
	"verify-ca":   "true",
	"verify-full": "true",
}

// MySQL implements db.Dialect for MySQL and MariaDB
type MySQL struct{}

func init() {
	db.Register(New(), "mariadb")
}

// New creates a new MySQL dialect
func New() *MySQL {
	return &MySQL{}
}

func (m *MySQL) Name() string       { return "mysql" }
func (m *MySQL) DriverName() string { return "mysql" }

// AdminDSN connects without selecting a schema unless an admin database is configured
func (m *MySQL) AdminDSN(cfg *config.Config) (string, error) {
	dc := mysql.NewConfig()
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.DBName = cfg.AdminDatabase
	dc.Timeout = cfg.ConnectTimeout

	if cfg.SSLMode != "" {
		tls, ok := tlsModes[strings.ToLower(cfg.SSLMode)]
		if !ok {
			return "", fmt.Errorf("unsupported sslmode for mysql: %s", cfg.SSLMode)
		}
		dc.TLSConfig = tls
	}

	return dc.FormatDSN(), nil
}

// Exists checks information_schema for the target schema
func (m *MySQL) Exists(ctx context.Context, conn db.Conn, cfg *config.Config) (bool, error) {
	var one int
	err := conn.QueryRowContext(ctx, existsQuery, cfg.Database).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query information_schema: %w", err)
	}
	return true, nil
}

// Create issues CREATE DATABASE for the target name
func (m *MySQL) Create(ctx context.Context, conn db.Conn, cfg *config.Config) error {
	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+quoteIdentifier(cfg.Database)); err != nil {
		return fmt.Errorf("failed to create database %q: %w", cfg.Database, err)
	}
	return nil
}

// Drop issues DROP DATABASE for the target name
func (m *MySQL) Drop(ctx context.Context, conn db.Conn, cfg *config.Config) error {
	if _, err := conn.ExecContext(ctx, "DROP DATABASE "+quoteIdentifier(cfg.Database)); err != nil {
		return fmt.Errorf("failed to drop database %q: %w", cfg.Database, err)
	}
	return nil
}

func (m *MySQL) IsServerError(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr)
}

func (m *MySQL) IsConnectivityError(err error) bool {
	if db.IsNetworkError(err) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return sessionErrors[myErr.Number]
	}
	return false
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
