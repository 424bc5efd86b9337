package postgres

import (
	"context"
	"errors"
	"net"
	"net/url"
	"regexp"
	"syscall"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/taskcollab-setup/internal/config"
	"github.com/AI2HU/taskcollab-setup/internal/db"
)

func testConfig() *config.Config {
	return &config.Config{
		Driver:         "postgres",
		User:           "postgres",
		Password:       "p@ss word",
		Host:           "localhost",
		Port:           5432,
		Database:       "task_collaboration",
		SSLMode:        "disable",
		ConnectTimeout: 1500 * time.Millisecond,
	}
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{"postgres", "PostgreSQL", "pg"} {
		d, err := db.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, "postgres", d.Name())
	}
	assert.True(t, db.DriverRegistered(New().DriverName()))
}

func TestAdminDSN(t *testing.T) {
	dsn, err := New().AdminDSN(testConfig())
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "localhost:5432", u.Host)
	assert.Equal(t, "/postgres", u.Path)
	assert.Equal(t, "postgres", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pw)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "2", u.Query().Get("connect_timeout"))
}

func TestAdminDSNOverride(t *testing.T) {
	cfg := testConfig()
	cfg.AdminDatabase = "template1"

	dsn, err := New().AdminDSN(cfg)
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "/template1", u.Path)
}

func TestExists(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer mockDB.Close()

	query := regexp.QuoteMeta("SELECT 1 FROM pg_database WHERE datname = $1")
	p := New()
	cfg := testConfig()

	// Test Case 1: database exists
	mock.ExpectQuery(query).WithArgs("task_collaboration").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := p.Exists(context.Background(), mockDB, cfg)
	assert.NoError(t, err)
	assert.True(t, exists)

	// Test Case 2: database does not exist
	mock.ExpectQuery(query).WithArgs("task_collaboration").WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = p.Exists(context.Background(), mockDB, cfg)
	assert.NoError(t, err)
	assert.False(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAndDropQuoteIdentifier(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	cfg := testConfig()
	cfg.Database = `odd"name`

	mock.ExpectExec(regexp.QuoteMeta(`DROP DATABASE "odd""name"`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE DATABASE "odd""name"`)).WillReturnResult(sqlmock.NewResult(0, 0))

	p := New()
	require.NoError(t, p.Drop(context.Background(), mockDB, cfg))
	require.NoError(t, p.Create(context.Background(), mockDB, cfg))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWrapsServerError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	denied := &pq.Error{Code: "42501", Message: "permission denied to create database"}
	mock.ExpectExec(regexp.QuoteMeta(`CREATE DATABASE "task_collaboration"`)).WillReturnError(denied)

	p := New()
	err = p.Create(context.Background(), mockDB, testConfig())
	require.Error(t, err)
	assert.True(t, p.IsServerError(err))
	assert.False(t, p.IsConnectivityError(err))
	assert.Contains(t, err.Error(), "permission denied")
}

func TestErrorClassification(t *testing.T) {
	p := New()

	tests := []struct {
		name         string
		err          error
		server       bool
		connectivity bool
	}{
		{"auth failed", &pq.Error{Code: "28P01"}, true, true},
		{"connection failure", &pq.Error{Code: "08006"}, true, true},
		{"too many connections", &pq.Error{Code: "53300"}, true, true},
		{"starting up", &pq.Error{Code: "57P03"}, true, true},
		{"duplicate database", &pq.Error{Code: "42P04"}, true, false},
		{"in use", &pq.Error{Code: "55006"}, true, false},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, false, true},
		{"ssl", pq.ErrSSLNotSupported, false, true},
		{"other", errors.New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.server, p.IsServerError(tt.err))
			assert.Equal(t, tt.connectivity, p.IsConnectivityError(tt.err))
		})
	}
}
