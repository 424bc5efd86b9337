package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/taskcollab-setup/internal/config"
	"github.com/AI2HU/taskcollab-setup/internal/db"
	"github.com/AI2HU/taskcollab-setup/internal/logger"
)

func openAdmin(t *testing.T, cfg *config.Config) *sql.Conn {
	t.Helper()
	s := New()
	dsn, err := s.AdminDSN(cfg)
	require.NoError(t, err)

	pool, err := sql.Open(s.DriverName(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	conn, err := pool.Conn(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Driver:         "sqlite",
		Database:       "task_collaboration",
		DataDir:        filepath.Join(t.TempDir(), "data"),
		ConnectTimeout: time.Second,
	}
}

func TestRegistered(t *testing.T) {
	d, err := db.Lookup("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())
	assert.True(t, db.DriverRegistered(New().DriverName()))
}

func TestPath(t *testing.T) {
	cfg := &config.Config{Database: "boards", DataDir: "/srv/data"}
	assert.Equal(t, "/srv/data/boards.db", Path(cfg))

	cfg.Database = "boards.sqlite"
	assert.Equal(t, "/srv/data/boards.sqlite", Path(cfg))

	cfg.Database = "/tmp/abs.db"
	assert.Equal(t, "/tmp/abs.db", Path(cfg))
}

func TestCreateExistsDrop(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	conn := openAdmin(t, cfg)
	s := New()

	exists, err := s.Exists(ctx, conn, cfg)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Create(ctx, conn, cfg))

	exists, err = s.Exists(ctx, conn, cfg)
	require.NoError(t, err)
	assert.True(t, exists)

	info, err := os.Stat(Path(cfg))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	require.NoError(t, s.Drop(ctx, conn, cfg))

	exists, err = s.Exists(ctx, conn, cfg)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateLeavesNoTables(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	conn := openAdmin(t, cfg)

	require.NoError(t, New().Create(ctx, conn, cfg))

	target, err := sql.Open("sqlite3", Path(cfg))
	require.NoError(t, err)
	defer target.Close()

	var count int
	require.NoError(t, target.QueryRow("SELECT count(*) FROM sqlite_master").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestDropMissingIsServerError(t *testing.T) {
	cfg := testConfig(t)
	s := New()

	err := s.Drop(context.Background(), nil, cfg)
	require.Error(t, err)
	assert.True(t, s.IsServerError(err))
	assert.False(t, s.IsConnectivityError(err))
}

func TestExistsNotADirectoryIsServerError(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, "a.db"), []byte("x"), 0644))
	cfg.Database = "a.db/b.db"
	s := New()

	_, err := s.Exists(context.Background(), nil, cfg)
	require.Error(t, err)
	assert.True(t, s.IsServerError(err))
	assert.False(t, s.IsConnectivityError(err))
}

func TestCreateLogsDetachFailure(t *testing.T) {
	var logs bytes.Buffer
	logger.Init(logger.WARNING, &logs)
	t.Cleanup(func() { logger.Init(logger.WARNING, os.Stderr) })

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer mockDB.Close()

	cfg := testConfig(t)
	mock.ExpectExec(regexp.QuoteMeta("ATTACH DATABASE ? AS provisioned")).WithArgs(Path(cfg)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE provisioned.provision_init (id INTEGER)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE provisioned.provision_init")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DETACH DATABASE provisioned")).WillReturnError(errors.New("database provisioned is locked"))

	require.NoError(t, New().Create(context.Background(), mockDB, cfg))
	assert.Contains(t, logs.String(), "[WARNING] failed to detach")
	assert.Contains(t, logs.String(), "database provisioned is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}
