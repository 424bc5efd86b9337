package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/taskcollab-setup/internal/config"
)

type fakeDialect struct{}

func (fakeDialect) Name() string { return "fake" }
func (fakeDialect) DriverName() string { return "fake-driver" }
func (fakeDialect) AdminDSN(*config.Config) (string, error) { return "fake://", nil }
func (fakeDialect) IsServerError(error) bool { return false }
func (fakeDialect) IsConnectivityError(err error) bool { return IsNetworkError(err) }
func (fakeDialect) Create(context.Context, Conn, *config.Config) error { return nil }
func (fakeDialect) Drop(context.Context, Conn, *config.Config) error { return nil }
func (fakeDialect) Exists(context.Context, Conn, *config.Config) (bool, error) {
	return false, nil
}

func init() {
	Register(fakeDialect{}, "Fake-Alias")
}

func TestLookup(t *testing.T) {
	d, err := Lookup("fake")
	require.NoError(t, err)
	assert.Equal(t, "fake", d.Name())

	d, err = Lookup("  FAKE-alias ")
	require.NoError(t, err)
	assert.Equal(t, "fake", d.Name())

	_, err = Lookup("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver: oracle")
	assert.Contains(t, err.Error(), "fake")
}

func TestNamesAreCanonical(t *testing.T) {
	assert.Contains(t, Names(), "fake")
	assert.NotContains(t, Names(), "fake-alias")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() { Register(fakeDialect{}) })
}

func TestDriverRegistered(t *testing.T) {
	assert.False(t, DriverRegistered("fake-driver"))
}

func TestIsNetworkError(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	assert.True(t, IsNetworkError(refused))
	assert.True(t, IsNetworkError(fmt.Errorf("connect: %w", refused)))
	assert.True(t, IsNetworkError(driver.ErrBadConn))
	assert.True(t, IsNetworkError(context.DeadlineExceeded))
	assert.True(t, IsNetworkError(&net.DNSError{Err: "no such host", Name: "db.invalid", IsNotFound: true}))
	assert.False(t, IsNetworkError(errors.New("syntax error")))
	assert.False(t, IsNetworkError(nil))
}

func TestFilesystemErrorsAreNotNetworkErrors(t *testing.T) {
	for _, errno := range []syscall.Errno{syscall.ENOENT, syscall.ENOTDIR, syscall.EACCES, syscall.ENOSPC} {
		pathErr := &fs.PathError{Op: "stat", Path: "/data/app.db", Err: errno}
		assert.False(t, IsNetworkError(pathErr), "errno %v", errno)
		assert.False(t, IsNetworkError(fmt.Errorf("failed to stat database file: %w", pathErr)), "errno %v", errno)
	}
	assert.False(t, IsNetworkError(syscall.ENOENT))
}
