package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"slices"
	"sort"
	"strings"
	"sync"
)

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]Dialect)
)

// Register makes a dialect available under its name and any aliases.
// It panics on duplicate names, like sql.Register.
func Register(d Dialect, aliases ...string) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()

	for _, name := range append([]string{d.Name()}, aliases...) {
		name = strings.ToLower(name)
		if _, dup := dialects[name]; dup {
			panic("db: Register called twice for dialect " + name)
		}
		dialects[name] = d
	}
}

// Lookup returns the dialect registered under name
func Lookup(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()

	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s (available: %s)", name, strings.Join(namesLocked(), ", "))
	}
	return d, nil
}

// Names returns the canonical names of all registered dialects
func Names() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	seen := make(map[string]bool)
	var names []string
	for _, d := range dialects {
		if !seen[d.Name()] {
			seen[d.Name()] = true
			names = append(names, d.Name())
		}
	}
	sort.Strings(names)
	return names
}

// DriverRegistered reports whether a database/sql driver is linked into the binary
func DriverRegistered(driverName string) bool {
	return slices.Contains(sql.Drivers(), driverName)
}

// IsNetworkError reports transport-level failures shared by all drivers:
// dial and read errors, broken connections and expired deadlines.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// net.Error would also match a bare syscall.Errno, so only socket errors count
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
