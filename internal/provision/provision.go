package provision

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/AI2HU/taskcollab-setup/internal/config"
	"github.com/AI2HU/taskcollab-setup/internal/db"
	"github.com/AI2HU/taskcollab-setup/internal/logger"
)

// RecreatePrompt is asked when the target database already exists
const RecreatePrompt = "Do you want to drop and recreate it? (yes/no): "

// Outcome describes what a successful run did
type Outcome int

const (
	OutcomeNone Outcome = iota
	// OutcomeCreated: the database did not exist and was created
	OutcomeCreated
	// OutcomeRecreated: the database existed and was dropped and created again
	OutcomeRecreated
	// OutcomeKept: the database existed and the operator declined to recreate it
	OutcomeKept
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeRecreated:
		return "recreated"
	case OutcomeKept:
		return "kept"
	default:
		return "none"
	}
}

// Confirmer asks the operator whether a destructive step may proceed
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Opener opens a connection pool; sql.Open in production
type Opener func(driverName, dsn string) (*sql.DB, error)

// Provisioner ensures the configured database exists on the server
type Provisioner struct {
	cfg     *config.Config
	dialect db.Dialect
	confirm Confirmer
	open    Opener
	out     io.Writer
}

// Option customizes a Provisioner
type Option func(*Provisioner)

// WithOpener replaces sql.Open
func WithOpener(open Opener) Option {
	return func(p *Provisioner) { p.open = open }
}

// WithOutput sets where progress messages are printed
func WithOutput(w io.Writer) Option {
	return func(p *Provisioner) { p.out = w }
}

// New creates a new Provisioner
func New(cfg *config.Config, dialect db.Dialect, confirm Confirmer, opts ...Option) *Provisioner {
	p := &Provisioner{
		cfg:     cfg,
		dialect: dialect,
		confirm: confirm,
		open:    sql.Open,
		out:     io.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision creates the target database, or recreates it when it exists and
// the operator confirms. Declining leaves it untouched and is not an error.
// The administrative connection is released on every path.
func (p *Provisioner) Provision(ctx context.Context) (Outcome, error) {
	conn, release, err := p.connect(ctx)
	if err != nil {
		return OutcomeNone, err
	}
	defer release()

	exists, err := p.dialect.Exists(ctx, conn, p.cfg)
	if err != nil {
		return OutcomeNone, p.classify("check database", err)
	}
	logger.Debug("database %q exists: %t", p.cfg.Database, exists)

	if !exists {
		if err := p.create(ctx, conn); err != nil {
			return OutcomeNone, err
		}
		return OutcomeCreated, nil
	}

	p.printf("\n⚠️  Database '%s' already exists!\n", p.cfg.Database)
	if p.confirm == nil {
		return OutcomeNone, NewError(KindUnexpected, "confirm", errors.New("no confirmation source configured"))
	}
	ok, err := p.confirm.Confirm(ctx, RecreatePrompt)
	if err != nil {
		return OutcomeNone, NewError(KindUnexpected, "confirm", err)
	}
	if !ok {
		p.printf("\n✅ Using existing database '%s'\n", p.cfg.Database)
		return OutcomeKept, nil
	}

	p.printf("\n🗑️  Dropping database '%s'...\n", p.cfg.Database)
	logger.Debug("issuing %s drop for %q", p.dialect.Name(), p.cfg.Database)
	if err := p.dialect.Drop(ctx, conn, p.cfg); err != nil {
		return OutcomeNone, p.classify("drop database", err)
	}
	p.printf("✅ Database dropped successfully!\n")

	if err := p.create(ctx, conn); err != nil {
		var pe *Error
		if errors.As(err, &pe) && pe.Hint == "" {
			pe.Hint = fmt.Sprintf("Database '%s' was dropped and no longer exists; rerun once the problem is fixed", p.cfg.Database)
		}
		return OutcomeNone, err
	}
	return OutcomeRecreated, nil
}

// Exists only runs the existence check
func (p *Provisioner) Exists(ctx context.Context) (bool, error) {
	conn, release, err := p.connect(ctx)
	if err != nil {
		return false, err
	}
	defer release()

	exists, err := p.dialect.Exists(ctx, conn, p.cfg)
	if err != nil {
		return false, p.classify("check database", err)
	}
	return exists, nil
}

func (p *Provisioner) create(ctx context.Context, conn db.Conn) error {
	p.printf("\n🔨 Creating database '%s'...\n", p.cfg.Database)
	logger.Debug("issuing %s create for %q", p.dialect.Name(), p.cfg.Database)
	if err := p.dialect.Create(ctx, conn, p.cfg); err != nil {
		return p.classify("create database", err)
	}
	p.printf("✅ Database '%s' created successfully!\n", p.cfg.Database)
	return nil
}

// connect opens a single dedicated connection to the administrative database.
// Every failure here is a connectivity failure.
func (p *Provisioner) connect(ctx context.Context) (*sql.Conn, func(), error) {
	dsn, err := p.dialect.AdminDSN(p.cfg)
	if err != nil {
		return nil, nil, NewError(KindPrerequisite, "build connection string", err)
	}

	p.printf("\n📡 Connecting to %s server...\n", p.dialect.Name())
	logger.Debug("opening %s admin connection to %s as %s", p.dialect.Name(), p.cfg.Address(), p.cfg.User)

	pool, err := p.open(p.dialect.DriverName(), dsn)
	if err != nil {
		return nil, nil, NewError(KindConnectivity, "connect", err)
	}
	pool.SetMaxOpenConns(1)

	connectCtx := ctx
	if p.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, p.cfg.ConnectTimeout)
		defer cancel()
	}

	conn, err := pool.Conn(connectCtx)
	if err != nil {
		closePool(pool)
		return nil, nil, NewError(KindConnectivity, "connect", err)
	}
	if err := conn.PingContext(connectCtx); err != nil {
		conn.Close()
		closePool(pool)
		return nil, nil, NewError(KindConnectivity, "connect", err)
	}

	release := func() {
		if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			logger.Warning("failed to release connection: %v", err)
		}
		closePool(pool)
		logger.Debug("admin connection released")
	}
	return conn, release, nil
}

func closePool(pool *sql.DB) {
	if err := pool.Close(); err != nil {
		logger.Warning("failed to close connection pool: %v", err)
	}
}

// classify turns a statement-phase error into a provisioning error
func (p *Provisioner) classify(op string, err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}

	kind := KindUnexpected
	switch {
	case p.dialect.IsConnectivityError(err):
		kind = KindConnectivity
	case p.dialect.IsServerError(err):
		kind = KindStatement
	}
	logger.Debug("%s failed (%s): %v", op, kind, err)
	return NewError(kind, op, err)
}

func (p *Provisioner) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}
