package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AI2HU/taskcollab-setup/internal/config"
	"github.com/AI2HU/taskcollab-setup/internal/db"
	_ "github.com/AI2HU/taskcollab-setup/internal/db/mysql"
	_ "github.com/AI2HU/taskcollab-setup/internal/db/postgres"
	_ "github.com/AI2HU/taskcollab-setup/internal/db/sqlite"
	"github.com/AI2HU/taskcollab-setup/internal/logger"
	"github.com/AI2HU/taskcollab-setup/internal/provision"
)

var version = "dev"

// SetVersion sets the version reported by --version
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// session holds what one invocation resolves before a command runs
type session struct {
	in      io.Reader
	out     io.Writer
	opener  provision.Opener
	v       *viper.Viper
	envFile string

	cfg     *config.Config
	dialect db.Dialect
}

// newProvisioner builds a provisioner that prompts on the session's terminal
func (s *session) newProvisioner() *provision.Provisioner {
	opts := []provision.Option{provision.WithOutput(s.out)}
	if s.opener != nil {
		opts = append(opts, provision.WithOpener(s.opener))
	}
	return provision.New(s.cfg, s.dialect, newTerminalConfirmer(s.in, s.out), opts...)
}

// newRootCmd represents the base command. It provisions the database when
// run without a subcommand.
func newRootCmd(in io.Reader, out io.Writer, opener provision.Opener) *cobra.Command {
	s := &session{
		in:     in,
		out:    out,
		opener: opener,
		v:      config.NewViper(),
	}

	rootCmd := &cobra.Command{
		Use:   "taskcollab-setup",
		Short: "Create the Task Collaboration Platform database",
		Long: `taskcollab-setup creates the database used by the Task Collaboration Platform.

Connection settings are read from a .env file in the working directory and the
process environment (PGUSER, PGPASSWORD, PGHOST, PGPORT, PGDATABASE or their
DB_* equivalents). If the database already exists you are asked whether to drop
and recreate it; answering anything but yes keeps it.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.prepare()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context(), s)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&s.envFile, "env-file", config.DefaultEnvFile, "env file with connection settings")
	flags.String("driver", "", "database driver (postgres, mysql, sqlite)")
	flags.String("host", "", "database server host")
	flags.String("port", "", "database server port")
	flags.String("user", "", "database user")
	flags.String("database", "", "name of the database to provision")
	flags.String("timeout", "", "connect timeout, e.g. 10s")
	flags.String("log-level", "", "log level (debug, info, warning, error)")

	bindings := map[string]string{
		config.KeyDriver:         "driver",
		config.KeyHost:           "host",
		config.KeyPort:           "port",
		config.KeyUser:           "user",
		config.KeyDatabase:       "database",
		config.KeyConnectTimeout: "timeout",
		config.KeyLogLevel:       "log-level",
	}
	for key, flag := range bindings {
		// BindPFlag only fails for a nil flag
		_ = s.v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.SetIn(in)
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)

	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(newStatusCmd(s))
	rootCmd.AddCommand(newConfigCmd(s))

	return rootCmd
}

// prepare runs the prerequisite checks in order: env file, driver, configuration.
// Nothing here touches the network.
func (s *session) prepare() error {
	setColorOutput(s.out)

	if err := config.LoadEnvFile(s.envFile); err != nil {
		return &provision.Error{
			Kind: provision.KindPrerequisite,
			Op:   "load environment",
			Err:  err,
			Hint: fmt.Sprintf("Create a %s file with your database credentials", s.envFile),
		}
	}

	logger.Init(logger.ParseLogLevel(s.v.GetString(config.KeyLogLevel)), os.Stderr)
	logger.Debug("loaded environment from %s", s.envFile)

	dialect, err := db.Lookup(s.v.GetString(config.KeyDriver))
	if err != nil {
		return &provision.Error{
			Kind: provision.KindPrerequisite,
			Op:   "select driver",
			Err:  err,
			Hint: fmt.Sprintf("Set DB_DRIVER to one of: %s", strings.Join(db.Names(), ", ")),
		}
	}
	if !db.DriverRegistered(dialect.DriverName()) {
		return &provision.Error{
			Kind: provision.KindPrerequisite,
			Op:   "select driver",
			Err:  fmt.Errorf("database driver %q is not linked into this binary", dialect.DriverName()),
			Hint: "Rebuild taskcollab-setup with the driver enabled",
		}
	}

	cfg, err := config.Load(s.v)
	if err != nil {
		return &provision.Error{
			Kind: provision.KindPrerequisite,
			Op:   "load configuration",
			Err:  err,
			Hint: fmt.Sprintf("Check the values in %s", s.envFile),
		}
	}

	s.cfg = cfg
	s.dialect = dialect
	return nil
}

// Execute runs the root command and reports any failure
func Execute() error {
	return execute(os.Stdin, os.Stdout, nil, os.Args[1:])
}

func execute(in io.Reader, out io.Writer, opener provision.Opener, args []string) error {
	rootCmd := newRootCmd(in, out, opener)
	// cobra falls back to os.Args when given nil
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err != nil {
		reportError(out, err)
	}
	return err
}

// ExitCode maps a run result onto the process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
