package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration keys understood by the viper instance returned by NewViper
const (
	KeyDriver         = "driver"
	KeyUser           = "user"
	KeyPassword       = "password"
	KeyHost           = "host"
	KeyPort           = "port"
	KeyDatabase       = "database"
	KeySSLMode        = "sslmode"
	KeyAdminDatabase  = "admin_database"
	KeyConnectTimeout = "connect_timeout"
	KeyDataDir        = "data_dir"
	KeyLogLevel       = "log_level"
)

// DefaultEnvFile is the env file expected in the working directory
const DefaultEnvFile = ".env"

// Config represents the connection settings of a provisioning run.
// It is built once at startup and never mutated afterwards.
type Config struct {
	Driver         string        `yaml:"driver"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port,omitempty"`
	Database       string        `yaml:"database"`
	SSLMode        string        `yaml:"sslmode,omitempty"`
	AdminDatabase  string        `yaml:"admin_database,omitempty"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	DataDir        string        `yaml:"data_dir,omitempty"`
}

// envBindings maps each key to the environment variables consulted for it,
// in order of precedence. The PG* names keep existing .env files working.
var envBindings = map[string][]string{
	KeyDriver:         {"DB_DRIVER"},
	KeyUser:           {"DB_USER", "PGUSER"},
	KeyPassword:       {"DB_PASSWORD", "PGPASSWORD"},
	KeyHost:           {"DB_HOST", "PGHOST"},
	KeyPort:           {"DB_PORT", "PGPORT"},
	KeyDatabase:       {"DB_NAME", "PGDATABASE"},
	KeySSLMode:        {"DB_SSLMODE", "PGSSLMODE"},
	KeyAdminDatabase:  {"DB_ADMIN_DATABASE"},
	KeyConnectTimeout: {"DB_CONNECT_TIMEOUT"},
	KeyDataDir:        {"SQLITE_DIR"},
	KeyLogLevel:       {"LOG_LEVEL"},
}

var defaultPorts = map[string]int{
	"postgres": 5432,
	"mysql":    3306,
}

// NewViper returns a viper instance with defaults and environment bindings set
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyDriver, "postgres")
	v.SetDefault(KeyUser, "postgres")
	v.SetDefault(KeyPassword, "postgres")
	v.SetDefault(KeyHost, "localhost")
	v.SetDefault(KeyDatabase, "task_collaboration")
	v.SetDefault(KeySSLMode, "disable")
	v.SetDefault(KeyConnectTimeout, "10s")
	v.SetDefault(KeyDataDir, ".")
	v.SetDefault(KeyLogLevel, "WARNING")

	for key, envs := range envBindings {
		// BindEnv only fails when called without a key
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	return v
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set are left untouched.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s file not found: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Load resolves a Config from v and validates it
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Driver:        strings.ToLower(strings.TrimSpace(v.GetString(KeyDriver))),
		User:          v.GetString(KeyUser),
		Password:      v.GetString(KeyPassword),
		Host:          v.GetString(KeyHost),
		Database:      v.GetString(KeyDatabase),
		SSLMode:       v.GetString(KeySSLMode),
		AdminDatabase: v.GetString(KeyAdminDatabase),
		DataDir:       v.GetString(KeyDataDir),
	}

	port, err := parsePort(v.GetString(KeyPort), cfg.Driver)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	timeout, err := parseTimeout(v.GetString(KeyConnectTimeout))
	if err != nil {
		return nil, err
	}
	cfg.ConnectTimeout = timeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be used to connect
func (c *Config) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("database driver is required")
	}
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database name is required")
	}
	if strings.ContainsRune(c.Database, 0) {
		return fmt.Errorf("database name contains a NUL byte")
	}
	if _, networked := defaultPorts[c.Driver]; networked {
		if c.Host == "" {
			return fmt.Errorf("database host is required for %s", c.Driver)
		}
		if c.Port < 1 || c.Port > 65535 {
			return fmt.Errorf("invalid port %d (must be between 1 and 65535)", c.Port)
		}
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive, got %s", c.ConnectTimeout)
	}
	return nil
}

// Address returns host:port for display
func (c *Config) Address() string {
	if c.Port == 0 {
		return c.Host
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Redacted returns a copy of the configuration with the password masked
func (c Config) Redacted() Config {
	if c.Password == "" {
		c.Password = "(not set)"
	} else {
		c.Password = "***"
	}
	return c
}

// YAML renders the redacted configuration
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func parsePort(raw, driver string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultPorts[driver], nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid port: %s (enter a positive integer)", raw)
	}
	return port, nil
}

// parseTimeout accepts a Go duration ("15s") or a plain number of seconds
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid connect timeout: %s", raw)
	}
	return d, nil
}
