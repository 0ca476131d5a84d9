package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when HEFESTOS_CONFIG is unset.
const DefaultPath = "config/database.yaml"

// Config is the root configuration structure.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig describes the default connection.
type DatabaseConfig struct {
	// Driver selects the address template: "mysql", "pgsql" or "sqlite".
	Driver string `yaml:"driver"`

	// Host, Port and Name are used by network drivers.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	Name string `yaml:"name"`

	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// SQLite is the database file used by the sqlite driver.
	SQLite string `yaml:"sqlite"`

	// Testing swaps the configured database for TestingSQLite, so test
	// runs never touch the real database.
	Testing       bool   `yaml:"testing"`
	TestingSQLite string `yaml:"testing_sqlite"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HEFESTOS_SECTION_KEY
// For example: HEFESTOS_DB_HOST, HEFESTOS_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Path returns the configuration file path from HEFESTOS_CONFIG, falling
// back to DefaultPath.
func Path() string {
	if v := os.Getenv("HEFESTOS_CONFIG"); v != "" {
		return v
	}
	return DefaultPath
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:        "sqlite",
			Host:          "localhost",
			SQLite:        "./data/database.sqlite",
			TestingSQLite: "./data/testing.sqlite",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HEFESTOS_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("HEFESTOS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("HEFESTOS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("HEFESTOS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("HEFESTOS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("HEFESTOS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("HEFESTOS_DB_SQLITE"); v != "" {
		cfg.Database.SQLite = v
	}
	if v := os.Getenv("HEFESTOS_TESTING"); v != "" {
		cfg.Database.Testing, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("HEFESTOS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Database.Driver) {
	case "mysql", "pgsql":
		if c.Database.Name == "" {
			errs = append(errs, "database.name is required for network drivers")
		}
		if c.Database.Port < 0 || c.Database.Port > 65535 {
			errs = append(errs, "database.port must be between 0 and 65535")
		}
	case "sqlite":
		if c.Database.SQLite == "" && !c.Database.Testing {
			errs = append(errs, "database.sqlite is required for the sqlite driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not one of mysql, pgsql, sqlite", c.Database.Driver))
	}

	if c.Database.Testing && c.Database.TestingSQLite == "" {
		errs = append(errs, "database.testing_sqlite is required when testing is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Address renders the driver address template for the configured database.
// When Testing is set the testing SQLite file is used instead.
func (d DatabaseConfig) Address() string {
	if d.Testing {
		return "sqlite:" + d.TestingSQLite
	}

	switch strings.ToLower(d.Driver) {
	case "mysql", "pgsql":
		addr := strings.ToLower(d.Driver) + ":host=" + d.Host
		if d.Port > 0 {
			addr += ";port=" + strconv.Itoa(d.Port)
		}
		return addr + ";dbname=" + d.Name
	default:
		return "sqlite:" + d.SQLite
	}
}
