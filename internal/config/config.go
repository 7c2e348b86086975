package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"proposals/internal/layout"
	"proposals/internal/reflow"
)

const appName = "proposals"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongo"
)

type Config struct {
	DataDir string          `yaml:"dataDir"`
	Store   StoreConfig     `yaml:"store"`
	Page    layout.Geometry `yaml:"page"`
	Style   layout.Style    `yaml:"style"`
	Reflow  ReflowConfig    `yaml:"reflow"`
	Backup  BackupConfig    `yaml:"backup"`
	Editor  string          `yaml:"editor"`
}

// StoreConfig selects where proposals are persisted. SQLite needs nothing
// but the data dir; the shared backends take either a URI or host fields.
// The password is never read from the file.
type StoreConfig struct {
	Driver   string `yaml:"driver"`
	URI      string `yaml:"uri"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	SSLMode  string `yaml:"sslMode"`
	Password string `yaml:"-"`
}

type ReflowConfig struct {
	Tolerance   float64       `yaml:"tolerance"`
	SettleDelay time.Duration `yaml:"settleDelay"`
	MaxSteps    int           `yaml:"maxSteps"`
}

// BackupConfig drives scheduled JSON snapshots. An empty schedule disables them.
type BackupConfig struct {
	Schedule string `yaml:"schedule"`
	Keep     int    `yaml:"keep"`
	Dir      string `yaml:"dir"`
}

func Default() Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", appName)
	return Config{
		DataDir: dataDir,
		Store:   StoreConfig{Driver: DriverSQLite},
		Page:    layout.A4(),
		Style:   layout.DefaultStyle(),
		Reflow:  ReflowConfig{Tolerance: reflow.DefaultTolerance, SettleDelay: 150 * time.Millisecond},
		Backup:  BackupConfig{Schedule: "@every 30m", Keep: 20},
		Editor:  "nvim",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/proposals/config.yaml or its platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		dir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(dir, appName, "config.yaml")
}

// Load reads the config file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"PROPOSALS_DATA_DIR":        &c.DataDir,
		"PROPOSALS_STORE_DRIVER":    &c.Store.Driver,
		"PROPOSALS_STORE_URI":       &c.Store.URI,
		"PROPOSALS_STORE_HOST":      &c.Store.Host,
		"PROPOSALS_STORE_DATABASE":  &c.Store.Database,
		"PROPOSALS_STORE_USER":      &c.Store.Username,
		"PROPOSALS_STORE_PASSWORD":  &c.Store.Password,
		"PROPOSALS_BACKUP_SCHEDULE": &c.Backup.Schedule,
		"EDITOR":                    &c.Editor,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("PROPOSALS_STORE_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PROPOSALS_STORE_PORT: %w", err)
		}
		c.Store.Port = port
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverPostgres, DriverMySQL, DriverMongo:
		if c.Store.URI == "" && c.Store.Host == "" {
			return fmt.Errorf("store %s: uri or host is required", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.DataDir == "" {
		return errors.New("dataDir is required")
	}
	if c.Reflow.Tolerance < 0 {
		return errors.New("reflow.tolerance must not be negative")
	}
	if c.Page.Capacity(false) <= 0 || c.Page.ContentWidth() <= 0 {
		return errors.New("page geometry leaves no content area")
	}
	return nil
}

func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, appName+".db")
}

// EditDir holds the page files opened in the external editor.
func (c Config) EditDir() string {
	return filepath.Join(c.DataDir, "pages")
}

func (c Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return filepath.Join(c.DataDir, "backups")
}
