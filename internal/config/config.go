package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. EVENTCAL_LISTEN.
const EnvPrefix = "EVENTCAL_"

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
	StorageRemote = "remote"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
// Auth is enabled when Username is set.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username" env:"USERNAME"`
	Password string `yaml:"password" json:"password" env:"PASSWORD"`
}

// Enabled reports whether credentials are configured.
func (b BasicAuthConfig) Enabled() bool {
	return b.Username != ""
}

// CaptureConfig controls the headless browser snapshot of the calendar page.
type CaptureConfig struct {
	// URL is the page to capture. Empty means the local /calendar page.
	URL            string `yaml:"url" json:"url" env:"URL"`
	Output         string `yaml:"output" json:"output" env:"OUTPUT"`
	Width          int    `yaml:"width" json:"width" env:"WIDTH"`
	Height         int    `yaml:"height" json:"height" env:"HEIGHT"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen" env:"LISTEN"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`

	// Timezone is the IANA zone naive event times are read in when
	// notifications are due and when foreign calendars are imported.
	Timezone string `yaml:"timezone" json:"timezone" env:"TIMEZONE"`

	// Storage selects the persistence collaborator: sqlite, memory or remote.
	Storage   string `yaml:"storage" json:"storage" env:"STORAGE"`
	DBPath    string `yaml:"db_path" json:"db_path" env:"DB_PATH"`
	RemoteURL string `yaml:"remote_url" json:"remote_url" env:"REMOTE_URL"`

	// RequestTimeoutSeconds bounds each persistence round trip.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" json:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS"`

	// NotifySchedule is a cron spec or descriptor for the alert poller.
	NotifySchedule string `yaml:"notify_schedule" json:"notify_schedule" env:"NOTIFY_SCHEDULE"`

	// MaxOccurrences caps the instances created for one repeating event.
	MaxOccurrences int `yaml:"max_occurrences" json:"max_occurrences" env:"MAX_OCCURRENCES"`

	// Holidays maps YYYY-MM-DD to the holiday name shown in the grid.
	Holidays map[string]string `yaml:"holidays" json:"holidays"`

	BasicAuth BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty" envPrefix:"BASIC_AUTH_"`
	Capture   CaptureConfig   `yaml:"capture" json:"capture" envPrefix:"CAPTURE_"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                "127.0.0.1:8080",
		LogLevel:              "info",
		Timezone:              "Asia/Seoul",
		Storage:               StorageSQLite,
		DBPath:                "./var/eventcal.db",
		RequestTimeoutSeconds: 15,
		NotifySchedule:        "@every 10s",
		MaxOccurrences:        5000,
		Holidays: map[string]string{
			"2025-10-03": "개천절",
			"2025-10-06": "추석",
			"2025-10-09": "한글날",
			"2025-12-25": "크리스마스",
		},
		Capture: CaptureConfig{
			Output:         "./var/preview.png",
			Width:          1280,
			Height:         960,
			TimeoutSeconds: 30,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}

	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case StorageSQLite, StorageMemory, StorageRemote:
	default:
		c.Storage = StorageSQLite
	}
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = def.RequestTimeoutSeconds
	}
	if c.NotifySchedule == "" {
		c.NotifySchedule = def.NotifySchedule
	}
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = def.MaxOccurrences
	}
	if c.Holidays == nil {
		c.Holidays = map[string]string{}
	}

	if c.Capture.Output == "" {
		c.Capture.Output = def.Capture.Output
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = def.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = def.Capture.Height
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = def.Capture.TimeoutSeconds
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if c.Storage == StorageRemote && c.RemoteURL == "" {
		return errors.New("config: storage is remote but remote_url is empty")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured zone, or time.Local if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// RequestTimeout is RequestTimeoutSeconds as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Load loads configuration from the given YAML path, then applies
// EVENTCAL_* environment overrides.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
	case err != nil:
		return nil, err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

// ApplyEnv overwrites fields whose EVENTCAL_* variable is set. Unset
// variables leave the field as it is.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return fmt.Errorf("config env: %w", aggErr.Errors[0])
		}
		return fmt.Errorf("config env: %w", err)
	}
	return nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".eventcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
