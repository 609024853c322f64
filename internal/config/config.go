package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CalendarScope grants read/write access to events.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

const (
	defaultCalendarID    = "primary"
	defaultTimezone      = "UTC"
	defaultWatchSchedule = "*/15 * * * *"
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
	appDir               = "gcalctl"
)

// Config is the top-level application configuration.
type Config struct {
	// CalendarID selects the calendar all operations address.
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`

	// CredentialsFile is the OAuth client secret JSON downloaded from the
	// cloud console.
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`

	// TokenFile caches the user's access and refresh token.
	TokenFile string `yaml:"token_file" json:"token_file"`

	Scopes []string `yaml:"scopes" json:"scopes"`

	// StrictDayLong rejects remote records whose start and end disagree on
	// being a date or a date-time. When false such records are read as
	// day-long.
	StrictDayLong *bool `yaml:"strict_day_long,omitempty" json:"strict_day_long,omitempty"`

	// DisplayTimezone is the IANA zone used for rendering (e.g. "Asia/Seoul").
	DisplayTimezone string `yaml:"display_timezone" json:"display_timezone"`

	// WatchSchedule is a cron expression (e.g. "*/15 * * * *") for the watch
	// command.
	WatchSchedule string `yaml:"watch_schedule" json:"watch_schedule"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`
}

// DefaultDir returns the directory holding config, credentials and token.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDir)
	}
	return filepath.Join(".", "."+appDir)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns an in-memory default configuration rooted at dir.
func DefaultConfig(dir string) *Config {
	strict := true
	return &Config{
		CalendarID:      defaultCalendarID,
		CredentialsFile: filepath.Join(dir, "credentials.json"),
		TokenFile:       filepath.Join(dir, "token.json"),
		Scopes:          []string{CalendarScope},
		StrictDayLong:   &strict,
		DisplayTimezone: defaultTimezone,
		WatchSchedule:   defaultWatchSchedule,
		LogLevel:        defaultLogLevel,
		LogFormat:       defaultLogFormat,
	}
}

// Normalize fills in missing values so partially-filled configs still work.
// Relative credential and token paths are resolved against dir.
func (c *Config) Normalize(dir string) {
	def := DefaultConfig(dir)
	if c.CalendarID == "" {
		c.CalendarID = def.CalendarID
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = def.CredentialsFile
	} else if !filepath.IsAbs(c.CredentialsFile) {
		c.CredentialsFile = filepath.Join(dir, c.CredentialsFile)
	}
	if c.TokenFile == "" {
		c.TokenFile = def.TokenFile
	} else if !filepath.IsAbs(c.TokenFile) {
		c.TokenFile = filepath.Join(dir, c.TokenFile)
	}
	if len(c.Scopes) == 0 {
		c.Scopes = def.Scopes
	}
	if c.StrictDayLong == nil {
		c.StrictDayLong = def.StrictDayLong
	}
	if c.DisplayTimezone == "" {
		c.DisplayTimezone = def.DisplayTimezone
	}
	if c.WatchSchedule == "" {
		c.WatchSchedule = def.WatchSchedule
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		c.LogFormat = def.LogFormat
	}
}

// Strict reports the effective day-long strictness.
func (c *Config) Strict() bool {
	return c.StrictDayLong == nil || *c.StrictDayLong
}

// Location resolves DisplayTimezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil, fmt.Errorf("display timezone %q: %w", c.DisplayTimezone, err)
	}
	return loc, nil
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist a default config is written there with 0600
// perms and returned. Otherwise the YAML is read and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	dir := filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig(dir)
			if err := Save(path, cfg); err != nil {
				// caller decides whether an unwritable config dir is fatal
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize(dir)

	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize(filepath.Dir(path))

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteAtomic(path, data)
}

// WriteAtomic writes data to a temp file in the target directory, sets 0600
// and renames it over path. The parent directory is created with 0700.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".gcalctl-*.tmp")
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

func (c *Config) Save(path string) error {
	return Save(path, c)
}
