package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the main configuration for alarmctl.
// Every field can be overridden from the environment after the file is read.
type Config struct {
	BaseDir  string         `toml:"base_dir" env:"ALARM_BASE_DIR"`
	LogDir   string         `toml:"log_dir"  env:"ALARM_LOG_DIR"`
	LogLevel string         `toml:"log_level" env:"ALARM_LOG_LEVEL"` // "debug", "info", "warn" or "error"
	Database DatabaseConfig `toml:"database"`
	Timer    TimerConfig    `toml:"timer"`
	Snooze   SnoozeConfig   `toml:"snooze"`
	Watch    WatchConfig    `toml:"watch"`
}

// DatabaseConfig represents configuration for the alarm store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"               env:"ALARM_DATABASE_TYPE"` // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty" env:"ALARM_DATA_DIR"`      // only used for type=sqlite
}

// TimerConfig selects the wake-timer backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type TimerConfig struct {
	Type     string `toml:"type"                env:"ALARM_TIMER_TYPE"` // "filesystem", "memory" or "none"
	SpoolDir string `toml:"spool_dir,omitempty" env:"ALARM_SPOOL_DIR"`  // only used for type=filesystem
}

// SnoozeConfig holds the snooze interval.
type SnoozeConfig struct {
	Minutes int `toml:"minutes" env:"ALARM_SNOOZE_MINUTES"` // defaults to 10 when zero
}

// WatchConfig holds settings for the spool watcher.
type WatchConfig struct {
	PollSeconds int `toml:"poll_seconds" env:"ALARM_WATCH_POLL_SECONDS"` // defaults to 5 when zero
}

// NewConfig creates a new Config rooted at baseDir with sqlite storage and a
// filesystem timer spool.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "info",
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Timer: TimerConfig{
			Type:     "filesystem",
			SpoolDir: filepath.Join(baseDir, "timers"),
		},
		Snooze: SnoozeConfig{Minutes: 10},
		Watch:  WatchConfig{PollSeconds: 5},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg fields from ALARM_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("reading environment overrides: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path and applies
// environment overrides.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path, refusing to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
