package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - ALARM_CONFIG_PATH: config file location (default: ~/.config/alarm.toml)
//   - ALARM_HOME: base directory for alarm data (default: ~/.local/share/alarm)
//   - XDG_RUNTIME_DIR: when set, armed wake timers are spooled under it
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
		"spool_dir":   getSpoolDir(baseDir),
	}, nil
}

// getSpoolDir returns where armed wake timers are kept. The XDG runtime
// directory is cleared at logout and reboot, which matches the lifetime of
// an armed timer; `alarmctl rearm` rebuilds the spool afterwards. Without
// it, timers live under the base directory.
func getSpoolDir(baseDir string) string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "alarm", "timers")
	}
	return filepath.Join(baseDir, "timers")
}

// getConfigPath returns the config file path, checking ALARM_CONFIG_PATH env var first,
// then falling back to the default ~/.config/alarm.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("ALARM_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "alarm.toml"), nil
}

// getBaseDir returns the base directory for alarm data, checking ALARM_HOME env var first,
// then falling back to the XDG default ~/.local/share/alarm.
func getBaseDir() (string, error) {
	if path := os.Getenv("ALARM_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "alarm"), nil
}
