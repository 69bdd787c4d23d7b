package waketimer

import (
	"fmt"

	"alarm-go/internal/config"
)

// NewWakeTimerFromConfig creates a Spool based on the timer config type.
// Type "none" yields a nil Spool: alarms are stored but never armed.
func NewWakeTimerFromConfig(cfg config.TimerConfig) (Spool, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryWakeTimer(), nil
	case "filesystem":
		if cfg.SpoolDir == "" {
			return nil, fmt.Errorf("filesystem timer requires spool_dir to be set")
		}
		return NewFileSystemWakeTimer(cfg.SpoolDir)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown timer type: %s", cfg.Type)
	}
}
