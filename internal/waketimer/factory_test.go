package waketimer

import (
	"testing"

	"alarm-go/internal/config"
)

func TestNewWakeTimerFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TimerConfig
		wantNil bool
		wantErr bool
	}{
		{name: "memory", cfg: config.TimerConfig{Type: "memory"}},
		{name: "filesystem", cfg: config.TimerConfig{Type: "filesystem", SpoolDir: t.TempDir()}},
		{name: "filesystem without spool dir", cfg: config.TimerConfig{Type: "filesystem"}, wantErr: true},
		{name: "none", cfg: config.TimerConfig{Type: "none"}, wantNil: true},
		{name: "unknown", cfg: config.TimerConfig{Type: "cron"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewWakeTimerFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWakeTimerFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("NewWakeTimerFromConfig() = %v, wantNil %v", got, tt.wantNil)
			}
		})
	}
}
