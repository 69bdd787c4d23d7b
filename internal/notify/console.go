// Package notify presents fired alarms to the user.
package notify

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"alarm-go/internal/alarm"
)

// Console prints fired alarms to a terminal.
type Console struct {
	w     io.Writer
	title *color.Color
	info  *color.Color
}

// NewConsole creates a Console writing to w. Colors follow fatih/color's
// terminal detection and NO_COLOR handling.
func NewConsole(w io.Writer) *Console {
	return &Console{
		w:     w,
		title: color.New(color.FgRed, color.Bold),
		info:  color.New(color.FgCyan),
	}
}

// Notify prints one alert for a fired alarm.
func (c *Console) Notify(s alarm.Snapshot) error {
	label := s.Label
	if label == "" {
		label = "Alarm"
	}

	if _, err := c.title.Fprintf(c.w, "ALARM %s  %s\n", s.TimeString(), label); err != nil {
		return fmt.Errorf("writing alert: %w", err)
	}

	detail := alarm.RingtoneName(s.RingtoneIndex)
	if s.Vibrate {
		detail += " (vibrate)"
	}
	if _, err := c.info.Fprintf(c.w, "  %s\n", detail); err != nil {
		return fmt.Errorf("writing alert: %w", err)
	}
	return nil
}
