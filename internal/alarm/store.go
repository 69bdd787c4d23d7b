package alarm

import "time"

// Store provides durable storage for alarms.
// Find methods return (nil, nil) when the record does not exist.
type Store interface {
	// CreateAlarm inserts a new alarm. The ID must already be assigned.
	CreateAlarm(a *Alarm) error

	// FindAlarm returns the alarm with the given ID.
	FindAlarm(id int64) (*Alarm, error)

	// UpdateAlarm replaces every field of an existing alarm except its ID.
	UpdateAlarm(a *Alarm) error

	// SetAlarmEnabled flips only the enabled flag.
	SetAlarmEnabled(id int64, enabled bool) error

	// DeleteAlarm removes an alarm. Deleting a missing alarm is not an error.
	DeleteAlarm(id int64) error

	// ListAlarms returns all alarms ordered by hour, then minute.
	ListAlarms() ([]*Alarm, error)

	// Operation tracking

	// CreateOperation records the start of a mutating command.
	CreateOperation(operation, parameters string) (*Operation, error)

	// FinishOperation marks an operation finished with the given status.
	FinishOperation(id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*Operation, error)

	// Close closes the underlying storage.
	Close() error
}

// Operation is an audit record of a mutating command.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
}
