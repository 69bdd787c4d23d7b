package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"alarm-go/internal/alarm"
	"alarm-go/internal/database/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements the alarm.Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens a SQLite store and applies pending migrations.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for the schema being in place.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite database connection.
// This is exported for tools and tests that need a properly configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

const alarmColumns = "id, hour, minute, label, enabled, repeat_days, vibrate, ringtone_index"

// Alarm operations

func (s *SQLiteStore) CreateAlarm(a *alarm.Alarm) error {
	_, err := s.db.Exec(
		"INSERT INTO alarms ("+alarmColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.Hour, a.Minute, a.Label, a.Enabled, a.RepeatDays.String(), a.Vibrate,
		alarm.NormalizeRingtoneIndex(a.RingtoneIndex),
	)
	if err != nil {
		return fmt.Errorf("inserting alarm: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindAlarm(id int64) (*alarm.Alarm, error) {
	row := s.db.QueryRow("SELECT "+alarmColumns+" FROM alarms WHERE id = ?", id)
	a, err := scanAlarm(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding alarm: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) UpdateAlarm(a *alarm.Alarm) error {
	_, err := s.db.Exec(
		`UPDATE alarms
		    SET hour = ?, minute = ?, label = ?, enabled = ?, repeat_days = ?, vibrate = ?, ringtone_index = ?
		  WHERE id = ?`,
		a.Hour, a.Minute, a.Label, a.Enabled, a.RepeatDays.String(), a.Vibrate,
		alarm.NormalizeRingtoneIndex(a.RingtoneIndex), a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating alarm: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetAlarmEnabled(id int64, enabled bool) error {
	if _, err := s.db.Exec("UPDATE alarms SET enabled = ? WHERE id = ?", enabled, id); err != nil {
		return fmt.Errorf("setting alarm enabled: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAlarm(id int64) error {
	if _, err := s.db.Exec("DELETE FROM alarms WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting alarm: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAlarms() ([]*alarm.Alarm, error) {
	rows, err := s.db.Query("SELECT " + alarmColumns + " FROM alarms ORDER BY hour, minute, id")
	if err != nil {
		return nil, fmt.Errorf("listing alarms: %w", err)
	}
	defer rows.Close()

	var result []*alarm.Alarm
	for rows.Next() {
		a, err := scanAlarm(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning alarm: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing alarms: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlarm(row rowScanner) (*alarm.Alarm, error) {
	var (
		a          alarm.Alarm
		repeatDays string
		ringtone   int
	)
	err := row.Scan(&a.ID, &a.Hour, &a.Minute, &a.Label, &a.Enabled, &repeatDays, &a.Vibrate, &ringtone)
	if err != nil {
		return nil, err
	}
	a.RepeatDays = alarm.DecodeRepeatDays(repeatDays)
	a.SetRingtoneIndex(ringtone)
	return &a, nil
}

// Operation tracking

func (s *SQLiteStore) CreateOperation(operation, parameters string) (*alarm.Operation, error) {
	startedAt := time.Now().UTC()
	res, err := s.db.Exec(
		"INSERT INTO operations (operation, parameters, started_at, status) VALUES (?, ?, ?, 'running')",
		operation, parameters, startedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return &alarm.Operation{
		ID:         id,
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  startedAt,
		Status:     "running",
	}, nil
}

func (s *SQLiteStore) FinishOperation(id int64, status string) error {
	_, err := s.db.Exec(
		"UPDATE operations SET finished_at = ?, status = ? WHERE id = ?",
		time.Now().UTC(), status, id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListOperations(limit int) ([]*alarm.Operation, error) {
	rows, err := s.db.Query(
		"SELECT id, operation, parameters, started_at, finished_at, status FROM operations ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var result []*alarm.Operation
	for rows.Next() {
		var (
			op       alarm.Operation
			finished sql.NullTime
		)
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.StartedAt, &finished, &op.Status); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			op.FinishedAt = &t
		}
		result = append(result, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return result, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteStore implements alarm.Store interface
var _ alarm.Store = (*SQLiteStore)(nil)
