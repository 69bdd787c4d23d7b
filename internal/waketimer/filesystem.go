package waketimer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"alarm-go/internal/alarm"
)

// FileSystemWakeTimer is a filesystem-based implementation of the Spool
// interface. Each pending slot is one JSON file, so armed timers survive
// restarts of the CLI and can be collected by a separate watcher process:
//
//	<root>/
//	  slots/
//	    <alarmID>_<day>.json   (day is -1 for the one-shot slot)
type FileSystemWakeTimer struct {
	root     string
	slotsDir string
}

// NewFileSystemWakeTimer creates a spool rooted at the given path.
func NewFileSystemWakeTimer(root string) (*FileSystemWakeTimer, error) {
	slotsDir := filepath.Join(root, "slots")
	if err := os.MkdirAll(slotsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create slots directory: %w", err)
	}

	return &FileSystemWakeTimer{
		root:     root,
		slotsDir: slotsDir,
	}, nil
}

// Root returns the spool directory.
func (f *FileSystemWakeTimer) Root() string {
	return f.root
}

func (f *FileSystemWakeTimer) slotPath(slot alarm.Slot) string {
	return filepath.Join(f.slotsDir, fmt.Sprintf("%d_%d.json", slot.AlarmID, slot.Day))
}

// Arm writes the entry for slot, replacing any pending one.
func (f *FileSystemWakeTimer) Arm(slot alarm.Slot, at time.Time, payload alarm.Snapshot) error {
	data, err := json.Marshal(Entry{Slot: slot, At: at, Payload: payload})
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	return writeFileAtomic(f.slotPath(slot), data)
}

// Cancel removes the entry for slot. Cancelling an empty slot is a no-op.
func (f *FileSystemWakeTimer) Cancel(slot alarm.Slot) error {
	if err := os.Remove(f.slotPath(slot)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing slot %s: %w", slot, err)
	}
	return nil
}

// Consume claims e's slot file by renaming it to a hidden name, then keeps
// the claim only if the file still holds an entry due at e.At. A file armed
// after e was read is put back, unless an even newer arm has already landed.
func (f *FileSystemWakeTimer) Consume(e Entry) (bool, error) {
	path := f.slotPath(e.Slot)
	claimed := filepath.Join(f.slotsDir,
		fmt.Sprintf(".firing-%d_%d-%d", e.Slot.AlarmID, e.Slot.Day, time.Now().UnixNano()))

	if err := os.Rename(path, claimed); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("claiming slot %s: %w", e.Slot, err)
	}
	defer os.Remove(claimed)

	data, err := os.ReadFile(claimed)
	if err != nil {
		return false, fmt.Errorf("reading slot %s: %w", e.Slot, err)
	}
	var cur Entry
	if err := json.Unmarshal(data, &cur); err != nil {
		return false, fmt.Errorf("decoding slot %s: %w", e.Slot, err)
	}
	if cur.At.Equal(e.At) {
		return true, nil
	}

	// Link never replaces an existing file, so a newer arm wins.
	if err := os.Link(claimed, path); err != nil && !os.IsExist(err) {
		return false, fmt.Errorf("restoring slot %s: %w", e.Slot, err)
	}
	return false, nil
}

// Pending reads every entry in the spool ordered by trigger time.
// Temp files left by an interrupted write are skipped.
func (f *FileSystemWakeTimer) Pending() ([]Entry, error) {
	dirEntries, err := os.ReadDir(f.slotsDir)
	if err != nil {
		return nil, fmt.Errorf("reading slots directory: %w", err)
	}

	var out []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(f.slotsDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue // cancelled concurrently
			}
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		out = append(out, e)
	}

	sortEntries(out)
	return out, nil
}

// writeFileAtomic writes data to destPath using a temp file and rename.
func writeFileAtomic(destPath string, data []byte) error {
	// Temp file lives in the same directory so the rename stays atomic
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
