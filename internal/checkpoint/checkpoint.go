package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrCorrupt indicates the checkpoint file exists but cannot be parsed.
// This is fatal for the run: silently resetting to zero would reprocess
// or skip comments without the operator noticing. Delete or fix the file
// to recover.
var ErrCorrupt = errors.New("corrupt checkpoint file")

// Checkpoint is the persisted progress of a generation run. CurrentLine
// is the cursor into the comment store; StyleContent carries the
// accumulated document so a resume restores exactly the state that was
// committed together with the cursor.
type Checkpoint struct {
	CurrentLine     int       `json:"current_line"`
	StyleContent    string    `json:"style_content"`
	CompactionCount int       `json:"compaction_count"`
	UpdatedAt       time.Time `json:"timestamp"`
}

// Store persists checkpoints to a single JSON file.
type Store struct {
	path string
}

// NewStore creates a checkpoint store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted checkpoint and true, or a zero checkpoint
// and false when no checkpoint file exists. A file that exists but does
// not parse as a checkpoint fails with ErrCorrupt.
func (s *Store) Load() (Checkpoint, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if cp.CurrentLine < 0 {
		return Checkpoint{}, false, fmt.Errorf("%w: %s: negative current_line %d", ErrCorrupt, s.path, cp.CurrentLine)
	}
	return cp, true, nil
}

// Save overwrites the checkpoint atomically: the new content is written
// to a temp file in the same directory and renamed over the old one, so
// a crash mid-write leaves the previous valid checkpoint intact.
func (s *Store) Save(cp Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// Clear removes the checkpoint file. Missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}
