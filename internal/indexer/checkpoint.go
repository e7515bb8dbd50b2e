package indexer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// GapState tracks the gap blocks still waiting to be filled.
type GapState struct {
	Remaining []uint64 `json:"remaining"`
	UpdatedAt string   `json:"updated_at"`
}

// GapStore persists gap-fill progress to disk so a restarted run resumes.
type GapStore struct {
	path    string
	enabled bool
	clock   Clock
}

// NewGapStore stores progress at path; an empty path disables it. A nil
// clock means the wall clock.
func NewGapStore(path string, clk Clock) *GapStore {
	if clk == nil {
		clk = SystemClock
	}
	return &GapStore{path: path, enabled: path != "", clock: clk}
}

func (c *GapStore) Load() (GapState, bool, error) {
	if !c.enabled {
		return GapState{}, false, nil
	}

	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return GapState{}, false, nil
		}
		return GapState{}, false, fmt.Errorf("stat gap state: %w", err)
	}
	if stat.IsDir() {
		return GapState{}, false, fmt.Errorf("gap state path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return GapState{}, false, fmt.Errorf("read gap state: %w", err)
	}

	var st GapState
	if err := json.Unmarshal(data, &st); err != nil {
		return GapState{}, false, fmt.Errorf("parse gap state: %w", err)
	}

	return st, true, nil
}

func (c *GapStore) Save(remaining []uint64) error {
	if !c.enabled {
		return nil
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create gap state dir: %w", err)
		}
	}

	st := GapState{
		Remaining: append([]uint64{}, remaining...),
		UpdatedAt: c.clock.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal gap state: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write gap state tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename gap state: %w", err)
	}

	return nil
}

// Clear removes the progress file once every gap is filled.
func (c *GapStore) Clear() error {
	if !c.enabled {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove gap state: %w", err)
	}
	return nil
}
