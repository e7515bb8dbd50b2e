package starkscan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CursorState lists, per protocol address, the next_url links of older
// pages that a page-limited pull has not reached yet.
type CursorState struct {
	Pending map[string][]string `json:"pending"`
}

// CursorStore keeps CursorState on disk. An empty path keeps it in memory
// only.
type CursorStore struct {
	path    string
	enabled bool
}

func NewCursorStore(path string) *CursorStore {
	return &CursorStore{path: path, enabled: path != ""}
}

func (c *CursorStore) Load() (map[string][]string, error) {
	pending := make(map[string][]string)
	if !c.enabled {
		return pending, nil
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return pending, nil
		}
		return nil, fmt.Errorf("read cursor state: %w", err)
	}

	var st CursorState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse cursor state: %w", err)
	}
	for address, urls := range st.Pending {
		if len(urls) > 0 {
			pending[address] = urls
		}
	}
	return pending, nil
}

func (c *CursorStore) Save(pending map[string][]string) error {
	if !c.enabled {
		return nil
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cursor state dir: %w", err)
		}
	}

	data, err := json.Marshal(CursorState{Pending: pending})
	if err != nil {
		return fmt.Errorf("marshal cursor state: %w", err)
	}
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write cursor state tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename cursor state: %w", err)
	}
	return nil
}
