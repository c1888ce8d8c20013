package inmemory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// snapshotter persists the whole state as a single JSON document.
// A full rewrite per mutation is fine at this data scale.
type snapshotter struct {
	path string
}

func (s *snapshotter) load(st *state) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to read snapshot: %w", err)
	}

	if err := json.Unmarshal(data, st); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return nil
}

func (s *snapshotter) save(st *state) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// write-then-rename so a crash mid-write can not corrupt the snapshot
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}
