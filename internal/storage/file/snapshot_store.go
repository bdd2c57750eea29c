// Package file implements a durable snapshot store backed by a single
// JSON document replaced atomically on publish.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/fedreg/ecfr-tracker/internal/tracker"
)

// Store keeps the current snapshot in memory and mirrors it to disk with
// a write-then-rename sequence. Readers only ever touch the in-memory
// copy, so Current never observes a partial document.
type Store struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	current *tracker.Snapshot
}

// New creates a Store rooted at path, creating the parent directory and
// loading any previously published snapshot. A corrupt existing file is
// logged and treated as no snapshot.
func New(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("snapshot path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	s := &Store{path: path, logger: logger}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First boot; Current returns nothing until the first publish.
	case err != nil:
		return nil, fmt.Errorf("read existing snapshot: %w", err)
	default:
		var snap tracker.Snapshot
		if uerr := json.Unmarshal(data, &snap); uerr != nil {
			logger.Warn("existing snapshot file is corrupt, ignoring",
				zap.String("path", path), zap.Error(uerr))
		} else {
			s.current = &snap
			logger.Info("loaded existing snapshot",
				zap.String("path", path),
				zap.String("last_sync", snap.LastSync))
		}
	}
	return s, nil
}

// Publish writes the snapshot to a temporary sibling and renames it over
// the canonical path in one atomic step. If any write step fails the
// temporary artifact is removed and the canonical file is untouched.
func (s *Store) Publish(_ context.Context, snap tracker.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		s.removeTemp(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.removeTemp(tmp)
		return fmt.Errorf("swap snapshot: %w", err)
	}

	s.mu.Lock()
	s.current = &snap
	s.mu.Unlock()
	return nil
}

// Current returns the latest published snapshot, or false if none has
// ever been published.
func (s *Store) Current() (tracker.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return tracker.Snapshot{}, false
	}
	return *s.current, true
}

func (s *Store) removeTemp(tmp string) {
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove temporary snapshot",
			zap.String("path", tmp), zap.Error(err))
	}
}
