package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/souentd/internal/types"
)

// FilePreferenceStore stores one JSON file per user under
// preferences/<userID>.json. User IDs are validated before they touch
// the filesystem so a crafted ID cannot escape the preferences dir.
type FilePreferenceStore struct {
	root string
	mu   sync.Mutex
}

func NewFilePreferenceStore(root string) *FilePreferenceStore {
	return &FilePreferenceStore{root: root}
}

func (s *FilePreferenceStore) path(userID types.UserID) (string, error) {
	if !types.ValidUserID(string(userID)) {
		return "", fmt.Errorf("%w: invalid user id", types.ErrValidation)
	}
	return filepath.Join(s.root, "preferences", string(userID)+".json"), nil
}

func (s *FilePreferenceStore) Get(_ context.Context, userID types.UserID) (*types.UserPreferences, error) {
	path, err := s.path(userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("preferences for %s: %w", userID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	var prefs types.UserPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("unmarshal preferences: %w", err)
	}
	return &prefs, nil
}

func (s *FilePreferenceStore) Put(_ context.Context, prefs *types.UserPreferences) (*types.UserPreferences, error) {
	path, err := s.path(prefs.UserID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *prefs
	cp.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(&cp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal preferences: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create preferences dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("rename preferences: %w", err)
	}
	return &cp, nil
}

func (s *FilePreferenceStore) Close() error {
	return nil
}
