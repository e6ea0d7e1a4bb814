package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/souentd/internal/types"
)

// FileSessionStore is a JSONL-backed session store. Each session has a
// directory at sessions/<sessionID>/ holding messages.jsonl, and an
// index at sessions/sessions.json tracks creation and last-activity
// times for TTL sweeps.
type FileSessionStore struct {
	root string
	ttl  time.Duration

	indexMu sync.Mutex

	mu    sync.Mutex
	locks map[types.SessionID]*sync.Mutex
}

type sessionIndexEntry struct {
	SessionID types.SessionID `json:"session_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func NewFileSessionStore(root string, ttl time.Duration) *FileSessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &FileSessionStore{
		root:  root,
		ttl:   ttl,
		locks: make(map[types.SessionID]*sync.Mutex),
	}
}

// getLock returns the per-session mutex, creating one if it doesn't exist.
func (s *FileSessionStore) getLock(id types.SessionID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lock, ok := s.locks[id]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[id] = lock
	return lock
}

func (s *FileSessionStore) indexPath() string {
	return filepath.Join(s.root, "sessions", "sessions.json")
}

func (s *FileSessionStore) messagesPath(id types.SessionID) string {
	return filepath.Join(s.root, "sessions", string(id), "messages.jsonl")
}

func (s *FileSessionStore) sessionDir(id types.SessionID) string {
	return filepath.Join(s.root, "sessions", string(id))
}

// loadIndex reads sessions.json. Caller must hold indexMu.
func (s *FileSessionStore) loadIndex() (map[types.SessionID]*sessionIndexEntry, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[types.SessionID]*sessionIndexEntry), nil
		}
		return nil, fmt.Errorf("read session index: %w", err)
	}

	var entries []*sessionIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal session index: %w", err)
	}

	index := make(map[types.SessionID]*sessionIndexEntry, len(entries))
	for _, e := range entries {
		index[e.SessionID] = e
	}
	return index, nil
}

// saveIndex writes sessions.json atomically. Caller must hold indexMu.
func (s *FileSessionStore) saveIndex(index map[types.SessionID]*sessionIndexEntry) error {
	entries := make([]*sessionIndexEntry, 0, len(index))
	for _, e := range index {
		entries = append(entries, e)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.indexPath()), 0o755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}

	tmp := s.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := os.Rename(tmp, s.indexPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp index: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Create(_ context.Context) (types.SessionID, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return "", err
	}

	var id types.SessionID
	for attempt := 0; attempt < 5; attempt++ {
		candidate := types.NewSessionID()
		if _, exists := index[candidate]; exists {
			continue
		}
		id = candidate
		break
	}
	if id == "" {
		return "", fmt.Errorf("create session: could not generate unique id")
	}

	now := time.Now()
	index[id] = &sessionIndexEntry{SessionID: id, CreatedAt: now, UpdatedAt: now}
	if err := s.saveIndex(index); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.sessionDir(id), 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	return id, nil
}

// touch updates the session's last-activity time in the index.
func (s *FileSessionStore) touch(id types.SessionID) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	entry, ok := index[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, types.ErrNotFound)
	}
	entry.UpdatedAt = time.Now()
	return s.saveIndex(index)
}

func (s *FileSessionStore) exists(id types.SessionID) (bool, error) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return false, err
	}
	_, ok := index[id]
	return ok, nil
}

func (s *FileSessionStore) Append(_ context.Context, id types.SessionID, msg types.Message) error {
	lock := s.getLock(id)
	lock.Lock()
	defer lock.Unlock()

	ok, err := s.exists(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("session %s: %w", id, types.ErrNotFound)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := os.MkdirAll(s.sessionDir(id), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	f, err := os.OpenFile(s.messagesPath(id), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open messages file: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return s.touch(id)
}

func (s *FileSessionStore) History(_ context.Context, id types.SessionID) ([]types.Message, error) {
	lock := s.getLock(id)
	lock.Lock()
	defer lock.Unlock()

	ok, err := s.exists(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, types.ErrNotFound)
	}

	f, err := os.Open(s.messagesPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return []types.Message{}, nil
		}
		return nil, fmt.Errorf("open messages file: %w", err)
	}
	defer f.Close()

	var messages []types.Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg types.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan messages file: %w", err)
	}
	return messages, nil
}

// Clear removes the session's transcript and index entry. Clearing a
// session that does not exist is not an error.
func (s *FileSessionStore) Clear(_ context.Context, id types.SessionID) error {
	lock := s.getLock(id)
	lock.Lock()
	defer lock.Unlock()

	return s.remove(id)
}

// remove deletes the session dir and index entry. Caller must hold the
// session lock.
func (s *FileSessionStore) remove(id types.SessionID) error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	if _, ok := index[id]; !ok {
		return nil
	}
	delete(index, id)
	if err := s.saveIndex(index); err != nil {
		return err
	}
	if err := os.RemoveAll(s.sessionDir(id)); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	return nil
}

// Sweep removes sessions idle longer than the TTL and returns how many
// were removed.
func (s *FileSessionStore) Sweep(_ context.Context) (int, error) {
	s.indexMu.Lock()
	index, err := s.loadIndex()
	s.indexMu.Unlock()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for id, entry := range index {
		if !entry.UpdatedAt.Before(cutoff) {
			continue
		}
		lock := s.getLock(id)
		lock.Lock()
		err := s.remove(id)
		lock.Unlock()
		if err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *FileSessionStore) Close() error {
	return nil
}
