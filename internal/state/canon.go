package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/user/souentd/internal/types"
)

// CanonStore holds the locked canonical memory: the identity facts the
// model presents about itself. It is file-backed and bootstrapped with
// defaults on first use. Updates may touch system knowledge and model
// info only; the locked flag and canon version are managed here and
// cannot be set by callers.
type CanonStore struct {
	path string

	// mu guards doc, the in-memory copy of canon.json. Reads serve
	// from doc under the read lock; Update rewrites the file and then
	// replaces doc, so readers never touch disk after the first load.
	mu  sync.RWMutex
	doc *types.CanonMemory
}

func NewCanonStore(dataDir string) *CanonStore {
	return &CanonStore{path: filepath.Join(dataDir, "canon.json")}
}

// DefaultCanon returns the canonical memory a fresh deployment starts
// with.
func DefaultCanon() *types.CanonMemory {
	return &types.CanonMemory{
		SystemKnowledge: map[string]any{
			"developer":   "VelaPlex Systems",
			"application": "Souent",
			"purpose":     "Logic-first AI chatbot powered by Souent Logic Models",
		},
		Model: types.ModelDescriptor{
			Designation: "SLM-A1",
			Name:        "Anthroi-1",
			Version:     "1.0.0",
			Characteristics: []string{
				"Logic-first reasoning",
				"Conservative inference",
				"Explicit uncertainty handling",
				"No emotional simulation",
				"No immersive roleplay",
			},
			Capabilities: []string{
				"Question answering with uncertainty markers",
				"Code analysis and debugging",
				"Technical documentation analysis",
				"Problem-solving and strategic thinking",
				"Data analysis and interpretation",
			},
		},
		Locked:  true,
		Version: "1.0.0",
	}
}

// load reads canon.json, bootstrapping defaults if it does not exist.
// Caller must hold the write lock since bootstrap may write the file.
func (s *CanonStore) load() (*types.CanonMemory, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			canon := DefaultCanon()
			if err := s.save(canon); err != nil {
				return nil, err
			}
			return canon, nil
		}
		return nil, fmt.Errorf("read canon memory: %w", err)
	}

	var canon types.CanonMemory
	if err := json.Unmarshal(data, &canon); err != nil {
		return nil, fmt.Errorf("unmarshal canon memory: %w", err)
	}
	return &canon, nil
}

// save writes canon.json atomically. Caller must hold the write lock.
func (s *CanonStore) save(canon *types.CanonMemory) error {
	data, err := json.MarshalIndent(canon, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal canon memory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write canon memory: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename canon memory: %w", err)
	}
	return nil
}

func (s *CanonStore) Read(_ context.Context) (*types.CanonMemory, error) {
	s.mu.RLock()
	if s.doc != nil {
		canon := copyCanon(s.doc)
		s.mu.RUnlock()
		return canon, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		canon, err := s.load()
		if err != nil {
			return nil, err
		}
		s.doc = canon
	}
	return copyCanon(s.doc), nil
}

// copyCanon returns a deep copy so callers can never mutate the cached
// document through a returned pointer.
func copyCanon(canon *types.CanonMemory) *types.CanonMemory {
	dup := *canon
	if canon.SystemKnowledge != nil {
		dup.SystemKnowledge = make(map[string]any, len(canon.SystemKnowledge))
		for k, v := range canon.SystemKnowledge {
			dup.SystemKnowledge[k] = v
		}
	}
	dup.Model.Characteristics = append([]string(nil), canon.Model.Characteristics...)
	dup.Model.Capabilities = append([]string(nil), canon.Model.Capabilities...)
	if canon.LastUpdated != nil {
		ts := *canon.LastUpdated
		dup.LastUpdated = &ts
	}
	return &dup
}

// Update merges the given fields into the canon memory. Only
// system_knowledge and model_info accept updates; attempts to set the
// locked flag or the canon version are validation errors. Every
// successful update bumps the canon version and timestamps it.
func (s *CanonStore) Update(_ context.Context, fields map[string]any) (*types.CanonMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc == nil {
		doc, err := s.load()
		if err != nil {
			return nil, err
		}
		s.doc = doc
	}
	canon := copyCanon(s.doc)

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no updates provided", types.ErrValidation)
	}

	for key, value := range fields {
		switch key {
		case "locked", "version":
			return nil, fmt.Errorf("%w: field %q is managed and cannot be updated", types.ErrValidation, key)
		case "system_knowledge":
			m, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: system_knowledge must be an object", types.ErrValidation)
			}
			if canon.SystemKnowledge == nil {
				canon.SystemKnowledge = make(map[string]any)
			}
			for k, v := range m {
				canon.SystemKnowledge[k] = v
			}
		case "model_info":
			m, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: model_info must be an object", types.ErrValidation)
			}
			if err := mergeModelInfo(&canon.Model, m); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown canon field %q", types.ErrValidation, key)
		}
	}

	canon.Version = bumpVersion(canon.Version)
	now := time.Now().UTC()
	canon.LastUpdated = &now

	if err := s.save(canon); err != nil {
		return nil, err
	}
	s.doc = canon
	return copyCanon(canon), nil
}

func mergeModelInfo(model *types.ModelDescriptor, fields map[string]any) error {
	for k, v := range fields {
		switch k {
		case "current_model":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: current_model must be a string", types.ErrValidation)
			}
			model.Designation = s
		case "model_name":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: model_name must be a string", types.ErrValidation)
			}
			model.Name = s
		case "version":
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: model version must be a string", types.ErrValidation)
			}
			model.Version = s
		case "characteristics":
			list, err := stringList(v)
			if err != nil {
				return fmt.Errorf("%w: characteristics must be a list of strings", types.ErrValidation)
			}
			model.Characteristics = list
		case "capabilities":
			list, err := stringList(v)
			if err != nil {
				return fmt.Errorf("%w: capabilities must be a list of strings", types.ErrValidation)
			}
			model.Capabilities = list
		default:
			return fmt.Errorf("%w: unknown model_info field %q", types.ErrValidation, k)
		}
	}
	return nil
}

func stringList(v any) ([]string, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("not a list")
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("not a string")
		}
		out = append(out, s)
	}
	return out, nil
}

// bumpVersion increments the last numeric component of a dotted
// version string. Versions it cannot parse get ".1" appended.
func bumpVersion(version string) string {
	parts := strings.Split(version, ".")
	last := parts[len(parts)-1]
	n, err := strconv.Atoi(last)
	if err != nil {
		return version + ".1"
	}
	parts[len(parts)-1] = strconv.Itoa(n + 1)
	return strings.Join(parts, ".")
}
