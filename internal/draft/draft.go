// Package draft keeps the device-local copy of an in-progress pagella edit.
//
// One slot exists per event. Drafts never leave the device and are only shown
// when the server copy is empty or unreachable. Every operation is
// best-effort: callers log failures and carry on.
package draft

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

// Store persists one draft per event. An empty string means no draft.
type Store interface {
	Load(eventID int64) (string, error)
	Save(eventID int64, content string) error
	Clear(eventID int64) error
}

// Key returns the slot name used for an event's draft.
func Key(eventID int64) string {
	return "pagella_draft_" + strconv.FormatInt(eventID, 10)
}

type document struct {
	Drafts map[string]string `toml:"drafts"`
}

// FileStore keeps every draft in a single TOML file, rewritten atomically on
// each change.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file and its directory are
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(eventID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return "", err
	}
	return doc.Drafts[Key(eventID)], nil
}

func (s *FileStore) Save(eventID int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		// A corrupt file must not block new drafts.
		doc = document{}
	}
	if doc.Drafts == nil {
		doc.Drafts = map[string]string{}
	}
	if content == "" {
		delete(doc.Drafts, Key(eventID))
	} else {
		doc.Drafts[Key(eventID)] = content
	}
	return s.write(doc)
}

func (s *FileStore) Clear(eventID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Drafts[Key(eventID)]; !ok {
		return nil
	}
	delete(doc.Drafts, Key(eventID))
	return s.write(doc)
}

func (s *FileStore) read() (document, error) {
	var doc document
	bytes, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("read drafts: %w", err)
	}
	if err := toml.Unmarshal(bytes, &doc); err != nil {
		return document{}, fmt.Errorf("parse drafts: %w", err)
	}
	return doc, nil
}

func (s *FileStore) write(doc document) error {
	if s.path == "" {
		return fmt.Errorf("draft path is empty")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create drafts dir: %w", err)
	}
	bytes, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal drafts: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".drafts-*.toml")
	if err != nil {
		return fmt.Errorf("create temp drafts: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(bytes); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write drafts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close drafts: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace drafts: %w", err)
	}
	return nil
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu     sync.Mutex
	drafts map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: map[string]string{}}
}

func (s *MemoryStore) Load(eventID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[Key(eventID)], nil
}

func (s *MemoryStore) Save(eventID int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if content == "" {
		delete(s.drafts, Key(eventID))
		return nil
	}
	s.drafts[Key(eventID)] = content
	return nil
}

func (s *MemoryStore) Clear(eventID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, Key(eventID))
	return nil
}
