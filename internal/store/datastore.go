// Package store implements flat-file persistence: a users.json credential
// registry and two whole-document JSON files per user (chat transcript and
// mood journal). Files are read and overwritten in full; there are no
// partial writes. Mutations run under a per-(user,kind) lock so concurrent
// requests from the same user cannot interleave a load-mutate-save cycle.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sync"

	"github.com/mindhaven/go-support-backend/internal/domain"
)

// Kind selects one of the two per-user collections. The values double as
// the file-name suffix, matching the on-disk layout "<user>_<kind>.json".
type Kind string

const (
	KindChat Kind = "chat_log"
	KindMood Kind = "journal_entries"
)

// lockStripes bounds lock memory regardless of user count. Collisions only
// cost unnecessary serialization, never correctness.
const lockStripes = 64

// DataStore owns the per-user data directory.
type DataStore struct {
	dir     string
	stripes [lockStripes]sync.Mutex
}

// NewDataStore ensures dir exists and returns a store rooted there.
func NewDataStore(dir string) (*DataStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &DataStore{dir: dir}, nil
}

// path returns the document location for one (user, kind) pair.
func (s *DataStore) path(user string, kind Kind) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", user, kind))
}

// lock returns the stripe guarding (user, kind).
func (s *DataStore) lock(user string, kind Kind) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(user))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(kind))
	return &s.stripes[h.Sum32()%lockStripes]
}

// readDoc unmarshals the whole document into out. A missing file is not an
// error: out is left at its zero (empty) value.
func (s *DataStore) readDoc(user string, kind Kind, out any) error {
	raw, err := os.ReadFile(s.path(user, kind))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s for %s: %w", kind, user, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s for %s: %w", kind, user, err)
	}
	return nil
}

// writeDoc overwrites the whole document for (user, kind).
func (s *DataStore) writeDoc(user string, kind Kind, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s for %s: %w", kind, user, err)
	}
	if err := os.WriteFile(s.path(user, kind), raw, 0o600); err != nil {
		return fmt.Errorf("write %s for %s: %w", kind, user, err)
	}
	return nil
}

// LoadChat returns the user's transcript, empty when none exists yet.
func (s *DataStore) LoadChat(user string) ([]domain.ChatTurn, error) {
	mu := s.lock(user, KindChat)
	mu.Lock()
	defer mu.Unlock()

	var turns []domain.ChatTurn
	if err := s.readDoc(user, KindChat, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// SaveChat overwrites the user's transcript with turns.
func (s *DataStore) SaveChat(user string, turns []domain.ChatTurn) error {
	mu := s.lock(user, KindChat)
	mu.Lock()
	defer mu.Unlock()

	if turns == nil {
		turns = []domain.ChatTurn{}
	}
	return s.writeDoc(user, KindChat, turns)
}

// ClearChat resets the transcript to the empty sequence.
func (s *DataStore) ClearChat(user string) error {
	return s.SaveChat(user, []domain.ChatTurn{})
}

// UpdateChat loads the transcript, applies fn, and persists the result,
// all under the (user, chat) lock. fn receives the loaded sequence and
// returns the sequence to store; returning an error aborts without writing.
// This is the single-writer path services use for append operations.
func (s *DataStore) UpdateChat(user string, fn func([]domain.ChatTurn) ([]domain.ChatTurn, error)) error {
	mu := s.lock(user, KindChat)
	mu.Lock()
	defer mu.Unlock()

	var turns []domain.ChatTurn
	if err := s.readDoc(user, KindChat, &turns); err != nil {
		return err
	}
	next, err := fn(turns)
	if err != nil {
		return err
	}
	if next == nil {
		next = []domain.ChatTurn{}
	}
	return s.writeDoc(user, KindChat, next)
}

// LoadMood returns the user's mood journal, empty when none exists yet.
func (s *DataStore) LoadMood(user string) ([]domain.MoodEntry, error) {
	mu := s.lock(user, KindMood)
	mu.Lock()
	defer mu.Unlock()

	var entries []domain.MoodEntry
	if err := s.readDoc(user, KindMood, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateMood is the journal counterpart of UpdateChat.
func (s *DataStore) UpdateMood(user string, fn func([]domain.MoodEntry) ([]domain.MoodEntry, error)) error {
	mu := s.lock(user, KindMood)
	mu.Lock()
	defer mu.Unlock()

	var entries []domain.MoodEntry
	if err := s.readDoc(user, KindMood, &entries); err != nil {
		return err
	}
	next, err := fn(entries)
	if err != nil {
		return err
	}
	if next == nil {
		next = []domain.MoodEntry{}
	}
	return s.writeDoc(user, KindMood, next)
}
