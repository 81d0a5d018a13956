package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mindhaven/go-support-backend/internal/domain"
)

// Sentinel errors surfaced by the registry. Callers map these onto HTTP
// responses with errors.Is.
var (
	ErrInvalidInput       = errors.New("store: invalid input")
	ErrDuplicateUser      = errors.New("store: username already taken")
	ErrInvalidCredentials = errors.New("store: invalid credentials")
)

// usernamePattern keeps usernames safe to embed in file names.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// UserStore is the credential registry backed by a single JSON file that
// maps username to record. The whole file is rewritten on registration.
type UserStore struct {
	path string
	mu   sync.Mutex
}

// NewUserStore returns a registry persisted at path. The file is created
// lazily on first registration.
func NewUserStore(path string) *UserStore {
	return &UserStore{path: path}
}

func (s *UserStore) load() (map[string]domain.UserRecord, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]domain.UserRecord{}, nil
		}
		return nil, fmt.Errorf("read users file: %w", err)
	}
	users := map[string]domain.UserRecord{}
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode users file: %w", err)
	}
	return users, nil
}

func (s *UserStore) save(users map[string]domain.UserRecord) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users file: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	return nil
}

// Register adds a new user with a bcrypt-hashed password.
// Returns ErrInvalidInput for empty or malformed fields and
// ErrDuplicateUser when the username is taken.
func (s *UserStore) Register(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username may only contain letters, digits, '.', '_' and '-'", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	if _, taken := users[username]; taken {
		return ErrDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	users[username] = domain.UserRecord{
		Hash: string(hash),
		// Registry timestamps are RFC3339; the minute-resolution transcript
		// layout is only for chat and journal entries.
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return s.save(users)
}

// Verify checks username and password against the registry. Unknown users
// and wrong passwords both yield ErrInvalidCredentials so callers cannot
// distinguish the two.
func (s *UserStore) Verify(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	rec, found := users[username]
	if !found {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.Hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
