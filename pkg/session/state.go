package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/system-metaverse/system-go/pkg/world"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// State is the client-side preference snapshot persisted between runs. It
// never holds authoritative data; everything here can be lost without
// consequence beyond starting from the default scope.
type State struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Identity is the derived client identity, kept for display and
	// troubleshooting.
	Identity string `json:"identity,omitempty"`

	// LastWorld is the scope the client occupied when the state was saved.
	// The next session resumes there.
	LastWorld world.Coords `json:"last_world"`
}

// StateStore persists session state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a state store backed by the given path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Save persists the state to disk.
func (s *StateStore) Save(state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the state from disk.
// Returns nil, nil if the file doesn't exist (fresh client).
func (s *StateStore) Load() (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
