package prefsmodule

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/kodiview/kodiview/internal/utils"
)

// ErrInvalidPayload marks a save request whose body was not valid JSON
// for the preferences shape.
var ErrInvalidPayload = errors.New("invalid preferences payload")

// Preferences are the presentation settings the UI persists server-side.
// Opacity is a 0..1 fraction; intervals are in seconds.
type Preferences struct {
	Blur            bool    `json:"blur"`
	BlurAmount      int     `json:"blurAmount"`
	Overlay         bool    `json:"overlay"`
	OverlayOpacity  float64 `json:"overlayOpacity"`
	MarqueeInterval int     `json:"marqueeInterval"`
	FanartInterval  int     `json:"fanartInterval"`
}

// DefaultPreferences returns the settings used before anything was saved.
func DefaultPreferences() Preferences {
	return Preferences{
		Blur:            true,
		BlurAmount:      50,
		Overlay:         true,
		OverlayOpacity:  0.85,
		MarqueeInterval: 10,
		FanartInterval:  20,
	}
}

// Store holds the current preferences and persists them to a JSON file.
// Saves merge a partial update onto the last-known full set and replace
// the file atomically. A failed write keeps the merged set active in
// memory so the session is not stuck with stale settings.
type Store struct {
	path   string
	logger hclog.Logger

	mu      sync.Mutex
	current Preferences
}

// NewStore creates a store backed by the JSON file at path. The file is
// loaded immediately; a missing or unreadable file yields defaults.
func NewStore(path string, logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Store{
		path:    path,
		logger:  logger.Named("prefs"),
		current: DefaultPreferences(),
	}
	s.Reload()
	return s
}

// Get returns a copy of the current preferences.
func (s *Store) Get() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Save merges a partial JSON update onto the current set and persists the
// result. Unknown keys are ignored; keys absent from the update keep
// their current values. The merged set becomes current even when the
// write fails; the write error is returned for reporting.
func (s *Store) Save(partial []byte) (Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.current
	if err := json.Unmarshal(partial, &merged); err != nil {
		return s.current, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	s.current = merged

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return merged, fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := utils.WriteFileAtomic(s.path, data, 0644); err != nil {
		s.logger.Error("preferences write failed, keeping merged set in memory", "path", s.path, "error", err)
		return merged, fmt.Errorf("failed to persist preferences: %w", err)
	}
	return merged, nil
}

// Reload re-reads the file, keeping the current set when the file is
// missing or malformed. Returns whether the set changed.
func (s *Store) Reload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("preferences file unreadable, keeping current set", "path", s.path, "error", err)
		}
		return false
	}

	loaded := DefaultPreferences()
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn("preferences file malformed, keeping current set", "path", s.path, "error", err)
		return false
	}
	changed := loaded != s.current
	s.current = loaded
	return changed
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}
