// Package store persists named shortcuts to feature file scenarios.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrShortcutNotFound is returned by Resolve for an unknown name.
	ErrShortcutNotFound = errors.New("shortcut not found")
	// ErrIncompleteShortcut is returned by Resolve when a saved entry lacks
	// its feature path or scenario name.
	ErrIncompleteShortcut = errors.New("shortcut is missing required fields")
)

// Shortcut points at one scenario in one feature file.
type Shortcut struct {
	FeaturePath string `json:"feature_path"`
	Scenario    string `json:"scenario"`
}

// Complete reports whether both parts are present.
func (s Shortcut) Complete() bool {
	return strings.TrimSpace(s.FeaturePath) != "" && strings.TrimSpace(s.Scenario) != ""
}

// Reference renders the shortcut as "path::scenario".
func (s Shortcut) Reference() string {
	return s.FeaturePath + "::" + s.Scenario
}

// Store is a JSON file of shortcuts keyed by name. The whole file is
// rewritten on every Save.
type Store struct {
	mu        sync.RWMutex
	path      string
	shortcuts map[string]Shortcut
	log       *zap.Logger
}

// Load reads the store at path, expanding a leading "~". A missing file
// yields an empty store.
func Load(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand store path '%s': %w", path, err)
	}

	s := &Store{
		path:      expanded,
		shortcuts: make(map[string]Shortcut),
		log:       logger.Named("store"),
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("No shortcut file yet.", zap.String("path", expanded))
			return s, nil
		}
		return nil, fmt.Errorf("failed to read shortcut file '%s': %w", expanded, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.shortcuts); err != nil {
		return nil, fmt.Errorf("failed to decode shortcut file '%s': %w", expanded, err)
	}
	s.log.Debug("Loaded shortcuts.", zap.String("path", expanded), zap.Int("count", len(s.shortcuts)))
	return s, nil
}

// Path returns the expanded file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the saved entry for name as is.
func (s *Store) Get(name string) (Shortcut, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.shortcuts[name]
	return sc, ok
}

// Resolve returns the entry for name, rejecting unknown and incomplete ones.
func (s *Store) Resolve(name string) (Shortcut, error) {
	sc, ok := s.Get(name)
	if !ok {
		return Shortcut{}, fmt.Errorf("%w: %q", ErrShortcutNotFound, name)
	}
	if !sc.Complete() {
		return Shortcut{}, fmt.Errorf("%w: %q", ErrIncompleteShortcut, name)
	}
	return sc, nil
}

// Put adds or replaces name. It does not write the file.
func (s *Store) Put(name string, sc Shortcut) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("shortcut name cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shortcuts[name] = sc
	return nil
}

// Delete removes name and reports whether it existed. It does not write the
// file.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shortcuts[name]; !ok {
		return false
	}
	delete(s.shortcuts, name)
	return true
}

// Names returns every shortcut name, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.shortcuts))
	for name := range s.shortcuts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes the store as indented JSON. The file is replaced atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.shortcuts, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode shortcuts: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory '%s': %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".shortcuts-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write shortcuts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write shortcuts: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace shortcut file '%s': %w", s.path, err)
	}
	s.log.Info("Shortcuts saved.", zap.String("path", s.path), zap.Int("count", len(s.Names())))
	return nil
}
