// internal/reconcile/filled.go
package reconcile

import (
	"sync"

	"github.com/xkilldash9x/formpilot/api/schemas"
)

// FilledFieldSet records the logical fields confirmed filled during a run.
// It only grows: there is no way to remove a name once added.
type FilledFieldSet struct {
	mu    sync.RWMutex
	names map[string]struct{}
	order []string
}

// NewFilledFieldSet returns an empty set.
func NewFilledFieldSet() *FilledFieldSet {
	return &FilledFieldSet{names: make(map[string]struct{})}
}

// Add records name and reports whether it was new. Names are normalized.
func (s *FilledFieldSet) Add(name string) bool {
	key := schemas.NormalizeFieldName(name)
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[key]; ok {
		return false
	}
	s.names[key] = struct{}{}
	s.order = append(s.order, key)
	return true
}

// Has reports whether name has been recorded.
func (s *FilledFieldSet) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.names[schemas.NormalizeFieldName(name)]
	return ok
}

// Names returns the normalized names in the order they were added.
func (s *FilledFieldSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

func (s *FilledFieldSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Missing returns the fields of m not yet recorded, in declaration order.
func (s *FilledFieldSet) Missing(m schemas.FieldValueMap) []string {
	var missing []string
	for _, fv := range m {
		if !s.Has(fv.Name) {
			missing = append(missing, fv.Name)
		}
	}
	return missing
}

// Covers reports whether every field of m has been recorded.
func (s *FilledFieldSet) Covers(m schemas.FieldValueMap) bool {
	return len(s.Missing(m)) == 0
}
