package methods

import (
	"fmt"
	"sync"

	"github.com/xhad/langdetect/internal/models"
)

// Selector holds the single currently chosen analysis method.
type Selector struct {
	mu      sync.RWMutex
	current models.Method
}

func New() *Selector {
	return &Selector{}
}

// Select records m, replacing any previous choice.
func (s *Selector) Select(m models.Method) error {
	if !m.Valid() {
		return fmt.Errorf("%w: unknown method %q", models.ErrValidation, string(m))
	}

	s.mu.Lock()
	s.current = m
	s.mu.Unlock()
	return nil
}

// Current returns the selected method, or false before the first selection.
func (s *Selector) Current() (models.Method, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != ""
}
