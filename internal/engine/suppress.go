package engine

import "sync"

// Suppressor holds the per-file one-shot suppression flags that keep the
// engine's own programmatic saves from triggering a fresh pass.
//
// The flag is armed immediately before a programmatic save and consumed
// by the very next save event for that file, whichever save that turns
// out to be. At most one suppression per stamping operation: if two
// programmatic saves race before the first consume, the second save is
// indistinguishable from a user save and causes one redundant, idempotent
// pass.
type Suppressor struct {
	mu    sync.Mutex
	armed map[string]bool
}

// NewSuppressor creates an empty suppressor.
func NewSuppressor() *Suppressor {
	return &Suppressor{armed: make(map[string]bool)}
}

// Arm sets the one-shot flag for fileKey.
func (s *Suppressor) Arm(fileKey string) {
	s.mu.Lock()
	s.armed[fileKey] = true
	s.mu.Unlock()
}

// Disarm clears the flag without consuming it, used when an armed save
// never happened (the write was rejected).
func (s *Suppressor) Disarm(fileKey string) {
	s.mu.Lock()
	delete(s.armed, fileKey)
	s.mu.Unlock()
}

// Consume returns true exactly once per Arm: the save event that calls
// it first eats the suppression.
func (s *Suppressor) Consume(fileKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.armed[fileKey] {
		delete(s.armed, fileKey)
		return true
	}
	return false
}
