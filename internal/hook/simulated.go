package hook

import "sync"

// Simulated is a Hook that delivers programmatically injected events.
// It is used by tests and by platforms without a real hook. Events are
// delivered synchronously under a lock, preserving the no-concurrent-
// re-entry guarantee of real hooks.
type Simulated struct {
	mu      sync.Mutex
	cb      Callback
	running bool

	// dispatchMu serializes callback invocations.
	dispatchMu sync.Mutex
}

// NewSimulated creates a simulated hook.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// Start begins delivering injected events to cb.
func (s *Simulated) Start(cb Callback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.cb = cb
	s.running = true
	return nil
}

// Stop stops event delivery.
func (s *Simulated) Stop() {
	s.mu.Lock()
	s.cb = nil
	s.running = false
	s.mu.Unlock()
}

// IsRunning reports whether the hook is active.
func (s *Simulated) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Send delivers one event to the callback, if running.
func (s *Simulated) Send(ev KeyEvent) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb == nil {
		return
	}

	s.dispatchMu.Lock()
	cb(ev)
	s.dispatchMu.Unlock()
}

// SendText delivers each rune of text as its own event.
func (s *Simulated) SendText(text string) {
	for _, r := range text {
		s.Send(KeyEvent{Character: string(r)})
	}
}
