// Package matcher implements streaming trigger detection for text
// expansion.
//
// A Matcher keeps a rolling buffer of the most recently typed
// characters and checks, after every keystroke, whether the buffer ends
// with a registered trigger. Matching is immediate: a trigger fires on
// the keystroke that completes it. All buffer accounting is done in
// runes, never bytes, so multi-byte characters are handled correctly.
package matcher

import (
	"log/slog"
	"strings"
	"sync"
)

// DefaultMaxBufferSize is the default rolling-buffer capacity in runes.
const DefaultMaxBufferSize = 50

// bufferClearRunes invalidate any partially typed trigger: the user
// submitted input or moved focus. Space is deliberately not in this
// set, so triggers may contain spaces.
var bufferClearRunes = map[rune]bool{
	'\n':   true,
	'\r':   true,
	'\x1b': true,
	'\t':   true,
}

// Match is the result of a successful trigger match.
type Match struct {
	// Trigger is the trigger text that was matched.
	Trigger string

	// ContentID identifies the expansion content for the trigger.
	ContentID string

	// CharsToDelete is the number of characters (runes, not bytes)
	// making up the trigger in the target document.
	CharsToDelete int
}

// Matcher detects registered triggers in a stream of keystrokes.
//
// The zero value is not usable; construct with New or WithBufferSize.
// All methods are safe for concurrent use.
type Matcher struct {
	mu            sync.Mutex
	triggers      map[string]string // trigger text -> content ID
	buffer        []rune
	maxBufferSize int
}

// New creates a Matcher with the default buffer size.
func New() *Matcher {
	return WithBufferSize(DefaultMaxBufferSize)
}

// WithBufferSize creates a Matcher whose rolling buffer holds at most
// maxSize runes.
func WithBufferSize(maxSize int) *Matcher {
	if maxSize <= 0 {
		maxSize = DefaultMaxBufferSize
	}
	return &Matcher{
		triggers:      make(map[string]string),
		buffer:        make([]rune, 0, maxSize),
		maxBufferSize: maxSize,
	}
}

// Register adds a trigger mapped to a content ID. Registering an
// existing trigger replaces its content ID. Empty triggers are ignored.
func (m *Matcher) Register(trigger, contentID string) {
	if trigger == "" {
		slog.Debug("ignoring empty trigger registration")
		return
	}

	m.mu.Lock()
	m.triggers[trigger] = contentID
	m.mu.Unlock()

	slog.Debug("registered trigger", "trigger", trigger, "content_id", contentID)
}

// Unregister removes a trigger. It reports whether the trigger was
// registered.
func (m *Matcher) Unregister(trigger string) bool {
	m.mu.Lock()
	_, ok := m.triggers[trigger]
	delete(m.triggers, trigger)
	m.mu.Unlock()

	if ok {
		slog.Debug("unregistered trigger", "trigger", trigger)
	}
	return ok
}

// Has reports whether a trigger is registered.
func (m *Matcher) Has(trigger string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.triggers[trigger]
	return ok
}

// Count returns the number of registered triggers.
func (m *Matcher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.triggers)
}

// Triggers returns a snapshot of all registered triggers and their
// content IDs.
func (m *Matcher) Triggers() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.triggers))
	for t, id := range m.triggers {
		out[t] = id
	}
	return out
}

// ClearTriggers removes all registered triggers.
func (m *Matcher) ClearTriggers() {
	m.mu.Lock()
	m.triggers = make(map[string]string)
	m.mu.Unlock()
}

// ProcessKeystroke feeds one typed character to the matcher and reports
// whether it completed a registered trigger.
//
// Buffer-clearing characters (newline, carriage return, escape, tab)
// discard the buffer and never match. Any other character is appended;
// if the buffer then exceeds its maximum size, whole runes are dropped
// from the front. On a match the buffer is cleared before returning, so
// the next keystroke starts from an empty buffer.
func (m *Matcher) ProcessKeystroke(r rune) (Match, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bufferClearRunes[r] {
		m.buffer = m.buffer[:0]
		return Match{}, false
	}

	m.buffer = append(m.buffer, r)
	if excess := len(m.buffer) - m.maxBufferSize; excess > 0 {
		copy(m.buffer, m.buffer[excess:])
		m.buffer = m.buffer[:m.maxBufferSize]
	}

	match, ok := m.checkForMatch()
	if ok {
		m.buffer = m.buffer[:0]
	}
	return match, ok
}

// checkForMatch looks for a registered trigger at the end of the
// buffer. When several triggers are suffixes of the buffer at once the
// longest wins; equal lengths break by lexicographic order, so the
// result does not depend on map iteration order. Callers must hold mu.
func (m *Matcher) checkForMatch() (Match, bool) {
	buf := string(m.buffer)

	var best string
	found := false
	for trigger := range m.triggers {
		if !strings.HasSuffix(buf, trigger) {
			continue
		}
		if !found || len(trigger) > len(best) || (len(trigger) == len(best) && trigger < best) {
			best = trigger
			found = true
		}
	}
	if !found {
		return Match{}, false
	}

	slog.Debug("trigger matched", "trigger", best, "buffer", buf)
	return Match{
		Trigger:       best,
		ContentID:     m.triggers[best],
		CharsToDelete: len([]rune(best)),
	}, true
}

// ClearBuffer discards all buffered keystrokes.
func (m *Matcher) ClearBuffer() {
	m.mu.Lock()
	m.buffer = m.buffer[:0]
	m.mu.Unlock()
}

// Buffer returns the current buffer contents, for diagnostics and
// tests.
func (m *Matcher) Buffer() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.buffer)
}
