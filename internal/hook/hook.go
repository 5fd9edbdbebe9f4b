// Package hook provides system-wide keyboard event capture for the
// expansion engine.
//
// A Hook delivers one KeyEvent per keystroke to a callback. The hook
// guarantees the callback is never re-entered concurrently: events form
// a single serialized stream. Platform support:
//   - Linux: reads /dev/input/event* (requires membership in the
//     input group, or root)
//   - other platforms: not yet implemented; use Simulated in tests
package hook

import "errors"

// KeyEvent is one delivered keyboard event.
type KeyEvent struct {
	// Character is the textual payload of the event, empty for keys
	// that produce no text (modifiers, function keys, arrows).
	Character string

	// CommandHeld reports the platform's primary command modifier
	// (Super/Meta on Linux).
	CommandHeld bool

	// ControlHeld reports the control modifier.
	ControlHeld bool

	// OptionHeld reports the alt/option modifier.
	OptionHeld bool
}

// HasActionModifier reports whether any non-shift modifier is held,
// which marks the event as a keyboard shortcut rather than typed text.
func (e KeyEvent) HasActionModifier() bool {
	return e.CommandHeld || e.ControlHeld || e.OptionHeld
}

// Callback receives keyboard events. It must return quickly; any
// delay is user-visible typing latency.
type Callback func(KeyEvent)

// Hook captures keyboard events system-wide.
type Hook interface {
	// Start installs the hook and begins delivering events to cb.
	Start(cb Callback) error

	// Stop tears the hook down. Safe to call when not running.
	Stop()
}

// Hook lifecycle errors.
var (
	// ErrPermissionDenied means the platform refused access to input
	// devices. The caller should prompt the user to grant access and
	// retry; the hook is never retried automatically.
	ErrPermissionDenied = errors.New("insufficient permissions for keyboard monitoring")

	// ErrInstallFailed means the monitoring primitive could not be
	// installed.
	ErrInstallFailed = errors.New("failed to install keyboard monitoring hook")

	// ErrAlreadyRunning is returned by Start when the hook is active.
	ErrAlreadyRunning = errors.New("keyboard hook already running")

	// ErrNotSupported means keyboard monitoring is not implemented on
	// this platform.
	ErrNotSupported = errors.New("keyboard monitoring not supported on this platform")
)

// New returns the keyboard hook for the current platform.
func New() Hook {
	return newPlatformHook()
}
