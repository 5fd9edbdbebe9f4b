// Package injector performs synthetic text edits in the focused
// application: deleting the typed trigger and pasting its replacement.
//
// The expansion worker always deletes before pasting and aborts on a
// failed delete, so a failure can never duplicate text in the user's
// document.
package injector

import "errors"

// Injector issues synthetic edits to the focused application.
type Injector interface {
	// DeleteChars removes count characters behind the caret, as if by
	// pressing backspace count times.
	DeleteChars(count int) error

	// PasteText inserts text at the caret.
	PasteText(text string) error
}

// Injection errors.
var (
	// ErrDeleteFailed means the synthetic backspace sequence could not
	// be issued.
	ErrDeleteFailed = errors.New("failed to delete trigger characters")

	// ErrPasteFailed means the replacement text could not be inserted.
	ErrPasteFailed = errors.New("failed to paste replacement text")

	// ErrNoBackend means no synthetic-input tool is available on this
	// system.
	ErrNoBackend = errors.New("no text injection backend available")
)
