package injector

import "sync"

// Op records one call made against a Memory injector.
type Op struct {
	// Kind is "delete" or "paste".
	Kind string

	// Count is the character count for delete ops.
	Count int

	// Text is the pasted text for paste ops.
	Text string
}

// Memory is an Injector for tests. It records every call and can be
// told to fail deletes or pastes.
type Memory struct {
	mu  sync.Mutex
	ops []Op

	// FailDelete and FailPaste make the corresponding call return its
	// error sentinel.
	FailDelete bool
	FailPaste  bool
}

// NewMemory creates a recording injector.
func NewMemory() *Memory {
	return &Memory{}
}

// DeleteChars records a delete op.
func (m *Memory) DeleteChars(count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete {
		return ErrDeleteFailed
	}
	m.ops = append(m.ops, Op{Kind: "delete", Count: count})
	return nil
}

// PasteText records a paste op.
func (m *Memory) PasteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPaste {
		return ErrPasteFailed
	}
	m.ops = append(m.ops, Op{Kind: "paste", Text: text})
	return nil
}

// Ops returns a snapshot of all recorded operations.
func (m *Memory) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Op, len(m.ops))
	copy(out, m.ops)
	return out
}
