package injector

import (
	"errors"
	"strings"
	"testing"
)

func TestMemoryRecordsOps(t *testing.T) {
	m := NewMemory()

	if err := m.DeleteChars(4); err != nil {
		t.Fatalf("DeleteChars failed: %v", err)
	}
	if err := m.PasteText("hello"); err != nil {
		t.Fatalf("PasteText failed: %v", err)
	}

	ops := m.Ops()
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(ops))
	}
	if ops[0].Kind != "delete" || ops[0].Count != 4 {
		t.Errorf("unexpected first op %+v", ops[0])
	}
	if ops[1].Kind != "paste" || ops[1].Text != "hello" {
		t.Errorf("unexpected second op %+v", ops[1])
	}
}

func TestMemoryFailureInjection(t *testing.T) {
	m := NewMemory()
	m.FailDelete = true

	if err := m.DeleteChars(1); !errors.Is(err, ErrDeleteFailed) {
		t.Errorf("expected ErrDeleteFailed, got %v", err)
	}

	m.FailDelete = false
	m.FailPaste = true
	if err := m.PasteText("x"); !errors.Is(err, ErrPasteFailed) {
		t.Errorf("expected ErrPasteFailed, got %v", err)
	}

	if len(m.Ops()) != 0 {
		t.Errorf("failed calls must not be recorded, got %v", m.Ops())
	}
}

func TestBuildOsascriptType(t *testing.T) {
	script := buildOsascriptType("line \"one\"\nline two")

	if !strings.Contains(script, `keystroke "line \"one\""`) {
		t.Errorf("expected escaped quotes, got:\n%s", script)
	}
	if !strings.Contains(script, "keystroke return") {
		t.Errorf("expected return between lines, got:\n%s", script)
	}
}
