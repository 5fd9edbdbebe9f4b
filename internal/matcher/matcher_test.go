package matcher

import "testing"

func feed(t *testing.T, m *Matcher, s string) []Match {
	t.Helper()
	var matches []Match
	for _, r := range s {
		if match, ok := m.ProcessKeystroke(r); ok {
			matches = append(matches, match)
		}
	}
	return matches
}

func TestNewCreatesEmptyMatcher(t *testing.T) {
	m := New()
	if m.Count() != 0 {
		t.Errorf("expected 0 triggers, got %d", m.Count())
	}
	if m.Buffer() != "" {
		t.Errorf("expected empty buffer, got %q", m.Buffer())
	}
}

func TestRegisterAddsTrigger(t *testing.T) {
	m := New()
	m.Register(":sig", "snippets/sig.md#Signature")

	if m.Count() != 1 {
		t.Errorf("expected 1 trigger, got %d", m.Count())
	}
	if !m.Has(":sig") {
		t.Error("expected :sig to be registered")
	}
}

func TestRegisterEmptyTriggerIgnored(t *testing.T) {
	m := New()
	m.Register("", "snippets/empty.md")

	if m.Count() != 0 {
		t.Errorf("expected empty trigger to be ignored, got %d triggers", m.Count())
	}
}

func TestRegisterReplacesExisting(t *testing.T) {
	m := New()
	m.Register(":sig", "first")
	m.Register(":sig", "second")

	if m.Count() != 1 {
		t.Errorf("expected registry size 1 after re-register, got %d", m.Count())
	}

	matches := feed(t, m, ":sig")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].ContentID != "second" {
		t.Errorf("expected re-registration to replace content ID, got %q", matches[0].ContentID)
	}
}

func TestUnregisterRemovesTrigger(t *testing.T) {
	m := New()
	m.Register(":sig", "id")

	if !m.Unregister(":sig") {
		t.Error("expected Unregister to report true for known trigger")
	}
	if m.Has(":sig") {
		t.Error("expected :sig to be gone")
	}
}

func TestUnregisterUnknownReturnsFalse(t *testing.T) {
	m := New()
	if m.Unregister(":nope") {
		t.Error("expected Unregister to report false for unknown trigger")
	}
}

func TestClearTriggersRemovesAll(t *testing.T) {
	m := New()
	m.Register(":sig", "a")
	m.Register("!today", "b")

	m.ClearTriggers()

	if m.Count() != 0 {
		t.Errorf("expected 0 triggers after clear, got %d", m.Count())
	}
}

func TestNoMatchWithoutTriggers(t *testing.T) {
	m := New()
	if matches := feed(t, m, "hello"); len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestSimpleTriggerMatchesOnLastKeystroke(t *testing.T) {
	m := New()
	m.Register(":sig", "snippets/sig.md#Signature")

	for _, r := range ":si" {
		if _, ok := m.ProcessKeystroke(r); ok {
			t.Fatalf("unexpected match before trigger complete at %q", r)
		}
	}

	match, ok := m.ProcessKeystroke('g')
	if !ok {
		t.Fatal("expected match on final keystroke")
	}
	if match.Trigger != ":sig" {
		t.Errorf("expected trigger :sig, got %q", match.Trigger)
	}
	if match.CharsToDelete != 4 {
		t.Errorf("expected 4 chars to delete, got %d", match.CharsToDelete)
	}
	if match.ContentID != "snippets/sig.md#Signature" {
		t.Errorf("unexpected content ID %q", match.ContentID)
	}
}

func TestCharsToDeleteCountsRunesNotBytes(t *testing.T) {
	m := New()
	m.Register("✓ok", "id")

	for _, r := range "✓o" {
		if _, ok := m.ProcessKeystroke(r); ok {
			t.Fatal("unexpected early match")
		}
	}

	match, ok := m.ProcessKeystroke('k')
	if !ok {
		t.Fatal("expected match")
	}
	// "✓ok" is 3 runes but 5 bytes.
	if match.CharsToDelete != 3 {
		t.Errorf("expected chars_to_delete 3, got %d", match.CharsToDelete)
	}
}

func TestBufferClearedAfterMatch(t *testing.T) {
	m := New()
	m.Register(":sig", "id")

	feed(t, m, "hello :sig")

	if m.Buffer() != "" {
		t.Errorf("expected empty buffer after match, got %q", m.Buffer())
	}
}

func TestBufferStoresKeystrokes(t *testing.T) {
	m := New()
	feed(t, m, "hello world")

	if m.Buffer() != "hello world" {
		t.Errorf("expected buffer %q, got %q", "hello world", m.Buffer())
	}
}

func TestBufferClearsOnClearingCharacters(t *testing.T) {
	for _, r := range []rune{'\n', '\r', '\x1b', '\t'} {
		m := New()
		m.Register("hello", "id")
		feed(t, m, "hell")

		if match, ok := m.ProcessKeystroke(r); ok {
			t.Errorf("clearing character %q produced match %+v", r, match)
		}
		if m.Buffer() != "" {
			t.Errorf("expected empty buffer after %q, got %q", r, m.Buffer())
		}
	}
}

func TestSpaceDoesNotClearBuffer(t *testing.T) {
	m := New()
	feed(t, m, "hello world")

	if m.Buffer() != "hello world" {
		t.Errorf("space should not clear buffer, got %q", m.Buffer())
	}
}

func TestBufferTrimsToMaxSize(t *testing.T) {
	m := WithBufferSize(10)
	feed(t, m, "12345678901234567890")

	if m.Buffer() != "1234567890" {
		t.Errorf("expected last 10 chars, got %q", m.Buffer())
	}
}

func TestBufferTrimsWholeRunes(t *testing.T) {
	m := WithBufferSize(4)
	feed(t, m, "日本語テキスト")

	if got := m.Buffer(); got != "テキスト" {
		t.Errorf("expected last 4 runes %q, got %q", "テキスト", got)
	}
}

func TestMatchAfterBufferTrim(t *testing.T) {
	m := WithBufferSize(20)
	m.Register(":sig", "id")

	long := "This is a very long sentence that will definitely exceed the buffer size "
	if matches := feed(t, m, long); len(matches) != 0 {
		t.Fatal("unexpected match in filler text")
	}

	if matches := feed(t, m, ":sig"); len(matches) != 1 {
		t.Fatalf("expected match after buffer trim, got %d", len(matches))
	}
}

func TestShorterPrefixFiresFirst(t *testing.T) {
	// ":sig" completes while ":sign" is still partial, so it fires
	// before the longer trigger can ever be evaluated complete.
	m := New()
	m.Register(":sig", "sig")
	m.Register(":sign", "sign")

	matches := feed(t, m, ":sig")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Trigger != ":sig" {
		t.Errorf("expected :sig to fire first, got %q", matches[0].Trigger)
	}
}

func TestLongestTriggerWinsOnSimultaneousSuffix(t *testing.T) {
	// Both "ig" and ":sig" become suffixes on the same keystroke; the
	// longest registered trigger wins.
	m := New()
	m.Register("ig", "short")
	m.Register(":sig", "long")

	matches := feed(t, m, ":sig")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Trigger != ":sig" {
		t.Errorf("expected longest trigger to win, got %q", matches[0].Trigger)
	}
}

func TestEqualLengthTieBreaksLexicographically(t *testing.T) {
	// Contrived but deterministic: both triggers are the same length
	// and both are suffixes of the buffer only when identical, so use
	// overlapping suffixes of equal length.
	m := New()
	m.Register("aab", "first")
	m.Register("ab", "sub")
	m.Register("bb", "other")

	matches := feed(t, m, "aab")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Trigger != "aab" {
		t.Errorf("expected aab, got %q", matches[0].Trigger)
	}
}

func TestMatchAfterNewlineClear(t *testing.T) {
	m := New()
	m.Register(":sig", "id")

	matches := feed(t, m, "hello\n:sig")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match after newline, got %d", len(matches))
	}
	if matches[0].Trigger != ":sig" {
		t.Errorf("got %q", matches[0].Trigger)
	}
}

func TestNoMatchWhenTriggerSplitByClear(t *testing.T) {
	m := New()
	m.Register(":sig", "id")

	feed(t, m, ":si")
	m.ProcessKeystroke('\n')

	if _, ok := m.ProcessKeystroke('g'); ok {
		t.Error("trigger split by clearing character must not match")
	}
}

func TestSameTriggerMatchesRepeatedly(t *testing.T) {
	m := New()
	m.Register(":sig", "id")

	matches := feed(t, m, ":sig :sig")
	if len(matches) != 2 {
		t.Errorf("expected 2 matches, got %d", len(matches))
	}
}

func TestCaseSensitiveTriggers(t *testing.T) {
	m := New()
	m.Register(":Sig", "id")

	if matches := feed(t, m, ":sig"); len(matches) != 0 {
		t.Error("lowercase must not match :Sig")
	}

	m.ClearBuffer()

	if matches := feed(t, m, ":Sig"); len(matches) != 1 {
		t.Error("exact case should match")
	}
}

func TestTriggerSuffixStyles(t *testing.T) {
	cases := []struct {
		trigger string
		typed   string
		delete  int
	}{
		{":sig", "hello :sig", 4},
		{"!today", "hello !today", 6},
		{"/date", "hello /date", 5},
		{"sig,,", "hello sig,,", 5},
		{"email;", "email;", 6},
		{"btw", "btw", 3},
	}

	for _, tc := range cases {
		m := New()
		m.Register(tc.trigger, "id")

		matches := feed(t, m, tc.typed)
		if len(matches) != 1 {
			t.Errorf("%q: expected 1 match, got %d", tc.trigger, len(matches))
			continue
		}
		if matches[0].Trigger != tc.trigger {
			t.Errorf("%q: got trigger %q", tc.trigger, matches[0].Trigger)
		}
		if matches[0].CharsToDelete != tc.delete {
			t.Errorf("%q: expected %d chars to delete, got %d", tc.trigger, tc.delete, matches[0].CharsToDelete)
		}
	}
}

func TestRealisticTypingScenario(t *testing.T) {
	m := New()
	m.Register(":sig", "sig")
	m.Register(":email", "email")
	m.Register("addr,,", "addr")

	text := "Dear John,\n\nThank you for your :email regarding the project.\n\nHere is my address: addr,,\n\nBest regards,\n:sig"

	var fired []string
	for _, r := range text {
		if match, ok := m.ProcessKeystroke(r); ok {
			fired = append(fired, match.Trigger)
		}
	}

	want := []string{":email", "addr,,", ":sig"}
	if len(fired) != len(want) {
		t.Fatalf("expected %d matches, got %v", len(want), fired)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("match %d: expected %q, got %q", i, want[i], fired[i])
		}
	}
}
