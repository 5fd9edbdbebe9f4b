package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history", "expansions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)

	base := time.Now()
	require.NoError(t, s.Record(Entry{
		Timestamp:      base.Add(-time.Minute),
		Trigger:        ":sig",
		SnippetName:    "Signature",
		ContentID:      "a.md#Signature",
		ReplacementLen: 20,
		Outcome:        OutcomeOK,
	}))
	require.NoError(t, s.Record(Entry{
		Timestamp:   base,
		Trigger:     "!today",
		SnippetName: "Today",
		ContentID:   "a.md#Today",
		Outcome:     OutcomePasteFailed,
	}))

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "!today", entries[0].Trigger)
	assert.Equal(t, OutcomePasteFailed, entries[0].Outcome)
	assert.Equal(t, ":sig", entries[1].Trigger)
	assert.Equal(t, 20, entries[1].ReplacementLen)
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(Entry{Trigger: ":sig", SnippetName: "Signature", Outcome: OutcomeOK}))
	}

	entries, err := s.Recent(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestCountByTrigger(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Record(Entry{Trigger: ":sig", Outcome: OutcomeOK}))
	require.NoError(t, s.Record(Entry{Trigger: ":sig", Outcome: OutcomeOK}))
	require.NoError(t, s.Record(Entry{Trigger: ":sig", Outcome: OutcomeDeleteFailed}))
	require.NoError(t, s.Record(Entry{Trigger: "!today", Outcome: OutcomeOK}))

	counts, err := s.CountByTrigger()
	require.NoError(t, err)

	assert.Equal(t, 2, counts[":sig"], "failed expansions must not count")
	assert.Equal(t, 1, counts["!today"])
}

func TestRecordFillsTimestamp(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Record(Entry{Trigger: ":sig", Outcome: OutcomeOK}))

	entries, err := s.Recent(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Timestamp.IsZero())
}
