package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cadence.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, s.DB()))
	require.NoError(t, Migrate(ctx, s.DB()))

	var count int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, SchemaVersion, count)
}

func TestKVGetMissing(t *testing.T) {
	kv := openTestStore(t).StateRepo()

	v, ok, err := kv.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestKVSetGetOverwriteRemove(t *testing.T) {
	kv := openTestStore(t).StateRepo()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "cadence.state", `{"version":1}`))
	v, ok, err := kv.Get(ctx, "cadence.state")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"version":1}`, v)

	require.NoError(t, kv.Set(ctx, "cadence.state", `{"version":1,"streak":2}`))
	v, _, err = kv.Get(ctx, "cadence.state")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"streak":2}`, v)

	require.NoError(t, kv.Remove(ctx, "cadence.state"))
	_, ok, err = kv.Get(ctx, "cadence.state")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent key is not an error.
	require.NoError(t, kv.Remove(ctx, "cadence.state"))
}

func TestKVSetRejectsEmptyKey(t *testing.T) {
	kv := openTestStore(t).StateRepo()
	assert.Error(t, kv.Set(context.Background(), "  ", "x"))
}

func TestKVKeysByPrefix(t *testing.T) {
	kv := openTestStore(t).StateRepo()
	ctx := context.Background()

	for _, k := range []string{"nudge.last_shown_at", "cadence.state", "nudge.intentions"} {
		require.NoError(t, kv.Set(ctx, k, "v"))
	}

	keys, err := kv.Keys(ctx, "nudge.")
	require.NoError(t, err)
	assert.Equal(t, []string{"nudge.intentions", "nudge.last_shown_at"}, keys)

	all, err := kv.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEventAppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	days := 1
	require.NoError(t, repo.AppendMomentEvent(ctx, MomentEventData{
		At:                base,
		ThresholdID:       "streak.3",
		Message:           "Three days in a row.",
		Streak:            3,
		WeekCount:         3,
		DaysSinceLastOpen: &days,
		Probability:       0.42,
	}))
	require.NoError(t, repo.AppendNudgeEvent(ctx, NudgeEventData{
		At:       base.Add(time.Hour),
		Category: "calm",
		Stage:    "early",
		Key:      "calm|early|2875|3",
		Text:     "hello",
	}))
	require.NoError(t, repo.AppendMomentEvent(ctx, MomentEventData{
		At:          base.Add(48 * time.Hour),
		ThresholdID: "return.1",
	}))

	all, err := repo.QueryEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].Sequence, "newest first")
	assert.Equal(t, int64(1), all[2].Sequence)
	assert.NotEqual(t, all[0].ID, all[1].ID)

	moments, err := repo.QueryEvents(ctx, QueryOpts{Kind: KindMoment})
	require.NoError(t, err)
	require.Len(t, moments, 2)

	var first MomentEventData
	require.NoError(t, json.Unmarshal(moments[1].Payload, &first))
	assert.Equal(t, "streak.3", first.ThresholdID)
	require.NotNil(t, first.DaysSinceLastOpen)
	assert.Equal(t, 1, *first.DaysSinceLastOpen)
	assert.True(t, moments[1].Timestamp.Equal(base))

	limited, err := repo.QueryEvents(ctx, QueryOpts{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, int64(3), limited[0].Sequence)

	windowed, err := repo.QueryEvents(ctx, QueryOpts{
		From: base.Add(30 * time.Minute),
		To:   base.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, KindNudge, windowed[0].Kind)

	after, err := repo.QueryEvents(ctx, QueryOpts{After: 1, Before: 3})
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, int64(2), after[0].Sequence)
}

func TestMemoryKV(t *testing.T) {
	m := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1"))
	v, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Set(ctx, "nudge.b", "2"))
	require.NoError(t, m.Set(ctx, "nudge.a", "3"))
	keys, err := m.Keys(ctx, "nudge.")
	require.NoError(t, err)
	assert.Equal(t, []string{"nudge.a", "nudge.b"}, keys)

	require.NoError(t, m.Remove(ctx, "a"))
	assert.Equal(t, 2, m.Len())
}
