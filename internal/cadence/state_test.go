package cadence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/cadence/internal/store"
)

func TestDecodeState_Current(t *testing.T) {
	raw := `{
		"version": 1,
		"last_open_at": "2025-03-04T09:00:00Z",
		"last_date": "2025-03-04",
		"streak": 2,
		"week_start": "2025-03-03",
		"week_count": 2,
		"shown_dates": {"streak.3": "2025-02-01"}
	}`

	s, err := DecodeState(raw, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, StateVersion, s.Version)
	assert.Equal(t, 2, s.Streak)
	assert.Equal(t, "2025-02-01", s.ShownDates[Streak3])
	require.NotNil(t, s.LastOpenAt)
	assert.True(t, s.LastOpenAt.Equal(time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)))
}

func TestDecodeState_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{"streak":`},
		{"not an object", `[1,2,3]`},
		{"negative streak", `{"streak": -1}`},
		{"fractional count", `{"week_count": 1.5}`},
		{"week count too large", `{"week_count": 8}`},
		{"bad date key", `{"last_date": "03/04/2025"}`},
		{"bad cooldown stamp", `{"shown_dates": {"streak.3": 5}}`},
		{"wrong type", `{"streak": "two"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DecodeState(tt.raw, time.UTC)
			assert.Error(t, err)
			assert.True(t, s.IsEmpty(), "fallback must be the empty record")
		})
	}
}

func TestDecodeState_MigratesUnversioned(t *testing.T) {
	// Unversioned records carried timestamps but not the derived date keys.
	raw := `{
		"last_open_at": "2025-03-04T23:30:00Z",
		"last_time_line_at": "2025-03-01T10:00:00Z",
		"last_big_moment_at": "2025-03-01T10:00:00Z"
	}`
	plus2 := time.FixedZone("UTC+2", 2*60*60)

	s, err := DecodeState(raw, plus2)
	require.NoError(t, err)
	assert.Equal(t, StateVersion, s.Version)
	assert.Equal(t, "2025-03-05", s.LastDate)
	assert.Equal(t, 1, s.Streak)
	assert.Equal(t, "2025-03-03", s.WeekStart)
	assert.Equal(t, 1, s.WeekCount)
	assert.Equal(t, "2025-03-01", s.LastTimeLineDate)
	assert.Equal(t, "2025-03-01", s.LastBigMomentDate)
	assert.NotNil(t, s.ShownDates)
}

func TestDecodeState_IgnoresUnknownFields(t *testing.T) {
	s, err := DecodeState(`{"version": 1, "streak": 4, "future_field": true}`, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Streak)
}

func TestLoadState_MovesLegacyRecord(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, legacyStateKey, `{"last_open_at":"2025-03-04T09:00:00Z","streak":2}`))

	s, err := loadState(ctx, kv, time.UTC, true)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Streak)
	assert.Equal(t, "2025-03-04", s.LastDate)

	_, ok, _ := kv.Get(ctx, legacyStateKey)
	assert.False(t, ok, "legacy key removed")

	raw, ok, _ := kv.Get(ctx, StateKey)
	require.True(t, ok)
	again, err := DecodeState(raw, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, s.LastDate, again.LastDate)
}

func TestLoadState_ReadOnlyKeepsLegacyRecord(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	legacy := `{"last_open_at":"2025-03-04T09:00:00Z","streak":2}`
	require.NoError(t, kv.Set(ctx, legacyStateKey, legacy))

	s, err := loadState(ctx, kv, time.UTC, false)
	require.NoError(t, err)
	if s.Streak != 2 {
		t.Errorf("Streak = %d, want 2", s.Streak)
	}

	raw, ok, _ := kv.Get(ctx, legacyStateKey)
	if !ok || raw != legacy {
		t.Errorf("legacy record changed: %q, present=%v", raw, ok)
	}
	if _, ok, _ := kv.Get(ctx, StateKey); ok {
		t.Error("read-only load wrote StateKey")
	}
}

func TestEngineState_DoesNotWrite(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, legacyStateKey, `{"last_open_at":"2025-03-04T09:00:00Z","streak":2}`))
	kv.SetErr = errors.New("read-only")

	e := New(kv, WithLocation(time.UTC))
	if got := e.State(ctx).Streak; got != 2 {
		t.Errorf("State().Streak = %d, want 2", got)
	}
	if n := kv.Len(); n != 1 {
		t.Errorf("store has %d keys after State, want 1", n)
	}

	kv.SetErr = nil
	e.Tick(ctx, time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC))
	if _, ok, _ := kv.Get(ctx, legacyStateKey); ok {
		t.Error("Tick should move the legacy record")
	}
}

func TestLoadState_PrefersCurrentKey(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, legacyStateKey, `{"streak":9}`))
	require.NoError(t, kv.Set(ctx, StateKey, `{"version":1,"streak":3}`))

	s, err := loadState(ctx, kv, time.UTC, true)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Streak)
}

func TestLoadState_Missing(t *testing.T) {
	s, err := loadState(context.Background(), store.NewMemoryKV(), time.UTC, false)
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
	assert.Equal(t, StateVersion, s.Version)
}

func TestStateClone(t *testing.T) {
	s := NewState()
	ts := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	s.LastOpenAt = &ts
	s.ShownDates[Streak3] = "2025-03-04"

	c := s.Clone()
	c.ShownDates[Streak7] = "2025-03-05"
	*c.LastOpenAt = ts.Add(time.Hour)

	assert.NotContains(t, s.ShownDates, Streak7)
	assert.True(t, s.LastOpenAt.Equal(ts))
}
