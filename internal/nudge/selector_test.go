package nudge

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday, well inside its weekly bucket.
var baseNow = time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

func daysBefore(t time.Time, d int) time.Time {
	return t.Add(-time.Duration(d) * day)
}

func TestHash(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"", 0},
		{"a", 97},
		{"ab", 97*31 + 98},
		{"hello", 99162322},
	}
	for _, tt := range tests {
		if got := Hash(tt.in); got != tt.want {
			t.Errorf("Hash(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHash_WrapsAt32Bits(t *testing.T) {
	ref := func(s string) uint32 {
		var h uint64
		for i := 0; i < len(s); i++ {
			h = (h*31 + uint64(s[i])) % (1 << 32)
		}
		return uint32(h)
	}
	for _, s := range []string{
		"calm|early|2873|3",
		"connection|late|-12|400",
		"a much longer key that certainly overflows thirty-two bits many times over",
	} {
		assert.Equal(t, ref(s), Hash(s), "Hash(%q)", s)
	}
}

func TestBucket(t *testing.T) {
	week := BucketPeriod.Milliseconds()
	tests := []struct {
		ms   int64
		want int64
	}{
		{0, 0},
		{week - 1, 0},
		{week, 1},
		{10*week + 5, 10},
		{-1, -1},
		{-week, -1},
		{-week - 1, -2},
	}
	for _, tt := range tests {
		if got := Bucket(time.UnixMilli(tt.ms)); got != tt.want {
			t.Errorf("Bucket(%d) = %d, want %d", tt.ms, got, tt.want)
		}
	}
}

func TestWholeDays(t *testing.T) {
	tests := []struct {
		name  string
		since time.Time
		want  int
	}{
		{"same instant", baseNow, 0},
		{"just under a day", baseNow.Add(-day + time.Second), 0},
		{"three days", daysBefore(baseNow, 3), 3},
		{"an hour ahead", baseNow.Add(time.Hour), -1},
		{"a day ahead", baseNow.Add(day), -1},
		{"a day and a minute ahead", baseNow.Add(day + time.Minute), -2},
	}
	for _, tt := range tests {
		if got := WholeDays(tt.since, baseNow); got != tt.want {
			t.Errorf("%s: WholeDays() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestSelect_Deterministic(t *testing.T) {
	req := Request{
		Categories:     []string{"calm"},
		StateEnteredAt: daysBefore(baseNow, 5),
		Now:            baseNow,
	}

	first := Select(DefaultLibrary(), req)
	second := Select(DefaultLibrary(), req)
	require.NotNil(t, first)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated select differs:\n%s", diff)
	}
}

func TestSelect_StableWithinBucket(t *testing.T) {
	entered := daysBefore(baseNow, 8)
	a := Select(DefaultLibrary(), Request{
		Categories:     []string{"focus"},
		StateEnteredAt: entered,
		Now:            baseNow,
	})
	// Two hours later: same weekly bucket, same whole-day count.
	b := Select(DefaultLibrary(), Request{
		Categories:     []string{"focus"},
		StateEnteredAt: entered,
		Now:            baseNow.Add(2 * time.Hour),
	})
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, a.Key, b.Key)
	assert.Equal(t, a.Text, b.Text)
}

func TestSelect_KeyAndIndex(t *testing.T) {
	lib := DefaultLibrary()
	res := Select(lib, Request{
		Categories:     []string{"calm"},
		StateEnteredAt: daysBefore(baseNow, 3),
		Now:            baseNow,
	})
	require.NotNil(t, res)

	wantKey := fmt.Sprintf("calm|early|%d|3", Bucket(baseNow))
	assert.Equal(t, wantKey, res.Key)
	assert.Equal(t, CategoryCalm, res.Category)
	assert.Equal(t, StageEarly, res.Stage)

	cands := lib.Candidates(CategoryCalm, StageEarly)
	assert.Equal(t, cands[Hash(wantKey)%uint32(len(cands))], res.Text)
}

func TestSelect_SeedReplacesBucket(t *testing.T) {
	seed := int64(42)
	res := Select(DefaultLibrary(), Request{
		Categories:     []string{"rest"},
		StateEnteredAt: daysBefore(baseNow, 15),
		Now:            baseNow,
		Seed:           &seed,
	})
	require.NotNil(t, res)
	assert.Equal(t, "rest|late|42|15", res.Key)

	// The same seed pins the pick even in another week.
	later := Select(DefaultLibrary(), Request{
		Categories:     []string{"rest"},
		StateEnteredAt: daysBefore(baseNow, 15).Add(30 * day),
		Now:            baseNow.Add(30 * day),
		Seed:           &seed,
	})
	require.NotNil(t, later)
	assert.Equal(t, res.Key, later.Key)
	assert.Equal(t, res.Text, later.Text)
}

func TestSelect_Stages(t *testing.T) {
	tests := []struct {
		days int
		want Stage
	}{
		{0, ""},
		{2, ""},
		{3, StageEarly},
		{6, StageEarly},
		{7, StageMid},
		{13, StageMid},
		{14, StageLate},
		{90, StageLate},
	}
	for _, tt := range tests {
		res := Select(DefaultLibrary(), Request{
			Categories:     []string{"clarity"},
			StateEnteredAt: daysBefore(baseNow, tt.days),
			Now:            baseNow,
		})
		if tt.want == "" {
			assert.Nil(t, res, "%d days", tt.days)
			continue
		}
		if assert.NotNil(t, res, "%d days", tt.days) {
			assert.Equal(t, tt.want, res.Stage, "%d days", tt.days)
		}
	}
}

func TestSelect_PartialDayDoesNotCount(t *testing.T) {
	res := Select(DefaultLibrary(), Request{
		StateEnteredAt: daysBefore(baseNow, 3).Add(time.Minute),
		Now:            baseNow,
	})
	assert.Nil(t, res, "2 days 23h59m is still two whole days")
}

func TestSelect_FutureEntryHasNoStage(t *testing.T) {
	res := Select(DefaultLibrary(), Request{
		StateEnteredAt: baseNow.Add(time.Hour),
		Now:            baseNow,
	})
	assert.Nil(t, res)
}

func TestSelect_MissingEntryTime(t *testing.T) {
	assert.Nil(t, Select(DefaultLibrary(), Request{Now: baseNow}))
}

func TestSelect_Cooldown(t *testing.T) {
	base := Request{
		Categories:     []string{"calm"},
		StateEnteredAt: daysBefore(baseNow, 10),
		Now:            baseNow,
		CooldownDays:   3,
	}

	tests := []struct {
		name      string
		lastShown time.Time
		cooldown  int
		wantNil   bool
	}{
		{"never shown", time.Time{}, 3, false},
		{"shown yesterday", daysBefore(baseNow, 1), 3, true},
		{"shown just under cooldown", daysBefore(baseNow, 3).Add(time.Second), 3, true},
		{"cooldown elapsed", daysBefore(baseNow, 3), 3, false},
		{"zero cooldown", baseNow, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			req.LastShownAt = tt.lastShown
			req.CooldownDays = tt.cooldown
			res := Select(DefaultLibrary(), req)
			assert.Equal(t, tt.wantNil, res == nil)
		})
	}
}

func TestSelect_EmptyCandidates(t *testing.T) {
	lib := Library{CategoryCalm: {StageEarly: {"only early"}}}
	res := Select(lib, Request{
		Categories:     []string{"calm"},
		StateEnteredAt: daysBefore(baseNow, 8),
		Now:            baseNow,
	})
	assert.Nil(t, res)
}

func TestSelect_TextComesFromLibrary(t *testing.T) {
	lib := DefaultLibrary()
	for _, c := range append(AllCategories(), CategoryMixed) {
		for d := 3; d < 40; d++ {
			res := Select(lib, Request{
				Categories:     []string{string(c)},
				StateEnteredAt: daysBefore(baseNow, d),
				Now:            baseNow,
			})
			require.NotNil(t, res)
			assert.Contains(t, lib.Candidates(c, res.Stage), res.Text)
		}
	}
}
