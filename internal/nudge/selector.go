package nudge

import (
	"fmt"
	"time"
)

const (
	day = 24 * time.Hour

	// BucketPeriod is the window within which the same pick repeats.
	BucketPeriod = 7 * day
)

// Request describes the context a nudge is chosen for.
type Request struct {
	// Categories are the active intentions, zero to MaxIntentions.
	Categories []string

	// StateEnteredAt is when the current intentions were set.
	StateEnteredAt time.Time

	// LastShownAt is when a nudge was last shown; zero if never.
	LastShownAt time.Time

	// CooldownDays is the minimum whole days between nudges.
	CooldownDays int

	// Now defaults to time.Now when zero.
	Now time.Time

	// Seed replaces the weekly bucket when set.
	Seed *int64
}

// Result is a selected nudge.
type Result struct {
	Category Category `json:"category"`
	Stage    Stage    `json:"stage"`
	Text     string   `json:"text"`

	// Key identifies the pick; the same key always yields the same text.
	Key string `json:"key"`
}

// Select picks a nudge for req from lib, or returns nil when nothing should
// be shown: the cooldown is active, the intentions are too new, or the
// library has no message for the category and stage.
func Select(lib Library, req Request) *Result {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	if !req.LastShownAt.IsZero() && WholeDays(req.LastShownAt, now) < req.CooldownDays {
		return nil
	}

	if req.StateEnteredAt.IsZero() {
		return nil
	}
	category := Normalize(req.Categories)

	elapsed := WholeDays(req.StateEnteredAt, now)
	stage, ok := StageFor(elapsed)
	if !ok {
		return nil
	}

	candidates := lib.Candidates(category, stage)
	if len(candidates) == 0 {
		return nil
	}

	bucket := Bucket(now)
	if req.Seed != nil {
		bucket = *req.Seed
	}

	key := fmt.Sprintf("%s|%s|%d|%d", category, stage, bucket, elapsed)
	idx := Hash(key) % uint32(len(candidates))

	return &Result{
		Category: category,
		Stage:    stage,
		Text:     candidates[idx],
		Key:      key,
	}
}

// Bucket returns the index of the BucketPeriod window containing t,
// counted from the Unix epoch.
func Bucket(t time.Time) int64 {
	ms := t.UnixMilli()
	period := BucketPeriod.Milliseconds()
	b := ms / period
	if ms%period < 0 {
		b--
	}
	return b
}

// Hash is a base-31 polynomial rolling hash over the bytes of s, wrapping
// at 2^32.
func Hash(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}

// WholeDays returns the floor of the days elapsed from since to now, so a
// since in the future counts as negative days.
func WholeDays(since, now time.Time) int {
	d := now.Sub(since)
	days := int(d / day)
	if d%day < 0 {
		days--
	}
	return days
}
