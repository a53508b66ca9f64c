package nudge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/cadence/internal/store"
)

// Storage keys for intention bookkeeping.
const (
	IntentionsKey   = "nudge.intentions"
	LastShownAtKey  = "nudge.last_shown_at"
	LastShownKeyKey = "nudge.last_shown_key"

	// legacySetAtKey held the set time when IntentionsKey was a bare array.
	legacySetAtKey = "nudge.intention_set_at"
)

// IntentionsVersion is the current intention record version.
const IntentionsVersion = 1

// DefaultCooldownDays is the minimum whole days between two nudges.
const DefaultCooldownDays = 3

// Intentions is the persisted intention set. Categories and SetAt are
// written together so a stage never restarts without its categories.
type Intentions struct {
	Version    int        `json:"version"`
	Categories []Category `json:"categories"`
	SetAt      time.Time  `json:"set_at"`
}

// Service keeps the intention bookkeeping that callers feed into Select.
type Service struct {
	repo      store.StateRepo
	eventRepo store.EventRepo
	lib       Library
	cooldown  int
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLibrary replaces the built-in messages.
func WithLibrary(lib Library) Option {
	return func(s *Service) { s.lib = lib }
}

// WithCooldownDays sets the minimum whole days between nudges.
func WithCooldownDays(days int) Option {
	return func(s *Service) { s.cooldown = days }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEventRepo records shown nudges to the event log.
func WithEventRepo(r store.EventRepo) Option {
	return func(s *Service) { s.eventRepo = r }
}

// NewService creates a Service over repo.
func NewService(repo store.StateRepo, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		lib:      DefaultLibrary(),
		cooldown: DefaultCooldownDays,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetIntentions replaces the active intentions and restarts the stage clock.
func (s *Service) SetIntentions(ctx context.Context, raw []string, now time.Time) ([]Category, error) {
	if len(raw) > MaxIntentions {
		return nil, fmt.Errorf("at most %d intentions, got %d", MaxIntentions, len(raw))
	}

	cats := make([]Category, 0, len(raw))
	for _, r := range raw {
		c, ok := ParseCategory(r)
		if !ok || c == CategoryMixed {
			return nil, fmt.Errorf("unknown intention %q", r)
		}
		cats = append(cats, c)
	}

	b, err := json.Marshal(Intentions{
		Version:    IntentionsVersion,
		Categories: cats,
		SetAt:      now.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode intentions: %w", err)
	}
	if err := s.repo.Set(ctx, IntentionsKey, string(b)); err != nil {
		return nil, fmt.Errorf("write intentions: %w", err)
	}
	if err := s.repo.Remove(ctx, legacySetAtKey); err != nil {
		s.logger.Warn("remove legacy intention time", zap.Error(err))
	}
	return cats, nil
}

// Clear removes the intentions and the shown-nudge bookkeeping.
func (s *Service) Clear(ctx context.Context) error {
	for _, key := range []string{IntentionsKey, legacySetAtKey, LastShownAtKey, LastShownKeyKey} {
		if err := s.repo.Remove(ctx, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}

// Intentions returns the persisted intention set. A missing or unreadable
// record yields an empty set with a zero SetAt. A record from before
// versioning (a bare category array plus a separate set time) is read as is;
// the next SetIntentions rewrites it.
func (s *Service) Intentions(ctx context.Context) Intentions {
	raw, ok := s.get(ctx, IntentionsKey)
	if !ok {
		return Intentions{}
	}

	if bytes.HasPrefix(bytes.TrimSpace([]byte(raw)), []byte("[")) {
		in := Intentions{}
		if err := json.Unmarshal([]byte(raw), &in.Categories); err != nil {
			s.logger.Warn("legacy intentions unreadable", zap.Error(err))
			return Intentions{}
		}
		in.SetAt = s.getTime(ctx, legacySetAtKey)
		in.Version = IntentionsVersion
		return in
	}

	var in Intentions
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		s.logger.Warn("intentions unreadable", zap.Error(err))
		return Intentions{}
	}
	if in.Version > IntentionsVersion {
		s.logger.Warn("intentions from a newer version", zap.Int("version", in.Version))
	}
	in.Version = IntentionsVersion
	return in
}

// Suggest selects a nudge for the persisted intentions at now. When a nudge
// is returned it is marked as shown; a pick identical to the last shown one
// is suppressed.
func (s *Service) Suggest(ctx context.Context, now time.Time, seed *int64) *Result {
	in := s.Intentions(ctx)
	if in.SetAt.IsZero() {
		return nil
	}

	raw := make([]string, len(in.Categories))
	for i, c := range in.Categories {
		raw[i] = string(c)
	}

	res := Select(s.lib, Request{
		Categories:     raw,
		StateEnteredAt: in.SetAt,
		LastShownAt:    s.getTime(ctx, LastShownAtKey),
		CooldownDays:   s.cooldown,
		Now:            now,
		Seed:           seed,
	})
	if res == nil {
		return nil
	}

	if last, ok := s.get(ctx, LastShownKeyKey); ok && last == res.Key {
		s.logger.Debug("nudge already shown", zap.String("key", res.Key))
		return nil
	}

	s.markShown(ctx, res, now)
	return res
}

func (s *Service) markShown(ctx context.Context, res *Result, now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	if err := s.repo.Set(ctx, LastShownAtKey, now.UTC().Format(time.RFC3339Nano)); err != nil {
		s.logger.Warn("persist nudge shown time", zap.Error(err))
	}
	if err := s.repo.Set(ctx, LastShownKeyKey, res.Key); err != nil {
		s.logger.Warn("persist nudge shown key", zap.Error(err))
	}

	if s.eventRepo == nil {
		return
	}
	err := s.eventRepo.AppendNudgeEvent(ctx, store.NudgeEventData{
		At:       now,
		Category: string(res.Category),
		Stage:    string(res.Stage),
		Key:      res.Key,
		Text:     res.Text,
	})
	if err != nil {
		s.logger.Warn("record nudge event", zap.Error(err))
	}
}

func (s *Service) get(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		s.logger.Warn("read nudge state", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return v, ok
}

func (s *Service) getTime(ctx context.Context, key string) time.Time {
	raw, ok := s.get(ctx, key)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.logger.Warn("nudge timestamp unreadable", zap.String("key", key), zap.Error(err))
		return time.Time{}
	}
	return t
}
