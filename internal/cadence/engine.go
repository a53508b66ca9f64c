package cadence

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/cadence/internal/store"
)

// Clock supplies the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// RandSource draws the probability gate. *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// Policy holds the gate constants.
type Policy struct {
	// Messages only surface when AllowedStartHour <= local hour < AllowedEndHour.
	AllowedStartHour int
	AllowedEndHour   int

	// MinHoursBetween is the minimum gap between two time-line messages.
	MinHoursBetween float64

	// BigMomentSilenceDays is how many local days stay quiet after a big moment.
	BigMomentSilenceDays int
}

// DefaultPolicy returns the standard gate constants.
func DefaultPolicy() Policy {
	return Policy{
		AllowedStartHour:     7,
		AllowedEndHour:       23,
		MinHoursBetween:      42,
		BigMomentSilenceDays: 4,
	}
}

// Decision explains the outcome of a tick.
type Decision string

const (
	DecisionNone             Decision = "none"
	DecisionRateLimited      Decision = "rate-limited"
	DecisionOutsideHours     Decision = "outside-hours"
	DecisionBigMomentSilence Decision = "big-moment-silence"
	DecisionProbabilityMiss  Decision = "probability-miss"
	DecisionFired            Decision = "fired"
)

// Result is the outcome of one tick.
type Result struct {
	// Message is empty unless Decision is DecisionFired.
	Message     string
	ThresholdID ThresholdID
	State       State
	Decision    Decision

	// Candidate is the threshold that reached the gates, if any.
	Candidate   ThresholdID
	Probability float64
}

// Fired reports whether the tick produced a message.
func (r Result) Fired() bool {
	return r.Decision == DecisionFired
}

// Engine tracks app opens and decides when a time-line message surfaces.
// Construct one per process; the storage and clock are injected.
type Engine struct {
	mu sync.Mutex

	repo      store.StateRepo
	eventRepo store.EventRepo
	clock     Clock
	rand      RandSource
	loc       *time.Location
	policy    Policy
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used when Tick is called with a zero time.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRand sets the random source for the probability gate.
func WithRand(r RandSource) Option {
	return func(e *Engine) { e.rand = r }
}

// WithLocation sets the time zone used for date keys and allowed hours.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) { e.loc = loc }
}

// WithPolicy overrides the gate constants.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEventRepo records fired messages to the event log.
func WithEventRepo(r store.EventRepo) Option {
	return func(e *Engine) { e.eventRepo = r }
}

// New creates an Engine over repo.
func New(repo store.StateRepo, opts ...Option) *Engine {
	e := &Engine{
		repo:   repo,
		clock:  ClockFunc(time.Now),
		rand:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		loc:    time.Local,
		policy: DefaultPolicy(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the persisted record, or an empty one if none is readable.
// It never writes; a legacy record is only moved by Tick.
func (e *Engine) State(ctx context.Context) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(ctx, false)
}

// Reset deletes the persisted record.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.repo.Remove(ctx, StateKey); err != nil {
		return err
	}
	return e.repo.Remove(ctx, legacyStateKey)
}

// Tick records an app open at now (the clock's time if zero), updates the
// streak and week bookkeeping, and returns at most one time-line message.
// State is persisted whether or not a message surfaces.
func (e *Engine) Tick(ctx context.Context, now time.Time) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if now.IsZero() {
		now = e.clock.Now()
	}
	today := DateKey(now, e.loc)

	s := e.load(ctx, true)
	daysSince, hasPrev := 0, false
	if s.LastDate != "" {
		daysSince, hasPrev = DaysBetween(s.LastDate, today)
	}
	if hasPrev && daysSince < 0 {
		// The clock moved backwards; count it as another open on the last day.
		e.logger.Debug("tick before last open", zap.String("last_date", s.LastDate), zap.String("today", today))
		e.save(ctx, &s)
		return Result{State: s.Clone(), Decision: DecisionNone}
	}

	recordOpen(&s, now, today, WeekStartKey(now, e.loc), daysSince, hasPrev)

	res := e.evaluate(ctx, &s, now, today, daysSince, hasPrev)
	e.save(ctx, &s)
	res.State = s.Clone()
	return res
}

// recordOpen applies the streak and week bookkeeping for an open on today.
func recordOpen(s *State, now time.Time, today, weekStart string, daysSince int, hasPrev bool) {
	switch {
	case !hasPrev:
		s.Streak = 1
	case daysSince == 0:
		if s.Streak == 0 {
			s.Streak = 1
		}
	case daysSince == 1:
		s.Streak++
	default:
		s.Streak = 1
	}

	switch {
	case s.WeekStart != weekStart:
		s.WeekStart = weekStart
		s.WeekCount = 1
	case !hasPrev:
		s.WeekCount = 1
	case daysSince > 0:
		s.WeekCount++
	}

	at := now
	s.LastOpenAt = &at
	s.LastDate = today
}

func (e *Engine) evaluate(ctx context.Context, s *State, now time.Time, today string, daysSince int, hasPrev bool) Result {
	if e.rateLimited(s, now, today) {
		e.logger.Debug("time-line rate limited", zap.String("today", today))
		return Result{Decision: DecisionRateLimited}
	}

	th, ok := selectThreshold(s, daysSince, hasPrev, today)
	if !ok {
		return Result{Decision: DecisionNone}
	}
	res := Result{Candidate: th.ID}

	hour := LocalHour(now, e.loc)
	if hour < e.policy.AllowedStartHour || hour >= e.policy.AllowedEndHour {
		e.logger.Debug("outside allowed hours", zap.String("threshold", string(th.ID)), zap.Int("hour", hour))
		res.Decision = DecisionOutsideHours
		return res
	}

	if e.inBigMomentSilence(s, today) {
		e.logger.Debug("big moment silence", zap.String("threshold", string(th.ID)))
		res.Decision = DecisionBigMomentSilence
		return res
	}

	res.Probability = fireProbability(th, s, daysSince, now)
	if draw := e.rand.Float64(); draw >= res.Probability {
		e.logger.Debug("probability miss",
			zap.String("threshold", string(th.ID)),
			zap.Float64("probability", res.Probability),
			zap.Float64("draw", draw))
		res.Decision = DecisionProbabilityMiss
		return res
	}

	at := now
	s.LastTimeLineAt = &at
	s.LastTimeLineDate = today
	s.ShownDates[th.ID] = today
	if th.BigMoment {
		s.LastBigMomentAt = &at
		s.LastBigMomentDate = today
	}

	e.record(ctx, s, th, now, daysSince, hasPrev, res.Probability)

	res.Decision = DecisionFired
	res.ThresholdID = th.ID
	res.Message = th.Message
	return res
}

// rateLimited enforces one message per local day and the minimum gap.
func (e *Engine) rateLimited(s *State, now time.Time, today string) bool {
	if s.LastTimeLineDate == today {
		return true
	}
	if s.LastTimeLineAt == nil {
		return false
	}
	return now.Sub(*s.LastTimeLineAt).Hours() < e.policy.MinHoursBetween
}

func (e *Engine) inBigMomentSilence(s *State, today string) bool {
	if s.LastBigMomentDate == "" {
		return false
	}
	days, ok := DaysBetween(s.LastBigMomentDate, today)
	return ok && days < e.policy.BigMomentSilenceDays
}

func (e *Engine) record(ctx context.Context, s *State, th Threshold, now time.Time, daysSince int, hasPrev bool, p float64) {
	if e.eventRepo == nil {
		return
	}
	data := store.MomentEventData{
		At:          now,
		ThresholdID: string(th.ID),
		Message:     th.Message,
		Streak:      s.Streak,
		WeekCount:   s.WeekCount,
		Probability: p,
	}
	if hasPrev {
		d := daysSince
		data.DaysSinceLastOpen = &d
	}
	if err := e.eventRepo.AppendMomentEvent(ctx, data); err != nil {
		e.logger.Warn("record moment event", zap.Error(err))
	}
}

func (e *Engine) load(ctx context.Context, move bool) State {
	s, err := loadState(ctx, e.repo, e.loc, move)
	if err != nil {
		e.logger.Warn("cadence state unreadable, starting empty", zap.Error(err))
	}
	return s
}

func (e *Engine) save(ctx context.Context, s *State) {
	if err := saveState(ctx, e.repo, *s); err != nil {
		e.logger.Warn("persist cadence state", zap.Error(err))
	}
}
