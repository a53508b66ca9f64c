package cadence

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/cadence/internal/store"
)

// StateVersion is the schema version written by this package.
const StateVersion = 1

const (
	// StateKey is the storage key of the persisted cadence record.
	StateKey = "cadence.state"

	// legacyStateKey held unversioned records before StateKey existed.
	legacyStateKey = "time_engine_state"
)

// State is the persisted cadence record, one per installation.
type State struct {
	Version int `json:"version"`

	LastOpenAt *time.Time `json:"last_open_at,omitempty"`
	LastDate   string     `json:"last_date,omitempty"`
	Streak     int        `json:"streak"`

	WeekStart string `json:"week_start,omitempty"`
	WeekCount int    `json:"week_count"`

	// Rate limit across all thresholds.
	LastTimeLineAt   *time.Time `json:"last_time_line_at,omitempty"`
	LastTimeLineDate string     `json:"last_time_line_date,omitempty"`

	// Per-threshold cooldown: the local date each id last fired.
	ShownDates map[ThresholdID]string `json:"shown_dates,omitempty"`

	LastBigMomentAt   *time.Time `json:"last_big_moment_at,omitempty"`
	LastBigMomentDate string     `json:"last_big_moment_date,omitempty"`
}

// NewState returns the empty record used on first tick and after reset.
func NewState() State {
	return State{
		Version:    StateVersion,
		ShownDates: make(map[ThresholdID]string),
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	c.ShownDates = maps.Clone(s.ShownDates)
	if c.ShownDates == nil {
		c.ShownDates = make(map[ThresholdID]string)
	}
	c.LastOpenAt = cloneTime(s.LastOpenAt)
	c.LastTimeLineAt = cloneTime(s.LastTimeLineAt)
	c.LastBigMomentAt = cloneTime(s.LastBigMomentAt)
	return c
}

// IsEmpty reports whether s carries no history.
func (s State) IsEmpty() bool {
	return s.LastDate == "" && s.Streak == 0 && s.WeekStart == "" &&
		s.WeekCount == 0 && s.LastTimeLineDate == "" && len(s.ShownDates) == 0 &&
		s.LastBigMomentDate == ""
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

const dateKeyPattern = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`

// stateSchemaJSON accepts every version of the record; unknown fields pass
// through so newer writers do not lock out older readers.
const stateSchemaJSON = `{
  "type": "object",
  "properties": {
    "version":              {"type": "integer", "minimum": 0},
    "last_open_at":         {"type": "string"},
    "last_date":            {"type": "string", "pattern": "` + dateKeyPattern + `"},
    "streak":               {"type": "integer", "minimum": 0},
    "week_start":           {"type": "string", "pattern": "` + dateKeyPattern + `"},
    "week_count":           {"type": "integer", "minimum": 0, "maximum": 7},
    "last_time_line_at":    {"type": "string"},
    "last_time_line_date":  {"type": "string", "pattern": "` + dateKeyPattern + `"},
    "shown_dates": {
      "type": "object",
      "additionalProperties": {"type": "string", "pattern": "` + dateKeyPattern + `"}
    },
    "last_big_moment_at":   {"type": "string"},
    "last_big_moment_date": {"type": "string", "pattern": "` + dateKeyPattern + `"}
  }
}`

var stateSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal([]byte(stateSchemaJSON), &doc); err != nil {
		return nil, fmt.Errorf("parse state schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	const url = "schema://cadence-state.json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add state schema: %w", err)
	}
	return c.Compile(url)
})

// DecodeState validates raw against the state schema, decodes it, and
// migrates older versions forward.
func DecodeState(raw string, loc *time.Location) (State, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return NewState(), fmt.Errorf("parse state: %w", err)
	}

	schema, err := stateSchema()
	if err != nil {
		return NewState(), err
	}
	if err := schema.Validate(doc); err != nil {
		return NewState(), fmt.Errorf("validate state: %w", err)
	}

	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return NewState(), fmt.Errorf("decode state: %w", err)
	}
	migrateState(&s, loc)
	return s, nil
}

// migrateState backfills fields that unversioned records did not carry.
func migrateState(s *State, loc *time.Location) {
	if s.ShownDates == nil {
		s.ShownDates = make(map[ThresholdID]string)
	}
	if s.Version >= StateVersion {
		return
	}

	if s.LastDate == "" && s.LastOpenAt != nil {
		s.LastDate = DateKey(*s.LastOpenAt, loc)
	}
	if s.LastDate != "" && s.Streak == 0 {
		s.Streak = 1
	}
	if s.WeekStart == "" && s.LastOpenAt != nil {
		s.WeekStart = WeekStartKey(*s.LastOpenAt, loc)
		if s.WeekCount == 0 {
			s.WeekCount = 1
		}
	}
	if s.LastTimeLineDate == "" && s.LastTimeLineAt != nil {
		s.LastTimeLineDate = DateKey(*s.LastTimeLineAt, loc)
	}
	if s.LastBigMomentDate == "" && s.LastBigMomentAt != nil {
		s.LastBigMomentDate = DateKey(*s.LastBigMomentAt, loc)
	}
	s.Version = StateVersion
}

// loadState reads the cadence record, falling back to the legacy key. With
// move set, a legacy record is rewritten under StateKey and the legacy key
// removed; otherwise nothing is written. The returned state is always
// usable; err reports why it fell back to an empty record.
func loadState(ctx context.Context, repo store.StateRepo, loc *time.Location, move bool) (State, error) {
	raw, ok, err := repo.Get(ctx, StateKey)
	if err != nil {
		return NewState(), fmt.Errorf("read state: %w", err)
	}

	legacy := false
	if !ok {
		raw, ok, err = repo.Get(ctx, legacyStateKey)
		if err != nil {
			return NewState(), fmt.Errorf("read legacy state: %w", err)
		}
		if !ok {
			return NewState(), nil
		}
		legacy = true
	}

	s, err := DecodeState(raw, loc)
	if err != nil {
		return s, err
	}

	if legacy && move {
		if err := saveState(ctx, repo, s); err != nil {
			return s, err
		}
		if err := repo.Remove(ctx, legacyStateKey); err != nil {
			return s, fmt.Errorf("remove legacy state: %w", err)
		}
	}
	return s, nil
}

func saveState(ctx context.Context, repo store.StateRepo, s State) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := repo.Set(ctx, StateKey, string(b)); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
