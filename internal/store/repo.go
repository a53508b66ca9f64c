package store

import (
	"context"
	"encoding/json"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Kind   string    // exact event kind ("" = all)
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// StateRepo is a string key-value store for serialized state blobs.
// Get reports ok=false when the key is absent.
type StateRepo interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Event kinds recorded in the event log.
const (
	KindMoment = "moment"
	KindNudge  = "nudge"
)

// MomentEventData captures a time-line message surfaced by the cadence engine.
type MomentEventData struct {
	At                time.Time `json:"at"`
	ThresholdID       string    `json:"threshold_id"`
	Message           string    `json:"message"`
	Streak            int       `json:"streak"`
	WeekCount         int       `json:"week_count"`
	DaysSinceLastOpen *int      `json:"days_since_last_open,omitempty"`
	Probability       float64   `json:"probability"`
}

// NudgeEventData captures a reflective nudge handed to the caller.
type NudgeEventData struct {
	At       time.Time `json:"at"`
	Category string    `json:"category"`
	Stage    string    `json:"stage"`
	Key      string    `json:"key"`
	Text     string    `json:"text"`
}

// EventRecord is a single row of the event log.
type EventRecord struct {
	ID        string
	Sequence  int64
	Timestamp time.Time
	Kind      string
	Payload   json.RawMessage
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendMomentEvent records a fired cadence threshold.
	AppendMomentEvent(ctx context.Context, data MomentEventData) error

	// AppendNudgeEvent records a selected nudge.
	AppendNudgeEvent(ctx context.Context, data NudgeEventData) error

	// QueryEvents returns events ordered by sequence, newest first.
	QueryEvents(ctx context.Context, opts QueryOpts) ([]EventRecord, error)
}
