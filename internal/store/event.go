package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const eventsTable = "events"

// sequenceCounter manages the global monotonic sequence number shared across
// all event kinds, so moments and nudges interleave in the order they
// happened regardless of the timestamps the caller supplied.
//
// Uses raw SQL because the increment has to be atomic at the database level.
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic in SQLite.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// eventRepo implements EventRepo on the events table.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *eventRepo) AppendMomentEvent(ctx context.Context, data MomentEventData) error {
	return r.append(ctx, KindMoment, data.At, data)
}

func (r *eventRepo) AppendNudgeEvent(ctx context.Context, data NudgeEventData) error {
	return r.append(ctx, KindNudge, data.At, data)
}

func (r *eventRepo) append(ctx context.Context, kind string, at time.Time, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}

	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	if at.IsZero() {
		at = time.Now()
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(eventsTable).
		Columns("id", "sequence", "timestamp", "kind", "payload").
		Values(uuid.New().String(), seq, formatTime(at), kind, string(payload)).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("append %s event: %w", kind, err)
	}
	return nil
}

func (r *eventRepo) QueryEvents(ctx context.Context, opts QueryOpts) ([]EventRecord, error) {
	var preds []*entsql.Predicate
	if opts.Kind != "" {
		preds = append(preds, entsql.EQ("kind", opts.Kind))
	}
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", formatTime(opts.From)))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", formatTime(opts.To)))
	}

	sel := entsql.Dialect(dialect.SQLite).
		Select("id", "sequence", "timestamp", "kind", "payload").
		From(entsql.Table(eventsTable)).
		OrderBy(entsql.Desc("sequence"))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		var (
			rec     EventRecord
			ts      string
			payload string
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &ts, &rec.Kind, &payload); err != nil {
			return nil, fmt.Errorf("query events: scan: %w", err)
		}
		t, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("query events: parse timestamp %q: %w", ts, err)
		}
		rec.Timestamp = t
		rec.Payload = json.RawMessage(payload)
		records = append(records, rec)
	}
	return records, rows.Err()
}
