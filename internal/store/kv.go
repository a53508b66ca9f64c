package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const appStateTable = "app_state"

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// KV implements StateRepo over the app_state table.
type KV struct {
	drv *entsql.Driver
}

func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("value").
		From(entsql.Table(appStateTable)).
		Where(entsql.EQ("key", key)).
		Query()

	var rows entsql.Rows
	if err := kv.drv.Query(ctx, query, args, &rows); err != nil {
		return "", false, fmt.Errorf("get app_state %q: %w", key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", false, fmt.Errorf("get app_state %q: %w", key, err)
		}
		return "", false, nil
	}

	var value string
	if err := rows.Scan(&value); err != nil {
		return "", false, fmt.Errorf("get app_state %q: scan: %w", key, err)
	}
	return value, true, nil
}

func (kv *KV) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("set app_state: empty key")
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(appStateTable).
		Columns("key", "value", "updated_at").
		Values(key, value, formatTime(time.Now())).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if err := kv.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("set app_state %q: upsert: %w", key, err)
	}
	return nil
}

func (kv *KV) Remove(ctx context.Context, key string) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(appStateTable).
		Where(entsql.EQ("key", key)).
		Query()

	if err := kv.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("remove app_state %q: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix in lexical order.
func (kv *KV) Keys(ctx context.Context, prefix string) ([]string, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("key").
		From(entsql.Table(appStateTable)).
		OrderBy("key")
	if prefix != "" {
		sel.Where(entsql.HasPrefix("key", prefix))
	}
	query, args := sel.Query()

	var rows entsql.Rows
	if err := kv.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("list app_state keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("list app_state keys: scan: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
