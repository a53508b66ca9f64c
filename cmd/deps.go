package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/cadence/internal/cadence"
	"github.com/abhisek/cadence/internal/nudge"
	"github.com/abhisek/cadence/internal/store"
)

// stateStore is the key-value surface the commands need.
type stateStore interface {
	store.StateRepo
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// deps holds what a command needs, built from the resolved config.
type deps struct {
	st     *store.Store
	kv     stateStore
	events store.EventRepo
	loc    *time.Location
	engine *cadence.Engine
	nudges *nudge.Service
}

// openDeps opens the store (or an in-memory one with --ephemeral) and builds
// the cadence engine and nudge service over it.
func openDeps(cmd *cobra.Command, engineOpts []cadence.Option, nudgeOpts []nudge.Option) (*deps, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	d := &deps{loc: loc}

	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		d.kv = store.NewMemoryKV()
	} else {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		logger.Debug("store opened", zap.String("path", dbPath))
		d.st = st
		d.kv = st.StateRepo()
		d.events = st.EventRepo()
	}

	eopts := []cadence.Option{
		cadence.WithLocation(loc),
		cadence.WithPolicy(cfg.CadencePolicy()),
		cadence.WithLogger(logger.Named("cadence")),
	}
	nopts := []nudge.Option{
		nudge.WithCooldownDays(cfg.Nudge.CooldownDays),
		nudge.WithLogger(logger.Named("nudge")),
	}
	if d.events != nil {
		eopts = append(eopts, cadence.WithEventRepo(d.events))
		nopts = append(nopts, nudge.WithEventRepo(d.events))
	}

	d.engine = cadence.New(d.kv, append(eopts, engineOpts...)...)
	d.nudges = nudge.NewService(d.kv, append(nopts, nudgeOpts...)...)
	return d, nil
}

func (d *deps) Close() error {
	if d.st == nil {
		return nil
	}
	return d.st.Close()
}

// atFlag parses --at as RFC 3339, defaulting to the current time.
func atFlag(cmd *cobra.Command) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("at")
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", raw, err)
	}
	return t, nil
}

// seedFlag returns --seed when it was given.
func seedFlag(cmd *cobra.Command) *int64 {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	s, _ := cmd.Flags().GetInt64("seed")
	return &s
}
