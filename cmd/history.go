package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/cadence/internal/store"
	"github.com/abhisek/cadence/internal/ui/theme"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded time-line messages and nudges",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		kind, _ := cmd.Flags().GetString("kind")
		switch kind {
		case "", store.KindMoment, store.KindNudge:
		default:
			return fmt.Errorf("unknown --kind %q (want %s or %s)", kind, store.KindMoment, store.KindNudge)
		}

		d, err := openDeps(cmd, nil, nil)
		if err != nil {
			return err
		}
		defer d.Close()
		if d.events == nil {
			return errors.New("no event log in ephemeral mode")
		}

		events, err := d.events.QueryEvents(cmd.Context(), store.QueryOpts{Kind: kind, Limit: limit})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, theme.Hint.Render("no events yet"))
			return nil
		}
		for _, ev := range events {
			printEvent(out, ev, d.loc)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of events (0 for all)")
	historyCmd.Flags().String("kind", "", "Only show events of this kind (moment or nudge)")
}

func printEvent(w io.Writer, ev store.EventRecord, loc *time.Location) {
	ts := ev.Timestamp.In(loc).Format("2006-01-02 15:04")
	fmt.Fprintf(w, "%s  %s  %s\n", theme.Hint.Render(ts), theme.Title.Render(fmt.Sprintf("%-6s", ev.Kind)), summarizeEvent(ev))
}

func summarizeEvent(ev store.EventRecord) string {
	switch ev.Kind {
	case store.KindMoment:
		var m store.MomentEventData
		if err := json.Unmarshal(ev.Payload, &m); err != nil {
			return "(unreadable)"
		}
		return fmt.Sprintf("[%s] %s", m.ThresholdID, m.Message)
	case store.KindNudge:
		var n store.NudgeEventData
		if err := json.Unmarshal(ev.Payload, &n); err != nil {
			return "(unreadable)"
		}
		return fmt.Sprintf("[%s/%s] %s", n.Category, n.Stage, n.Text)
	default:
		return string(ev.Payload)
	}
}
