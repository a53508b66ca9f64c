package cmd

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/abhisek/cadence/internal/cadence"
	"github.com/abhisek/cadence/internal/ui/theme"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Record an app open and maybe surface a time-line message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := atFlag(cmd)
		if err != nil {
			return err
		}

		var opts []cadence.Option
		if seed := seedFlag(cmd); seed != nil {
			opts = append(opts, cadence.WithRand(rand.New(rand.NewPCG(uint64(*seed), 0))))
		}

		d, err := openDeps(cmd, opts, nil)
		if err != nil {
			return err
		}
		defer d.Close()

		res := d.engine.Tick(cmd.Context(), now)
		out := cmd.OutOrStdout()

		if res.Fired() {
			fmt.Fprintln(out, theme.Moment.Render(res.Message))
		} else {
			fmt.Fprintln(out, theme.Hint.Render(fmt.Sprintf("nothing right now (%s)", res.Decision)))
		}

		fmt.Fprintln(out, theme.Row("streak", fmt.Sprintf("%d", res.State.Streak)))
		fmt.Fprintln(out, theme.Row("opens this week", fmt.Sprintf("%d", res.State.WeekCount)))
		if res.Candidate != "" {
			fmt.Fprintln(out, theme.Row("candidate", string(res.Candidate)))
			fmt.Fprintln(out, theme.Row("probability", fmt.Sprintf("%.3f", res.Probability)))
		}
		return nil
	},
}

func init() {
	tickCmd.Flags().String("at", "", "Tick time (RFC 3339, default now)")
	tickCmd.Flags().Int64("seed", 0, "Seed the probability draw for a reproducible run")
}
