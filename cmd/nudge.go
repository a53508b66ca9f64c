package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cadence/internal/nudge"
	"github.com/abhisek/cadence/internal/ui/theme"
)

var nudgeCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Suggest a reflective nudge for the current intentions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := atFlag(cmd)
		if err != nil {
			return err
		}

		var opts []nudge.Option
		if cmd.Flags().Changed("cooldown") {
			days, _ := cmd.Flags().GetInt("cooldown")
			if days < 0 {
				return fmt.Errorf("--cooldown must not be negative")
			}
			opts = append(opts, nudge.WithCooldownDays(days))
		}

		d, err := openDeps(cmd, nil, opts)
		if err != nil {
			return err
		}
		defer d.Close()

		out := cmd.OutOrStdout()
		res := d.nudges.Suggest(cmd.Context(), now, seedFlag(cmd))
		if res == nil {
			fmt.Fprintln(out, theme.Hint.Render("no nudge right now"))
			return nil
		}

		fmt.Fprintln(out, theme.Nudge.Render(res.Text))
		fmt.Fprintln(out, theme.Hint.Render(fmt.Sprintf("%s · %s", res.Category.DisplayName(), res.Stage)))
		return nil
	},
}

func init() {
	nudgeCmd.Flags().String("at", "", "Evaluation time (RFC 3339, default now)")
	nudgeCmd.Flags().Int64("seed", 0, "Replace the weekly bucket with a fixed seed")
	nudgeCmd.Flags().Int("cooldown", 0, "Minimum whole days between nudges (default from config)")
}
