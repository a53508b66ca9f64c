package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cadence/internal/ui/theme"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the cadence record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, nil, nil)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		if err := d.engine.Reset(ctx); err != nil {
			return fmt.Errorf("reset cadence state: %w", err)
		}
		if all, _ := cmd.Flags().GetBool("all"); all {
			if err := d.nudges.Clear(ctx); err != nil {
				return fmt.Errorf("reset intentions: %w", err)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), theme.Ok.Render("reset"))
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("all", false, "Also clear intentions and nudge history")
}
