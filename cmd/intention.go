package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/cadence/internal/nudge"
	"github.com/abhisek/cadence/internal/ui/theme"
)

var intentionCmd = &cobra.Command{
	Use:   "intention",
	Short: "Manage the intentions nudges are chosen for",
}

var intentionSetCmd = &cobra.Command{
	Use:   "set <category>...",
	Short: "Replace the active intentions",
	Long: fmt.Sprintf("Replace the active intentions (at most %d) and restart the stage clock.\nCategories: %s.",
		nudge.MaxIntentions, categoryList()),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := atFlag(cmd)
		if err != nil {
			return err
		}
		d, err := openDeps(cmd, nil, nil)
		if err != nil {
			return err
		}
		defer d.Close()

		cats, err := d.nudges.SetIntentions(cmd.Context(), args, now)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), theme.Ok.Render("intentions set:"), displayNames(cats))
		return nil
	},
}

var intentionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active intentions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := atFlag(cmd)
		if err != nil {
			return err
		}
		d, err := openDeps(cmd, nil, nil)
		if err != nil {
			return err
		}
		defer d.Close()

		out := cmd.OutOrStdout()
		in := d.nudges.Intentions(cmd.Context())
		if in.SetAt.IsZero() {
			fmt.Fprintln(out, theme.Hint.Render("no intentions set"))
			return nil
		}

		raw := make([]string, len(in.Categories))
		for i, c := range in.Categories {
			raw[i] = string(c)
		}
		days := nudge.WholeDays(in.SetAt, now)

		fmt.Fprintln(out, theme.Row("intentions", displayNames(in.Categories)))
		fmt.Fprintln(out, theme.Row("nudge category", nudge.Normalize(raw).DisplayName()))
		fmt.Fprintln(out, theme.Row("set at", in.SetAt.In(d.loc).Format(time.RFC3339)))
		if stage, ok := nudge.StageFor(days); ok {
			fmt.Fprintln(out, theme.Row("stage", string(stage)))
		} else {
			fmt.Fprintln(out, theme.Row("stage", "none yet"))
		}
		return nil
	},
}

func init() {
	intentionSetCmd.Flags().String("at", "", "When the intentions were set (RFC 3339, default now)")
	intentionShowCmd.Flags().String("at", "", "Evaluation time for the stage (RFC 3339, default now)")

	intentionCmd.AddCommand(intentionSetCmd)
	intentionCmd.AddCommand(intentionShowCmd)
}

func categoryList() string {
	names := make([]string, 0, len(nudge.AllCategories()))
	for _, c := range nudge.AllCategories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

func displayNames(cats []nudge.Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.DisplayName()
	}
	return strings.Join(names, ", ")
}
