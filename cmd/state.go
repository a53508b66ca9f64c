package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cadence/internal/ui/theme"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the persisted cadence state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, nil, nil)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if showKeys, _ := cmd.Flags().GetBool("keys"); showKeys {
			keys, err := d.kv.Keys(ctx, "")
			if err != nil {
				return err
			}
			for _, k := range keys {
				v, _, err := d.kv.Get(ctx, k)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, theme.Row(k, v))
			}
			return nil
		}

		b, err := json.MarshalIndent(d.engine.State(ctx), "", "  ")
		if err != nil {
			return fmt.Errorf("encode state: %w", err)
		}
		fmt.Fprintln(out, string(b))
		return nil
	},
}

func init() {
	stateCmd.Flags().Bool("keys", false, "List every stored key and raw value instead")
}
