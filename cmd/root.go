package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/cadence/internal/config"
	"github.com/abhisek/cadence/internal/logging"
	"github.com/abhisek/cadence/internal/store"
)

var (
	verbose bool
	cfg     = config.DefaultConfig()
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Temporal engagement and nudge scheduling",
	Long: "Cadence decides when a short time-aware line should surface for a returning user\n" +
		"and picks reflective nudges for their chosen intentions.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}

		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if tz, _ := cmd.Flags().GetString("tz"); tz != "" {
			c.Timezone = tz
			if err := c.Validate(); err != nil {
				return err
			}
		}
		cfg = c

		l, err := logging.New(cfg.LogLevel, verbose)
		if err != nil {
			return err
		}
		logger = l
		logger.Debug("config loaded", zap.String("path", path), zap.String("timezone", cfg.Timezone))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CADENCE_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/cadence/config.yaml)")
	rootCmd.PersistentFlags().String("tz", "", "IANA time zone for local dates (overrides CADENCE_TZ)")
	rootCmd.PersistentFlags().Bool("ephemeral", false, "Keep state in memory only")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(nudgeCmd)
	rootCmd.AddCommand(intentionCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (CADENCE_DB or config file), then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
