// Package probe seeds synthetic snapshots and checks a running pricing API
// end to end.
package probe

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/comparador/pkg/logger"
)

// Default flag values.
const (
	defaultDB          = "comparador.db"
	defaultVehicles    = 200
	defaultCompetitors = 3000
	defaultSeed        = 1
	defaultURL         = "http://localhost:9080"
	defaultTimeout     = 2 * time.Minute
)

// NewRootCommand builds the pricing-probe command tree.
func NewRootCommand() *cobra.Command {
	var (
		verbose   bool
		logFormat string
	)
	root := &cobra.Command{
		Use:   "pricing-probe",
		Short: "Seed snapshots and verify the pricing analysis API",
		Long: `pricing-probe writes deterministic synthetic stock and competitor snapshots
into SQLite, and checks a running service for idempotent, self-consistent
pricing analysis responses.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithFormat(logFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", logger.FormatText, "log format: text or json")

	root.AddCommand(newSeedCommand(), newCheckCommand())
	return root
}

func newSeedCommand() *cobra.Command {
	cfg := SeedConfig{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a synthetic snapshot into a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Now = time.Now().UTC().Truncate(24 * time.Hour)
			return Seed(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.DB, "db", defaultDB, "SQLite database path")
	cmd.Flags().IntVar(&cfg.Vehicles, "vehicles", defaultVehicles, "number of stock vehicles")
	cmd.Flags().IntVar(&cfg.Competitors, "competitors", defaultCompetitors, "number of competitor listings")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", defaultSeed, "generator seed")
	return cmd
}

func newCheckCommand() *cobra.Command {
	cfg := CheckConfig{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Call the analysis endpoint twice and verify the responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := Check(cmd.Context(), cfg, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", defaultURL, "base URL of the service")
	cmd.Flags().StringVar(&cfg.Source, "source", "", "competitor source filter")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	cmd.Flags().StringVar(&cfg.Output, "output", "", "write the JSON report to this file")
	return cmd
}
