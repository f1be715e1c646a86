package commands

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luxfi/airdrop/pkg/config"
	"github.com/luxfi/airdrop/pkg/distribution"
)

// NewDistributeCommand creates the distribute command
func NewDistributeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Compute per-recipient allocations from a coin inventory",
		Long: `Splits the USD value of the coin inventory between cohorts (by default 20%
to defi_live and 80% to gremlins), gives every member of a cohort the same
share and pays each recipient from one coin chosen by the cohort's policy
(first-fit or random-fit). The manifest is written as JSON.`,
		Example: `  airdrop distribute --inventory ./data/inventory.yaml --seed 42 --export-csv ./scripts`,
		RunE:    runDistribute,
	}

	f := cmd.Flags()
	f.String("inventory", "./data/inventory.yaml", "coin inventory and cohorts (yaml)")
	f.String("output", distribution.DefaultOutputFile, "manifest file")
	f.String("export-csv", "", "also write <symbol>.csv recipient files to this directory")
	f.Int64("seed", 0, "random-fit seed, 0 seeds from the clock")

	return cmd
}

func runDistribute(cmd *cobra.Command, args []string) error {
	var cfg config.Distribute
	if err := loadConfig(cmd, &cfg); err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	out := cmd.OutOrStdout()

	inv, err := distribution.LoadInventory(cfg.Inventory)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Debug("distributing", zap.Int64("seed", seed))

	manifest, err := distribution.Distribute(inv, distribution.Options{
		Rand:   rand.New(rand.NewSource(seed)),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to distribute: %w", err)
	}

	fmt.Fprintf(out, "Total value: %s\n", manifest.TotalValue.StringFixed(2))
	for _, c := range manifest.Cohorts {
		fmt.Fprintf(out, "  %-12s pot %s, %d recipients, %s each\n",
			c.Name, c.Pot.StringFixed(2), c.Size, c.USDShare.StringFixed(6))
	}
	for _, c := range manifest.Coins {
		fmt.Fprintf(out, "  %-8s %d recipients, %s left\n", c.Symbol, len(c.Recipients), c.RemainingAmount.StringFixed(6))
	}

	if err := distribution.WriteManifest(cfg.Output, manifest); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", cfg.Output)

	if cfg.ExportCSV != "" {
		paths, err := distribution.ExportCSV(cfg.ExportCSV, manifest)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "Wrote %s\n", p)
		}
	}
	return nil
}
