package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/luxfi/airdrop/pkg/address"
	"github.com/luxfi/airdrop/pkg/chain"
	"github.com/luxfi/airdrop/pkg/config"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a recipient file without sending anything",
		Long: `Runs the same checks as send over the recipient file and prints the counts.
With --output-dir the checksummed good addresses and the rejected lines are
written to good-addrs.csv and bad-addrs.csv.`,
		RunE: runValidate,
	}

	f := cmd.Flags()
	f.StringSlice("rpc", []string{"http://127.0.0.1:8545"}, "RPC endpoints, needed with --exclude-contracts")
	f.String("addresses", address.DefaultAddressFile, "recipient file, one address per line")
	f.Bool("exclude-contracts", false, "reject recipients that have contract code")
	f.String("output-dir", "", "write good-addrs.csv and bad-addrs.csv here")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	var cfg config.Validate
	if err := loadConfig(cmd, &cfg); err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	raw, err := address.ReadAddressFile(cfg.Addresses)
	if err != nil {
		return err
	}

	opts := address.Options{Logger: logger}
	if cfg.ExcludeContracts {
		backend, _, err := dial(ctx, cfg.RPC, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		client, err := chain.NewClient(backend, chain.Config{Logger: logger}, nil)
		if err != nil {
			return err
		}
		opts.ExcludeContracts = true
		opts.Code = client
	}

	result, err := address.Validate(ctx, raw, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "# Bad addrs: %d\n", len(result.Bad))
	fmt.Fprintf(out, "# Good addrs: %d\n", len(result.Good))
	fmt.Fprintf(out, "# Duplicates: %d\n", result.Duplicates)
	fmt.Fprintf(out, "# Contracts: %d\n", len(result.Contracts))
	for reason, n := range result.Reasons {
		fmt.Fprintf(out, "  %s: %d\n", reason, n)
	}

	if cfg.OutputDir == "" {
		return nil
	}
	good := filepath.Join(cfg.OutputDir, "good-addrs.csv")
	bad := filepath.Join(cfg.OutputDir, "bad-addrs.csv")
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := address.WriteAddressFile(good, result.GoodHex()); err != nil {
		return err
	}
	if err := address.WriteAddressFile(bad, result.Bad); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s and %s\n", good, bad)
	return nil
}
