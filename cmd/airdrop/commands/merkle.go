package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/airdrop/pkg/config"
	"github.com/luxfi/airdrop/pkg/merkle"
)

// NewMerkleCommand creates the merkle command
func NewMerkleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merkle",
		Short: "Build Merkle roots from allocation CSVs",
		Long: `Reads every CSV matching --glob with recipient and allocation_wei columns and
prints one Merkle root per file. Leaves are keccak256(abi.encode(address,
uint256)). With --proofs each file also gets a <file>.merkle.json holding the
proof of every recipient.`,
		RunE: runMerkle,
	}

	f := cmd.Flags()
	f.String("glob", merkle.DefaultGlob, "allocation files")
	f.Bool("proofs", false, "write <file>.merkle.json proof manifests")

	return cmd
}

func runMerkle(cmd *cobra.Command, args []string) error {
	var cfg config.Merkle
	if err := loadConfig(cmd, &cfg); err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	out := cmd.OutOrStdout()

	roots, err := merkle.BuildFromGlob(cfg.Glob, logger)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		return fmt.Errorf("no files match %s", cfg.Glob)
	}

	for _, r := range roots {
		fmt.Fprintf(out, "%s %s (%d recipients)\n", r.Root.Hex(), r.File, len(r.Entries))
		if !cfg.Proofs {
			continue
		}
		path, err := r.WriteProofs()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  proofs: %s\n", path)
	}
	return nil
}
