package commands

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luxfi/airdrop/pkg/chain"
	"github.com/luxfi/airdrop/pkg/config"
	"github.com/luxfi/airdrop/pkg/logutils"
)

// NewRootCommand creates the airdrop command tree.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "airdrop",
		Short: "One-shot token airdrop toolkit",
		Long: `airdrop validates a recipient list, sends native tokens to it in batches
through a multisender contract and tracks every transaction until it is final.
It also computes cohort allocations from a coin inventory and builds Merkle
roots for claim contracts.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (yaml, json or toml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-file", "", "write logs to this file with rotation instead of stderr")

	rootCmd.AddCommand(
		NewSendCommand(),
		NewValidateCommand(),
		NewStatusCommand(),
		NewDistributeCommand(),
		NewMerkleCommand(),
	)
	return rootCmd
}

// loadConfig decodes the command's flags, environment and config file into out.
func loadConfig(cmd *cobra.Command, out interface{}) error {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	return config.Load(cmd.Flags(), configFile, out)
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	file, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return nil, err
	}
	return logutils.NewLogger(level, logutils.FileOptions{Filename: file})
}

func dial(ctx context.Context, urls []string, logger *zap.Logger) (*ethclient.Client, *big.Int, error) {
	client, err := chain.Dial(ctx, urls)
	if err != nil {
		return nil, nil, err
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	logger.Info("connected", zap.Stringer("chainID", chainID))
	return client, chainID, nil
}
