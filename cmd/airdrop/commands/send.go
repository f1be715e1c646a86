package commands

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luxfi/airdrop/pkg/address"
	"github.com/luxfi/airdrop/pkg/airdrop"
	"github.com/luxfi/airdrop/pkg/chain"
	"github.com/luxfi/airdrop/pkg/config"
)

// NewSendCommand creates the send command
func NewSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Validate the recipient list and airdrop to it in batches",
		Long: `Reads the recipient file, drops duplicates and malformed entries, checks the
wallet can cover every transfer plus a 0.1% margin and asks for confirmation.
Each batch is one multisend call paying amount x batch size; failed submissions
are retried. Transactions are polled until final and their ids are written to
completed, reverted and dropped files in the output directory. The ids of all
submitted transactions are saved first, so an interrupted run can be finished
with the status command.

The signing key comes from --keystore (password in AIRDROP_KEYSTORE_PASSWORD)
or from AIRDROP_PRIVATE_KEY.`,
		Example: `  AIRDROP_KEYSTORE_PASSWORD=... airdrop send \
    --rpc https://rpc.example.org \
    --contract 0x... --keystore ./keys/airdrop.json \
    --addresses ./data/airdrop.csv --amount 0.0000001`,
		RunE: runSend,
	}

	f := cmd.Flags()
	f.StringSlice("rpc", []string{"http://127.0.0.1:8545"}, "RPC endpoints, tried in order")
	f.String("contract", "", "multisender contract address")
	f.String("keystore", "", "encrypted keystore file")
	f.String("addresses", address.DefaultAddressFile, "recipient file, one address per line")
	f.String("amount", "0.0000001", "ether sent to each recipient")
	f.Int("batch-size", airdrop.DefaultBatchSize, "recipients per transaction")
	f.Duration("retry-delay", airdrop.DefaultRetryDelay, "wait before resubmitting a failed batch")
	f.Int("max-attempts", 0, "submission attempts per batch, 0 retries until interrupted")
	f.Duration("poll-interval", airdrop.DefaultPollInterval, "wait between status polls")
	f.String("output-dir", airdrop.DefaultOutputDir, "directory for the tx id files")
	f.Bool("exclude-contracts", false, "skip recipients that have contract code")
	f.Uint64("gas-limit", 0, "gas limit per transaction, 0 estimates")
	f.BoolP("yes", "y", false, "do not ask for confirmation")

	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	var cfg config.Send
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
	amount, err := cfg.AmountWei()
	if err != nil {
		return err
	}
	key, err := chain.LoadKey(cfg.Keystore, cfg.KeystorePassword, cfg.PrivateKey)
	if err != nil {
		return err
	}

	backend, chainID, err := dial(ctx, cfg.RPC, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	auth, err := chain.NewTransactor(key, chainID)
	if err != nil {
		return err
	}
	client, err := chain.NewClient(backend, chain.Config{
		Contract: common.HexToAddress(cfg.Contract),
		GasLimit: cfg.GasLimit,
		Logger:   logger,
	}, auth)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Sending funds from %s\n", client.From().Hex())

	var confirmer airdrop.Confirmer = &airdrop.PromptConfirmer{In: cmd.InOrStdin(), Out: out}
	if cfg.Yes {
		confirmer = airdrop.AlwaysConfirm
	}

	runner, err := airdrop.NewRunner(client, airdrop.RunConfig{
		From:             client.From(),
		Amount:           amount,
		BatchSize:        cfg.BatchSize,
		ExcludeContracts: cfg.ExcludeContracts,
		Retry: airdrop.RetryPolicy{
			Delay:       cfg.RetryDelay,
			MaxAttempts: cfg.MaxAttempts,
		},
		PollInterval: cfg.PollInterval,
		OutputDir:    cfg.OutputDir,
	}, confirmer, out, logger)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, raw)
	if report.Submitted != "" {
		fmt.Fprintf(out, "Submitted: %s\n", report.Submitted)
	}
	switch {
	case errors.Is(err, airdrop.ErrInsufficientFunds), errors.Is(err, airdrop.ErrDeclined):
		logger.Info("nothing sent", zap.Error(err))
		return nil
	case err != nil && report.Files == nil:
		return err
	}

	fmt.Fprintf(out, "Completed: %s\n", report.Files.Completed)
	fmt.Fprintf(out, "Reverted:  %s\n", report.Files.Reverted)
	fmt.Fprintf(out, "Dropped:   %s\n", report.Files.Dropped)
	return err
}
