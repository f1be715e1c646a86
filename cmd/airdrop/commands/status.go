package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/airdrop/pkg/airdrop"
	"github.com/luxfi/airdrop/pkg/chain"
	"github.com/luxfi/airdrop/pkg/config"
)

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Re-check previously submitted transactions",
		Long: `Reads transaction ids (one per line), polls them until none is pending and
writes the completed, reverted and dropped files like send does. Use it to
recover the outcome of a run that was interrupted while tracking.`,
		Example: `  airdrop status --tx-file ./data/output/submitted.txt --rpc https://rpc.example.org`,
		RunE:    runStatus,
	}

	f := cmd.Flags()
	f.StringSlice("rpc", []string{"http://127.0.0.1:8545"}, "RPC endpoints, tried in order")
	f.String("tx-file", "", "transaction ids, one per line")
	f.Duration("poll-interval", airdrop.DefaultPollInterval, "wait between status polls")
	f.String("output-dir", airdrop.DefaultOutputDir, "directory for the tx id files")
	f.Bool("once", false, "poll a single time and print the tally")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	var cfg config.Status
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

	hashes, err := airdrop.ReadTxIDs(cfg.TxFile)
	if err != nil {
		return err
	}
	records := make([]*airdrop.TxRecord, len(hashes))
	for i, h := range hashes {
		records[i] = &airdrop.TxRecord{Hash: h, Batch: i, Status: airdrop.StatusPending}
	}

	backend, _, err := dial(ctx, cfg.RPC, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	client, err := chain.NewClient(backend, chain.Config{Logger: logger}, nil)
	if err != nil {
		return err
	}

	tracker := airdrop.NewTracker(client, airdrop.TrackerConfig{
		Interval: cfg.PollInterval,
		Logger:   logger,
		OnTally: func(t airdrop.Tally) {
			fmt.Fprintln(out, t.String())
		},
	})

	if cfg.Once {
		fmt.Fprintln(out, tracker.Poll(ctx, records).String())
		return nil
	}

	outcome, err := tracker.Track(ctx, records)
	if err != nil {
		return err
	}
	files, err := airdrop.WriteOutcome(cfg.OutputDir, time.Now(), outcome)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Completed: %s\n", files.Completed)
	fmt.Fprintf(out, "Reverted:  %s\n", files.Reverted)
	fmt.Fprintf(out, "Dropped:   %s\n", files.Dropped)
	return nil
}
