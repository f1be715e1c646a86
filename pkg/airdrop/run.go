package airdrop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/luxfi/airdrop/pkg/address"
	"github.com/luxfi/airdrop/pkg/logutils"
)

// Chain is everything the send flow needs from the network.
type Chain interface {
	address.CodeReader
	BalanceReader
	Sender
	StatusReader
}

// RunConfig configures a send run.
type RunConfig struct {
	From             common.Address
	Amount           *big.Int
	BatchSize        int
	ExcludeContracts bool
	Retry            RetryPolicy
	PollInterval     time.Duration
	OutputDir        string
}

// Runner executes the send flow: validate, fund check, confirm, submit, track.
type Runner struct {
	chain     Chain
	cfg       RunConfig
	confirmer Confirmer
	out       io.Writer
	logger    *zap.Logger

	// Timer paces retries and polling; nil uses the wall clock.
	Timer backoff.Timer
	// Now stamps the output files.
	Now func() time.Time
}

// NewRunner creates a runner. Summaries are printed to out.
func NewRunner(chain Chain, cfg RunConfig, confirmer Confirmer, out io.Writer, logger *zap.Logger) (*Runner, error) {
	if cfg.Amount == nil || cfg.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if confirmer == nil {
		return nil, fmt.Errorf("confirmer is required")
	}
	if out == nil {
		out = io.Discard
	}
	return &Runner{
		chain:     chain,
		cfg:       cfg,
		confirmer: confirmer,
		out:       out,
		logger:    logutils.OrNop(logger),
		Now:       time.Now,
	}, nil
}

// Report summarizes a run.
type Report struct {
	Validation *address.Result
	Funding    *FundingReport
	Records    []*TxRecord
	Outcome    *Outcome
	Files      *ResultFiles
	// Submitted lists every hash sent, written before tracking starts.
	Submitted string
	Elapsed   time.Duration
}

// Run executes the flow over raw recipient entries. It returns
// ErrInsufficientFunds or ErrDeclined (wrapped) before anything is sent.
func (r *Runner) Run(ctx context.Context, raw []string) (*Report, error) {
	report := &Report{}

	validation, err := address.Validate(ctx, raw, address.Options{
		ExcludeContracts: r.cfg.ExcludeContracts,
		Code:             r.chain,
		Logger:           r.logger,
	})
	if err != nil {
		return report, err
	}
	report.Validation = validation

	fmt.Fprintf(r.out, "# Bad addrs: %d\n", len(validation.Bad))
	fmt.Fprintf(r.out, "# Good addrs: %d\n", len(validation.Good))
	fmt.Fprintf(r.out, "# Duplicates: %d\n", validation.Duplicates)
	fmt.Fprintf(r.out, "# Contracts: %d\n", len(validation.Contracts))

	funding, err := CheckFunds(ctx, r.chain, r.cfg.From, r.cfg.Amount, len(validation.Good))
	report.Funding = funding
	if funding != nil {
		fmt.Fprintf(r.out, "Total cost to send %s wei to each: %s wei\n", funding.Amount, funding.Required)
		fmt.Fprintf(r.out, "Your wallet balance: %s wei\n", funding.Balance)
	}
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			fmt.Fprintln(r.out, "Aborting, not enough funds")
		}
		return report, err
	}

	ok, err := r.confirmer.Confirm(ctx, "Continue?")
	if err != nil {
		return report, fmt.Errorf("failed to confirm: %w", err)
	}
	if !ok {
		return report, ErrDeclined
	}

	batches, err := MakeBatches(validation.Good, r.cfg.BatchSize, r.cfg.Amount)
	if err != nil {
		return report, err
	}

	start := r.Now()
	submitter := NewSubmitter(r.chain, SubmitterConfig{
		Policy: r.cfg.Retry,
		Timer:  r.Timer,
		Logger: r.logger,
	})
	records, submitErr := submitter.Submit(ctx, batches)
	report.Records = records
	report.Elapsed = r.Now().Sub(start)
	fmt.Fprintf(r.out, "%d txs created in %s\n", len(records), report.Elapsed)
	if submitErr != nil && len(records) == 0 {
		return report, submitErr
	}

	submitted, err := WriteSubmitted(r.cfg.OutputDir, start, records)
	if err != nil {
		return report, err
	}
	report.Submitted = submitted

	tracker := NewTracker(r.chain, TrackerConfig{
		Interval: r.cfg.PollInterval,
		Timer:    r.Timer,
		Logger:   r.logger,
		OnTally: func(t Tally) {
			fmt.Fprintln(r.out, t.String())
		},
	})
	outcome, err := tracker.Track(ctx, records)
	if err != nil {
		return report, err
	}
	report.Outcome = outcome

	files, err := WriteOutcome(r.cfg.OutputDir, r.Now(), outcome)
	if err != nil {
		return report, err
	}
	report.Files = files

	return report, submitErr
}
