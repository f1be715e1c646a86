package airdrop

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/luxfi/airdrop/pkg/logutils"
)

// StatusReader resolves the current status of a transaction.
type StatusReader interface {
	TransactionStatus(ctx context.Context, hash common.Hash) (Status, error)
}

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	Interval time.Duration
	// Timer paces polling; nil uses the wall clock.
	Timer  backoff.Timer
	Logger *zap.Logger
	// OnTally is called after every polling round.
	OnTally func(Tally)
}

// Tracker polls pending transactions until none remain.
type Tracker struct {
	reader   StatusReader
	interval time.Duration
	timer    backoff.Timer
	logger   *zap.Logger
	onTally  func(Tally)
}

// NewTracker creates a tracker.
func NewTracker(reader StatusReader, cfg TrackerConfig) *Tracker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	return &Tracker{
		reader:   reader,
		interval: cfg.Interval,
		timer:    timerOrWall(cfg.Timer),
		logger:   logutils.OrNop(cfg.Logger),
		onTally:  cfg.OnTally,
	}
}

// Poll queries every pending record once. Terminal records are left alone.
func (t *Tracker) Poll(ctx context.Context, records []*TxRecord) Tally {
	for _, r := range records {
		if r.Status.Terminal() {
			continue
		}
		status, err := t.reader.TransactionStatus(ctx, r.Hash)
		if err != nil {
			t.logger.Warn("Failed to get transaction status", zap.Stringer("tx", r.Hash), zap.Error(err))
			continue
		}
		if status != r.Status {
			t.logger.Debug("Transaction status changed",
				zap.Stringer("tx", r.Hash),
				zap.Stringer("status", status),
			)
		}
		r.Status = status
	}
	return Count(records)
}

// Track polls until every record is terminal and returns the partition.
func (t *Tracker) Track(ctx context.Context, records []*TxRecord) (*Outcome, error) {
	for {
		tally := t.Poll(ctx, records)
		t.logger.Info(tally.String())
		if t.onTally != nil {
			t.onTally(tally)
		}

		if tally.Success == len(records) {
			t.logger.Info("Complete!")
		}
		if tally.Pending == 0 {
			t.logger.Info("All txs sent.")
			outcome, _ := Partition(records)
			return outcome, nil
		}

		if err := wait(ctx, t.timer, t.interval); err != nil {
			return nil, err
		}
	}
}
