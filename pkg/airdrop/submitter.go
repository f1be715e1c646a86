package airdrop

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/luxfi/airdrop/pkg/logutils"
)

// Sender submits one multisend call and returns its transaction hash
// without waiting for confirmation.
type Sender interface {
	Multisend(ctx context.Context, recipients []common.Address, amount, value *big.Int) (common.Hash, error)
}

// SubmitterConfig configures a Submitter.
type SubmitterConfig struct {
	Policy RetryPolicy
	// Timer paces retries; nil uses the wall clock.
	Timer  backoff.Timer
	Logger *zap.Logger
}

// Submitter sends batches one after another, retrying each per its policy.
type Submitter struct {
	sender Sender
	policy RetryPolicy
	timer  backoff.Timer
	logger *zap.Logger
}

// NewSubmitter creates a submitter.
func NewSubmitter(sender Sender, cfg SubmitterConfig) *Submitter {
	if cfg.Policy.Delay <= 0 {
		cfg.Policy.Delay = DefaultRetryDelay
	}
	return &Submitter{
		sender: sender,
		policy: cfg.Policy,
		timer:  timerOrWall(cfg.Timer),
		logger: logutils.OrNop(cfg.Logger),
	}
}

// SubmitBatch sends b, retrying the same batch until it is accepted or the
// policy gives up.
func (s *Submitter) SubmitBatch(ctx context.Context, b Batch) (*TxRecord, error) {
	value := b.Value()
	attempt := 0

	var hash common.Hash
	operation := func() error {
		attempt++
		h, err := s.sender.Multisend(ctx, b.Recipients, b.Amount, value)
		if err != nil {
			return err
		}
		hash = h
		return nil
	}
	notify := func(err error, next time.Duration) {
		s.logger.Warn("Encountered exception, retrying",
			zap.Int("batch", b.Index),
			zap.Int("attempt", attempt),
			zap.Duration("retryIn", next),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotifyWithTimer(operation, s.policy.backOff(ctx), notify, s.timer); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: batch %d after %d attempts: %v", ErrRetriesExhausted, b.Index, attempt, err)
	}

	s.logger.Info("Sent tx",
		zap.Int("batch", b.Index),
		zap.Stringer("tx", hash),
		zap.Int("recipients", len(b.Recipients)),
		zap.Stringer("value", value),
	)
	return &TxRecord{
		Hash:       hash,
		Batch:      b.Index,
		Recipients: len(b.Recipients),
		Value:      value,
		Status:     StatusPending,
	}, nil
}

// Submit sends every batch in order. On failure it returns the records of
// the batches already sent along with the error, so they can still be tracked.
func (s *Submitter) Submit(ctx context.Context, batches []Batch) ([]*TxRecord, error) {
	records := make([]*TxRecord, 0, len(batches))
	for _, b := range batches {
		rec, err := s.SubmitBatch(ctx, b)
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
	return records, nil
}
