package distribution

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/luxfi/airdrop/pkg/logutils"
)

// Options configures Distribute.
type Options struct {
	// Rand drives random-fit; nil seeds from the clock.
	Rand   *rand.Rand
	Logger *zap.Logger
}

// Distribute splits the inventory's value between cohorts and pays every
// recipient from one coin. The inventory is left untouched.
func Distribute(inv *Inventory, opts Options) (*Manifest, error) {
	if len(inv.Coins) == 0 {
		return nil, fmt.Errorf("inventory has no coins")
	}
	if len(inv.Cohorts) == 0 {
		return nil, fmt.Errorf("inventory has no cohorts")
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	logger := logutils.OrNop(opts.Logger)

	total := inv.TotalValue()
	m := &Manifest{
		TotalValue: total,
		Cohorts:    make([]CohortSummary, len(inv.Cohorts)),
		Coins:      make([]CoinAllocation, len(inv.Coins)),
	}

	assigned := decimal.Zero
	for i, c := range inv.Cohorts {
		if len(c.Recipients) == 0 {
			return nil, fmt.Errorf("cohort %q has no recipients", c.Name)
		}
		pot := total.Sub(assigned)
		if i < len(inv.Cohorts)-1 {
			pot = total.Mul(c.Share)
		}
		assigned = assigned.Add(pot)
		m.Cohorts[i] = CohortSummary{
			Name:     c.Name,
			Policy:   c.Policy,
			Share:    c.Share,
			Pot:      pot,
			Size:     len(c.Recipients),
			USDShare: pot.DivRound(decimal.NewFromInt(int64(len(c.Recipients))), divPrecision),
		}
	}

	for i, coin := range inv.Coins {
		alloc := make(map[string]decimal.Decimal, len(m.Cohorts))
		for _, s := range m.Cohorts {
			// usd / (usd / token) == token
			alloc[s.Name] = s.USDShare.DivRound(coin.Price, divPrecision)
		}
		m.Coins[i] = CoinAllocation{
			Symbol:           coin.Symbol,
			Address:          coin.Address,
			Decimals:         coin.Decimals,
			NumTokens:        coin.NumTokens,
			Price:            coin.Price,
			TotalUSDValue:    coin.Value(),
			AllocationTokens: alloc,
			RemainingAmount:  coin.NumTokens,
			Recipients:       []RecipientAllocation{},
		}
	}

	for _, c := range inv.Cohorts {
		pick := firstFit
		if c.Policy == PolicyRandomFit {
			pick = randomFit(rng, c.MaxAttempts)
		}
		for _, recipient := range c.Recipients {
			idx, err := pick(m.Coins, c.Name)
			if err != nil {
				return nil, fmt.Errorf("%w: cohort %q recipient %s", err, c.Name, recipient)
			}
			m.Coins[idx].assign(recipient, c.Name)
		}
		logger.Info("cohort distributed",
			zap.String("cohort", c.Name),
			zap.String("policy", string(c.Policy)),
			zap.Int("recipients", len(c.Recipients)))
	}

	return m, nil
}

type picker func(coins []CoinAllocation, cohort string) (int, error)

func firstFit(coins []CoinAllocation, cohort string) (int, error) {
	for i := range coins {
		if coins[i].fits(cohort) {
			return i, nil
		}
	}
	return -1, ErrNoBucketFits
}

func randomFit(rng *rand.Rand, maxAttempts int) picker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return func(coins []CoinAllocation, cohort string) (int, error) {
		if _, err := firstFit(coins, cohort); err != nil {
			return -1, err
		}
		for attempt := 0; attempt < maxAttempts; attempt++ {
			i := rng.Intn(len(coins))
			if coins[i].fits(cohort) {
				return i, nil
			}
		}
		return -1, ErrAttemptsExhausted
	}
}

func (c *CoinAllocation) fits(cohort string) bool {
	need := c.AllocationTokens[cohort]
	slack := need.Mul(tolerance)
	return c.RemainingAmount.Add(slack).GreaterThanOrEqual(need)
}

func (c *CoinAllocation) assign(recipient, cohort string) {
	tokens := c.AllocationTokens[cohort]
	c.RemainingAmount = decimal.Max(c.RemainingAmount.Sub(tokens), decimal.Zero)
	c.Recipients = append(c.Recipients, RecipientAllocation{
		Recipient:     recipient,
		Cohort:        cohort,
		Allocation:    tokens,
		AllocationWei: tokens.Shift(int32(c.Decimals)).Truncate(0).BigInt(),
	})
}
