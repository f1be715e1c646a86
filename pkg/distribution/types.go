package distribution

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoBucketFits means no coin has enough remaining tokens for a recipient.
	ErrNoBucketFits = errors.New("no coin has enough remaining tokens")
	// ErrAttemptsExhausted means random-fit gave up before finding a coin.
	ErrAttemptsExhausted = errors.New("random-fit attempts exhausted")
)

// Policy selects the coin a recipient is paid from.
type Policy string

const (
	// PolicyFirstFit takes the first coin, in inventory order, that fits.
	PolicyFirstFit Policy = "first-fit"
	// PolicyRandomFit draws coins uniformly until one fits.
	PolicyRandomFit Policy = "random-fit"
)

const (
	DefaultDecimals    = 18
	DefaultMaxAttempts = 1000
	DefaultOutputFile  = "./distribution.json"
)

// tolerance is relative to the allocation being placed.
var tolerance = decimal.New(1, -9)

// divPrecision is the number of decimal places kept by divisions.
const divPrecision = 30

// Coin is an inventory entry.
type Coin struct {
	Symbol    string          `yaml:"symbol" validate:"required"`
	Address   string          `yaml:"address" validate:"omitempty,eth_addr"`
	Decimals  int             `yaml:"decimals" validate:"min=0,max=36"`
	NumTokens decimal.Decimal `yaml:"num_tokens"`
	Price     decimal.Decimal `yaml:"price"`
}

// Value is the coin's total USD value.
func (c Coin) Value() decimal.Decimal {
	return c.NumTokens.Mul(c.Price)
}

// Cohort is a named group of recipients sharing one payout formula.
type Cohort struct {
	Name           string          `yaml:"name" validate:"required"`
	Share          decimal.Decimal `yaml:"share"`
	Policy         Policy          `yaml:"policy" validate:"omitempty,oneof=first-fit random-fit"`
	MaxAttempts    int             `yaml:"max_attempts" validate:"min=0"`
	Recipients     []string        `yaml:"recipients"`
	RecipientsFile string          `yaml:"recipients_file"`
}

// Inventory is the input of Distribute.
type Inventory struct {
	Coins   []Coin   `yaml:"coins" validate:"required,min=1,dive"`
	Cohorts []Cohort `yaml:"cohorts" validate:"required,min=1,dive"`
}

// TotalValue is the combined USD value of every coin.
func (inv *Inventory) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, c := range inv.Coins {
		total = total.Add(c.Value())
	}
	return total
}

// RecipientAllocation is one recipient's payout from one coin.
type RecipientAllocation struct {
	Recipient     string          `json:"recipient"`
	Cohort        string          `json:"cohort"`
	Allocation    decimal.Decimal `json:"allocation"`
	AllocationWei *big.Int        `json:"-"`
}

// MarshalJSON custom marshaller to handle big.Int
func (r RecipientAllocation) MarshalJSON() ([]byte, error) {
	type Alias RecipientAllocation
	return json.Marshal(&struct {
		*Alias
		AllocationWei string `json:"allocation_wei"`
	}{
		Alias:         (*Alias)(&r),
		AllocationWei: r.AllocationWei.String(),
	})
}

// UnmarshalJSON custom unmarshaller to handle big.Int
func (r *RecipientAllocation) UnmarshalJSON(data []byte) error {
	type Alias RecipientAllocation
	aux := &struct {
		*Alias
		AllocationWei string `json:"allocation_wei"`
	}{
		Alias: (*Alias)(r),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.AllocationWei = new(big.Int)
	if _, ok := r.AllocationWei.SetString(aux.AllocationWei, 10); !ok {
		return fmt.Errorf("invalid allocation_wei: %s", aux.AllocationWei)
	}
	return nil
}

// CoinAllocation is a coin together with everything assigned from it.
type CoinAllocation struct {
	Symbol           string                     `json:"symbol"`
	Address          string                     `json:"address,omitempty"`
	Decimals         int                        `json:"decimals"`
	NumTokens        decimal.Decimal            `json:"num_tokens"`
	Price            decimal.Decimal            `json:"price"`
	TotalUSDValue    decimal.Decimal            `json:"total_usd_value"`
	AllocationTokens map[string]decimal.Decimal `json:"allocation_tokens"`
	RemainingAmount  decimal.Decimal            `json:"remaining_amount"`
	Recipients       []RecipientAllocation      `json:"recipients"`
}

// CohortSummary records how a cohort's pot was derived.
type CohortSummary struct {
	Name     string          `json:"name"`
	Policy   Policy          `json:"policy"`
	Share    decimal.Decimal `json:"share"`
	Pot      decimal.Decimal `json:"pot"`
	Size     int             `json:"size"`
	USDShare decimal.Decimal `json:"usd_share"`
}

// Manifest is the result of a distribution.
type Manifest struct {
	TotalValue decimal.Decimal  `json:"total_value"`
	Cohorts    []CohortSummary  `json:"cohorts"`
	Coins      []CoinAllocation `json:"coins"`
}

// Recipients returns the number of assigned recipients.
func (m *Manifest) Recipients() int {
	n := 0
	for _, c := range m.Coins {
		n += len(c.Recipients)
	}
	return n
}

// Remaining sums the unassigned tokens of every coin, in USD.
func (m *Manifest) Remaining() decimal.Decimal {
	total := decimal.Zero
	for _, c := range m.Coins {
		total = total.Add(c.RemainingAmount.Mul(c.Price))
	}
	return total
}
