package airdrop

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Safety margin applied to the required balance, in parts per thousand.
const marginPerMille = 1001

// BalanceReader is the subset of an EVM client needed for the funding check.
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// FundingReport describes the funding precondition.
type FundingReport struct {
	Recipients int
	Amount     *big.Int
	Required   *big.Int
	// WithMargin is Required plus 0.1%, rounded up.
	WithMargin *big.Int
	Balance    *big.Int
}

// Sufficient reports whether the balance covers the requirement and margin.
func (r *FundingReport) Sufficient() bool {
	return r.Balance.Cmp(r.WithMargin) >= 0
}

// RequiredFunds is amount × recipients.
func RequiredFunds(amount *big.Int, recipients int) *big.Int {
	return new(big.Int).Mul(amount, big.NewInt(int64(recipients)))
}

func withMargin(required *big.Int) *big.Int {
	v := new(big.Int).Mul(required, big.NewInt(marginPerMille))
	v.Add(v, big.NewInt(999))
	return v.Div(v, big.NewInt(1000))
}

// CheckFunds compares the wallet balance with the airdrop cost. The report is
// returned in every case; err wraps ErrInsufficientFunds when short.
func CheckFunds(ctx context.Context, reader BalanceReader, from common.Address, amount *big.Int, recipients int) (*FundingReport, error) {
	balance, err := reader.BalanceAt(ctx, from, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance for %s: %w", from.Hex(), err)
	}

	required := RequiredFunds(amount, recipients)
	report := &FundingReport{
		Recipients: recipients,
		Amount:     new(big.Int).Set(amount),
		Required:   required,
		WithMargin: withMargin(required),
		Balance:    balance,
	}
	if !report.Sufficient() {
		return report, fmt.Errorf("%w: balance %s wei, need %s wei", ErrInsufficientFunds, balance, report.WithMargin)
	}
	return report, nil
}

// Confirmer asks the operator before anything is sent.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves without asking.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// PromptConfirmer asks on a terminal and keeps asking until it reads y or n.
type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (p *PromptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	scanner := bufio.NewScanner(p.In)
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprintf(p.Out, "%s y/n ", prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return false, fmt.Errorf("failed to read confirmation: %w", err)
			}
			return false, nil
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
	}
}
