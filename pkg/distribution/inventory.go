package distribution

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"gopkg.in/go-playground/validator.v9"
	"gopkg.in/yaml.v3"

	"github.com/luxfi/airdrop/pkg/address"
)

// DefaultShares applies when a cohort with one of these names has no share.
var DefaultShares = map[string]decimal.Decimal{
	"defi_live": decimal.RequireFromString("0.2"),
	"gremlins":  decimal.RequireFromString("0.8"),
}

// DefaultPolicies applies when a cohort with one of these names has no
// policy. Other cohorts default to first-fit.
var DefaultPolicies = map[string]Policy{
	"defi_live": PolicyRandomFit,
	"gremlins":  PolicyFirstFit,
}

// DefaultSplit is used for two cohorts that both omit their share: the
// first gets 20%, the second the rest.
var DefaultSplit = decimal.RequireFromString("0.2")

var validate = validator.New()

// LoadInventory reads a YAML inventory. Relative recipient files are
// resolved against the inventory's directory.
func LoadInventory(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}

	var inv Inventory
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&inv); err != nil {
		return nil, fmt.Errorf("failed to parse inventory %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i := range inv.Cohorts {
		c := &inv.Cohorts[i]
		if c.RecipientsFile == "" {
			continue
		}
		file := c.RecipientsFile
		if !filepath.IsAbs(file) {
			file = filepath.Join(base, file)
		}
		lines, err := address.ReadAddressFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load recipients of cohort %q: %w", c.Name, err)
		}
		c.Recipients = append(c.Recipients, lines...)
	}

	if err := inv.Normalize(); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Normalize fills defaults and validates the inventory. The last cohort's
// share becomes whatever the other cohorts leave.
func (inv *Inventory) Normalize() error {
	if err := validate.Struct(inv); err != nil {
		return fmt.Errorf("invalid inventory: %w", err)
	}

	seen := make(map[string]bool)
	for i := range inv.Coins {
		c := &inv.Coins[i]
		if seen[c.Symbol] {
			return fmt.Errorf("duplicate coin %q", c.Symbol)
		}
		seen[c.Symbol] = true
		if c.Decimals == 0 {
			c.Decimals = DefaultDecimals
		}
		if !c.NumTokens.IsPositive() {
			return fmt.Errorf("coin %q: num_tokens must be positive", c.Symbol)
		}
		if !c.Price.IsPositive() {
			return fmt.Errorf("coin %q: price must be positive", c.Symbol)
		}
	}

	names := make(map[string]bool)
	for i := range inv.Cohorts {
		c := &inv.Cohorts[i]
		if names[c.Name] {
			return fmt.Errorf("duplicate cohort %q", c.Name)
		}
		names[c.Name] = true
		if len(c.Recipients) == 0 {
			return fmt.Errorf("cohort %q has no recipients", c.Name)
		}
		if c.Policy == "" {
			c.Policy = PolicyFirstFit
			if def, ok := DefaultPolicies[c.Name]; ok {
				c.Policy = def
			}
		}
		if c.Policy == PolicyRandomFit && c.MaxAttempts == 0 {
			c.MaxAttempts = DefaultMaxAttempts
		}
		if c.Share.IsZero() {
			if def, ok := DefaultShares[c.Name]; ok {
				c.Share = def
			}
		}
		if c.Share.IsNegative() {
			return fmt.Errorf("cohort %q: share must not be negative", c.Name)
		}
	}

	if len(inv.Cohorts) == 2 && inv.Cohorts[0].Share.IsZero() && inv.Cohorts[1].Share.IsZero() {
		inv.Cohorts[0].Share = DefaultSplit
	}

	others := decimal.Zero
	last := len(inv.Cohorts) - 1
	for _, c := range inv.Cohorts[:last] {
		if c.Share.IsZero() {
			return fmt.Errorf("cohort %q has no share", c.Name)
		}
		others = others.Add(c.Share)
	}

	if others.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("cohort shares add up to more than 1: %s", others)
	}
	rest := decimal.NewFromInt(1).Sub(others)
	lc := &inv.Cohorts[last]
	if !lc.Share.IsZero() && lc.Share.Sub(rest).Abs().GreaterThan(tolerance) {
		return fmt.Errorf("cohort shares must add up to 1, cohort %q has %s but %s is left", lc.Name, lc.Share, rest)
	}
	lc.Share = rest
	return nil
}
