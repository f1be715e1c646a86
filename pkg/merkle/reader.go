package merkle

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	RecipientColumn = "recipient"
	AmountColumn    = "allocation_wei"
)

// Entry is one claimable allocation.
type Entry struct {
	Recipient common.Address
	Amount    *big.Int
}

// ReadAllocations reads a CSV with recipient and allocation_wei columns.
// Amounts may use decimal or exponent notation; fractions are truncated.
func ReadAllocations(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	entries, err := readAllocations(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

func readAllocations(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	recipientIdx, amountIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case RecipientColumn:
			recipientIdx = i
		case AmountColumn:
			amountIdx = i
		}
	}
	if recipientIdx < 0 || amountIdx < 0 {
		return nil, fmt.Errorf("header must contain %s and %s", RecipientColumn, AmountColumn)
	}

	var entries []Entry
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		recipient := strings.TrimSpace(record[recipientIdx])
		if !common.IsHexAddress(recipient) {
			return nil, fmt.Errorf("line %d: invalid recipient %q", line, recipient)
		}
		amount, err := ParseAmount(record[amountIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, Entry{
			Recipient: common.HexToAddress(recipient),
			Amount:    amount,
		})
	}
	return entries, nil
}

// ParseAmount coerces s to a non-negative integer, dropping any fraction.
func ParseAmount(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: negative", s)
	}
	return d.Truncate(0).BigInt(), nil
}
