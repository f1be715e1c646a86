package airdrop

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultBatchSize is the number of recipients per multisend call.
const DefaultBatchSize = 500

// Batch is one multisend call: every recipient receives Amount wei.
type Batch struct {
	Index      int
	Recipients []common.Address
	Amount     *big.Int
}

// Value is the aggregate wei attached to the call.
func (b Batch) Value() *big.Int {
	return new(big.Int).Mul(b.Amount, big.NewInt(int64(len(b.Recipients))))
}

// MakeBatches splits addrs into ceil(len/size) batches preserving order.
func MakeBatches(addrs []common.Address, size int, amount *big.Int) ([]Batch, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	batches := make([]Batch, 0, (len(addrs)+size-1)/size)
	for start := 0; start < len(addrs); start += size {
		end := start + size
		if end > len(addrs) {
			end = len(addrs)
		}
		batches = append(batches, Batch{
			Index:      len(batches),
			Recipients: addrs[start:end],
			Amount:     new(big.Int).Set(amount),
		})
	}
	return batches, nil
}
