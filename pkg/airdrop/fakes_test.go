package airdrop_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/luxfi/airdrop/pkg/airdrop"
)

// instantTimer fires as soon as it is started and remembers every delay.
type instantTimer struct {
	c      chan time.Time
	starts []time.Duration
}

func newInstantTimer() *instantTimer {
	return &instantTimer{c: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(d time.Duration) {
	t.starts = append(t.starts, d)
	select {
	case t.c <- time.Time{}:
	default:
	}
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

type sentBatch struct {
	recipients []common.Address
	amount     *big.Int
	value      *big.Int
}

// fakeChain is an in-memory network. Transactions are numbered in send
// order; script[i] lists the statuses returned on successive polls of the
// i-th transaction, the last one repeating.
type fakeChain struct {
	mu sync.Mutex

	balance    *big.Int
	balanceErr error
	contracts  map[common.Address]bool

	failSends   int
	sendErr     error
	sent        []sentBatch
	sendAttempt int

	script    [][]airdrop.Status
	statusErr map[int]int
	polls     map[common.Hash]int
}

func newFakeChain(balance *big.Int) *fakeChain {
	return &fakeChain{
		balance:   balance,
		contracts: make(map[common.Address]bool),
		statusErr: make(map[int]int),
		polls:     make(map[common.Hash]int),
		sendErr:   errors.New("replacement transaction underpriced"),
	}
}

func txHash(i int) common.Hash {
	return common.BigToHash(big.NewInt(int64(i + 1)))
}

func (f *fakeChain) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contracts[account] {
		return []byte{0x60}, nil
	}
	return nil, nil
}

func (f *fakeChain) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return new(big.Int).Set(f.balance), nil
}

func (f *fakeChain) Multisend(_ context.Context, recipients []common.Address, amount, value *big.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendAttempt++
	if f.failSends != 0 {
		if f.failSends > 0 {
			f.failSends--
		}
		return common.Hash{}, f.sendErr
	}
	f.sent = append(f.sent, sentBatch{
		recipients: append([]common.Address(nil), recipients...),
		amount:     new(big.Int).Set(amount),
		value:      new(big.Int).Set(value),
	})
	return txHash(len(f.sent) - 1), nil
}

func (f *fakeChain) TransactionStatus(_ context.Context, hash common.Hash) (airdrop.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := int(hash.Big().Int64()) - 1
	n := f.polls[hash]
	f.polls[hash] = n + 1

	if f.statusErr[idx] > 0 {
		f.statusErr[idx]--
		return airdrop.StatusPending, errors.New("header not found")
	}
	if idx < 0 || idx >= len(f.script) || len(f.script[idx]) == 0 {
		return airdrop.StatusSuccess, nil
	}
	seq := f.script[idx]
	if n >= len(seq) {
		return seq[len(seq)-1], nil
	}
	return seq[n], nil
}

func (f *fakeChain) pollCount(i int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls[txHash(i)]
}

func testAddresses(n int) []common.Address {
	out := make([]common.Address, n)
	for i := range out {
		out[i] = common.BigToAddress(big.NewInt(int64(1000 + i)))
	}
	return out
}

func hexes(addrs []common.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return out
}
