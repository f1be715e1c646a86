// Package airdrop submits batched multisend transactions and follows them
// until every one of them is final.
package airdrop

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientFunds = errors.New("not enough funds")
	ErrDeclined          = errors.New("declined by operator")
	ErrRetriesExhausted  = errors.New("retries exhausted")
)

// Status is the lifecycle state of a submitted transaction.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusReverted
	StatusDropped
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusReverted:
		return "reverted"
	case StatusDropped:
		return "dropped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Terminal reports whether s is final.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusReverted || s == StatusDropped
}

// TxRecord tracks one submitted batch.
type TxRecord struct {
	Hash       common.Hash
	Batch      int
	Recipients int
	Value      *big.Int
	Status     Status
}

// Tally counts records per status.
type Tally struct {
	Success  int
	Reverted int
	Pending  int
	Dropped  int
}

// Total returns the number of counted records.
func (t Tally) Total() int {
	return t.Success + t.Reverted + t.Pending + t.Dropped
}

func (t Tally) String() string {
	return fmt.Sprintf("Successful: %d Reverted: %d Pending: %d Dropped: %d",
		t.Success, t.Reverted, t.Pending, t.Dropped)
}

// Count tallies records by status.
func Count(records []*TxRecord) Tally {
	var t Tally
	for _, r := range records {
		switch r.Status {
		case StatusSuccess:
			t.Success++
		case StatusReverted:
			t.Reverted++
		case StatusDropped:
			t.Dropped++
		default:
			t.Pending++
		}
	}
	return t
}

// Outcome partitions finalized transaction ids.
type Outcome struct {
	Completed []common.Hash
	Reverted  []common.Hash
	Dropped   []common.Hash
}

// Partition splits records by terminal status. Pending records are
// returned separately so callers can detect an unfinished run.
func Partition(records []*TxRecord) (*Outcome, []common.Hash) {
	out := &Outcome{}
	var pending []common.Hash
	for _, r := range records {
		switch r.Status {
		case StatusSuccess:
			out.Completed = append(out.Completed, r.Hash)
		case StatusReverted:
			out.Reverted = append(out.Reverted, r.Hash)
		case StatusDropped:
			out.Dropped = append(out.Dropped, r.Hash)
		default:
			pending = append(pending, r.Hash)
		}
	}
	return out, pending
}
