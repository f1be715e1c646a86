// Package merkle builds claim trees over (address, uint256) allocations.
//
// Leaves are keccak256(abi.encode(recipient, amount)). Parents hash the
// sorted pair of their children, so proofs carry no position bits. A node
// without a sibling moves up a level unchanged.
package merkle

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var leafArgs = abi.Arguments{
	{Type: mustNewType("address")},
	{Type: mustNewType("uint256")},
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("merkle: invalid abi type %q: %v", t, err))
	}
	return typ
}

// Leaf hashes one entry.
func Leaf(e Entry) (common.Hash, error) {
	packed, err := leafArgs.Pack(e.Recipient, e.Amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode leaf for %s: %w", e.Recipient.Hex(), err)
	}
	return crypto.Keccak256Hash(packed), nil
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

// Tree keeps every level, leaves first.
type Tree struct {
	levels [][]common.Hash
}

// New builds a tree over entries in the given order.
func New(entries []Entry) (*Tree, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("cannot build a merkle tree without entries")
	}

	leaves := make([]common.Hash, len(entries))
	for i, e := range entries {
		leaf, err := Leaf(e)
		if err != nil {
			return nil, err
		}
		leaves[i] = leaf
	}

	levels := [][]common.Hash{leaves}
	for level := leaves; len(level) > 1; {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(level[i], level[i+1]))
		}
		levels = append(levels, next)
		level = next
	}
	return &Tree{levels: levels}, nil
}

// Root returns the tree root.
func (t *Tree) Root() common.Hash {
	return t.levels[len(t.levels)-1][0]
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Leaf returns the i-th leaf hash.
func (t *Tree) Leaf(i int) common.Hash {
	return t.levels[0][i]
}

// Proof returns the sibling hashes from leaf i up to the root.
func (t *Tree) Proof(i int) ([]common.Hash, error) {
	if i < 0 || i >= t.Len() {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", i, t.Len())
	}
	proof := []common.Hash{}
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := i ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		i /= 2
	}
	return proof, nil
}

// Verify reports whether proof links leaf to root.
func Verify(root, leaf common.Hash, proof []common.Hash) bool {
	h := leaf
	for _, p := range proof {
		h = hashPair(h, p)
	}
	return h == root
}
