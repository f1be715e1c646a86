// Package address reads airdrop recipient lists and sorts them into
// deliverable, malformed, duplicate and contract addresses.
package address

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/luxfi/airdrop/pkg/logutils"
)

var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrBadChecksum   = errors.New("bad checksum")
)

// Rejection reasons reported in Result.Reasons.
const (
	ReasonDuplicate = "duplicate"
	ReasonFormat    = "invalid format"
	ReasonChecksum  = "bad checksum"
	ReasonContract  = "contract"
)

// CodeReader is the subset of an EVM client needed to detect contracts.
type CodeReader interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// Options controls validation.
type Options struct {
	// ExcludeContracts rejects addresses that have code deployed.
	ExcludeContracts bool
	// Code is required when ExcludeContracts is set.
	Code   CodeReader
	Logger *zap.Logger
}

// Result holds the partition of a raw address list. Every input entry lands
// in exactly one of Good, Bad, Contracts or the Duplicates count.
type Result struct {
	Good       []common.Address
	Bad        []string
	Contracts  []common.Address
	Duplicates int
	Reasons    map[string]int
}

// Total returns the number of entries accounted for.
func (r *Result) Total() int {
	return len(r.Good) + len(r.Bad) + len(r.Contracts) + r.Duplicates
}

// GoodHex returns the accepted addresses in checksummed form.
func (r *Result) GoodHex() []string {
	out := make([]string, len(r.Good))
	for i, a := range r.Good {
		out[i] = a.Hex()
	}
	return out
}

// Parse converts s into an address. Lowercase and uppercase hex are
// accepted as-is; mixed case must match the EIP-55 checksum.
func Parse(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	addr := common.HexToAddress(s)
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if body != strings.TrimPrefix(addr.Hex(), "0x") {
			return common.Address{}, fmt.Errorf("%w: %q", ErrBadChecksum, s)
		}
	}
	return addr, nil
}

// Validate partitions raw in first-seen order. Malformed entries never abort
// the run; only a failed code lookup does.
func Validate(ctx context.Context, raw []string, opts Options) (*Result, error) {
	if opts.ExcludeContracts && opts.Code == nil {
		return nil, fmt.Errorf("contract exclusion requires a code reader")
	}
	logger := logutils.OrNop(opts.Logger)

	res := &Result{Reasons: make(map[string]int)}
	seenAddr := make(map[common.Address]struct{}, len(raw))
	seenBad := make(map[string]struct{})

	for _, line := range raw {
		entry := strings.TrimSpace(line)

		addr, err := Parse(entry)
		if err != nil {
			if _, dup := seenBad[entry]; dup {
				logger.Debug("Not including duplicate", zap.String("entry", entry))
				res.Duplicates++
				res.Reasons[ReasonDuplicate]++
				continue
			}
			seenBad[entry] = struct{}{}

			reason := ReasonFormat
			if errors.Is(err, ErrBadChecksum) {
				reason = ReasonChecksum
			}
			logger.Warn("Rejecting address", zap.String("entry", entry), zap.String("reason", reason))
			res.Bad = append(res.Bad, entry)
			res.Reasons[reason]++
			continue
		}

		if _, dup := seenAddr[addr]; dup {
			logger.Debug("Not including duplicate", zap.String("address", addr.Hex()))
			res.Duplicates++
			res.Reasons[ReasonDuplicate]++
			continue
		}
		seenAddr[addr] = struct{}{}

		if opts.ExcludeContracts {
			code, err := opts.Code.CodeAt(ctx, addr, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to get code at %s: %w", addr.Hex(), err)
			}
			if len(code) > 0 {
				logger.Warn("Not supporting contracts", zap.String("address", addr.Hex()))
				res.Contracts = append(res.Contracts, addr)
				res.Reasons[ReasonContract]++
				continue
			}
		}

		res.Good = append(res.Good, addr)
	}

	logger.Info("Validated address list",
		zap.Int("good", len(res.Good)),
		zap.Int("bad", len(res.Bad)),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("contracts", len(res.Contracts)),
	)
	return res, nil
}
