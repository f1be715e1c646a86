package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/luxfi/airdrop/pkg/airdrop"
	"github.com/luxfi/airdrop/pkg/logutils"
)

// MultisendABI is the single entry point of the multisender contract.
const MultisendABI = `[{"inputs":[{"internalType":"address[]","name":"recipients","type":"address[]"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"multisend","outputs":[],"stateMutability":"payable","type":"function"}]`

// Backend is the RPC surface used by Client. Both *ethclient.Client and the
// simulated backend's client satisfy it.
type Backend interface {
	bind.ContractBackend
	ethereum.ChainStateReader
	ethereum.TransactionReader
	ChainID(ctx context.Context) (*big.Int, error)
}

// Config holds configuration for a Client
type Config struct {
	// Contract is the multisender address. Only needed for Multisend.
	Contract common.Address
	// GasLimit overrides gas estimation when non-zero.
	GasLimit uint64
	Logger   *zap.Logger
}

// Client talks to the network on behalf of the airdrop flow.
type Client struct {
	backend  Backend
	config   Config
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	logger   *zap.Logger
}

var _ airdrop.Chain = (*Client)(nil)

// Dial connects to the first RPC URL that answers a chain id query.
func Dial(ctx context.Context, urls []string) (*ethclient.Client, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("no RPC URL configured")
	}

	var lastErr error
	for _, url := range urls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}

		// Test connection
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err = client.ChainID(pingCtx)
		cancel()
		if err == nil {
			return client, nil
		}
		client.Close()
		lastErr = err
	}
	return nil, fmt.Errorf("failed to connect to any RPC: %w", lastErr)
}

// NewClient wraps backend. auth may be nil for read-only use.
func NewClient(backend Backend, config Config, auth *bind.TransactOpts) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(MultisendABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse multisend ABI: %w", err)
	}

	return &Client{
		backend:  backend,
		config:   config,
		contract: bind.NewBoundContract(config.Contract, parsed, backend, backend, backend),
		auth:     auth,
		logger:   logutils.OrNop(config.Logger),
	}, nil
}

// From returns the sending account, or the zero address for read-only clients.
func (c *Client) From() common.Address {
	if c.auth == nil {
		return common.Address{}
	}
	return c.auth.From
}

// BalanceAt returns the wei balance of account at block, or the latest
// block when block is nil.
func (c *Client) BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
	return c.backend.BalanceAt(ctx, account, block)
}

// CodeAt returns the contract code of account at block, or the latest
// block when block is nil. An externally owned account has no code.
func (c *Client) CodeAt(ctx context.Context, account common.Address, block *big.Int) ([]byte, error) {
	return c.backend.CodeAt(ctx, account, block)
}

// Multisend calls multisend(recipients, amount) paying value, and returns
// the transaction hash without waiting for it to be mined.
func (c *Client) Multisend(ctx context.Context, recipients []common.Address, amount, value *big.Int) (common.Hash, error) {
	if c.auth == nil {
		return common.Hash{}, fmt.Errorf("no signing key configured")
	}
	if c.config.Contract == (common.Address{}) {
		return common.Hash{}, fmt.Errorf("no multisend contract configured")
	}

	opts := *c.auth
	opts.Context = ctx
	opts.Value = value
	if c.config.GasLimit != 0 {
		opts.GasLimit = c.config.GasLimit
	}

	tx, err := c.contract.Transact(&opts, "multisend", recipients, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to send multisend: %w", err)
	}
	c.logger.Debug("multisend submitted",
		zap.Stringer("tx", tx.Hash()),
		zap.Int("recipients", len(recipients)),
		zap.Uint64("nonce", tx.Nonce()))
	return tx.Hash(), nil
}

// TransactionStatus maps a transaction to its lifecycle state. A mined
// receipt decides success or revert; an unknown transaction is dropped.
// While the node is still indexing transactions nothing is known yet, so
// the transaction stays pending.
func (c *Client) TransactionStatus(ctx context.Context, hash common.Hash) (airdrop.Status, error) {
	receipt, err := c.backend.TransactionReceipt(ctx, hash)
	if err == nil {
		if receipt.Status == types.ReceiptStatusSuccessful {
			return airdrop.StatusSuccess, nil
		}
		return airdrop.StatusReverted, nil
	}
	if !errors.Is(err, ethereum.NotFound) && !isIndexing(err) {
		return airdrop.StatusPending, fmt.Errorf("failed to get receipt: %w", err)
	}

	_, _, err = c.backend.TransactionByHash(ctx, hash)
	switch {
	case err == nil:
		return airdrop.StatusPending, nil
	case errors.Is(err, ethereum.NotFound):
		return airdrop.StatusDropped, nil
	case isIndexing(err):
		c.logger.Debug("transaction index not ready", zap.Stringer("tx", hash))
		return airdrop.StatusPending, nil
	default:
		return airdrop.StatusPending, fmt.Errorf("failed to get transaction: %w", err)
	}
}

// errIndexing is the message nodes return for lookups made before the
// transaction indexer has caught up. It arrives over RPC as plain text.
const errIndexing = "transaction indexing is in progress"

func isIndexing(err error) bool {
	return err != nil && strings.Contains(err.Error(), errIndexing)
}
