package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/chainpilot/assistant-backend/internal/types"
)

// gasPriceTTL is how long a suggested gas price is considered fresh.
const gasPriceTTL = 5 * time.Minute

// Gas limits per operation kind. Fixed upper-bound figures for fee
// display only; actual submission estimates per call.
var opGasLimits = map[types.ActionKind]uint64{
	types.ActionCreateToken:     2_400_000,
	types.ActionMintNFT:         250_000,
	types.ActionSendTransaction: 65_000,
}

const defaultOpGasLimit = 100_000

type gasCache struct {
	mu        sync.Mutex
	price     *big.Int
	fetchedAt time.Time
}

// EstimateFee returns the estimated network fee in wei for an operation
// kind. The suggested gas price is cached for five minutes; a stale value
// is served when the provider cannot be reached, and an error is returned
// only when no value was ever fetched.
func (c *Client) EstimateFee(ctx context.Context, kind types.ActionKind) (*big.Int, error) {
	price, err := c.cachedGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	limit, ok := opGasLimits[kind]
	if !ok {
		limit = defaultOpGasLimit
	}
	return new(big.Int).Mul(price, new(big.Int).SetUint64(limit)), nil
}

func (c *Client) cachedGasPrice(ctx context.Context) (*big.Int, error) {
	c.gas.mu.Lock()
	defer c.gas.mu.Unlock()

	if c.gas.price != nil && time.Since(c.gas.fetchedAt) < gasPriceTTL {
		return new(big.Int).Set(c.gas.price), nil
	}

	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		if c.gas.price != nil {
			c.logger.WithError(err).Warn("gas price refresh failed, serving stale value")
			return new(big.Int).Set(c.gas.price), nil
		}
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	c.gas.price = price
	c.gas.fetchedAt = time.Now()
	return new(big.Int).Set(price), nil
}
