// Package evm reads native and ERC20 balances over JSON-RPC.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"stateMutability":"view","type":"function"}]`

var parsedERC20 = mustParseABI(erc20ABI)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(fmt.Sprintf("parsing ERC20 ABI: %v", err))
	}
	return parsed
}

// Client talks to one chain's RPC endpoint. The connection is dialed on first
// use. A retired client keeps serving calls already in flight and closes once
// the last one returns.
type Client struct {
	rpcURL  string
	timeout time.Duration

	mu       sync.Mutex
	eth      *ethclient.Client
	inflight int
	retired  bool
}

// NewClient creates a client for rpcURL. timeout bounds every call.
func NewClient(rpcURL string, timeout time.Duration) *Client {
	return &Client{rpcURL: rpcURL, timeout: timeout}
}

// acquire returns the connection and a release func that must be called when
// the call is done.
func (c *Client) acquire(ctx context.Context) (*ethclient.Client, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eth == nil {
		eth, err := ethclient.DialContext(ctx, c.rpcURL)
		if err != nil {
			return nil, nil, fmt.Errorf("dialing %s: %w", c.rpcURL, err)
		}
		c.eth = eth
	}
	c.inflight++
	return c.eth, c.release, nil
}

func (c *Client) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if c.retired && c.inflight == 0 {
		c.closeLocked()
	}
}

// retire closes the client now if idle, otherwise after the last call returns.
func (c *Client) retire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retired = true
	if c.inflight == 0 {
		c.closeLocked()
	}
}

func (c *Client) closeLocked() {
	if c.eth != nil {
		c.eth.Close()
		c.eth = nil
	}
}

// Result is one entry of a batched balance lookup.
type Result struct {
	Contract common.Address
	Balance  *big.Int
	Err      error
}

// Balances fetches balances for many contracts in one JSON-RPC batch. The zero
// address requests the native balance. Per-entry failures are reported in
// Result.Err; the returned error covers the batch as a whole.
func (c *Client) Balances(ctx context.Context, wallet common.Address, contracts []common.Address) ([]Result, error) {
	if len(contracts) == 0 {
		return nil, nil
	}
	eth, release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	calldata, err := parsedERC20.Pack("balanceOf", wallet)
	if err != nil {
		return nil, fmt.Errorf("packing balanceOf: %w", err)
	}

	batch := make([]rpc.BatchElem, len(contracts))
	for i, contract := range contracts {
		if contract == (common.Address{}) {
			batch[i] = rpc.BatchElem{
				Method: "eth_getBalance",
				Args:   []any{wallet, "latest"},
				Result: new(hexutil.Big),
			}
			continue
		}
		batch[i] = rpc.BatchElem{
			Method: "eth_call",
			Args: []any{map[string]any{
				"to":   contract,
				"data": hexutil.Bytes(calldata),
			}, "latest"},
			Result: new(hexutil.Bytes),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := eth.Client().BatchCallContext(ctx, batch); err != nil {
		return nil, fmt.Errorf("balance batch on %s: %w", c.rpcURL, err)
	}

	results := make([]Result, len(contracts))
	for i, elem := range batch {
		results[i].Contract = contracts[i]
		if elem.Error != nil {
			results[i].Err = elem.Error
			continue
		}
		switch v := elem.Result.(type) {
		case *hexutil.Big:
			results[i].Balance = v.ToInt()
		case *hexutil.Bytes:
			results[i].Balance, results[i].Err = unpackBalance(*v)
		}
	}
	return results, nil
}

func unpackBalance(out []byte) (*big.Int, error) {
	// Contracts without code return empty data.
	if len(out) == 0 {
		return new(big.Int), nil
	}
	values, err := parsedERC20.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("unpacking balanceOf: %w", err)
	}
	bal, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf type %T", values[0])
	}
	return bal, nil
}

// Close releases the connection, if one was dialed.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}
