// Package rpc talks to EVM JSON-RPC nodes for the values a signing request
// needs and for broadcasting the signed result.
package rpc

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrUnavailable is returned when no configured node answers.
var ErrUnavailable = errors.New("all RPC clients are unavailable")

// Client wraps one or more ethclient connections and fails over between them.
type Client struct {
	urls    []string
	clients []*ethclient.Client
	mu      sync.Mutex
	current int
}

// NewClient creates a client for urls. Nodes that cannot be dialed now are
// retried on use.
func NewClient(urls []string) (*Client, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}

	clients := make([]*ethclient.Client, len(urls))
	connected := 0
	for i, url := range urls {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Warn().
				Str("url", url).
				Err(err).
				Msg("Failed to connect to RPC node, will retry on use")
			continue
		}
		clients[i] = client
		connected++
	}

	if connected == 0 {
		return nil, errors.New("failed to connect to any RPC node")
	}

	return &Client{
		urls:    urls,
		clients: clients,
	}, nil
}

// Close closes all client connections.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, client := range c.clients {
		if client != nil {
			client.Close()
		}
	}
}

// ChainID returns the chain id reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chain ID")
	}

	return chainID, nil
}

// PendingNonceAt returns the pending nonce for the given address.
func (c *Client) PendingNonceAt(ctx context.Context, address common.Address) (uint64, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get RPC client")
	}

	nonce, err := client.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pending nonce")
	}

	return nonce, nil
}

// SuggestGasPrice returns the node's legacy gas price suggestion.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	price, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to suggest gas price")
	}

	return price, nil
}

// SendTransaction broadcasts a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	client, err := c.getClient(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get RPC client")
	}

	if err := client.SendTransaction(ctx, tx); err != nil {
		return errors.Wrap(err, "failed to send transaction")
	}

	return nil
}

// TransactionReceipt returns the receipt of a mined transaction.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get RPC client")
	}

	receipt, err := client.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction receipt")
	}

	return receipt, nil
}

// TransactionByHash returns a transaction and whether it is still pending.
func (c *Client) TransactionByHash(ctx context.Context, txHash common.Hash) (*types.Transaction, bool, error) {
	client, err := c.getClient(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to get RPC client")
	}

	tx, pending, err := client.TransactionByHash(ctx, txHash)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to get transaction")
	}

	return tx, pending, nil
}

// getClient returns the first healthy client, starting at the current one.
func (c *Client) getClient(ctx context.Context) (*ethclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.clients {
		idx := (c.current + i) % len(c.clients)

		if c.clients[idx] == nil {
			client, err := ethclient.DialContext(ctx, c.urls[idx])
			if err != nil {
				log.Warn().Str("url", c.urls[idx]).Err(err).Msg("Failed to reconnect to RPC node")
				continue
			}
			c.clients[idx] = client
		}

		// Simple health check
		if _, err := c.clients[idx].ChainID(ctx); err != nil {
			log.Warn().
				Str("url", c.urls[idx]).
				Err(err).
				Msg("RPC client health check failed, trying next node")
			continue
		}

		c.current = idx
		return c.clients[idx], nil
	}

	return nil, ErrUnavailable
}
