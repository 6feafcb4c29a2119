package evm

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/walletboard/internal/chain"
)

// Pool keeps one Client per server. Replaced and removed clients are retired,
// so fetches already holding them finish on the old connection.
type Pool struct {
	timeout time.Duration

	mu      sync.Mutex
	clients map[chain.Server]*Client
}

// NewPool creates an empty pool.
func NewPool(timeout time.Duration) *Pool {
	return &Pool{timeout: timeout, clients: make(map[chain.Server]*Client)}
}

// Client returns the client for a server's current RPC URL.
func (p *Pool) Client(m chain.Metadata) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := m.Server()
	if c, ok := p.clients[s]; ok {
		if c.rpcURL == m.RPCURL {
			return c
		}
		c.retire()
	}
	c := NewClient(m.RPCURL, p.timeout)
	p.clients[s] = c
	return c
}

// Sync retires clients whose server is gone from servers or whose RPC URL
// changed. Register it as a catalog change hook.
func (p *Pool) Sync(servers []chain.Metadata) {
	current := lo.SliceToMap(servers, func(m chain.Metadata) (chain.Server, string) {
		return m.Server(), m.RPCURL
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	for s, c := range p.clients {
		if url, ok := current[s]; ok && url == c.rpcURL {
			continue
		}
		c.retire()
		delete(p.clients, s)
	}
}

// Close closes every client.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for s, c := range p.clients {
		c.Close()
		delete(p.clients, s)
	}
}
