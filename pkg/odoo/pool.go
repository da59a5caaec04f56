package odoo

import (
	"context"
	"sync"
)

// Connector hands out a Querier for a credential set.
type Connector interface {
	Connect(ctx context.Context, creds Credentials) (Querier, error)
}

// Pool keeps one Client per distinct credential set so authenticated
// sessions are reused across requests.
type Pool struct {
	opts []Option

	mu      sync.Mutex
	clients map[string]*Client
}

var _ Connector = (*Pool)(nil)

// NewPool creates a pool. opts apply to every client it creates.
func NewPool(opts ...Option) *Pool {
	return &Pool{
		opts:    opts,
		clients: make(map[string]*Client),
	}
}

// Connect returns the pooled client for creds, creating it on first use.
func (p *Pool) Connect(_ context.Context, creds Credentials) (Querier, error) {
	key := creds.fingerprint()

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[key]; ok {
		return c, nil
	}
	c, err := NewClient(creds, p.opts...)
	if err != nil {
		return nil, err
	}
	p.clients[key] = c
	return c, nil
}

// Len returns the number of pooled clients.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}
