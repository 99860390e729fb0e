// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package snmp

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Pool spreads requests to one agent over several clients, each with its
// own socket and request-id space. A background health check redials
// slots whose client has lost its socket.
type Pool struct {
	opts    *PoolOptions
	metrics *PoolMetrics
	dial    func(ctx context.Context) (*Client, error)

	mu      sync.RWMutex
	slots   []*poolSlot
	started bool
	closed  bool
	next    atomic.Uint64

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type poolSlot struct {
	client   *Client
	lastUsed atomic.Int64 // unix nanoseconds
	inFlight atomic.Int64
}

func newPoolSlot(client *Client) *poolSlot {
	s := &poolSlot{client: client}
	s.touch()
	return s
}

func (s *poolSlot) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

func (s *poolSlot) idle() time.Duration {
	return time.Since(time.Unix(0, s.lastUsed.Load()))
}

func (s *poolSlot) healthy() bool {
	return s != nil && s.client.IsConnected()
}

// NewPool creates a new connection pool.
func NewPool(opts ...PoolOption) *Pool {
	options := NewPoolOptions()
	for _, opt := range opts {
		opt(options)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		opts:    options,
		metrics: &PoolMetrics{},
		slots:   make([]*poolSlot, options.Size),
		ctx:     ctx,
		cancel:  cancel,
	}
	p.dial = p.dialClient
	return p
}

func (p *Pool) dialClient(ctx context.Context) (*Client, error) {
	client := NewClient(p.opts.ClientOptions...)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// Connect dials every slot and starts the health checker. It fails only
// when no client at all could connect.
func (p *Pool) Connect(ctx context.Context) error {
	p.mu.RLock()
	closed, started, size := p.closed, p.started, len(p.slots)
	p.mu.RUnlock()

	if closed {
		return ErrPoolClosed
	}
	if started {
		return ErrAlreadyConnected
	}

	clients := make([]*Client, size)
	connected := 0
	var firstErr error
	for i := range clients {
		client, err := p.dial(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		clients[i] = client
		connected++
	}
	if size > 0 && connected == 0 {
		return firstErr
	}

	p.mu.Lock()
	if p.closed || p.started {
		err := ErrAlreadyConnected
		if p.closed {
			err = ErrPoolClosed
		}
		p.mu.Unlock()
		for _, client := range clients {
			if client != nil {
				client.Disconnect(context.Background())
			}
		}
		return err
	}
	for i, client := range clients {
		if client != nil {
			p.slots[i] = newPoolSlot(client)
		}
	}
	p.started = true
	p.mu.Unlock()

	p.metrics.TotalClients.Set(int64(size))
	p.metrics.HealthyClients.Set(int64(connected))

	p.wg.Add(1)
	go p.healthChecker()

	return nil
}

// Close stops the health checker and disconnects every client. Calls
// after the first are no-ops.
func (p *Pool) Close() error {
	var lastErr error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()

		p.cancel()
		p.wg.Wait()

		p.mu.Lock()
		slots := p.slots
		p.slots = nil
		p.mu.Unlock()

		for _, s := range slots {
			if !s.healthy() {
				continue
			}
			if err := s.client.Disconnect(context.Background()); err != nil {
				lastErr = err
			}
		}

		p.metrics.TotalClients.Set(0)
		p.metrics.HealthyClients.Set(0)
	})
	return lastErr
}

// Acquire returns a connected client using round-robin selection. Callers
// hand it back with Release.
func (p *Pool) Acquire() (*Client, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrPoolClosed
	}
	if len(p.slots) == 0 {
		return nil, ErrPoolEmpty
	}

	p.metrics.TotalRequests.Add(1)

	n := uint64(len(p.slots))
	start := p.next.Add(1)
	for i := uint64(0); i < n; i++ {
		s := p.slots[(start+i)%n]
		if s.healthy() {
			s.touch()
			s.inFlight.Add(1)
			return s.client, nil
		}
	}

	p.metrics.FailedRequests.Add(1)
	return nil, ErrNoHealthyClients
}

// Release hands a client obtained from Acquire back to the pool.
func (p *Pool) Release(client *Client) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, s := range p.slots {
		if s != nil && s.client == client {
			s.inFlight.Add(-1)
			return
		}
	}
}

func (p *Pool) do(fn func(*Client) (VarBindList, error)) (VarBindList, error) {
	client, err := p.Acquire()
	if err != nil {
		return nil, err
	}
	defer p.Release(client)

	return fn(client)
}

// Get performs a GET using a pooled connection.
func (p *Pool) Get(ctx context.Context, oids ...OID) (VarBindList, error) {
	return p.do(func(c *Client) (VarBindList, error) {
		return c.Get(ctx, oids...)
	})
}

// GetNext performs a GET-NEXT using a pooled connection.
func (p *Pool) GetNext(ctx context.Context, oids ...OID) (VarBindList, error) {
	return p.do(func(c *Client) (VarBindList, error) {
		return c.GetNext(ctx, oids...)
	})
}

// GetBulk performs a GET-BULK using a pooled connection.
func (p *Pool) GetBulk(ctx context.Context, nonRepeaters, maxRepetitions int, oids ...OID) (VarBindList, error) {
	return p.do(func(c *Client) (VarBindList, error) {
		return c.GetBulk(ctx, nonRepeaters, maxRepetitions, oids...)
	})
}

// Set performs a SET using a pooled connection.
func (p *Pool) Set(ctx context.Context, varbinds ...VarBind) (VarBindList, error) {
	return p.do(func(c *Client) (VarBindList, error) {
		return c.Set(ctx, varbinds...)
	})
}

// Inform sends an InformRequest using a pooled connection.
func (p *Pool) Inform(ctx context.Context, sysUpTime uint32, trapOID OID, varbinds ...VarBind) (VarBindList, error) {
	return p.do(func(c *Client) (VarBindList, error) {
		return c.Inform(ctx, sysUpTime, trapOID, varbinds...)
	})
}

// Walk performs a walk using a pooled connection.
func (p *Pool) Walk(ctx context.Context, rootOID OID) (VarBindList, error) {
	return p.do(func(c *Client) (VarBindList, error) {
		return c.Walk(ctx, rootOID)
	})
}

func (p *Pool) healthChecker() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.opts.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.checkHealth()
		}
	}
}

// checkHealth works on a snapshot of the slots so that dialing never
// holds the pool lock.
func (p *Pool) checkHealth() {
	p.mu.RLock()
	slots := append([]*poolSlot(nil), p.slots...)
	p.mu.RUnlock()

	var healthy int64
	for i, s := range slots {
		switch {
		case s.healthy() && s.inFlight.Load() == 0 && s.idle() > p.opts.MaxIdleTime:
			// Redialed on the next pass.
			s.client.Disconnect(context.Background())
		case s.healthy():
			healthy++
		case s != nil && s.client.State() != StateDisconnected:
			// Connecting or disconnecting; look again on the next pass.
		default:
			if p.replace(i, s) {
				healthy++
			}
		}
	}

	p.metrics.HealthyClients.Set(healthy)
}

// replace dials a fresh client for slot i and installs it only if the
// slot still holds old.
func (p *Pool) replace(i int, old *poolSlot) bool {
	ctx, cancel := context.WithTimeout(p.ctx, p.opts.DialTimeout)
	defer cancel()

	client, err := p.dial(ctx)
	if err != nil {
		return false
	}

	p.mu.Lock()
	installed := !p.closed && i < len(p.slots) && p.slots[i] == old
	if installed {
		p.slots[i] = newPoolSlot(client)
	}
	p.mu.Unlock()

	if !installed {
		client.Disconnect(context.Background())
		return false
	}
	return true
}

// Metrics returns the pool metrics.
func (p *Pool) Metrics() *PoolMetrics {
	return p.metrics
}

// Size returns the pool size.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.slots)
}

// HealthyCount returns the number of connected clients.
func (p *Pool) HealthyCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	count := 0
	for _, s := range p.slots {
		if s.healthy() {
			count++
		}
	}
	return count
}
