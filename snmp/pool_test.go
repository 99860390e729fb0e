package snmp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	agent := newFakeAgent(t, testView.handle)

	p := NewPool(
		WithPoolSize(3),
		WithPoolHealthCheckInterval(time.Hour),
		WithPoolClientOptions(
			WithTarget("127.0.0.1"),
			WithPort(agent.port()),
			WithTimeout(500*time.Millisecond),
			WithAutoReconnect(false),
		),
	)
	require.NoError(t, p.Connect(context.Background()))
	defer p.Close()

	assert.Equal(t, 3, p.Size())
	assert.Equal(t, 3, p.HealthyCount())

	for i := 0; i < 4; i++ {
		vbs, err := p.Get(context.Background(), OIDSysName)
		require.NoError(t, err)
		assert.Equal(t, "agent-1", vbs[0].AsString())
	}

	vbs, err := p.Walk(context.Background(), MustParseOID("1.3.6.1.2.1.2.2.1.2"))
	require.NoError(t, err)
	assert.Len(t, vbs, 3)

	assert.Equal(t, int64(5), p.Metrics().TotalRequests.Value())
	assert.Zero(t, p.Metrics().FailedRequests.Value())
}

func TestPoolEmpty(t *testing.T) {
	p := NewPool(WithPoolSize(0))

	_, err := p.Acquire()
	assert.ErrorIs(t, err, ErrPoolEmpty)
}

func TestPoolNoHealthyClients(t *testing.T) {
	agent := newFakeAgent(t, testView.handle)

	p := NewPool(
		WithPoolSize(1),
		WithPoolHealthCheckInterval(time.Hour),
		WithPoolClientOptions(WithTarget("127.0.0.1"), WithPort(agent.port()), WithAutoReconnect(false)),
	)
	require.NoError(t, p.Connect(context.Background()))
	defer p.Close()

	c, err := p.Acquire()
	require.NoError(t, err)
	p.Release(c)
	require.NoError(t, c.Disconnect(context.Background()))

	_, err = p.Acquire()
	assert.ErrorIs(t, err, ErrNoHealthyClients)
	assert.Equal(t, int64(1), p.Metrics().FailedRequests.Value())
}

func newTestPool(t *testing.T, agent *fakeAgent, size int) *Pool {
	t.Helper()

	p := NewPool(
		WithPoolSize(size),
		WithPoolHealthCheckInterval(time.Hour),
		WithPoolMaxIdleTime(time.Hour),
		WithPoolClientOptions(
			WithTarget("127.0.0.1"),
			WithPort(agent.port()),
			WithTimeout(500*time.Millisecond),
			WithAutoReconnect(false),
		),
	)
	require.NoError(t, p.Connect(context.Background()))
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPoolCloseTwice(t *testing.T) {
	agent := newFakeAgent(t, testView.handle)
	p := newTestPool(t, agent, 2)

	c, err := p.Acquire()
	require.NoError(t, err)
	p.Release(c)

	require.NoError(t, p.Close())
	assert.NotPanics(t, func() { assert.NoError(t, p.Close()) })

	assert.False(t, c.IsConnected())
	assert.Zero(t, p.Size())

	_, err = p.Acquire()
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.ErrorIs(t, p.Connect(context.Background()), ErrPoolClosed)
}

func TestPoolConnectTwice(t *testing.T) {
	agent := newFakeAgent(t, testView.handle)
	p := newTestPool(t, agent, 1)

	assert.ErrorIs(t, p.Connect(context.Background()), ErrAlreadyConnected)
	assert.Equal(t, 1, p.HealthyCount())
}

func TestPoolRedialDoesNotBlockAcquire(t *testing.T) {
	agent := newFakeAgent(t, testView.handle)
	p := newTestPool(t, agent, 2)

	stale := p.slots[0].client
	require.NoError(t, stale.Disconnect(context.Background()))

	dialing := make(chan struct{})
	release := make(chan struct{})
	dial := p.dial
	p.dial = func(ctx context.Context) (*Client, error) {
		close(dialing)
		<-release
		return dial(ctx)
	}

	checked := make(chan struct{})
	go func() {
		p.checkHealth()
		close(checked)
	}()
	<-dialing

	acquired := make(chan error, 1)
	go func() {
		c, err := p.Acquire()
		if err == nil {
			p.Release(c)
		}
		acquired <- err
	}()

	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire blocked while a slot was being redialed")
	}

	close(release)
	<-checked

	assert.Equal(t, 2, p.HealthyCount())
	assert.Equal(t, int64(2), p.Metrics().HealthyClients.Value())
	assert.NotSame(t, stale, p.slots[0].client)
}

func TestPoolRedialAfterClose(t *testing.T) {
	agent := newFakeAgent(t, testView.handle)
	p := newTestPool(t, agent, 1)

	require.NoError(t, p.slots[0].client.Disconnect(context.Background()))

	dialing := make(chan struct{})
	release := make(chan struct{})
	dialed := make(chan *Client, 1)
	dial := p.dial
	p.dial = func(ctx context.Context) (*Client, error) {
		close(dialing)
		<-release
		c, err := dial(context.Background())
		dialed <- c
		return c, err
	}

	checked := make(chan struct{})
	go func() {
		p.checkHealth()
		close(checked)
	}()
	<-dialing

	require.NoError(t, p.Close())
	close(release)
	<-checked

	c := <-dialed
	require.NotNil(t, c)
	assert.False(t, c.IsConnected(), "a client dialed after Close must not stay open")
	assert.Zero(t, p.Size())
}
