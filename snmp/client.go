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
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Client is an SNMP v1/v2c manager talking to one agent over UDP.
type Client struct {
	opts    *ClientOptions
	conn    net.Conn
	state   atomic.Int32
	mu      sync.RWMutex
	wg      sync.WaitGroup
	done    chan struct{}
	metrics *Metrics
	logger  *slog.Logger

	// Request ID management
	requestID     int32
	requestIDLock sync.Mutex

	// Pending requests
	pending     map[int32]chan *Response
	pendingLock sync.RWMutex
}

// NewClient creates a new SNMP client.
func NewClient(opts ...Option) *Client {
	options := NewClientOptions()
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		opts:      options,
		done:      make(chan struct{}),
		metrics:   NewMetrics(),
		logger:    logger,
		pending:   make(map[int32]chan *Response),
		requestID: rand.Int31(),
	}
}

// Connect binds a UDP socket to the agent address.
func (c *Client) Connect(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return ErrAlreadyConnected
	}

	if c.opts.Target == "" {
		c.state.Store(int32(StateDisconnected))
		return fmt.Errorf("snmp: no target configured")
	}
	if !c.opts.Version.Supported() {
		c.state.Store(int32(StateDisconnected))
		return &UnsupportedVersionError{Version: int64(c.opts.Version)}
	}

	c.metrics.ConnectionAttempts.Add(1)

	addr := net.JoinHostPort(c.opts.Target, strconv.Itoa(c.opts.Port))

	dialer := net.Dialer{Timeout: c.opts.Timeout}
	conn, err := dialer.DialContext(ctx, "udp", addr)
	if err != nil {
		c.state.Store(int32(StateDisconnected))
		return fmt.Errorf("snmp: connection failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.state.Store(int32(StateConnected))
	c.metrics.ActiveConnections.Add(1)

	c.wg.Add(1)
	go c.readLoop(conn, done)

	if c.opts.OnConnect != nil {
		go c.opts.OnConnect(c)
	}

	c.logger.Info("connected to SNMP agent",
		"target", addr,
		"version", c.opts.Version)

	return nil
}

// Disconnect closes the socket and fails outstanding requests.
func (c *Client) Disconnect(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnecting)) {
		return ErrNotConnected
	}

	c.mu.Lock()
	close(c.done)
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	c.wg.Wait()

	c.state.Store(int32(StateDisconnected))
	c.metrics.ActiveConnections.Add(-1)
	c.failPending()

	c.logger.Info("disconnected from SNMP agent")
	return nil
}

func (c *Client) readLoop(conn net.Conn, done <-chan struct{}) {
	defer c.wg.Done()

	buf := make([]byte, DefaultMaxMessageSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			select {
			case <-done:
				return
			default:
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			go c.handleConnectionLost(err)
			return
		}

		msg, err := DecodeMessage(buf[:n])
		if err != nil {
			c.logger.Warn("failed to decode response", "error", err)
			c.metrics.DecodeErrors.Add(1)
			continue
		}

		resp, ok := msg.PDU.(*Response)
		if !ok {
			c.logger.Debug("ignoring unexpected PDU", "type", msg.PDU.Type())
			continue
		}

		c.metrics.ResponsesReceived.Add(1)
		c.metrics.VarbindsReceived.Add(int64(len(resp.VarBinds)))

		c.pendingLock.RLock()
		ch, ok := c.pending[resp.RequestID]
		c.pendingLock.RUnlock()

		if !ok {
			c.logger.Debug("response for unknown request", "request_id", resp.RequestID)
			continue
		}
		select {
		case ch <- resp:
		default:
		}
	}
}

func (c *Client) handleConnectionLost(err error) {
	if !c.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnecting)) {
		return
	}

	c.mu.Lock()
	close(c.done)
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.state.Store(int32(StateDisconnected))
	c.metrics.ActiveConnections.Add(-1)

	c.logger.Info("connection lost", "error", err)

	if c.opts.OnConnectionLost != nil {
		go c.opts.OnConnectionLost(c, err)
	}

	c.failPending()

	if c.opts.AutoReconnect {
		go c.reconnect()
	}
}

func (c *Client) failPending() {
	c.pendingLock.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingLock.Unlock()
}

func (c *Client) reconnect() {
	backoff := c.opts.ConnectRetryInterval
	retries := 0

	for {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.Timeout)
		err := c.Connect(ctx)
		cancel()

		if err == nil || errors.Is(err, ErrAlreadyConnected) {
			return
		}

		c.logger.Warn("reconnection failed", "error", err, "retry_in", backoff)

		retries++
		if c.opts.MaxRetries > 0 && retries >= c.opts.MaxRetries {
			c.logger.Error("max reconnection attempts reached")
			return
		}

		time.Sleep(backoff)

		// Exponential backoff with jitter
		backoff = time.Duration(float64(backoff) * (1.5 + rand.Float64()*0.5))
		if backoff > c.opts.MaxReconnectInterval {
			backoff = c.opts.MaxReconnectInterval
		}
	}
}

func (c *Client) nextRequestID() int32 {
	c.requestIDLock.Lock()
	defer c.requestIDLock.Unlock()

	c.requestID++
	if c.requestID <= 0 {
		c.requestID = 1
	}
	return c.requestID
}

func (c *Client) write(data []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	conn.SetWriteDeadline(time.Now().Add(c.opts.Timeout))
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("snmp: write failed: %w", err)
	}
	return nil
}

func (c *Client) encode(pdu PDU) ([]byte, error) {
	msg := &Message{
		Version:   c.opts.Version,
		Community: c.opts.Community,
		PDU:       pdu,
	}
	return msg.Encode()
}

// sendRequest sends a confirmed-class PDU and waits for the matching
// Response, retrying on timeout.
func (c *Client) sendRequest(ctx context.Context, pdu PDU) (*Response, error) {
	if c.State() != StateConnected {
		return nil, ErrNotConnected
	}

	requestID, _ := RequestID(pdu)

	respCh := make(chan *Response, 1)
	c.pendingLock.Lock()
	c.pending[requestID] = respCh
	c.pendingLock.Unlock()

	defer func() {
		c.pendingLock.Lock()
		delete(c.pending, requestID)
		c.pendingLock.Unlock()
	}()

	data, err := c.encode(pdu)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for retry := 0; retry <= c.opts.Retries; retry++ {
		if retry > 0 {
			c.metrics.Retries.Add(1)
			c.logger.Debug("retrying request", "retry", retry, "request_id", requestID)
		}

		start := time.Now()

		if err := c.write(data); err != nil {
			lastErr = err
			continue
		}

		c.metrics.RequestsSent.Add(1)
		c.metrics.VarbindsSent.Add(int64(len(pdu.VarBindList())))

		select {
		case resp, ok := <-respCh:
			if !ok {
				return nil, ErrClientClosed
			}
			c.metrics.RequestLatency.ObserveDuration(time.Since(start))

			if err := resp.Err(pdu.VarBindList()); err != nil {
				return resp, err
			}
			return resp, nil

		case <-time.After(c.opts.Timeout):
			lastErr = ErrTimeout
			c.metrics.Timeouts.Add(1)

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// Get performs an SNMP GET request. Requests with more than MaxOids names
// are split into several PDUs.
func (c *Client) Get(ctx context.Context, oids ...OID) (VarBindList, error) {
	c.metrics.GetRequests.Add(1)

	var results VarBindList
	for _, chunk := range chunkOIDs(oids, c.opts.MaxOids) {
		resp, err := c.sendRequest(ctx, NewGetRequest(c.nextRequestID(), chunk...))
		if err != nil {
			c.metrics.Errors.Add(1)
			return nil, err
		}
		results = append(results, resp.VarBinds...)
	}
	return results, nil
}

func chunkOIDs(oids []OID, size int) [][]OID {
	if size <= 0 || len(oids) <= size {
		return [][]OID{oids}
	}
	var chunks [][]OID
	for len(oids) > size {
		chunks = append(chunks, oids[:size])
		oids = oids[size:]
	}
	return append(chunks, oids)
}

// GetNext performs an SNMP GET-NEXT request.
func (c *Client) GetNext(ctx context.Context, oids ...OID) (VarBindList, error) {
	c.metrics.GetNextRequests.Add(1)

	resp, err := c.sendRequest(ctx, NewGetNextRequest(c.nextRequestID(), oids...))
	if err != nil {
		c.metrics.Errors.Add(1)
		return nil, err
	}
	return resp.VarBinds, nil
}

// GetBulk performs an SNMP GET-BULK request (v2c only).
func (c *Client) GetBulk(ctx context.Context, nonRepeaters, maxRepetitions int, oids ...OID) (VarBindList, error) {
	if c.opts.Version == Version1 {
		return nil, &InvalidPDUTagError{Tag: PDUGetBulkRequest, Version: Version1}
	}

	c.metrics.GetBulkRequests.Add(1)

	pdu := NewGetBulkRequest(c.nextRequestID(), nullVarBinds(oids), int32(nonRepeaters), int32(maxRepetitions))
	resp, err := c.sendRequest(ctx, pdu)
	if err != nil {
		c.metrics.Errors.Add(1)
		return nil, err
	}
	return resp.VarBinds, nil
}

// Set performs an SNMP SET request.
func (c *Client) Set(ctx context.Context, varbinds ...VarBind) (VarBindList, error) {
	c.metrics.SetRequests.Add(1)

	resp, err := c.sendRequest(ctx, NewSetRequest(c.nextRequestID(), varbinds...))
	if err != nil {
		c.metrics.Errors.Add(1)
		return nil, err
	}
	return resp.VarBinds, nil
}

// Inform sends an InformRequest and waits for the receiver's Response
// (v2c only).
func (c *Client) Inform(ctx context.Context, sysUpTime uint32, trapOID OID, varbinds ...VarBind) (VarBindList, error) {
	if c.opts.Version == Version1 {
		return nil, &InvalidPDUTagError{Tag: PDUInformRequest, Version: Version1}
	}

	c.metrics.InformRequests.Add(1)

	resp, err := c.sendRequest(ctx, NewInformRequest(c.nextRequestID(), sysUpTime, trapOID, varbinds...))
	if err != nil {
		c.metrics.Errors.Add(1)
		return nil, err
	}
	return resp.VarBinds, nil
}

// SendTrap sends an unacknowledged notification: a *TrapV1 for SNMPv1
// clients or a *TrapV2 for SNMPv2c clients. A zero TrapV2 request-id is
// replaced with a fresh one.
func (c *Client) SendTrap(ctx context.Context, trap PDU) error {
	if c.State() != StateConnected {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if v2, ok := trap.(*TrapV2); ok && v2.RequestID == 0 {
		v2.RequestID = c.nextRequestID()
	}

	data, err := c.encode(trap)
	if err != nil {
		return err
	}
	if err := c.write(data); err != nil {
		c.metrics.Errors.Add(1)
		return err
	}

	c.metrics.TrapsSent.Add(1)
	c.metrics.VarbindsSent.Add(int64(len(trap.VarBindList())))
	return nil
}

// Walk retrieves every object under rootOID, using GetBulk for v2c and
// GetNext for v1.
func (c *Client) Walk(ctx context.Context, rootOID OID) (VarBindList, error) {
	var results VarBindList
	err := c.WalkFunc(ctx, rootOID, func(vb VarBind) error {
		results = append(results, vb)
		return nil
	})
	return results, err
}

// WalkFunc walks the MIB subtree under rootOID and calls fn for each
// binding. The walk stops at the end of the subtree, at an exception
// value, or at the first error returned by fn.
func (c *Client) WalkFunc(ctx context.Context, rootOID OID, fn func(VarBind) error) error {
	c.metrics.WalkRequests.Add(1)

	currentOID := rootOID.Copy()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var vbs VarBindList
		var err error

		if c.opts.Version == Version1 {
			vbs, err = c.GetNext(ctx, currentOID)
		} else {
			vbs, err = c.GetBulk(ctx, c.opts.NonRepeaters, c.opts.MaxRepetitions, currentOID)
		}

		if err != nil {
			if isEndOfWalk(err) {
				return nil
			}
			return err
		}

		if len(vbs) == 0 {
			return nil
		}

		for _, vb := range vbs {
			if vb.IsException() || !vb.OID.HasPrefix(rootOID) {
				return nil
			}
			if vb.OID.Compare(currentOID) <= 0 {
				return fmt.Errorf("%w: %s after %s", ErrOIDNotIncreasing, vb.OID, currentOID)
			}

			if err := fn(vb); err != nil {
				return err
			}

			currentOID = vb.OID
		}
	}
}

// isEndOfWalk reports the SNMPv1 end-of-view signal: noSuchName on a
// GetNext past the last object.
func isEndOfWalk(err error) bool {
	var snmpErr *SNMPError
	if errors.As(err, &snmpErr) && snmpErr.Status == NoSuchName {
		return true
	}
	return IsEndOfMIB(err) || IsNoSuchObject(err) || IsNoSuchInstance(err)
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// IsConnected returns true if connected.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Metrics returns the client metrics.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// Options returns the client options.
func (c *Client) Options() *ClientOptions {
	return c.opts
}
