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
	"log/slog"
	"net"
	"sync"
	"time"
)

// TrapListener receives SNMPv1 traps, SNMPv2c traps and informs on a UDP
// socket. Datagrams that fail to decode are logged and dropped. Informs are
// answered with a Response unless disabled.
type TrapListener struct {
	opts     *TrapListenerOptions
	conn     *net.UDPConn
	handler  TrapHandler
	logger   *slog.Logger
	mu       sync.Mutex
	started  bool
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	metrics  *Metrics
}

// NewTrapListener creates a new trap listener.
func NewTrapListener(handler TrapHandler, opts ...TrapListenerOption) *TrapListener {
	options := NewTrapListenerOptions()
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &TrapListener{
		opts:    options,
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
		metrics: NewMetrics(),
	}
}

// Start binds the socket and starts receiving. The listener stops when ctx
// is cancelled or Stop is called.
func (l *TrapListener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.done:
		return ErrListenerClosed
	default:
	}
	if l.started {
		return ErrListenerRunning
	}

	addr, err := net.ResolveUDPAddr("udp", l.opts.Address)
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}

	l.conn = conn
	l.started = true
	l.logger.Info("trap listener started", "address", conn.LocalAddr().String())

	l.wg.Add(1)
	go l.listen()

	go func() {
		select {
		case <-ctx.Done():
			l.Stop()
		case <-l.done:
		}
	}()

	return nil
}

// Stop stops the trap listener. It is safe to call more than once.
func (l *TrapListener) Stop() error {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		close(l.done)
		if l.conn != nil {
			l.conn.Close()
		}
		l.mu.Unlock()
		l.wg.Wait()
		l.logger.Info("trap listener stopped")
	})
	return nil
}

func (l *TrapListener) listen() {
	defer l.wg.Done()

	buf := make([]byte, DefaultMaxMessageSize)
	for {
		n, remoteAddr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-l.done:
				return
			default:
				l.logger.Warn("error reading trap", "error", err)
				continue
			}
		}

		// The handler runs asynchronously, so it must not see buf reused.
		data := make([]byte, n)
		copy(data, buf[:n])
		l.handleDatagram(data, remoteAddr)
	}
}

func (l *TrapListener) handleDatagram(data []byte, remoteAddr *net.UDPAddr) {
	msg, err := DecodeMessage(data)
	if err != nil {
		l.logger.Warn("failed to decode trap", "error", err, "source", remoteAddr)
		l.metrics.DecodeErrors.Add(1)
		return
	}

	if l.opts.Community != "" && msg.Community != l.opts.Community {
		l.logger.Warn("trap community mismatch",
			"expected", l.opts.Community,
			"received", msg.Community,
			"source", remoteAddr)
		l.metrics.TrapsDropped.Add(1)
		return
	}

	n, err := NewNotification(msg)
	if err != nil {
		l.logger.Warn("dropping datagram", "error", err, "pdu", msg.PDU.Type(), "source", remoteAddr)
		l.metrics.TrapsDropped.Add(1)
		return
	}
	n.Source = remoteAddr
	n.ReceivedAt = time.Now()

	l.metrics.VarbindsReceived.Add(int64(len(msg.PDU.VarBindList())))
	if n.Type == PDUInformRequest {
		l.metrics.InformsReceived.Add(1)
		if l.opts.AcknowledgeInforms {
			l.acknowledge(msg, remoteAddr)
		}
	} else {
		l.metrics.TrapsReceived.Add(1)
	}

	if l.handler != nil {
		go l.handler(n)
	}
}

func (l *TrapListener) acknowledge(msg *Message, remoteAddr *net.UDPAddr) {
	reply, err := msg.Response().Encode()
	if err != nil {
		l.logger.Warn("failed to encode inform response", "error", err, "source", remoteAddr)
		l.metrics.Errors.Add(1)
		return
	}
	if _, err := l.conn.WriteToUDP(reply, remoteAddr); err != nil {
		l.logger.Warn("failed to send inform response", "error", err, "source", remoteAddr)
		l.metrics.Errors.Add(1)
		return
	}
	l.metrics.InformsAcknowledged.Add(1)
}

// Metrics returns the listener metrics.
func (l *TrapListener) Metrics() *Metrics {
	return l.metrics
}

// Address returns the bound address once started, else the configured
// one.
func (l *TrapListener) Address() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		return l.conn.LocalAddr().String()
	}
	return l.opts.Address
}
