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
	"log/slog"
	"time"
)

// ClientOptions contains configuration options for the SNMP client.
type ClientOptions struct {
	// Target is the agent host name or address.
	Target string
	// Port is the agent UDP port.
	Port int
	// Version is the SNMP version (Version1 or Version2c).
	Version SNMPVersion
	// Community is the community string.
	Community string
	// Timeout is the request timeout.
	Timeout time.Duration
	// Retries is the number of retries on timeout.
	Retries int
	// MaxOids is the maximum OIDs per request.
	MaxOids int
	// MaxRepetitions is the max-repetitions for GetBulk (v2c).
	MaxRepetitions int
	// NonRepeaters is the non-repeaters for GetBulk.
	NonRepeaters int

	// Connection
	AutoReconnect        bool
	MaxReconnectInterval time.Duration
	ConnectRetryInterval time.Duration
	MaxRetries           int

	// Callbacks
	OnConnect        OnConnectHandler
	OnConnectionLost ConnectionLostHandler

	// Logger
	Logger *slog.Logger
}

// NewClientOptions creates ClientOptions with default values.
func NewClientOptions() *ClientOptions {
	return &ClientOptions{
		Port:                 DefaultPort,
		Version:              Version2c,
		Community:            DefaultCommunity,
		Timeout:              DefaultTimeout,
		Retries:              DefaultRetries,
		MaxOids:              DefaultMaxOids,
		MaxRepetitions:       DefaultMaxRepetitions,
		NonRepeaters:         DefaultNonRepeaters,
		AutoReconnect:        true,
		MaxReconnectInterval: 2 * time.Minute,
		ConnectRetryInterval: time.Second,
		MaxRetries:           0,
	}
}

// Option is a functional option for configuring the client.
type Option func(*ClientOptions)

// WithTarget sets the target address.
func WithTarget(target string) Option {
	return func(o *ClientOptions) {
		o.Target = target
	}
}

// WithPort sets the target port.
func WithPort(port int) Option {
	return func(o *ClientOptions) {
		o.Port = port
	}
}

// WithVersion sets the SNMP version.
func WithVersion(version SNMPVersion) Option {
	return func(o *ClientOptions) {
		o.Version = version
	}
}

// WithCommunity sets the community string.
func WithCommunity(community string) Option {
	return func(o *ClientOptions) {
		o.Community = community
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *ClientOptions) {
		o.Timeout = d
	}
}

// WithRetries sets the number of retries.
func WithRetries(n int) Option {
	return func(o *ClientOptions) {
		o.Retries = n
	}
}

// WithMaxOids sets the maximum OIDs per request.
func WithMaxOids(n int) Option {
	return func(o *ClientOptions) {
		o.MaxOids = n
	}
}

// WithMaxRepetitions sets the max-repetitions for GetBulk.
func WithMaxRepetitions(n int) Option {
	return func(o *ClientOptions) {
		o.MaxRepetitions = n
	}
}

// WithNonRepeaters sets the non-repeaters for GetBulk.
func WithNonRepeaters(n int) Option {
	return func(o *ClientOptions) {
		o.NonRepeaters = n
	}
}

// WithAutoReconnect enables or disables automatic reconnection.
func WithAutoReconnect(enabled bool) Option {
	return func(o *ClientOptions) {
		o.AutoReconnect = enabled
	}
}

// WithMaxReconnectInterval sets the maximum reconnect interval.
func WithMaxReconnectInterval(d time.Duration) Option {
	return func(o *ClientOptions) {
		o.MaxReconnectInterval = d
	}
}

// WithConnectRetryInterval sets the initial reconnect interval.
func WithConnectRetryInterval(d time.Duration) Option {
	return func(o *ClientOptions) {
		o.ConnectRetryInterval = d
	}
}

// WithMaxConnectRetries sets the maximum reconnection attempts (0 = unlimited).
func WithMaxConnectRetries(n int) Option {
	return func(o *ClientOptions) {
		o.MaxRetries = n
	}
}

// WithOnConnect sets the connect callback.
func WithOnConnect(handler OnConnectHandler) Option {
	return func(o *ClientOptions) {
		o.OnConnect = handler
	}
}

// WithOnConnectionLost sets the connection lost callback.
func WithOnConnectionLost(handler ConnectionLostHandler) Option {
	return func(o *ClientOptions) {
		o.OnConnectionLost = handler
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *ClientOptions) {
		o.Logger = logger
	}
}

// PoolOptions contains configuration options for the connection pool.
type PoolOptions struct {
	// Size is the number of connections in the pool.
	Size int
	// MaxIdleTime is the maximum time a connection can be idle.
	MaxIdleTime time.Duration
	// HealthCheckInterval is the interval between health checks.
	HealthCheckInterval time.Duration
	// DialTimeout bounds each redial made by the health check.
	DialTimeout time.Duration
	// ClientOptions are the options for each client in the pool.
	ClientOptions []Option
}

// NewPoolOptions creates PoolOptions with default values.
func NewPoolOptions() *PoolOptions {
	return &PoolOptions{
		Size:                3,
		MaxIdleTime:         5 * time.Minute,
		HealthCheckInterval: 30 * time.Second,
		DialTimeout:         10 * time.Second,
	}
}

// PoolOption is a functional option for configuring the pool.
type PoolOption func(*PoolOptions)

// WithPoolSize sets the pool size.
func WithPoolSize(size int) PoolOption {
	return func(o *PoolOptions) {
		o.Size = size
	}
}

// WithPoolMaxIdleTime sets the maximum idle time.
func WithPoolMaxIdleTime(d time.Duration) PoolOption {
	return func(o *PoolOptions) {
		o.MaxIdleTime = d
	}
}

// WithPoolHealthCheckInterval sets the health check interval.
func WithPoolHealthCheckInterval(d time.Duration) PoolOption {
	return func(o *PoolOptions) {
		o.HealthCheckInterval = d
	}
}

// WithPoolDialTimeout sets the timeout for health check redials.
func WithPoolDialTimeout(d time.Duration) PoolOption {
	return func(o *PoolOptions) {
		o.DialTimeout = d
	}
}

// WithPoolClientOptions sets client options for pool connections.
func WithPoolClientOptions(opts ...Option) PoolOption {
	return func(o *PoolOptions) {
		o.ClientOptions = opts
	}
}

// TrapListenerOptions contains configuration for the trap listener.
type TrapListenerOptions struct {
	// Address is the listen address (default ":162").
	Address string
	// Community is the expected community string (empty = accept all).
	Community string
	// AcknowledgeInforms makes the listener answer each InformRequest with
	// a Response (default true).
	AcknowledgeInforms bool
	// Logger is the logger.
	Logger *slog.Logger
}

// NewTrapListenerOptions creates TrapListenerOptions with default values.
func NewTrapListenerOptions() *TrapListenerOptions {
	return &TrapListenerOptions{
		Address:            ":162",
		AcknowledgeInforms: true,
	}
}

// TrapListenerOption is a functional option for configuring the trap listener.
type TrapListenerOption func(*TrapListenerOptions)

// WithListenAddress sets the listen address.
func WithListenAddress(addr string) TrapListenerOption {
	return func(o *TrapListenerOptions) {
		o.Address = addr
	}
}

// WithTrapCommunity sets the expected community string.
func WithTrapCommunity(community string) TrapListenerOption {
	return func(o *TrapListenerOptions) {
		o.Community = community
	}
}

// WithAcknowledgeInforms enables or disables Response replies to informs.
func WithAcknowledgeInforms(enabled bool) TrapListenerOption {
	return func(o *TrapListenerOptions) {
		o.AcknowledgeInforms = enabled
	}
}

// WithTrapLogger sets the logger for the trap listener.
func WithTrapLogger(logger *slog.Logger) TrapListenerOption {
	return func(o *TrapListenerOptions) {
		o.Logger = logger
	}
}
