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
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a simple atomic counter.
type Counter struct {
	value int64
}

// Add adds a value to the counter.
func (c *Counter) Add(delta int64) {
	atomic.AddInt64(&c.value, delta)
}

// Value returns the current counter value.
func (c *Counter) Value() int64 {
	return atomic.LoadInt64(&c.value)
}

// Reset resets the counter to zero.
func (c *Counter) Reset() {
	atomic.StoreInt64(&c.value, 0)
}

// Gauge is a simple atomic gauge that can go up and down.
type Gauge struct {
	value int64
}

// Set sets the gauge value.
func (g *Gauge) Set(value int64) {
	atomic.StoreInt64(&g.value, value)
}

// Add adds a value to the gauge.
func (g *Gauge) Add(delta int64) {
	atomic.AddInt64(&g.value, delta)
}

// Value returns the current gauge value.
func (g *Gauge) Value() int64 {
	return atomic.LoadInt64(&g.value)
}

// LatencyHistogram tracks latency distribution.
type LatencyHistogram struct {
	mu      sync.RWMutex
	count   int64
	sum     int64
	min     int64
	max     int64
	buckets []int64
	bounds  []int64
}

// NewLatencyHistogram creates a new latency histogram.
func NewLatencyHistogram() *LatencyHistogram {
	return &LatencyHistogram{
		min:     -1,
		bounds:  []int64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		buckets: make([]int64, 13), // 12 buckets + overflow
	}
}

// Observe records a latency observation in milliseconds.
func (h *LatencyHistogram) Observe(latencyMs int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	h.sum += latencyMs

	if h.min < 0 || latencyMs < h.min {
		h.min = latencyMs
	}
	if latencyMs > h.max {
		h.max = latencyMs
	}

	// Find bucket
	for i, bound := range h.bounds {
		if latencyMs <= bound {
			h.buckets[i]++
			return
		}
	}
	h.buckets[len(h.buckets)-1]++ // overflow
}

// ObserveDuration records a duration.
func (h *LatencyHistogram) ObserveDuration(d time.Duration) {
	h.Observe(d.Milliseconds())
}

// Stats returns histogram statistics.
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := LatencyStats{
		Count: h.count,
		Sum:   h.sum,
		Min:   h.min,
		Max:   h.max,
	}

	if h.count > 0 {
		stats.Avg = float64(h.sum) / float64(h.count)
	}

	return stats
}

// Reset clears all observations.
func (h *LatencyHistogram) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.count, h.sum, h.min, h.max = 0, 0, -1, 0
	for i := range h.buckets {
		h.buckets[i] = 0
	}
}

// Buckets returns the cumulative observation count for each upper bound in
// milliseconds. Observations above the last bound are only part of the
// total count.
func (h *LatencyHistogram) Buckets() map[float64]uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[float64]uint64, len(h.bounds))
	var cumulative int64
	for i, bound := range h.bounds {
		cumulative += h.buckets[i]
		out[float64(bound)] = uint64(cumulative)
	}
	return out
}

// LatencyStats contains latency statistics.
type LatencyStats struct {
	Count int64
	Sum   int64
	Min   int64
	Max   int64
	Avg   float64
}

// Metrics contains the counters shared by the client and the trap
// listener.
type Metrics struct {
	// Request metrics
	RequestsSent      Counter
	ResponsesReceived Counter
	Timeouts          Counter
	Retries           Counter
	Errors            Counter

	// PDU type metrics
	GetRequests     Counter
	GetNextRequests Counter
	GetBulkRequests Counter
	SetRequests     Counter
	WalkRequests    Counter
	InformRequests  Counter
	TrapsSent       Counter

	// Notification receiver metrics
	TrapsReceived       Counter
	InformsReceived     Counter
	InformsAcknowledged Counter
	TrapsDropped        Counter

	// DecodeErrors counts datagrams that were not valid SNMP messages.
	DecodeErrors Counter

	// Variable binding metrics
	VarbindsSent     Counter
	VarbindsReceived Counter

	// Latency metrics
	RequestLatency *LatencyHistogram

	// Connection metrics
	ConnectionAttempts Counter
	ActiveConnections  Gauge

	// Start time
	StartTime time.Time
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestLatency: NewLatencyHistogram(),
		StartTime:      time.Now(),
	}
}

// Snapshot returns a copy of the current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RequestsSent:        m.RequestsSent.Value(),
		ResponsesReceived:   m.ResponsesReceived.Value(),
		Timeouts:            m.Timeouts.Value(),
		Retries:             m.Retries.Value(),
		Errors:              m.Errors.Value(),
		GetRequests:         m.GetRequests.Value(),
		GetNextRequests:     m.GetNextRequests.Value(),
		GetBulkRequests:     m.GetBulkRequests.Value(),
		SetRequests:         m.SetRequests.Value(),
		WalkRequests:        m.WalkRequests.Value(),
		InformRequests:      m.InformRequests.Value(),
		TrapsSent:           m.TrapsSent.Value(),
		TrapsReceived:       m.TrapsReceived.Value(),
		InformsReceived:     m.InformsReceived.Value(),
		InformsAcknowledged: m.InformsAcknowledged.Value(),
		TrapsDropped:        m.TrapsDropped.Value(),
		DecodeErrors:        m.DecodeErrors.Value(),
		VarbindsSent:        m.VarbindsSent.Value(),
		VarbindsReceived:    m.VarbindsReceived.Value(),
		RequestLatency:      m.RequestLatency.Stats(),
		ConnectionAttempts:  m.ConnectionAttempts.Value(),
		ActiveConnections:   m.ActiveConnections.Value(),
		Uptime:              time.Since(m.StartTime),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestsSent        int64
	ResponsesReceived   int64
	Timeouts            int64
	Retries             int64
	Errors              int64
	GetRequests         int64
	GetNextRequests     int64
	GetBulkRequests     int64
	SetRequests         int64
	WalkRequests        int64
	InformRequests      int64
	TrapsSent           int64
	TrapsReceived       int64
	InformsReceived     int64
	InformsAcknowledged int64
	TrapsDropped        int64
	DecodeErrors        int64
	VarbindsSent        int64
	VarbindsReceived    int64
	RequestLatency      LatencyStats
	ConnectionAttempts  int64
	ActiveConnections   int64
	Uptime              time.Duration
}

// Reset resets all counters. ActiveConnections is left alone since it
// tracks live state.
func (m *Metrics) Reset() {
	for _, c := range []*Counter{
		&m.RequestsSent, &m.ResponsesReceived, &m.Timeouts, &m.Retries, &m.Errors,
		&m.GetRequests, &m.GetNextRequests, &m.GetBulkRequests, &m.SetRequests,
		&m.WalkRequests, &m.InformRequests, &m.TrapsSent,
		&m.TrapsReceived, &m.InformsReceived, &m.InformsAcknowledged, &m.TrapsDropped,
		&m.DecodeErrors, &m.VarbindsSent, &m.VarbindsReceived, &m.ConnectionAttempts,
	} {
		c.Reset()
	}
	m.RequestLatency.Reset()
	m.StartTime = time.Now()
}

// PoolMetrics contains pool-specific metrics.
type PoolMetrics struct {
	TotalClients   Gauge
	HealthyClients Gauge
	TotalRequests  Counter
	FailedRequests Counter
}
