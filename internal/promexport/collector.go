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

// Package promexport exposes snmp.Metrics to Prometheus.
package promexport

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/edgeo-scada/snmp/snmp"
)

const namespace = "snmp"

type counterDesc struct {
	desc  *prometheus.Desc
	value func(s *snmp.MetricsSnapshot) int64
}

func newCounter(name, help string, value func(s *snmp.MetricsSnapshot) int64) counterDesc {
	return counterDesc{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, []string{"role"}, nil),
		value: value,
	}
}

var counters = []counterDesc{
	newCounter("requests_sent_total", "Requests sent, including retries.", func(s *snmp.MetricsSnapshot) int64 { return s.RequestsSent }),
	newCounter("responses_received_total", "Response PDUs received.", func(s *snmp.MetricsSnapshot) int64 { return s.ResponsesReceived }),
	newCounter("timeouts_total", "Request attempts that timed out.", func(s *snmp.MetricsSnapshot) int64 { return s.Timeouts }),
	newCounter("retries_total", "Request retries.", func(s *snmp.MetricsSnapshot) int64 { return s.Retries }),
	newCounter("errors_total", "Failed operations.", func(s *snmp.MetricsSnapshot) int64 { return s.Errors }),
	newCounter("traps_sent_total", "Unacknowledged notifications sent.", func(s *snmp.MetricsSnapshot) int64 { return s.TrapsSent }),
	newCounter("traps_received_total", "Traps received.", func(s *snmp.MetricsSnapshot) int64 { return s.TrapsReceived }),
	newCounter("informs_received_total", "InformRequests received.", func(s *snmp.MetricsSnapshot) int64 { return s.InformsReceived }),
	newCounter("informs_acknowledged_total", "InformRequests answered with a Response.", func(s *snmp.MetricsSnapshot) int64 { return s.InformsAcknowledged }),
	newCounter("traps_dropped_total", "Notifications dropped by the community filter or validation.", func(s *snmp.MetricsSnapshot) int64 { return s.TrapsDropped }),
	newCounter("decode_errors_total", "Datagrams that were not valid SNMP messages.", func(s *snmp.MetricsSnapshot) int64 { return s.DecodeErrors }),
	newCounter("varbinds_sent_total", "Variable bindings sent.", func(s *snmp.MetricsSnapshot) int64 { return s.VarbindsSent }),
	newCounter("varbinds_received_total", "Variable bindings received.", func(s *snmp.MetricsSnapshot) int64 { return s.VarbindsReceived }),
}

var (
	latencyDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "request_duration_seconds"),
		"Round trip time of successful requests.",
		[]string{"role"}, nil)
	uptimeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "uptime_seconds"),
		"Seconds since the metrics were created or reset.",
		[]string{"role"}, nil)
	activeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "active_connections"),
		"Connected client sockets.",
		[]string{"role"}, nil)
)

// Collector reads an snmp.Metrics at scrape time. Role labels every series
// so a client and a listener can share one registry.
type Collector struct {
	metrics *snmp.Metrics
	role    string
}

// NewCollector returns a Collector for m.
func NewCollector(m *snmp.Metrics, role string) *Collector {
	return &Collector{metrics: m, role: role}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, cd := range counters {
		ch <- cd.desc
	}
	ch <- latencyDesc
	ch <- uptimeDesc
	ch <- activeDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.metrics.Snapshot()

	for _, cd := range counters {
		ch <- prometheus.MustNewConstMetric(cd.desc, prometheus.CounterValue, float64(cd.value(&snap)), c.role)
	}

	buckets := make(map[float64]uint64)
	for ms, count := range c.metrics.RequestLatency.Buckets() {
		buckets[ms/1000] = count
	}
	ch <- prometheus.MustNewConstHistogram(latencyDesc,
		uint64(snap.RequestLatency.Count),
		float64(snap.RequestLatency.Sum)/1000,
		buckets,
		c.role)
	ch <- prometheus.MustNewConstMetric(uptimeDesc, prometheus.GaugeValue, snap.Uptime.Seconds(), c.role)
	ch <- prometheus.MustNewConstMetric(activeDesc, prometheus.GaugeValue, float64(snap.ActiveConnections), c.role)
}
