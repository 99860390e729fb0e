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

// Package capture replays SNMP messages from pcap files and records
// messages into them.
//
// Only Ethernet captures carrying IPv4 or IPv6 UDP datagrams are read.
// Fragmented datagrams are skipped.
package capture

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/edgeo-scada/snmp/snmp"
)

// ErrStop can be returned by a handler to end a replay without error.
var ErrStop = errors.New("capture: stop")

// Frame is one UDP datagram from a capture and the result of decoding its
// payload as an SNMP message. Exactly one of Message and Err is set.
type Frame struct {
	Number      uint64
	Timestamp   time.Time
	Source      *net.UDPAddr
	Destination *net.UDPAddr
	Payload     []byte
	Message     *snmp.Message
	Err         error
}

// Handler receives replayed frames.
type Handler interface {
	HandleFrame(frame *Frame) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(frame *Frame) error

// HandleFrame calls f(frame).
func (f HandlerFunc) HandleFrame(frame *Frame) error {
	return f(frame)
}

// Filter selects the datagrams a replay decodes. A zero Filter accepts
// every UDP datagram.
type Filter struct {
	// Ports, when non-empty, keeps datagrams whose source or destination
	// port is listed.
	Ports []uint16
}

// DefaultFilter keeps the agent and notification ports.
var DefaultFilter = Filter{Ports: []uint16{snmp.DefaultPort, snmp.DefaultTrapPort}}

func (f Filter) match(src, dst uint16) bool {
	if len(f.Ports) == 0 {
		return true
	}
	for _, p := range f.Ports {
		if p == src || p == dst {
			return true
		}
	}
	return false
}

// ReplayFile replays the capture stored at filename.
func ReplayFile(filename string, filter Filter, handler Handler) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return Replay(f, filter, handler)
}

// Replay reads a pcap stream and hands every matching UDP datagram to
// handler. Payloads that are not valid SNMP messages are delivered with
// Err set; a handler error other than ErrStop aborts the replay.
func Replay(r io.Reader, filter Filter, handler Handler) error {
	pr, err := pcapgo.NewReader(r)
	if err != nil {
		return fmt.Errorf("capture: failed to create pcap reader: %w", err)
	}

	source := gopacket.NewPacketSource(pr, pr.LinkType())
	source.NoCopy = true

	var number uint64
	for {
		packet, err := source.NextPacket()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("capture: frame %d: %w", number+1, err)
		}
		number++

		var srcIP, dstIP net.IP
		if l := packet.Layer(layers.LayerTypeIPv4); l != nil {
			ip := l.(*layers.IPv4)
			if ip.Flags&layers.IPv4MoreFragments != 0 || ip.FragOffset != 0 {
				continue
			}
			srcIP, dstIP = ip.SrcIP, ip.DstIP
		} else if l := packet.Layer(layers.LayerTypeIPv6); l != nil {
			ip := l.(*layers.IPv6)
			srcIP, dstIP = ip.SrcIP, ip.DstIP
		} else {
			continue
		}

		l := packet.Layer(layers.LayerTypeUDP)
		if l == nil {
			continue
		}
		udp := l.(*layers.UDP)
		if !filter.match(uint16(udp.SrcPort), uint16(udp.DstPort)) {
			continue
		}

		frame := &Frame{
			Number:      number,
			Timestamp:   packet.Metadata().Timestamp,
			Source:      &net.UDPAddr{IP: srcIP, Port: int(udp.SrcPort)},
			Destination: &net.UDPAddr{IP: dstIP, Port: int(udp.DstPort)},
			Payload:     append([]byte(nil), udp.Payload...),
		}
		frame.Message, frame.Err = snmp.DecodeMessage(frame.Payload)

		if err := handler.HandleFrame(frame); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return fmt.Errorf("capture: frame %d: %w", number, err)
		}
	}
}
