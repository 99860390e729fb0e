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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edgeo-scada/snmp/ber"
)

// BERType is the tag of a varbind value.
type BERType = ber.Tag

const (
	// Primitive types
	TypeInteger          BERType = ber.Integer
	TypeBitString        BERType = ber.BitString
	TypeOctetString      BERType = ber.OctetString
	TypeNull             BERType = ber.Null
	TypeObjectIdentifier BERType = ber.ObjectIdentifier

	// Application types (SNMP-specific)
	TypeIPAddress   BERType = ber.IPAddress
	TypeCounter32   BERType = ber.Counter32
	TypeGauge32     BERType = ber.Gauge32
	TypeTimeTicks   BERType = ber.TimeTicks
	TypeOpaque      BERType = ber.Opaque
	TypeNsapAddress BERType = ber.NsapAddress
	TypeCounter64   BERType = ber.Counter64
	TypeUInteger32  BERType = ber.UInteger32

	// Sequence type
	TypeSequence BERType = ber.Sequence

	// Exception types (SNMPv2c)
	TypeNoSuchObject   BERType = ber.NoSuchObject
	TypeNoSuchInstance BERType = ber.NoSuchInstance
	TypeEndOfMibView   BERType = ber.EndOfMibView
)

// PDUType is the context-specific tag that introduces a PDU.
type PDUType byte

const (
	PDUGetRequest     PDUType = 0xA0
	PDUGetNextRequest PDUType = 0xA1
	PDUResponse       PDUType = 0xA2
	PDUSetRequest     PDUType = 0xA3
	PDUTrapV1         PDUType = 0xA4 // SNMPv1 Trap
	PDUGetBulkRequest PDUType = 0xA5
	PDUInformRequest  PDUType = 0xA6
	PDUTrapV2         PDUType = 0xA7 // SNMPv2-Trap
)

// String returns the ASN.1 name of the PDU type.
func (p PDUType) String() string {
	switch p {
	case PDUGetRequest:
		return "GetRequest-PDU"
	case PDUGetNextRequest:
		return "GetNextRequest-PDU"
	case PDUResponse:
		return "Response-PDU"
	case PDUSetRequest:
		return "SetRequest-PDU"
	case PDUTrapV1:
		return "Trap-PDU"
	case PDUGetBulkRequest:
		return "GetBulkRequest-PDU"
	case PDUInformRequest:
		return "InformRequest-PDU"
	case PDUTrapV2:
		return "SNMPv2-Trap-PDU"
	default:
		return fmt.Sprintf("PDUType(0x%02X)", byte(p))
	}
}

// OID represents an SNMP Object Identifier.
type OID []int

// String returns the dotted-decimal string representation.
func (o OID) String() string {
	if len(o) == 0 {
		return ""
	}
	parts := make([]string, len(o))
	for i, n := range o {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// ParseOID parses a dotted-decimal OID string.
func ParseOID(s string) (OID, error) {
	if s == "" {
		return nil, ErrInvalidOID
	}

	// Remove leading dot if present
	s = strings.TrimPrefix(s, ".")

	parts := strings.Split(s, ".")
	oid := make(OID, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: component %q: %v", ErrInvalidOID, p, err)
		}
		oid[i] = int(n)
	}

	return oid, nil
}

// MustParseOID parses an OID string and panics on error.
func MustParseOID(s string) OID {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}

// Equal checks if two OIDs are equal.
func (o OID) Equal(other OID) bool {
	if len(o) != len(other) {
		return false
	}
	for i, n := range o {
		if n != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix checks if the OID starts with the given prefix.
func (o OID) HasPrefix(prefix OID) bool {
	if len(prefix) > len(o) {
		return false
	}
	for i, n := range prefix {
		if n != o[i] {
			return false
		}
	}
	return true
}

// Compare orders OIDs lexicographically by arc. It returns -1, 0 or 1.
func (o OID) Compare(other OID) int {
	for i := 0; i < len(o) && i < len(other); i++ {
		switch {
		case o[i] < other[i]:
			return -1
		case o[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(o) < len(other):
		return -1
	case len(o) > len(other):
		return 1
	}
	return 0
}

// Copy returns a copy of the OID.
func (o OID) Copy() OID {
	c := make(OID, len(o))
	copy(c, o)
	return c
}

// Append returns a new OID with arcs appended.
func (o OID) Append(arcs ...int) OID {
	c := make(OID, 0, len(o)+len(arcs))
	c = append(c, o...)
	return append(c, arcs...)
}

// ConnectionState represents the state of a client connection.
type ConnectionState int

const (
	// StateDisconnected indicates the client is not connected.
	StateDisconnected ConnectionState = iota
	// StateConnecting indicates the client is attempting to connect.
	StateConnecting
	// StateConnected indicates the client is connected and ready.
	StateConnected
	// StateDisconnecting indicates the client is gracefully disconnecting.
	StateDisconnecting
)

// String returns the string representation of the connection state.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return "Unknown"
	}
}

// TrapHandler is a callback for received notifications.
type TrapHandler func(n *Notification)

// ConnectionLostHandler is a callback for connection loss.
type ConnectionLostHandler func(client *Client, err error)

// OnConnectHandler is a callback for successful connection.
type OnConnectHandler func(client *Client)

// Common OIDs
var (
	OIDSystem      = MustParseOID("1.3.6.1.2.1.1")
	OIDSysDescr    = MustParseOID("1.3.6.1.2.1.1.1.0")
	OIDSysObjectID = MustParseOID("1.3.6.1.2.1.1.2.0")
	OIDSysUpTime   = MustParseOID("1.3.6.1.2.1.1.3.0")
	OIDSysContact  = MustParseOID("1.3.6.1.2.1.1.4.0")
	OIDSysName     = MustParseOID("1.3.6.1.2.1.1.5.0")
	OIDSysLocation = MustParseOID("1.3.6.1.2.1.1.6.0")
	OIDSysServices = MustParseOID("1.3.6.1.2.1.1.7.0")

	// Interface table
	OIDIfNumber = MustParseOID("1.3.6.1.2.1.2.1.0")
	OIDIfTable  = MustParseOID("1.3.6.1.2.1.2.2")

	// SNMPv2-MIB notification objects
	OIDSnmpTrapOID        = MustParseOID("1.3.6.1.6.3.1.1.4.1.0")
	OIDSnmpTrapEnterprise = MustParseOID("1.3.6.1.6.3.1.1.4.3.0")

	// OIDSnmpTraps is the parent of the generic trap notifications
	// (coldStart is OIDSnmpTraps.1).
	OIDSnmpTraps = MustParseOID("1.3.6.1.6.3.1.1.5")
	OIDColdStart = OIDSnmpTraps.Append(1)
	OIDLinkDown  = OIDSnmpTraps.Append(3)
	OIDLinkUp    = OIDSnmpTraps.Append(4)
)

// Default values.
const (
	DefaultTimeout        = 5 * time.Second
	DefaultRetries        = 3
	DefaultPort           = 161
	DefaultTrapPort       = 162
	DefaultCommunity      = "public"
	DefaultMaxOids        = 60
	DefaultMaxRepetitions = 10
	DefaultNonRepeaters   = 0
	DefaultMaxMessageSize = 65535
)
