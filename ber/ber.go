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

// Package ber implements the subset of the ASN.1 Basic Encoding Rules used
// by SNMP: definite-length TLV framing and the INTEGER, OCTET STRING, NULL,
// OBJECT IDENTIFIER and SMI application primitives.
//
// Decoders operate on byte slices and return the unconsumed remainder, so
// callers can verify that a structure used exactly its declared span.
package ber

import "fmt"

// Tag is a BER identifier octet.
type Tag byte

const (
	// Universal types
	Integer          Tag = 0x02
	BitString        Tag = 0x03
	OctetString      Tag = 0x04
	Null             Tag = 0x05
	ObjectIdentifier Tag = 0x06
	Sequence         Tag = 0x30

	// Application types (SNMP SMI)
	IPAddress   Tag = 0x40
	Counter32   Tag = 0x41
	Gauge32     Tag = 0x42
	TimeTicks   Tag = 0x43
	Opaque      Tag = 0x44
	NsapAddress Tag = 0x45
	Counter64   Tag = 0x46
	UInteger32  Tag = 0x47

	// Context-specific exception values (SNMPv2)
	NoSuchObject   Tag = 0x80
	NoSuchInstance Tag = 0x81
	EndOfMibView   Tag = 0x82
)

// String returns the ASN.1 name of the tag.
func (t Tag) String() string {
	switch t {
	case Integer:
		return "INTEGER"
	case BitString:
		return "BIT STRING"
	case OctetString:
		return "OCTET STRING"
	case Null:
		return "NULL"
	case ObjectIdentifier:
		return "OBJECT IDENTIFIER"
	case Sequence:
		return "SEQUENCE"
	case IPAddress:
		return "IpAddress"
	case Counter32:
		return "Counter32"
	case Gauge32:
		return "Gauge32"
	case TimeTicks:
		return "TimeTicks"
	case Opaque:
		return "Opaque"
	case NsapAddress:
		return "NsapAddress"
	case Counter64:
		return "Counter64"
	case UInteger32:
		return "UInteger32"
	case NoSuchObject:
		return "noSuchObject"
	case NoSuchInstance:
		return "noSuchInstance"
	case EndOfMibView:
		return "endOfMibView"
	default:
		return fmt.Sprintf("Tag(0x%02X)", byte(t))
	}
}

// Constructed reports whether the tag has the constructed bit set.
func (t Tag) Constructed() bool {
	return t&0x20 != 0
}

// EncodeLength encodes a definite BER length.
func EncodeLength(length int) []byte {
	if length < 0x80 {
		return []byte{byte(length)}
	}

	// Long form
	n := 0
	for l := length; l > 0; l >>= 8 {
		n++
	}
	buf := make([]byte, 1+n)
	buf[0] = 0x80 | byte(n)
	for i := n; i > 0; i-- {
		buf[i] = byte(length)
		length >>= 8
	}
	return buf
}

// DecodeLength decodes a BER length at the start of data. It returns the
// length value and the number of octets the length field occupied.
// Indefinite lengths are rejected: SNMP only permits the definite form.
func DecodeLength(data []byte) (length, n int, err error) {
	if len(data) == 0 {
		return 0, 0, fmt.Errorf("%w: missing length", ErrTruncated)
	}

	b := data[0]
	if b < 0x80 {
		return int(b), 1, nil
	}
	if b == 0x80 {
		return 0, 0, ErrIndefiniteLength
	}

	numBytes := int(b & 0x7f)
	if numBytes > 4 {
		return 0, 0, ErrLengthTooLarge
	}
	if len(data) < 1+numBytes {
		return 0, 0, fmt.Errorf("%w: length field needs %d octets, have %d", ErrTruncated, numBytes, len(data)-1)
	}

	for _, lb := range data[1 : 1+numBytes] {
		length = (length << 8) | int(lb)
	}
	if length < 0 {
		return 0, 0, ErrLengthTooLarge
	}

	return length, 1 + numBytes, nil
}

// EncodeTLV encodes a Type-Length-Value structure.
func EncodeTLV(tag Tag, value []byte) []byte {
	length := EncodeLength(len(value))
	result := make([]byte, 1+len(length)+len(value))
	result[0] = byte(tag)
	copy(result[1:], length)
	copy(result[1+len(length):], value)
	return result
}

// DecodeTLV decodes one Type-Length-Value structure from the start of data.
// value is exactly the declared span; rest is everything after it.
func DecodeTLV(data []byte) (tag Tag, value, rest []byte, err error) {
	if len(data) == 0 {
		return 0, nil, nil, fmt.Errorf("%w: missing tag", ErrTruncated)
	}

	tag = Tag(data[0])
	if tag&0x1f == 0x1f {
		return 0, nil, nil, ErrHighTagNumber
	}

	length, n, err := DecodeLength(data[1:])
	if err != nil {
		return 0, nil, nil, err
	}

	start := 1 + n
	if len(data)-start < length {
		return 0, nil, nil, fmt.Errorf("%w: %s declares %d octets, have %d", ErrTruncated, tag, length, len(data)-start)
	}

	end := start + length
	return tag, data[start:end:end], data[end:], nil
}

// Expect decodes one TLV and checks that it carries the wanted tag.
func Expect(data []byte, want Tag) (value, rest []byte, err error) {
	tag, value, rest, err := DecodeTLV(data)
	if err != nil {
		return nil, nil, err
	}
	if tag != want {
		return nil, nil, &UnexpectedTagError{Want: want, Got: tag}
	}
	return value, rest, nil
}
