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

	"github.com/edgeo-scada/snmp/ber"
)

// Message is a community-based SNMP datagram.
type Message struct {
	Version   SNMPVersion
	Community string
	PDU       PDU
}

// Encode encodes the message. It refuses versions other than v1 and v2c
// and PDUs the version does not allow.
func (m *Message) Encode() ([]byte, error) {
	if !m.Version.Supported() {
		return nil, &UnsupportedVersionError{Version: int64(m.Version)}
	}
	if m.PDU == nil {
		return nil, fmt.Errorf("snmp: encode: %w: message has no PDU", ErrInvalidValue)
	}
	if err := CheckPDUVersion(m.PDU.Type(), m.Version); err != nil {
		return nil, err
	}

	pdu, err := m.PDU.Encode()
	if err != nil {
		return nil, fmt.Errorf("snmp: encode %s: %w", m.PDU.Type(), err)
	}

	return ber.MarshalSequence(
		ber.MarshalInteger(int64(m.Version)),
		ber.MarshalOctetString([]byte(m.Community)),
		pdu,
	), nil
}

// DecodeMessage decodes a complete datagram. Every level must consume
// exactly its declared length and nothing may follow the outer SEQUENCE.
func DecodeMessage(data []byte) (*Message, error) {
	body, rest, err := ber.UnmarshalSequence(data)
	if err != nil {
		return nil, fmt.Errorf("snmp: message: %w", err)
	}
	if err := checkConsumed("message", rest); err != nil {
		return nil, err
	}

	version, body, err := ber.UnmarshalInteger(body)
	if err != nil {
		return nil, fmt.Errorf("snmp: version: %w", err)
	}
	if version != int64(Version1) && version != int64(Version2c) {
		return nil, &UnsupportedVersionError{Version: version}
	}

	community, body, err := ber.UnmarshalOctetString(body)
	if err != nil {
		return nil, fmt.Errorf("snmp: community: %w", err)
	}

	msg := &Message{
		Version:   SNMPVersion(version),
		Community: string(community),
	}

	msg.PDU, body, err = DecodePDU(msg.Version, body)
	if err != nil {
		return nil, err
	}
	if err := checkConsumed("PDU", body); err != nil {
		return nil, err
	}

	return msg, nil
}

// Response returns the reply envelope for m: same version and community,
// with the PDU replaced by NewResponse(m.PDU). The PDU variant is not
// checked, so callers decide which messages deserve a reply.
func (m *Message) Response() *Message {
	return &Message{
		Version:   m.Version,
		Community: m.Community,
		PDU:       NewResponse(m.PDU),
	}
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Message) MarshalBinary() ([]byte, error) {
	return m.Encode()
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Message) UnmarshalBinary(data []byte) error {
	msg, err := DecodeMessage(data)
	if err != nil {
		return err
	}
	*m = *msg
	return nil
}

// String returns a one-line summary of the message.
func (m *Message) String() string {
	if m.PDU == nil {
		return fmt.Sprintf("%s community=%q <no PDU>", m.Version, m.Community)
	}
	return fmt.Sprintf("%s community=%q %s varbinds=%d", m.Version, m.Community, m.PDU.Type(), len(m.PDU.VarBindList()))
}
