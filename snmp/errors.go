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
	"errors"
	"fmt"

	"github.com/edgeo-scada/snmp/ber"
)

// Standard errors.
var (
	ErrNotConnected       = errors.New("snmp: not connected")
	ErrAlreadyConnected   = errors.New("snmp: already connected")
	ErrConnectionLost     = errors.New("snmp: connection lost")
	ErrTimeout            = errors.New("snmp: operation timed out")
	ErrInvalidOID         = errors.New("snmp: invalid OID")
	ErrInvalidValue       = errors.New("snmp: invalid value")
	ErrMalformedPacket    = errors.New("snmp: malformed packet")
	ErrUnsupportedVersion = errors.New("snmp: unsupported SNMP version")
	ErrUnsupportedPDUTag  = errors.New("snmp: unsupported PDU tag")
	ErrInvalidPDUTag      = errors.New("snmp: PDU tag not valid for version")
	ErrInvalidErrorStatus = errors.New("snmp: invalid error status")
	ErrInvalidGenericTrap = errors.New("snmp: invalid generic trap")
	ErrInvalidTrapVarbind = errors.New("snmp: invalid notification varbind")
	ErrNotNotification    = errors.New("snmp: PDU is not a notification")
	ErrEndOfMIB           = errors.New("snmp: end of MIB view")
	ErrNoSuchObject       = errors.New("snmp: no such object")
	ErrNoSuchInstance     = errors.New("snmp: no such instance")
	ErrClientClosed       = errors.New("snmp: client closed")
	ErrOIDNotIncreasing   = errors.New("snmp: agent returned OID that does not increase")
	ErrListenerClosed     = errors.New("snmp: trap listener closed")
	ErrListenerRunning    = errors.New("snmp: trap listener already running")
	ErrPoolEmpty          = errors.New("snmp: pool is empty")
	ErrPoolClosed         = errors.New("snmp: pool closed")
	ErrNoHealthyClients   = errors.New("snmp: no healthy connections available")
)

// SNMPError is a non-zero error status returned by an agent.
type SNMPError struct {
	Status     ErrorStatus
	Index      int
	Message    string
	RequestOID OID
}

// Error implements the error interface.
func (e *SNMPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("snmp: %s (index %d): %s", e.Status, e.Index, e.Message)
	}
	if e.RequestOID != nil {
		return fmt.Sprintf("snmp: %s at index %d (OID: %s)", e.Status, e.Index, e.RequestOID)
	}
	return fmt.Sprintf("snmp: %s at index %d", e.Status, e.Index)
}

// NewSNMPError creates a new SNMP error.
func NewSNMPError(status ErrorStatus, index int, oid OID) *SNMPError {
	return &SNMPError{
		Status:     status,
		Index:      index,
		RequestOID: oid,
	}
}

// IsTimeout returns true if the error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsEndOfMIB returns true if the error indicates end of MIB view.
func IsEndOfMIB(err error) bool {
	return errors.Is(err, ErrEndOfMIB)
}

// IsNoSuchObject returns true if the error indicates no such object.
func IsNoSuchObject(err error) bool {
	return errors.Is(err, ErrNoSuchObject)
}

// IsNoSuchInstance returns true if the error indicates no such instance.
func IsNoSuchInstance(err error) bool {
	return errors.Is(err, ErrNoSuchInstance)
}

// IsMalformed reports whether err was caused by bytes that do not form a
// valid message, including errors from the BER layer.
func IsMalformed(err error) bool {
	var tagErr *ber.UnexpectedTagError
	if errors.As(err, &tagErr) {
		return true
	}
	for _, target := range malformedErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var malformedErrors = []error{
	ErrMalformedPacket,
	ErrUnsupportedVersion,
	ErrUnsupportedPDUTag,
	ErrInvalidPDUTag,
	ber.ErrTruncated,
	ber.ErrIndefiniteLength,
	ber.ErrLengthTooLarge,
	ber.ErrHighTagNumber,
	ber.ErrEmptyInteger,
	ber.ErrIntegerOverflow,
	ber.ErrInvalidOID,
	ber.ErrInvalidIPAddress,
	ber.ErrInvalidNull,
}

// ParseError reports a structure whose content did not use exactly its
// declared span.
type ParseError struct {
	Message  string
	Trailing int
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Trailing > 0 {
		return fmt.Sprintf("snmp: parse error: %s (%d trailing bytes)", e.Message, e.Trailing)
	}
	return fmt.Sprintf("snmp: parse error: %s", e.Message)
}

// Unwrap returns ErrMalformedPacket.
func (e *ParseError) Unwrap() error {
	return ErrMalformedPacket
}

// NewParseError creates a new parse error.
func NewParseError(message string, trailing int) *ParseError {
	return &ParseError{
		Message:  message,
		Trailing: trailing,
	}
}

// checkConsumed returns a ParseError when rest is not empty.
func checkConsumed(what string, rest []byte) error {
	if len(rest) == 0 {
		return nil
	}
	return NewParseError("trailing bytes after "+what, len(rest))
}

// UnsupportedVersionError reports a message version other than v1 or v2c.
type UnsupportedVersionError struct {
	Version int64
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("snmp: unsupported SNMP version %d", e.Version)
}

func (e *UnsupportedVersionError) Unwrap() error { return ErrUnsupportedVersion }

// UnsupportedPDUTagError reports a tag that names no known PDU.
type UnsupportedPDUTagError struct {
	Tag byte
}

func (e *UnsupportedPDUTagError) Error() string {
	return fmt.Sprintf("snmp: unsupported PDU tag 0x%02X", e.Tag)
}

func (e *UnsupportedPDUTagError) Unwrap() error { return ErrUnsupportedPDUTag }

// InvalidPDUTagError reports a known PDU that the message version does not
// allow, such as a GetBulkRequest inside an SNMPv1 message.
type InvalidPDUTagError struct {
	Tag     PDUType
	Version SNMPVersion
}

func (e *InvalidPDUTagError) Error() string {
	return fmt.Sprintf("snmp: %s (tag 0x%02X) is not valid in %s", e.Tag, byte(e.Tag), e.Version)
}

func (e *InvalidPDUTagError) Unwrap() error { return ErrInvalidPDUTag }

// InvalidErrorStatusError reports text that is neither an error-status
// name nor an integer.
type InvalidErrorStatusError struct {
	Value string
}

func (e *InvalidErrorStatusError) Error() string {
	return fmt.Sprintf("snmp: invalid error status %q", e.Value)
}

func (e *InvalidErrorStatusError) Unwrap() error { return ErrInvalidErrorStatus }

// InvalidGenericTrapError reports text that is neither a generic-trap name
// nor an integer.
type InvalidGenericTrapError struct {
	Value string
}

func (e *InvalidGenericTrapError) Error() string {
	return fmt.Sprintf("snmp: invalid generic trap %q", e.Value)
}

func (e *InvalidGenericTrapError) Unwrap() error { return ErrInvalidGenericTrap }

// InvalidTrapVarbindError reports a notification whose leading varbinds
// are not sysUpTime.0 followed by snmpTrapOID.0. Got is nil when the
// varbind is missing.
type InvalidTrapVarbindError struct {
	Index int
	Want  OID
	Got   OID
}

func (e *InvalidTrapVarbindError) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("snmp: notification varbind %d missing, want %s", e.Index, e.Want)
	}
	return fmt.Sprintf("snmp: notification varbind %d is %s, want %s", e.Index, e.Got, e.Want)
}

func (e *InvalidTrapVarbindError) Unwrap() error { return ErrInvalidTrapVarbind }
