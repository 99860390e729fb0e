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
	"net"
	"time"
)

// SysUpTime returns the value of the first binding, which must be
// sysUpTime.0. The check runs on every call.
func (p *TrapV2) SysUpTime() (any, error) {
	return leadingValue(p.VarBinds, 0, OIDSysUpTime)
}

// TrapOID returns the value of the second binding, which must be
// snmpTrapOID.0. The check runs on every call.
func (p *TrapV2) TrapOID() (any, error) {
	return leadingValue(p.VarBinds, 1, OIDSnmpTrapOID)
}

// SysUpTime returns the value of the first binding, which must be
// sysUpTime.0. The check runs on every call.
func (p *InformRequest) SysUpTime() (any, error) {
	return leadingValue(p.VarBinds, 0, OIDSysUpTime)
}

// TrapOID returns the value of the second binding, which must be
// snmpTrapOID.0. The check runs on every call.
func (p *InformRequest) TrapOID() (any, error) {
	return leadingValue(p.VarBinds, 1, OIDSnmpTrapOID)
}

func leadingValue(list VarBindList, index int, want OID) (any, error) {
	if index >= len(list) {
		return nil, &InvalidTrapVarbindError{Index: index, Want: want}
	}
	if !list[index].OID.Equal(want) {
		return nil, &InvalidTrapVarbindError{Index: index, Want: want, Got: list[index].OID}
	}
	return list[index].Value, nil
}

// Notification is the receiver's view of a trap or inform, with the SNMPv1
// and SNMPv2 shapes folded into one struct.
type Notification struct {
	Version    SNMPVersion
	Community  string
	Type       PDUType
	Source     net.Addr
	ReceivedAt time.Time

	// RequestID is zero for SNMPv1 traps.
	RequestID int32

	// SNMPv1 only.
	Enterprise   OID
	AgentAddress net.IP
	GenericTrap  GenericTrap
	SpecificTrap int32

	// Uptime is the v1 time-stamp or the v2 sysUpTime.0 value.
	Uptime uint32
	// TrapOID is the v2 snmpTrapOID.0 value, or its RFC 3584 translation
	// for v1 traps.
	TrapOID OID

	// VarBinds holds the bindings after the mandatory sysUpTime.0 and
	// snmpTrapOID.0 pair, or all bindings of a v1 trap.
	VarBinds VarBindList

	// Message is the decoded envelope the notification was built from.
	Message *Message
}

// NewNotification builds a Notification from a decoded trap or inform
// message.
func NewNotification(msg *Message) (*Notification, error) {
	if msg.PDU == nil {
		return nil, ErrNotNotification
	}
	n := &Notification{
		Version:   msg.Version,
		Community: msg.Community,
		Type:      msg.PDU.Type(),
		Message:   msg,
	}

	var err error
	switch p := msg.PDU.(type) {
	case *TrapV1:
		n.Enterprise = p.Enterprise
		n.AgentAddress = p.AgentAddress
		n.GenericTrap = p.GenericTrap
		n.SpecificTrap = p.SpecificTrap
		n.Uptime = p.Timestamp
		n.TrapOID = p.TrapOID()
		n.VarBinds = p.VarBinds
	case *TrapV2:
		n.RequestID = p.RequestID
		err = n.fillV2(p.VarBinds, p.SysUpTime, p.TrapOID)
	case *InformRequest:
		n.RequestID = p.RequestID
		err = n.fillV2(p.VarBinds, p.SysUpTime, p.TrapOID)
	default:
		err = fmt.Errorf("%w: %s", ErrNotNotification, msg.PDU.Type())
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Notification) fillV2(list VarBindList, sysUpTime, trapOID func() (any, error)) error {
	uptime, err := sysUpTime()
	if err != nil {
		return err
	}
	ticks, ok := uptime.(uint32)
	if !ok {
		return fmt.Errorf("%w: sysUpTime.0 is %T", ErrInvalidValue, uptime)
	}

	oidValue, err := trapOID()
	if err != nil {
		return err
	}
	oid, ok := oidValue.(OID)
	if !ok {
		return fmt.Errorf("%w: snmpTrapOID.0 is %T", ErrInvalidValue, oidValue)
	}

	n.Uptime = ticks
	n.TrapOID = oid
	n.VarBinds = list[2:]
	return nil
}

// String returns a one-line summary of the notification.
func (n *Notification) String() string {
	src := "-"
	if n.Source != nil {
		src = n.Source.String()
	}
	return fmt.Sprintf("%s %s from %s: %s uptime=%s varbinds=%d",
		n.Version, n.Type, src, n.TrapOID, TimeTicksToString(n.Uptime), len(n.VarBinds))
}
