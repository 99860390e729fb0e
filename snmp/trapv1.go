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

	"github.com/edgeo-scada/snmp/ber"
)

// TrapV1 is the SNMPv1 Trap-PDU. It predates the request/response model
// and has no request-id or error fields.
type TrapV1 struct {
	Enterprise   OID
	AgentAddress net.IP
	GenericTrap  GenericTrap
	SpecificTrap int32
	Timestamp    uint32
	VarBinds     VarBindList
}

func (t *TrapV1) Type() PDUType            { return PDUTrapV1 }
func (t *TrapV1) VarBindList() VarBindList { return t.VarBinds }

// Encode returns the Trap-PDU encoding.
func (t *TrapV1) Encode() ([]byte, error) {
	enterprise, err := ber.MarshalOID(t.Enterprise)
	if err != nil {
		return nil, fmt.Errorf("enterprise: %w", err)
	}
	agentAddr, err := ber.MarshalIPAddress(t.AgentAddress)
	if err != nil {
		return nil, fmt.Errorf("agent-addr: %w", err)
	}
	list, err := t.VarBinds.Encode()
	if err != nil {
		return nil, err
	}

	body := make([]byte, 0, len(enterprise)+len(agentAddr)+len(list)+18)
	body = append(body, enterprise...)
	body = append(body, agentAddr...)
	body = append(body, ber.MarshalInteger(int64(t.GenericTrap))...)
	body = append(body, ber.MarshalInteger(int64(t.SpecificTrap))...)
	body = append(body, ber.MarshalTimeTicks(t.Timestamp)...)
	body = append(body, list...)
	return ber.EncodeTLV(ber.Tag(PDUTrapV1), body), nil
}

func (t *TrapV1) decodeBody(body []byte) error {
	enterprise, body, err := ber.UnmarshalOID(body)
	if err != nil {
		return fmt.Errorf("enterprise: %w", err)
	}
	agentAddr, body, err := ber.UnmarshalIPAddress(body)
	if err != nil {
		return fmt.Errorf("agent-addr: %w", err)
	}
	generic, body, err := ber.UnmarshalInt32(body)
	if err != nil {
		return fmt.Errorf("generic-trap: %w", err)
	}
	specific, body, err := ber.UnmarshalInt32(body)
	if err != nil {
		return fmt.Errorf("specific-trap: %w", err)
	}
	timestamp, body, err := ber.UnmarshalTimeTicks(body)
	if err != nil {
		return fmt.Errorf("time-stamp: %w", err)
	}
	varbinds, body, err := DecodeVarBindList(body)
	if err != nil {
		return err
	}
	if err := checkConsumed("trap varbind list", body); err != nil {
		return err
	}

	*t = TrapV1{
		Enterprise:   enterprise,
		AgentAddress: agentAddr,
		GenericTrap:  GenericTrap(generic),
		SpecificTrap: specific,
		Timestamp:    timestamp,
		VarBinds:     varbinds,
	}
	return nil
}

// TrapOID returns the SNMPv2 notification OID equivalent to the trap, as
// defined by RFC 3584 section 3.1: the generic traps map to
// snmpTraps.(generic+1) and enterprise-specific traps to
// enterprise.0.specific.
func (t *TrapV1) TrapOID() OID {
	if t.GenericTrap >= ColdStart && t.GenericTrap < EnterpriseSpecific {
		return OIDSnmpTraps.Append(int(t.GenericTrap) + 1)
	}
	return t.Enterprise.Append(0, int(t.SpecificTrap))
}
