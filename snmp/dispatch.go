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

// applicability lists the message versions in which a PDU may appear.
type applicability uint8

const (
	v1Only applicability = 1 << iota
	v2cOnly

	anyVersion = v1Only | v2cOnly
)

func (a applicability) allows(version SNMPVersion) bool {
	switch version {
	case Version1:
		return a&v1Only != 0
	case Version2c:
		return a&v2cOnly != 0
	default:
		return false
	}
}

type pduEntry struct {
	newPDU   func() PDU
	versions applicability
}

var pduTable = map[PDUType]pduEntry{
	PDUGetRequest:     {func() PDU { return new(GetRequest) }, anyVersion},
	PDUGetNextRequest: {func() PDU { return new(GetNextRequest) }, anyVersion},
	PDUResponse:       {func() PDU { return new(Response) }, anyVersion},
	PDUSetRequest:     {func() PDU { return new(SetRequest) }, anyVersion},
	PDUTrapV1:         {func() PDU { return new(TrapV1) }, v1Only},
	PDUGetBulkRequest: {func() PDU { return new(GetBulkRequest) }, v2cOnly},
	PDUInformRequest:  {func() PDU { return new(InformRequest) }, v2cOnly},
	PDUTrapV2:         {func() PDU { return new(TrapV2) }, v2cOnly},
}

// CheckPDUVersion reports whether a PDU with the given tag may appear in a
// message of the given version. It returns *UnsupportedPDUTagError for tags
// that name no PDU and *InvalidPDUTagError for version mismatches.
func CheckPDUVersion(tag PDUType, version SNMPVersion) error {
	entry, ok := pduTable[tag]
	if !ok {
		return &UnsupportedPDUTagError{Tag: byte(tag)}
	}
	if !entry.versions.allows(version) {
		return &InvalidPDUTagError{Tag: tag, Version: version}
	}
	return nil
}

// DecodePDU decodes the PDU at the start of data for a message of the
// given version. It returns the bytes that follow the PDU.
func DecodePDU(version SNMPVersion, data []byte) (PDU, []byte, error) {
	tag, body, rest, err := ber.DecodeTLV(data)
	if err != nil {
		return nil, nil, fmt.Errorf("snmp: PDU: %w", err)
	}

	pduType := PDUType(tag)
	if err := CheckPDUVersion(pduType, version); err != nil {
		return nil, nil, err
	}

	pdu := pduTable[pduType].newPDU()
	if err := pdu.decodeBody(body); err != nil {
		return nil, nil, fmt.Errorf("snmp: %s: %w", pduType, err)
	}
	return pdu, rest, nil
}
