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

// PDU is one of the SNMP protocol data units: *GetRequest,
// *GetNextRequest, *SetRequest, *Response, *GetBulkRequest, *TrapV2,
// *InformRequest or *TrapV1.
type PDU interface {
	// Type returns the wire tag of the variant.
	Type() PDUType
	// Encode returns the complete tag-length-value encoding of the PDU.
	Encode() ([]byte, error)
	// VarBindList returns the variable bindings carried by the PDU.
	VarBindList() VarBindList

	decodeBody(body []byte) error
}

// pduFields is the shared wire layout of every PDU except the SNMPv1 trap:
// request-id, two INTEGER slots and a varbind list.
type pduFields struct {
	requestID int32
	a         int32
	b         int32
	varbinds  VarBindList
}

func encodeFields(tag PDUType, requestID, a, b int32, varbinds VarBindList) ([]byte, error) {
	list, err := varbinds.Encode()
	if err != nil {
		return nil, err
	}
	body := make([]byte, 0, len(list)+18)
	body = append(body, ber.MarshalInteger(int64(requestID))...)
	body = append(body, ber.MarshalInteger(int64(a))...)
	body = append(body, ber.MarshalInteger(int64(b))...)
	body = append(body, list...)
	return ber.EncodeTLV(ber.Tag(tag), body), nil
}

func decodeFields(body []byte) (pduFields, error) {
	var f pduFields
	var err error

	if f.requestID, body, err = ber.UnmarshalInt32(body); err != nil {
		return f, fmt.Errorf("request-id: %w", err)
	}
	if f.a, body, err = ber.UnmarshalInt32(body); err != nil {
		return f, fmt.Errorf("PDU field 2: %w", err)
	}
	if f.b, body, err = ber.UnmarshalInt32(body); err != nil {
		return f, fmt.Errorf("PDU field 3: %w", err)
	}
	if f.varbinds, body, err = DecodeVarBindList(body); err != nil {
		return f, err
	}
	if err := checkConsumed("PDU varbind list", body); err != nil {
		return f, err
	}
	return f, nil
}

func nullVarBinds(oids []OID) VarBindList {
	var list VarBindList
	for _, oid := range oids {
		list = append(list, NullVarBind(oid))
	}
	return list
}

// GetRequest retrieves the values of the named objects.
type GetRequest struct {
	RequestID   int32
	ErrorStatus ErrorStatus
	ErrorIndex  int32
	VarBinds    VarBindList
}

// NewGetRequest creates a GetRequest for the given OIDs.
func NewGetRequest(requestID int32, oids ...OID) *GetRequest {
	return &GetRequest{RequestID: requestID, VarBinds: nullVarBinds(oids)}
}

func (p *GetRequest) Type() PDUType            { return PDUGetRequest }
func (p *GetRequest) VarBindList() VarBindList { return p.VarBinds }

func (p *GetRequest) Encode() ([]byte, error) {
	return encodeFields(p.Type(), p.RequestID, int32(p.ErrorStatus), p.ErrorIndex, p.VarBinds)
}

func (p *GetRequest) decodeBody(body []byte) error {
	f, err := decodeFields(body)
	if err != nil {
		return err
	}
	*p = GetRequest{RequestID: f.requestID, ErrorStatus: ErrorStatus(f.a), ErrorIndex: f.b, VarBinds: f.varbinds}
	return nil
}

// GetNextRequest retrieves the lexicographic successors of the named
// objects.
type GetNextRequest struct {
	RequestID   int32
	ErrorStatus ErrorStatus
	ErrorIndex  int32
	VarBinds    VarBindList
}

// NewGetNextRequest creates a GetNextRequest for the given OIDs.
func NewGetNextRequest(requestID int32, oids ...OID) *GetNextRequest {
	return &GetNextRequest{RequestID: requestID, VarBinds: nullVarBinds(oids)}
}

func (p *GetNextRequest) Type() PDUType            { return PDUGetNextRequest }
func (p *GetNextRequest) VarBindList() VarBindList { return p.VarBinds }

func (p *GetNextRequest) Encode() ([]byte, error) {
	return encodeFields(p.Type(), p.RequestID, int32(p.ErrorStatus), p.ErrorIndex, p.VarBinds)
}

func (p *GetNextRequest) decodeBody(body []byte) error {
	f, err := decodeFields(body)
	if err != nil {
		return err
	}
	*p = GetNextRequest{RequestID: f.requestID, ErrorStatus: ErrorStatus(f.a), ErrorIndex: f.b, VarBinds: f.varbinds}
	return nil
}

// SetRequest assigns values to the named objects.
type SetRequest struct {
	RequestID   int32
	ErrorStatus ErrorStatus
	ErrorIndex  int32
	VarBinds    VarBindList
}

// NewSetRequest creates a SetRequest for the given bindings.
func NewSetRequest(requestID int32, varbinds ...VarBind) *SetRequest {
	return &SetRequest{RequestID: requestID, VarBinds: varbinds}
}

func (p *SetRequest) Type() PDUType            { return PDUSetRequest }
func (p *SetRequest) VarBindList() VarBindList { return p.VarBinds }

func (p *SetRequest) Encode() ([]byte, error) {
	return encodeFields(p.Type(), p.RequestID, int32(p.ErrorStatus), p.ErrorIndex, p.VarBinds)
}

func (p *SetRequest) decodeBody(body []byte) error {
	f, err := decodeFields(body)
	if err != nil {
		return err
	}
	*p = SetRequest{RequestID: f.requestID, ErrorStatus: ErrorStatus(f.a), ErrorIndex: f.b, VarBinds: f.varbinds}
	return nil
}

// Response is the reply to a request or an InformRequest.
type Response struct {
	RequestID   int32
	ErrorStatus ErrorStatus
	ErrorIndex  int32
	VarBinds    VarBindList
}

// NewResponse builds the successful reply to p: the request-id and
// bindings are copied, the error fields are zero. A TrapV1 has no
// request-id, so its reply carries 0. A nil p yields an empty Response.
func NewResponse(p PDU) *Response {
	if p == nil {
		return &Response{ErrorStatus: NoError}
	}
	requestID, _ := RequestID(p)
	var varbinds VarBindList
	if list := p.VarBindList(); list != nil {
		varbinds = append(VarBindList(nil), list...)
	}
	return &Response{
		RequestID:   requestID,
		ErrorStatus: NoError,
		ErrorIndex:  0,
		VarBinds:    varbinds,
	}
}

func (p *Response) Type() PDUType            { return PDUResponse }
func (p *Response) VarBindList() VarBindList { return p.VarBinds }

func (p *Response) Encode() ([]byte, error) {
	return encodeFields(p.Type(), p.RequestID, int32(p.ErrorStatus), p.ErrorIndex, p.VarBinds)
}

func (p *Response) decodeBody(body []byte) error {
	f, err := decodeFields(body)
	if err != nil {
		return err
	}
	*p = Response{RequestID: f.requestID, ErrorStatus: ErrorStatus(f.a), ErrorIndex: f.b, VarBinds: f.varbinds}
	return nil
}

// Err returns nil for a noError response, otherwise an *SNMPError. The
// failing OID is taken from request when ErrorIndex points into it.
func (p *Response) Err(request VarBindList) error {
	if p.ErrorStatus == NoError {
		return nil
	}
	var oid OID
	if p.ErrorIndex > 0 && int(p.ErrorIndex) <= len(request) {
		oid = request[p.ErrorIndex-1].OID
	}
	return NewSNMPError(p.ErrorStatus, int(p.ErrorIndex), oid)
}

// GetBulkRequest retrieves up to MaxRepetitions successors for each
// repeating binding. It shares the wire layout of the other requests, with
// non-repeaters and max-repetitions in place of the error fields.
type GetBulkRequest struct {
	RequestID      int32
	NonRepeaters   int32
	MaxRepetitions int32
	VarBinds       VarBindList
}

// NewGetBulkRequest creates a GetBulkRequest.
func NewGetBulkRequest(requestID int32, varbinds VarBindList, nonRepeaters, maxRepetitions int32) *GetBulkRequest {
	return &GetBulkRequest{
		RequestID:      requestID,
		NonRepeaters:   nonRepeaters,
		MaxRepetitions: maxRepetitions,
		VarBinds:       varbinds,
	}
}

func (p *GetBulkRequest) Type() PDUType            { return PDUGetBulkRequest }
func (p *GetBulkRequest) VarBindList() VarBindList { return p.VarBinds }

func (p *GetBulkRequest) Encode() ([]byte, error) {
	return encodeFields(p.Type(), p.RequestID, p.NonRepeaters, p.MaxRepetitions, p.VarBinds)
}

func (p *GetBulkRequest) decodeBody(body []byte) error {
	f, err := decodeFields(body)
	if err != nil {
		return err
	}
	*p = GetBulkRequest{RequestID: f.requestID, NonRepeaters: f.a, MaxRepetitions: f.b, VarBinds: f.varbinds}
	return nil
}

// TrapV2 is an SNMPv2-Trap. Its first two bindings are sysUpTime.0 and
// snmpTrapOID.0; see SysUpTime and TrapOID.
type TrapV2 struct {
	RequestID   int32
	ErrorStatus ErrorStatus
	ErrorIndex  int32
	VarBinds    VarBindList
}

// NewTrapV2 creates an SNMPv2-Trap with the mandatory leading bindings
// followed by varbinds.
func NewTrapV2(requestID int32, sysUpTime uint32, trapOID OID, varbinds ...VarBind) *TrapV2 {
	return &TrapV2{RequestID: requestID, VarBinds: notificationVarBinds(sysUpTime, trapOID, varbinds)}
}

func (p *TrapV2) Type() PDUType            { return PDUTrapV2 }
func (p *TrapV2) VarBindList() VarBindList { return p.VarBinds }

func (p *TrapV2) Encode() ([]byte, error) {
	return encodeFields(p.Type(), p.RequestID, int32(p.ErrorStatus), p.ErrorIndex, p.VarBinds)
}

func (p *TrapV2) decodeBody(body []byte) error {
	f, err := decodeFields(body)
	if err != nil {
		return err
	}
	*p = TrapV2{RequestID: f.requestID, ErrorStatus: ErrorStatus(f.a), ErrorIndex: f.b, VarBinds: f.varbinds}
	return nil
}

// InformRequest is an acknowledged notification. It has the same shape as
// TrapV2 and the receiver answers it with a Response.
type InformRequest struct {
	RequestID   int32
	ErrorStatus ErrorStatus
	ErrorIndex  int32
	VarBinds    VarBindList
}

// NewInformRequest creates an InformRequest with the mandatory leading
// bindings followed by varbinds.
func NewInformRequest(requestID int32, sysUpTime uint32, trapOID OID, varbinds ...VarBind) *InformRequest {
	return &InformRequest{RequestID: requestID, VarBinds: notificationVarBinds(sysUpTime, trapOID, varbinds)}
}

func (p *InformRequest) Type() PDUType            { return PDUInformRequest }
func (p *InformRequest) VarBindList() VarBindList { return p.VarBinds }

func (p *InformRequest) Encode() ([]byte, error) {
	return encodeFields(p.Type(), p.RequestID, int32(p.ErrorStatus), p.ErrorIndex, p.VarBinds)
}

func (p *InformRequest) decodeBody(body []byte) error {
	f, err := decodeFields(body)
	if err != nil {
		return err
	}
	*p = InformRequest{RequestID: f.requestID, ErrorStatus: ErrorStatus(f.a), ErrorIndex: f.b, VarBinds: f.varbinds}
	return nil
}

func notificationVarBinds(sysUpTime uint32, trapOID OID, extra []VarBind) VarBindList {
	list := make(VarBindList, 0, 2+len(extra))
	list = append(list,
		VarBind{OID: OIDSysUpTime.Copy(), Type: TypeTimeTicks, Value: sysUpTime},
		VarBind{OID: OIDSnmpTrapOID.Copy(), Type: TypeObjectIdentifier, Value: trapOID},
	)
	return append(list, extra...)
}

// RequestID returns the request-id of p. It reports false for a TrapV1,
// which has none.
func RequestID(p PDU) (int32, bool) {
	switch v := p.(type) {
	case *GetRequest:
		return v.RequestID, true
	case *GetNextRequest:
		return v.RequestID, true
	case *SetRequest:
		return v.RequestID, true
	case *Response:
		return v.RequestID, true
	case *GetBulkRequest:
		return v.RequestID, true
	case *TrapV2:
		return v.RequestID, true
	case *InformRequest:
		return v.RequestID, true
	default:
		return 0, false
	}
}
