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
	"math"
	"net"

	"github.com/edgeo-scada/snmp/ber"
)

// VarBind is one variable binding: a name and a typed value.
//
// Decoded values use these Go types: INTEGER as int, OCTET STRING and
// Opaque as []byte, OBJECT IDENTIFIER as OID, IpAddress as net.IP,
// Counter32/Gauge32/TimeTicks/UInteger32 as uint32, Counter64 as uint64.
// NULL and the exception values carry a nil Value. Values of unknown types
// are kept as their raw content octets.
type VarBind struct {
	OID   OID
	Type  BERType
	Value any
}

// NullVarBind returns a binding with a NULL value, as used in requests.
func NullVarBind(oid OID) VarBind {
	return VarBind{OID: oid, Type: TypeNull}
}

// String returns a string representation of the binding.
func (v VarBind) String() string {
	return fmt.Sprintf("%s = %s: %v", v.OID, v.Type, v.Value)
}

// IsException reports whether the value is noSuchObject, noSuchInstance
// or endOfMibView.
func (v VarBind) IsException() bool {
	return v.Type == TypeNoSuchObject || v.Type == TypeNoSuchInstance || v.Type == TypeEndOfMibView
}

// AsInt returns the value as an integer.
func (v VarBind) AsInt() (int64, bool) {
	switch val := v.Value.(type) {
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint32:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	default:
		return 0, false
	}
}

// AsUint returns the value as an unsigned integer. Negative values are
// rejected.
func (v VarBind) AsUint() (uint64, bool) {
	switch val := v.Value.(type) {
	case int:
		return uint64(val), val >= 0
	case int32:
		return uint64(val), val >= 0
	case int64:
		return uint64(val), val >= 0
	case uint32:
		return uint64(val), true
	case uint64:
		return val, true
	default:
		return 0, false
	}
}

// AsString returns the value as a string.
func (v VarBind) AsString() string {
	switch val := v.Value.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v.Value)
	}
}

// AsBytes returns the value as bytes.
func (v VarBind) AsBytes() []byte {
	switch val := v.Value.(type) {
	case []byte:
		return val
	case string:
		return []byte(val)
	default:
		return nil
	}
}

// VarBindList is an ordered list of variable bindings.
type VarBindList []VarBind

// OIDs returns the names of the bindings in order.
func (l VarBindList) OIDs() []OID {
	oids := make([]OID, len(l))
	for i, vb := range l {
		oids[i] = vb.OID
	}
	return oids
}

// Lookup returns the first binding named oid.
func (l VarBindList) Lookup(oid OID) (VarBind, bool) {
	for _, vb := range l {
		if vb.OID.Equal(oid) {
			return vb, true
		}
	}
	return VarBind{}, false
}

// Encode encodes the list as a SEQUENCE of VarBind SEQUENCEs.
func (l VarBindList) Encode() ([]byte, error) {
	elements := make([][]byte, 0, len(l))
	for i, vb := range l {
		data, err := encodeVarBind(vb)
		if err != nil {
			return nil, fmt.Errorf("varbind %d (%s): %w", i, vb.OID, err)
		}
		elements = append(elements, data)
	}
	return ber.MarshalSequence(elements...), nil
}

// DecodeVarBindList decodes a varbind list at the start of data and returns
// the bytes that follow it.
func DecodeVarBindList(data []byte) (VarBindList, []byte, error) {
	body, rest, err := ber.UnmarshalSequence(data)
	if err != nil {
		return nil, nil, fmt.Errorf("varbind list: %w", err)
	}

	var list VarBindList
	for i := 0; len(body) > 0; i++ {
		var vbBody []byte
		vbBody, body, err = ber.UnmarshalSequence(body)
		if err != nil {
			return nil, nil, fmt.Errorf("varbind %d: %w", i, err)
		}
		vb, err := decodeVarBind(vbBody)
		if err != nil {
			return nil, nil, fmt.Errorf("varbind %d: %w", i, err)
		}
		list = append(list, vb)
	}
	return list, rest, nil
}

func encodeVarBind(vb VarBind) ([]byte, error) {
	name, err := ber.MarshalOID(vb.OID)
	if err != nil {
		return nil, err
	}
	value, err := encodeValue(vb)
	if err != nil {
		return nil, err
	}
	return ber.MarshalSequence(name, value), nil
}

func decodeVarBind(body []byte) (VarBind, error) {
	oid, rest, err := ber.UnmarshalOID(body)
	if err != nil {
		return VarBind{}, err
	}

	tag, content, rest, err := ber.DecodeTLV(rest)
	if err != nil {
		return VarBind{}, err
	}
	if err := checkConsumed("varbind value", rest); err != nil {
		return VarBind{}, err
	}

	value, err := decodeValue(tag, content)
	if err != nil {
		return VarBind{}, fmt.Errorf("%s: %w", OID(oid), err)
	}
	return VarBind{OID: oid, Type: tag, Value: value}, nil
}

func encodeValue(v VarBind) ([]byte, error) {
	switch v.Type {
	case TypeNull, TypeNoSuchObject, TypeNoSuchInstance, TypeEndOfMibView:
		return ber.EncodeTLV(v.Type, nil), nil

	case TypeInteger:
		val, ok := v.AsInt()
		if !ok || val < math.MinInt32 || val > math.MaxInt32 {
			return nil, fmt.Errorf("%w: INTEGER %v", ErrInvalidValue, v.Value)
		}
		return ber.MarshalInteger(val), nil

	case TypeOctetString, TypeOpaque:
		var data []byte
		switch val := v.Value.(type) {
		case []byte:
			data = val
		case string:
			data = []byte(val)
		case nil:
		default:
			return nil, fmt.Errorf("%w: %s %v", ErrInvalidValue, v.Type, v.Value)
		}
		return ber.EncodeTLV(v.Type, data), nil

	case TypeObjectIdentifier:
		var oid OID
		switch val := v.Value.(type) {
		case OID:
			oid = val
		case []int:
			oid = val
		case string:
			parsed, err := ParseOID(val)
			if err != nil {
				return nil, err
			}
			oid = parsed
		default:
			return nil, fmt.Errorf("%w: OBJECT IDENTIFIER %v", ErrInvalidValue, v.Value)
		}
		return ber.MarshalOID(oid)

	case TypeIPAddress:
		var ip net.IP
		switch val := v.Value.(type) {
		case net.IP:
			ip = val
		case string:
			ip = net.ParseIP(val)
		}
		if ip == nil {
			return nil, fmt.Errorf("%w: IpAddress %v", ErrInvalidValue, v.Value)
		}
		return ber.MarshalIPAddress(ip)

	case TypeCounter32, TypeGauge32, TypeTimeTicks, TypeUInteger32:
		val, ok := v.AsUint()
		if !ok || val > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %s %v", ErrInvalidValue, v.Type, v.Value)
		}
		return ber.EncodeTLV(v.Type, ber.EncodeUnsigned(val)), nil

	case TypeCounter64:
		val, ok := v.AsUint()
		if !ok {
			return nil, fmt.Errorf("%w: Counter64 %v", ErrInvalidValue, v.Value)
		}
		return ber.EncodeTLV(TypeCounter64, ber.EncodeUnsigned(val)), nil

	default:
		// Unknown types round-trip their raw content octets.
		raw, ok := v.Value.([]byte)
		if !ok && v.Value != nil {
			return nil, fmt.Errorf("%w: unsupported type %s", ErrInvalidValue, v.Type)
		}
		return ber.EncodeTLV(v.Type, raw), nil
	}
}

func decodeValue(tag BERType, content []byte) (any, error) {
	switch tag {
	case TypeNull, TypeNoSuchObject, TypeNoSuchInstance, TypeEndOfMibView:
		if len(content) != 0 {
			return nil, fmt.Errorf("%w: %s has %d content octets", ber.ErrInvalidNull, tag, len(content))
		}
		return nil, nil

	case TypeInteger:
		val, err := ber.DecodeInteger(content)
		if err != nil {
			return nil, err
		}
		if val < math.MinInt32 || val > math.MaxInt32 {
			return nil, fmt.Errorf("%w: INTEGER %d does not fit in 32 bits", ber.ErrIntegerOverflow, val)
		}
		return int(val), nil

	case TypeObjectIdentifier:
		oid, err := ber.DecodeOID(content)
		if err != nil {
			return nil, err
		}
		return OID(oid), nil

	case TypeIPAddress:
		if len(content) != net.IPv4len {
			return nil, fmt.Errorf("%w: %d octets", ber.ErrInvalidIPAddress, len(content))
		}
		return net.IP(append([]byte{}, content...)), nil

	case TypeCounter32, TypeGauge32, TypeTimeTicks, TypeUInteger32:
		val, err := ber.DecodeUnsigned(content)
		if err != nil {
			return nil, err
		}
		if val > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %s %d", ber.ErrIntegerOverflow, tag, val)
		}
		return uint32(val), nil

	case TypeCounter64:
		return ber.DecodeUnsigned(content)

	default:
		// OCTET STRING, Opaque and unknown types keep their content octets.
		return append([]byte{}, content...), nil
	}
}

// SecondsToTimeTicks converts seconds to TimeTicks (hundredths of a second).
func SecondsToTimeTicks(seconds float64) uint32 {
	return uint32(seconds * 100)
}

// TimeTicksToSeconds converts TimeTicks to seconds.
func TimeTicksToSeconds(ticks uint32) float64 {
	return float64(ticks) / 100
}

// TimeTicksToString formats TimeTicks as "N days, hh:mm:ss.cc".
func TimeTicksToString(ticks uint32) string {
	totalSeconds := ticks / 100
	days := totalSeconds / 86400
	hours := (totalSeconds % 86400) / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	centiseconds := ticks % 100

	if days > 0 {
		return fmt.Sprintf("%d days, %02d:%02d:%02d.%02d", days, hours, minutes, seconds, centiseconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%02d", hours, minutes, seconds, centiseconds)
}
