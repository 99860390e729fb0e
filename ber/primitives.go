package ber

import (
	"fmt"
	"math"
	"net"
)

// EncodeInteger returns the minimal two's complement content octets of v.
func EncodeInteger(v int64) []byte {
	n := 1
	for i := v; i > 127 || i < -128; i >>= 8 {
		n++
	}

	buf := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}

// DecodeInteger decodes two's complement content octets.
func DecodeInteger(data []byte) (int64, error) {
	if len(data) == 0 {
		return 0, ErrEmptyInteger
	}
	if len(data) > 8 {
		return 0, ErrIntegerOverflow
	}

	var value int64
	if data[0]&0x80 != 0 {
		// Negative number
		value = -1
	}
	for _, b := range data {
		value = (value << 8) | int64(b)
	}
	return value, nil
}

// EncodeUnsigned encodes an unsigned value, adding a leading zero octet
// when the high bit would otherwise mark it negative.
func EncodeUnsigned(v uint64) []byte {
	n := 1
	for i := v; i > 0x7f; i >>= 8 {
		n++
	}

	buf := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
	return buf
}

// DecodeUnsigned decodes the content octets of an unsigned application type.
func DecodeUnsigned(data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, ErrEmptyInteger
	}
	if len(data) > 9 || (len(data) == 9 && data[0] != 0) {
		return 0, ErrIntegerOverflow
	}

	var value uint64
	for _, b := range data {
		value = (value << 8) | uint64(b)
	}
	return value, nil
}

// EncodeOID encodes object identifier components. The first two arcs are
// packed into one subidentifier as first*40 + second.
func EncodeOID(oid []int) ([]byte, error) {
	if len(oid) < 2 {
		return nil, fmt.Errorf("%w: need at least two arcs, have %d", ErrInvalidOID, len(oid))
	}
	if oid[0] < 0 || oid[0] > 2 || oid[1] < 0 || (oid[0] < 2 && oid[1] >= 40) || uint64(oid[1]) > math.MaxUint32-80 {
		return nil, fmt.Errorf("%w: invalid leading arcs %d.%d", ErrInvalidOID, oid[0], oid[1])
	}

	buf := appendBase128(make([]byte, 0, len(oid)), uint64(oid[0]*40+oid[1]))
	for _, arc := range oid[2:] {
		if arc < 0 || uint64(arc) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: arc %d out of range", ErrInvalidOID, arc)
		}
		buf = appendBase128(buf, uint64(arc))
	}
	return buf, nil
}

func appendBase128(buf []byte, v uint64) []byte {
	n := 1
	for i := v; i > 0x7f; i >>= 7 {
		n++
	}
	for i := n - 1; i >= 0; i-- {
		b := byte(v>>(7*uint(i))) & 0x7f
		if i != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
	}
	return buf
}

// DecodeOID decodes object identifier content octets.
func DecodeOID(data []byte) ([]int, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidOID)
	}

	oid := make([]int, 0, len(data)+1)
	var current uint64
	first := true
	for i, b := range data {
		if current == 0 && b == 0x80 {
			return nil, fmt.Errorf("%w: non-minimal subidentifier at octet %d", ErrInvalidOID, i)
		}
		current = (current << 7) | uint64(b&0x7f)
		if current > math.MaxUint32 {
			return nil, fmt.Errorf("%w: subidentifier overflow at octet %d", ErrInvalidOID, i)
		}
		if b&0x80 != 0 {
			continue
		}

		if first {
			switch {
			case current < 40:
				oid = append(oid, 0, int(current))
			case current < 80:
				oid = append(oid, 1, int(current-40))
			default:
				oid = append(oid, 2, int(current-80))
			}
			first = false
		} else {
			oid = append(oid, int(current))
		}
		current = 0
	}

	if data[len(data)-1]&0x80 != 0 {
		return nil, fmt.Errorf("%w: unterminated subidentifier", ErrInvalidOID)
	}
	return oid, nil
}

// MarshalInteger encodes v as a complete INTEGER TLV.
func MarshalInteger(v int64) []byte {
	return EncodeTLV(Integer, EncodeInteger(v))
}

// UnmarshalInteger decodes an INTEGER TLV.
func UnmarshalInteger(data []byte) (int64, []byte, error) {
	value, rest, err := Expect(data, Integer)
	if err != nil {
		return 0, nil, err
	}
	v, err := DecodeInteger(value)
	if err != nil {
		return 0, nil, err
	}
	return v, rest, nil
}

// UnmarshalInt32 decodes an INTEGER TLV that must fit in 32 bits, as every
// SNMP protocol field does.
func UnmarshalInt32(data []byte) (int32, []byte, error) {
	v, rest, err := UnmarshalInteger(data)
	if err != nil {
		return 0, nil, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, nil, fmt.Errorf("%w: %d does not fit in 32 bits", ErrIntegerOverflow, v)
	}
	return int32(v), rest, nil
}

// MarshalOctetString encodes b as an OCTET STRING TLV.
func MarshalOctetString(b []byte) []byte {
	return EncodeTLV(OctetString, b)
}

// UnmarshalOctetString decodes an OCTET STRING TLV. The returned bytes do
// not alias data.
func UnmarshalOctetString(data []byte) ([]byte, []byte, error) {
	value, rest, err := Expect(data, OctetString)
	if err != nil {
		return nil, nil, err
	}
	return append([]byte{}, value...), rest, nil
}

// MarshalNull encodes a NULL TLV.
func MarshalNull() []byte {
	return []byte{byte(Null), 0x00}
}

// MarshalOID encodes an OBJECT IDENTIFIER TLV.
func MarshalOID(oid []int) ([]byte, error) {
	content, err := EncodeOID(oid)
	if err != nil {
		return nil, err
	}
	return EncodeTLV(ObjectIdentifier, content), nil
}

// UnmarshalOID decodes an OBJECT IDENTIFIER TLV.
func UnmarshalOID(data []byte) ([]int, []byte, error) {
	value, rest, err := Expect(data, ObjectIdentifier)
	if err != nil {
		return nil, nil, err
	}
	oid, err := DecodeOID(value)
	if err != nil {
		return nil, nil, err
	}
	return oid, rest, nil
}

// MarshalIPAddress encodes an IPv4 address as an IpAddress TLV.
func MarshalIPAddress(ip net.IP) ([]byte, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%w: %v is not an IPv4 address", ErrInvalidIPAddress, ip)
	}
	return EncodeTLV(IPAddress, ip4), nil
}

// UnmarshalIPAddress decodes an IpAddress TLV, which must hold exactly four
// octets.
func UnmarshalIPAddress(data []byte) (net.IP, []byte, error) {
	value, rest, err := Expect(data, IPAddress)
	if err != nil {
		return nil, nil, err
	}
	if len(value) != net.IPv4len {
		return nil, nil, fmt.Errorf("%w: %d octets", ErrInvalidIPAddress, len(value))
	}
	return net.IP(append([]byte{}, value...)), rest, nil
}

// MarshalTimeTicks encodes hundredths of a second as a TimeTicks TLV.
func MarshalTimeTicks(v uint32) []byte {
	return EncodeTLV(TimeTicks, EncodeUnsigned(uint64(v)))
}

// UnmarshalTimeTicks decodes a TimeTicks TLV.
func UnmarshalTimeTicks(data []byte) (uint32, []byte, error) {
	value, rest, err := Expect(data, TimeTicks)
	if err != nil {
		return 0, nil, err
	}
	v, err := DecodeUnsigned(value)
	if err != nil {
		return 0, nil, err
	}
	if v > math.MaxUint32 {
		return 0, nil, fmt.Errorf("%w: TimeTicks %d", ErrIntegerOverflow, v)
	}
	return uint32(v), rest, nil
}

// MarshalSequence concatenates already encoded elements and wraps them in a
// SEQUENCE.
func MarshalSequence(elements ...[]byte) []byte {
	size := 0
	for _, e := range elements {
		size += len(e)
	}
	body := make([]byte, 0, size)
	for _, e := range elements {
		body = append(body, e...)
	}
	return EncodeTLV(Sequence, body)
}

// UnmarshalSequence decodes a SEQUENCE header and returns its body.
func UnmarshalSequence(data []byte) (body, rest []byte, err error) {
	return Expect(data, Sequence)
}
