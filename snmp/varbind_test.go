package snmp

import (
	"math"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeo-scada/snmp/ber"
)

func TestVarBindEncodeValues(t *testing.T) {
	oid := MustParseOID("1.3.6.1.2.1.1.5.0")
	tests := []struct {
		name string
		vb   VarBind
		want VarBind
	}{
		{"string_octets", VarBind{OID: oid, Type: TypeOctetString, Value: "host"}, VarBind{OID: oid, Type: TypeOctetString, Value: []byte("host")}},
		{"int64_integer", VarBind{OID: oid, Type: TypeInteger, Value: int64(5)}, VarBind{OID: oid, Type: TypeInteger, Value: 5}},
		{"int_gauge", VarBind{OID: oid, Type: TypeGauge32, Value: 7}, VarBind{OID: oid, Type: TypeGauge32, Value: uint32(7)}},
		{"string_ip", VarBind{OID: oid, Type: TypeIPAddress, Value: "10.1.2.3"}, VarBind{OID: oid, Type: TypeIPAddress, Value: net.IP{10, 1, 2, 3}}},
		{"string_oid", VarBind{OID: oid, Type: TypeObjectIdentifier, Value: "1.3.6.1"}, VarBind{OID: oid, Type: TypeObjectIdentifier, Value: OID{1, 3, 6, 1}}},
		{"unknown_type", VarBind{OID: oid, Type: 0x48, Value: []byte{1, 2}}, VarBind{OID: oid, Type: 0x48, Value: []byte{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := VarBindList{tt.vb}.Encode()
			require.NoError(t, err)

			list, rest, err := DecodeVarBindList(data)
			require.NoError(t, err)
			assert.Empty(t, rest)
			require.Len(t, list, 1)
			assert.Equal(t, tt.want, list[0])
		})
	}
}

func TestVarBindEncodeInvalid(t *testing.T) {
	oid := MustParseOID("1.3.6.1.2.1.1.5.0")
	tests := []struct {
		name string
		vb   VarBind
	}{
		{"integer_overflow", VarBind{OID: oid, Type: TypeInteger, Value: int64(math.MaxInt32) + 1}},
		{"integer_from_string", VarBind{OID: oid, Type: TypeInteger, Value: "5"}},
		{"negative_counter", VarBind{OID: oid, Type: TypeCounter32, Value: -1}},
		{"counter32_overflow", VarBind{OID: oid, Type: TypeCounter32, Value: uint64(math.MaxUint32) + 1}},
		{"bad_ip", VarBind{OID: oid, Type: TypeIPAddress, Value: "not-an-ip"}},
		{"bad_octets", VarBind{OID: oid, Type: TypeOctetString, Value: 3.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VarBindList{tt.vb}.Encode()
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}

	_, err := VarBindList{NullVarBind(OID{1})}.Encode()
	assert.ErrorIs(t, err, ber.ErrInvalidOID)
}

func TestDecodeVarBindStrictness(t *testing.T) {
	name, err := ber.MarshalOID(OIDSysDescr)
	require.NoError(t, err)

	t.Run("trailing_in_varbind", func(t *testing.T) {
		vb := ber.MarshalSequence(name, ber.MarshalNull(), ber.MarshalNull())
		_, _, err := DecodeVarBindList(ber.MarshalSequence(vb))
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("null_with_content", func(t *testing.T) {
		vb := ber.MarshalSequence(name, ber.EncodeTLV(ber.Null, []byte{0}))
		_, _, err := DecodeVarBindList(ber.MarshalSequence(vb))
		assert.ErrorIs(t, err, ber.ErrInvalidNull)
	})

	t.Run("short_ip", func(t *testing.T) {
		vb := ber.MarshalSequence(name, ber.EncodeTLV(ber.IPAddress, []byte{1, 2, 3}))
		_, _, err := DecodeVarBindList(ber.MarshalSequence(vb))
		assert.ErrorIs(t, err, ber.ErrInvalidIPAddress)
	})

	t.Run("counter32_overflow", func(t *testing.T) {
		vb := ber.MarshalSequence(name, ber.EncodeTLV(ber.Counter32, []byte{1, 0, 0, 0, 0}))
		_, _, err := DecodeVarBindList(ber.MarshalSequence(vb))
		assert.ErrorIs(t, err, ber.ErrIntegerOverflow)
	})

	t.Run("integer_beyond_32_bits", func(t *testing.T) {
		vb := ber.MarshalSequence(name, ber.MarshalInteger(1<<40))
		_, _, err := DecodeVarBindList(ber.MarshalSequence(vb))
		assert.ErrorIs(t, err, ber.ErrIntegerOverflow)
	})

	t.Run("integer_int32_bounds", func(t *testing.T) {
		for _, v := range []int64{math.MinInt32, math.MaxInt32} {
			vb := ber.MarshalSequence(name, ber.MarshalInteger(v))
			list, _, err := DecodeVarBindList(ber.MarshalSequence(vb))
			require.NoError(t, err)

			_, err = list.Encode()
			assert.NoError(t, err, "re-encode %d", v)
		}
	})

	t.Run("missing_value", func(t *testing.T) {
		vb := ber.MarshalSequence(name)
		_, _, err := DecodeVarBindList(ber.MarshalSequence(vb))
		assert.ErrorIs(t, err, ber.ErrTruncated)
	})

	t.Run("element_not_sequence", func(t *testing.T) {
		_, _, err := DecodeVarBindList(ber.MarshalSequence(ber.MarshalNull()))
		var tagErr *ber.UnexpectedTagError
		assert.ErrorAs(t, err, &tagErr)
	})
}

func TestDecodedValuesDoNotAlias(t *testing.T) {
	data, err := VarBindList{{OID: OIDSysDescr, Type: TypeOctetString, Value: []byte("abc")}}.Encode()
	require.NoError(t, err)

	list, _, err := DecodeVarBindList(data)
	require.NoError(t, err)
	for i := range data {
		data[i] = 0
	}
	assert.Equal(t, []byte("abc"), list[0].Value)
	assert.Equal(t, OIDSysDescr, list[0].OID)
}

func TestVarBindListHelpers(t *testing.T) {
	list := VarBindList{NullVarBind(OIDSysDescr), {OID: OIDSysName, Type: TypeOctetString, Value: []byte("r1")}}

	assert.Equal(t, []OID{OIDSysDescr, OIDSysName}, list.OIDs())

	vb, ok := list.Lookup(OIDSysName)
	require.True(t, ok)
	assert.Equal(t, "r1", vb.AsString())

	_, ok = list.Lookup(OIDSysLocation)
	assert.False(t, ok)
}

func TestVarBindConversions(t *testing.T) {
	assert.True(t, VarBind{Type: TypeEndOfMibView}.IsException())
	assert.False(t, VarBind{Type: TypeNull}.IsException())

	_, ok := VarBind{Value: -1}.AsUint()
	assert.False(t, ok)

	v, ok := VarBind{Value: uint32(9)}.AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(9), v)

	assert.Equal(t, "00:01:00.00", TimeTicksToString(6000))
	assert.Equal(t, "1 days, 00:00:00.05", TimeTicksToString(8640005))
	assert.Equal(t, uint32(150), SecondsToTimeTicks(1.5))
}

func TestParseOID(t *testing.T) {
	oid, err := ParseOID(".1.3.6.1.2.1.1.1.0")
	require.NoError(t, err)
	assert.Equal(t, OIDSysDescr, oid)

	for _, s := range []string{"", "1.3.x", "1..3", "1.3.-1", "1.3.4294967296"} {
		_, err := ParseOID(s)
		assert.ErrorIs(t, err, ErrInvalidOID, "%q", s)
	}

	assert.Equal(t, -1, OID{1, 3}.Compare(OID{1, 3, 6}))
	assert.Equal(t, 1, OID{1, 4}.Compare(OID{1, 3, 6}))
	assert.Equal(t, 0, OIDSysDescr.Compare(OIDSysDescr.Copy()))
	assert.True(t, OIDSysDescr.HasPrefix(OID{1, 3, 6}))
}
