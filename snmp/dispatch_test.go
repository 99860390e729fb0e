package snmp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edgeo-scada/snmp/ber"
)

func TestCheckPDUVersion(t *testing.T) {
	tests := []struct {
		tag PDUType
		v1  bool
		v2c bool
	}{
		{PDUGetRequest, true, true},
		{PDUGetNextRequest, true, true},
		{PDUResponse, true, true},
		{PDUSetRequest, true, true},
		{PDUTrapV1, true, false},
		{PDUGetBulkRequest, false, true},
		{PDUInformRequest, false, true},
		{PDUTrapV2, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.tag.String(), func(t *testing.T) {
			check := func(version SNMPVersion, allowed bool) {
				err := CheckPDUVersion(tt.tag, version)
				if allowed {
					assert.NoError(t, err)
					return
				}
				var tagErr *InvalidPDUTagError
				if assert.ErrorAs(t, err, &tagErr) {
					assert.Equal(t, tt.tag, tagErr.Tag)
					assert.Equal(t, version, tagErr.Version)
					assert.Contains(t, err.Error(), version.String())
				}
			}
			check(Version1, tt.v1)
			check(Version2c, tt.v2c)
		})
	}
}

func TestCheckPDUVersionUnknownTag(t *testing.T) {
	for _, tag := range []PDUType{0x30, 0x9F, 0xA8, 0xBF} {
		err := CheckPDUVersion(tag, Version2c)
		var tagErr *UnsupportedPDUTagError
		if assert.ErrorAs(t, err, &tagErr) {
			assert.Equal(t, byte(tag), tagErr.Tag)
		}
	}
}

func TestDecodePDUVersionGate(t *testing.T) {
	v2Only := []PDU{
		NewGetBulkRequest(1, nil, 0, 10),
		NewInformRequest(2, 0, MustParseOID("1.3.6.1.4.1.9.0.1")),
		NewTrapV2(3, 0, MustParseOID("1.3.6.1.4.1.9.0.1")),
	}
	for _, pdu := range v2Only {
		data, err := pdu.Encode()
		assert.NoError(t, err)
		_, _, err = DecodePDU(Version1, data)
		assert.ErrorIs(t, err, ErrInvalidPDUTag, "%s", pdu.Type())
	}

	trap := &TrapV1{Enterprise: MustParseOID("1.3.6.1.4.1.9"), AgentAddress: []byte{127, 0, 0, 1}}
	data, err := trap.Encode()
	assert.NoError(t, err)
	_, _, err = DecodePDU(Version2c, data)
	assert.ErrorIs(t, err, ErrInvalidPDUTag)
}

func TestDecodePDUBodyErrors(t *testing.T) {
	// request-id is an OCTET STRING
	body := append(ber.MarshalOctetString([]byte{1}), ber.MarshalInteger(0)...)
	_, _, err := DecodePDU(Version2c, ber.EncodeTLV(ber.Tag(PDUGetRequest), body))
	var tagErr *ber.UnexpectedTagError
	assert.ErrorAs(t, err, &tagErr)

	// missing varbind list
	body = append(ber.MarshalInteger(1), ber.MarshalInteger(0)...)
	body = append(body, ber.MarshalInteger(0)...)
	_, _, err = DecodePDU(Version2c, ber.EncodeTLV(ber.Tag(PDUResponse), body))
	assert.ErrorIs(t, err, ber.ErrTruncated)

	// request-id wider than 32 bits
	body = append(ber.MarshalInteger(1<<40), ber.MarshalInteger(0)...)
	body = append(body, ber.MarshalInteger(0)...)
	body = append(body, ber.MarshalSequence()...)
	_, _, err = DecodePDU(Version2c, ber.EncodeTLV(ber.Tag(PDUResponse), body))
	assert.ErrorIs(t, err, ber.ErrIntegerOverflow)

	_, _, err = DecodePDU(Version2c, nil)
	assert.ErrorIs(t, err, ber.ErrTruncated)
}
