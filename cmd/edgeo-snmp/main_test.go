package main

import (
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/edgeo-scada/snmp/snmp"
)

const getRequestHex = "302602010104067075626c6963a019" +
	"02017b020100020100300e300c06082b06010201010100" + "0500"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--no-color"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDecodeCommand(t *testing.T) {
	out, err := execute(t, "decode", "-o", "table", getRequestHex)
	require.NoError(t, err)
	assert.Equal(t, "SNMPv2c GetRequest-PDU community=\"public\" request-id=123\n"+
		"  1.3.6.1.2.1.1.1.0 = NULL: NULL\n", out)

	out, err = execute(t, "decode", "-o", "yaml", getRequestHex)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "GetRequest-PDU", doc["pdu"])
	assert.Equal(t, 123, doc["request_id"])
	assert.Equal(t, "public", doc["community"])

	_, err = execute(t, "decode", "-o", "table", getRequestHex+"00")
	assert.True(t, snmp.IsMalformed(err), "got %v", err)
}

func TestCodesCommand(t *testing.T) {
	out, err := execute(t, "codes", "error-status", "notWritable")
	require.NoError(t, err)
	assert.Equal(t, "17 notWritable\n", out)

	out, err = execute(t, "codes", "generic-trap", "3")
	require.NoError(t, err)
	assert.Equal(t, "3 linkUp\n", out)

	out, err = execute(t, "codes", "generic-trap", "99")
	require.NoError(t, err)
	assert.Equal(t, "99 99\n", out)

	_, err = execute(t, "codes", "error-status", "bogus")
	assert.ErrorIs(t, err, snmp.ErrInvalidErrorStatus)

	out, err = execute(t, "codes")
	require.NoError(t, err)
	assert.Contains(t, out, "inconsistentName")
	assert.Contains(t, out, "enterpriseSpecific")
}

func TestParseValue(t *testing.T) {
	oid := snmp.MustParseOID("1.3.6.1.2.1.1.5.0")

	tests := []struct {
		spec, value string
		typ         snmp.BERType
		want        any
	}{
		{"i", "-5", snmp.TypeInteger, -5},
		{"u", "42", snmp.TypeGauge32, uint32(42)},
		{"c", "7", snmp.TypeCounter32, uint32(7)},
		{"C", "18446744073709551615", snmp.TypeCounter64, uint64(18446744073709551615)},
		{"t", "100", snmp.TypeTimeTicks, uint32(100)},
		{"s", "switch01", snmp.TypeOctetString, []byte("switch01")},
		{"x", "DE AD be:ef", snmp.TypeOctetString, []byte{0xde, 0xad, 0xbe, 0xef}},
		{"d", "10.0.1.1", snmp.TypeOctetString, []byte{10, 0, 1, 1}},
		{"n", "", snmp.TypeNull, nil},
		{"o", "1.3.6.1", snmp.TypeObjectIdentifier, snmp.OID{1, 3, 6, 1}},
		{"a", "192.168.1.1", snmp.TypeIPAddress, net.IP{192, 168, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			vb, err := parseValue(oid, tt.spec, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, vb.Type)
			assert.Equal(t, tt.want, vb.Value)
		})
	}

	for _, bad := range [][2]string{{"i", "x"}, {"u", "-1"}, {"x", "abc"}, {"a", "::1"}, {"z", "1"}} {
		_, err := parseValue(oid, bad[0], bad[1])
		assert.Error(t, err, "%s %s", bad[0], bad[1])
	}
}

func TestFormatNotification(t *testing.T) {
	msg := &snmp.Message{Version: snmp.Version1, Community: "public", PDU: &snmp.TrapV1{
		Enterprise:   snmp.MustParseOID("1.3.6.1.4.1.9"),
		AgentAddress: net.IP{10, 0, 0, 1},
		GenericTrap:  snmp.EnterpriseSpecific,
		SpecificTrap: 17,
	}}
	n, err := snmp.NewNotification(msg)
	require.NoError(t, err)

	var out bytes.Buffer
	newFormatterTo("json", &out).FormatNotification(n)
	assert.Contains(t, out.String(), `"trap_oid": "1.3.6.1.4.1.9.0.17"`)
	assert.Contains(t, out.String(), `"generic_trap": "enterpriseSpecific"`)

	out.Reset()
	noColor = true
	newFormatterTo("table", &out).FormatNotification(n)
	assert.True(t, strings.Contains(out.String(), "=== TRAP RECEIVED ==="))
	assert.Contains(t, out.String(), "Specific Trap: 17")
}
