package snmp

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linkDownOID = MustParseOID("1.3.6.1.6.3.1.1.5.3")

func TestTrapV2Accessors(t *testing.T) {
	ifIndex := VarBind{OID: MustParseOID("1.3.6.1.2.1.2.2.1.1.3"), Type: TypeInteger, Value: 3}
	trap := NewTrapV2(1, 4200, linkDownOID, ifIndex)

	uptime, err := trap.SysUpTime()
	require.NoError(t, err)
	assert.Equal(t, uint32(4200), uptime)

	oid, err := trap.TrapOID()
	require.NoError(t, err)
	assert.Equal(t, linkDownOID, oid)
}

func TestTrapV2AccessorsCheckEveryCall(t *testing.T) {
	trap := NewTrapV2(1, 4200, linkDownOID)
	_, err := trap.SysUpTime()
	require.NoError(t, err)

	trap.VarBinds[0].OID = OIDSysName
	_, err = trap.SysUpTime()

	var vbErr *InvalidTrapVarbindError
	require.ErrorAs(t, err, &vbErr)
	assert.Equal(t, 0, vbErr.Index)
	assert.Equal(t, OIDSysUpTime, vbErr.Want)
	assert.Equal(t, OIDSysName, vbErr.Got)
	assert.Contains(t, err.Error(), OIDSysName.String())
	assert.ErrorIs(t, err, ErrInvalidTrapVarbind)

	// The second accessor is independent of the first binding.
	_, err = trap.TrapOID()
	assert.NoError(t, err)
}

func TestTrapV2AccessorsMisordered(t *testing.T) {
	trap := &TrapV2{VarBinds: VarBindList{
		{OID: OIDSnmpTrapOID, Type: TypeObjectIdentifier, Value: linkDownOID},
		{OID: OIDSysUpTime, Type: TypeTimeTicks, Value: uint32(1)},
	}}

	_, err := trap.SysUpTime()
	assert.ErrorIs(t, err, ErrInvalidTrapVarbind)
	_, err = trap.TrapOID()
	assert.ErrorIs(t, err, ErrInvalidTrapVarbind)
}

func TestTrapV2AccessorsMissing(t *testing.T) {
	trap := &TrapV2{}
	_, err := trap.SysUpTime()

	var vbErr *InvalidTrapVarbindError
	require.ErrorAs(t, err, &vbErr)
	assert.Nil(t, vbErr.Got)
	assert.Contains(t, err.Error(), "missing")

	trap.VarBinds = VarBindList{{OID: OIDSysUpTime, Type: TypeTimeTicks, Value: uint32(1)}}
	_, err = trap.TrapOID()
	require.ErrorAs(t, err, &vbErr)
	assert.Equal(t, 1, vbErr.Index)
}

func TestInformAccessors(t *testing.T) {
	inform := NewInformRequest(5, 99, linkDownOID)

	uptime, err := inform.SysUpTime()
	require.NoError(t, err)
	assert.Equal(t, uint32(99), uptime)

	oid, err := inform.TrapOID()
	require.NoError(t, err)
	assert.Equal(t, linkDownOID, oid)
}

func TestNewNotification(t *testing.T) {
	extra := VarBind{OID: MustParseOID("1.3.6.1.2.1.2.2.1.1.3"), Type: TypeInteger, Value: 3}

	t.Run("trapv2", func(t *testing.T) {
		n, err := NewNotification(&Message{Version: Version2c, Community: "public", PDU: NewTrapV2(8, 300, linkDownOID, extra)})
		require.NoError(t, err)
		assert.Equal(t, PDUTrapV2, n.Type)
		assert.Equal(t, int32(8), n.RequestID)
		assert.Equal(t, uint32(300), n.Uptime)
		assert.Equal(t, linkDownOID, n.TrapOID)
		assert.Equal(t, VarBindList{extra}, n.VarBinds)
	})

	t.Run("inform", func(t *testing.T) {
		n, err := NewNotification(&Message{Version: Version2c, PDU: NewInformRequest(9, 1, linkDownOID)})
		require.NoError(t, err)
		assert.Equal(t, PDUInformRequest, n.Type)
		assert.Empty(t, n.VarBinds)
	})

	t.Run("trapv1", func(t *testing.T) {
		n, err := NewNotification(&Message{Version: Version1, Community: "public", PDU: &TrapV1{
			Enterprise:   MustParseOID("1.3.6.1.4.1.9"),
			AgentAddress: net.IP{192, 0, 2, 7},
			GenericTrap:  LinkDown,
			Timestamp:    77,
			VarBinds:     VarBindList{extra},
		}})
		require.NoError(t, err)
		assert.Equal(t, LinkDown, n.GenericTrap)
		assert.Equal(t, uint32(77), n.Uptime)
		assert.Equal(t, linkDownOID, n.TrapOID)
		assert.Equal(t, "192.0.2.7", n.AgentAddress.String())
		assert.Len(t, n.VarBinds, 1)
	})

	t.Run("bad_uptime_type", func(t *testing.T) {
		trap := NewTrapV2(1, 0, linkDownOID)
		trap.VarBinds[0].Value = "later"
		_, err := NewNotification(&Message{Version: Version2c, PDU: trap})
		assert.ErrorIs(t, err, ErrInvalidValue)
	})

	t.Run("not_a_notification", func(t *testing.T) {
		_, err := NewNotification(&Message{Version: Version2c, PDU: NewGetRequest(1)})
		assert.ErrorIs(t, err, ErrNotNotification)
	})
}
