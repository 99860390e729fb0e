package capture

import (
	"bytes"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeo-scada/snmp/snmp"
)

var (
	manager = &net.UDPAddr{IP: net.IPv4(192, 0, 2, 10), Port: 40000}
	agent   = &net.UDPAddr{IP: net.IPv4(192, 0, 2, 20), Port: 161}
	sink    = &net.UDPAddr{IP: net.IPv4(192, 0, 2, 10), Port: 162}
)

func collect(t *testing.T, data []byte, filter Filter) []*Frame {
	t.Helper()

	var frames []*Frame
	err := Replay(bytes.NewReader(data), filter, HandlerFunc(func(f *Frame) error {
		frames = append(frames, f)
		return nil
	}))
	require.NoError(t, err)
	return frames
}

func TestWriteAndReplay(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	get := &snmp.Message{Version: snmp.Version2c, Community: "public", PDU: snmp.NewGetRequest(7, snmp.OIDSysDescr)}
	trap := &snmp.Message{Version: snmp.Version1, Community: "public", PDU: &snmp.TrapV1{
		Enterprise:   snmp.MustParseOID("1.3.6.1.4.1.9"),
		AgentAddress: net.IP{192, 0, 2, 20},
		GenericTrap:  snmp.ColdStart,
		Timestamp:    10,
	}}

	require.NoError(t, w.WriteMessage(ts, manager, agent, get))
	require.NoError(t, w.WriteMessage(ts.Add(time.Second), agent, manager, get.Response()))
	require.NoError(t, w.WriteMessage(ts.Add(2*time.Second), agent, sink, trap))
	require.NoError(t, w.WriteDatagram(ts.Add(3*time.Second), agent, sink, []byte{0x30, 0x00, 0x00}))

	frames := collect(t, buf.Bytes(), DefaultFilter)
	require.Len(t, frames, 4)

	assert.Equal(t, uint64(1), frames[0].Number)
	assert.True(t, frames[0].Timestamp.Equal(ts))
	assert.Equal(t, manager.String(), frames[0].Source.String())
	assert.Equal(t, agent.String(), frames[0].Destination.String())
	require.NoError(t, frames[0].Err)
	if diff := cmp.Diff(get, frames[0].Message); diff != "" {
		t.Errorf("GetRequest mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, frames[1].Err)
	assert.Equal(t, snmp.PDUResponse, frames[1].Message.PDU.Type())

	require.NoError(t, frames[2].Err)
	v1, ok := frames[2].Message.PDU.(*snmp.TrapV1)
	require.True(t, ok)
	assert.Equal(t, snmp.ColdStart, v1.GenericTrap)
	assert.Equal(t, snmp.OIDColdStart, v1.TrapOID())

	assert.Nil(t, frames[3].Message)
	assert.True(t, snmp.IsMalformed(frames[3].Err), "got %v", frames[3].Err)
}

func TestReplayFilter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	other := &net.UDPAddr{IP: net.IPv4(192, 0, 2, 30), Port: 53}
	msg := &snmp.Message{Version: snmp.Version2c, Community: "public", PDU: snmp.NewGetRequest(1, snmp.OIDSysName)}

	require.NoError(t, w.WriteMessage(time.Now(), manager, other, msg))
	require.NoError(t, w.WriteMessage(time.Now(), manager, agent, msg))

	frames := collect(t, buf.Bytes(), DefaultFilter)
	require.Len(t, frames, 1)
	assert.Equal(t, uint64(2), frames[0].Number)

	assert.Len(t, collect(t, buf.Bytes(), Filter{}), 2)
}

func TestReplayIPv6(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	src := &net.UDPAddr{IP: net.ParseIP("2001:db8::1"), Port: 50000}
	dst := &net.UDPAddr{IP: net.ParseIP("2001:db8::2"), Port: 161}
	msg := &snmp.Message{Version: snmp.Version2c, Community: "v6", PDU: snmp.NewGetNextRequest(3, snmp.OIDSystem)}
	require.NoError(t, w.WriteMessage(time.Now(), src, dst, msg))

	frames := collect(t, buf.Bytes(), DefaultFilter)
	require.Len(t, frames, 1)
	require.NoError(t, frames[0].Err)
	assert.Equal(t, "v6", frames[0].Message.Community)
	assert.True(t, frames[0].Source.IP.Equal(src.IP))

	err = w.WriteMessage(time.Now(), src, agent, msg)
	assert.Error(t, err)
}

func TestReplayStopAndError(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	msg := &snmp.Message{Version: snmp.Version2c, Community: "public", PDU: snmp.NewGetRequest(1, snmp.OIDSysName)}
	for i := 0; i < 3; i++ {
		require.NoError(t, w.WriteMessage(time.Now(), manager, agent, msg))
	}

	var seen int
	err = Replay(bytes.NewReader(buf.Bytes()), DefaultFilter, HandlerFunc(func(*Frame) error {
		seen++
		return ErrStop
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, seen)

	boom := errors.New("boom")
	err = Replay(bytes.NewReader(buf.Bytes()), DefaultFilter, HandlerFunc(func(*Frame) error { return boom }))
	assert.ErrorIs(t, err, boom)

	err = Replay(bytes.NewReader([]byte("not a pcap")), DefaultFilter, HandlerFunc(func(*Frame) error { return nil }))
	assert.Error(t, err)
}

func TestReplayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snmp.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)

	w, err := NewWriter(f)
	require.NoError(t, err)
	msg := &snmp.Message{Version: snmp.Version1, Community: "public", PDU: snmp.NewGetRequest(9, snmp.OIDSysUpTime)}
	require.NoError(t, w.WriteMessage(time.Now(), manager, agent, msg))
	require.NoError(t, f.Close())

	var ids []int32
	err = ReplayFile(path, DefaultFilter, HandlerFunc(func(f *Frame) error {
		id, _ := snmp.RequestID(f.Message.PDU)
		ids = append(ids, id)
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, []int32{9}, ids)
}
