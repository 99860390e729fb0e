package snmp

import (
	"context"
	"net"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAgent answers requests on a loopback UDP socket.
type fakeAgent struct {
	conn   *net.UDPConn
	handle func(*Message) *Message
}

func newFakeAgent(t *testing.T, handle func(*Message) *Message) *fakeAgent {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	a := &fakeAgent{conn: conn, handle: handle}
	go a.serve()
	t.Cleanup(func() { conn.Close() })
	return a
}

func (a *fakeAgent) serve() {
	buf := make([]byte, DefaultMaxMessageSize)
	for {
		n, addr, err := a.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		msg, err := DecodeMessage(buf[:n])
		if err != nil {
			continue
		}
		reply := a.handle(msg)
		if reply == nil {
			continue
		}
		data, err := reply.Encode()
		if err != nil {
			continue
		}
		a.conn.WriteToUDP(data, addr)
	}
}

func (a *fakeAgent) port() int {
	return a.conn.LocalAddr().(*net.UDPAddr).Port
}

func newTestClient(t *testing.T, agent *fakeAgent, opts ...Option) *Client {
	t.Helper()

	base := []Option{
		WithTarget("127.0.0.1"),
		WithPort(agent.port()),
		WithTimeout(500 * time.Millisecond),
		WithRetries(0),
		WithAutoReconnect(false),
	}
	c := NewClient(append(base, opts...)...)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { c.Disconnect(context.Background()) })
	return c
}

// mibView is a sorted set of bindings served by the fake agent.
type mibView VarBindList

func newMIBView(vbs ...VarBind) mibView {
	view := append(mibView(nil), vbs...)
	sort.Slice(view, func(i, j int) bool { return view[i].OID.Compare(view[j].OID) < 0 })
	return view
}

func (m mibView) get(oid OID) VarBind {
	for _, vb := range m {
		if vb.OID.Equal(oid) {
			return vb
		}
	}
	return VarBind{OID: oid, Type: TypeNoSuchObject}
}

func (m mibView) next(oid OID) (VarBind, bool) {
	for _, vb := range m {
		if vb.OID.Compare(oid) > 0 {
			return vb, true
		}
	}
	return VarBind{}, false
}

func (m mibView) handle(msg *Message) *Message {
	reply := msg.Response()
	resp := reply.PDU.(*Response)

	switch p := msg.PDU.(type) {
	case *GetRequest:
		for i, vb := range p.VarBinds {
			resp.VarBinds[i] = m.get(vb.OID)
		}
	case *GetNextRequest:
		for i, vb := range p.VarBinds {
			next, ok := m.next(vb.OID)
			if !ok {
				resp.ErrorStatus = NoSuchName
				resp.ErrorIndex = int32(i + 1)
				break
			}
			resp.VarBinds[i] = next
		}
	case *GetBulkRequest:
		resp.VarBinds = nil
		for i, vb := range p.VarBinds {
			reps := p.MaxRepetitions
			if int32(i) < p.NonRepeaters {
				reps = 1
			}
			cur := vb.OID
			for r := int32(0); r < reps; r++ {
				next, ok := m.next(cur)
				if !ok {
					resp.VarBinds = append(resp.VarBinds, VarBind{OID: cur, Type: TypeEndOfMibView})
					break
				}
				resp.VarBinds = append(resp.VarBinds, next)
				cur = next.OID
			}
		}
	case *SetRequest:
		for _, vb := range p.VarBinds {
			if !m.get(vb.OID).IsException() {
				continue
			}
			resp.ErrorStatus = NotWritable
			resp.ErrorIndex = 1
		}
	}
	return reply
}

var testView = newMIBView(
	VarBind{OID: MustParseOID("1.3.6.1.2.1.1.1.0"), Type: TypeOctetString, Value: []byte("test agent")},
	VarBind{OID: MustParseOID("1.3.6.1.2.1.1.3.0"), Type: TypeTimeTicks, Value: uint32(4200)},
	VarBind{OID: MustParseOID("1.3.6.1.2.1.1.5.0"), Type: TypeOctetString, Value: []byte("agent-1")},
	VarBind{OID: MustParseOID("1.3.6.1.2.1.2.2.1.2.1"), Type: TypeOctetString, Value: []byte("lo")},
	VarBind{OID: MustParseOID("1.3.6.1.2.1.2.2.1.2.2"), Type: TypeOctetString, Value: []byte("eth0")},
	VarBind{OID: MustParseOID("1.3.6.1.2.1.2.2.1.2.3"), Type: TypeOctetString, Value: []byte("eth1")},
	VarBind{OID: MustParseOID("1.3.6.1.2.1.2.2.1.3.1"), Type: TypeInteger, Value: 24},
)

func TestClientGet(t *testing.T) {
	agent := newFakeAgent(t, testView.handle)
	c := newTestClient(t, agent)

	vbs, err := c.Get(context.Background(), OIDSysDescr, OIDSysUpTime)
	require.NoError(t, err)
	require.Len(t, vbs, 2)

	assert.Equal(t, "test agent", vbs[0].AsString())
	assert.Equal(t, uint32(4200), vbs[1].Value)

	snap := c.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.GetRequests)
	assert.Equal(t, int64(1), snap.RequestsSent)
	assert.Equal(t, int64(1), snap.ResponsesReceived)
	assert.Equal(t, int64(1), snap.RequestLatency.Count)
}

func TestClientGetChunked(t *testing.T) {
	var requests atomic.Int32
	agent := newFakeAgent(t, func(msg *Message) *Message {
		requests.Add(1)
		return testView.handle(msg)
	})
	c := newTestClient(t, agent, WithMaxOids(1))

	vbs, err := c.Get(context.Background(), OIDSysDescr, OIDSysUpTime, OIDSysName)
	require.NoError(t, err)
	assert.Equal(t, []OID{OIDSysDescr, OIDSysUpTime, OIDSysName}, vbs.OIDs())
	assert.Equal(t, int32(3), requests.Load())
}

func TestClientSetError(t *testing.T) {
	agent := newFakeAgent(t, testView.handle)
	c := newTestClient(t, agent)

	missing := MustParseOID("1.3.6.1.4.1.99.1.0")
	_, err := c.Set(context.Background(), VarBind{OID: missing, Type: TypeInteger, Value: 1})

	var snmpErr *SNMPError
	require.ErrorAs(t, err, &snmpErr)
	assert.Equal(t, NotWritable, snmpErr.Status)
	assert.Equal(t, 1, snmpErr.Index)
	assert.True(t, snmpErr.RequestOID.Equal(missing))
	assert.Equal(t, int64(1), c.Metrics().Errors.Value())
}

func TestClientWalk(t *testing.T) {
	ifDescr := MustParseOID("1.3.6.1.2.1.2.2.1.2")
	want := []string{"lo", "eth0", "eth1"}

	for _, version := range []SNMPVersion{Version1, Version2c} {
		t.Run(version.String(), func(t *testing.T) {
			agent := newFakeAgent(t, testView.handle)
			c := newTestClient(t, agent, WithVersion(version), WithMaxRepetitions(2))

			vbs, err := c.Walk(context.Background(), ifDescr)
			require.NoError(t, err)

			var got []string
			for _, vb := range vbs {
				got = append(got, vb.AsString())
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("walk mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClientWalkNonRepeaters(t *testing.T) {
	var nonRepeaters, bulks atomic.Int32
	agent := newFakeAgent(t, func(msg *Message) *Message {
		if p, ok := msg.PDU.(*GetBulkRequest); ok {
			nonRepeaters.Store(p.NonRepeaters)
			bulks.Add(1)
		}
		return testView.handle(msg)
	})
	c := newTestClient(t, agent, WithVersion(Version2c), WithNonRepeaters(1), WithMaxRepetitions(10))

	vbs, err := c.Walk(context.Background(), MustParseOID("1.3.6.1.2.1.2.2.1.2"))
	require.NoError(t, err)
	assert.Len(t, vbs, 3)

	assert.Equal(t, int32(1), nonRepeaters.Load())
	// One binding per round trip, plus the request that leaves the subtree.
	assert.Equal(t, int32(4), bulks.Load())
}

func TestClientWalkEndOfView(t *testing.T) {
	agent := newFakeAgent(t, testView.handle)
	c := newTestClient(t, agent, WithMaxRepetitions(5))

	vbs, err := c.Walk(context.Background(), MustParseOID("1.3.6.1.2.1.2.2.1.3"))
	require.NoError(t, err)
	require.Len(t, vbs, 1)
	assert.Equal(t, 24, vbs[0].Value)
}

func TestClientWalkNotIncreasing(t *testing.T) {
	root := MustParseOID("1.3.6.1.2.1.2")
	agent := newFakeAgent(t, func(msg *Message) *Message {
		reply := msg.Response()
		resp := reply.PDU.(*Response)
		resp.VarBinds = VarBindList{{OID: root.Append(1), Type: TypeInteger, Value: 1}}
		return reply
	})
	c := newTestClient(t, agent)

	err := c.WalkFunc(context.Background(), root.Append(2), func(VarBind) error { return nil })
	assert.NoError(t, err, "OIDs outside the root end the walk")

	err = c.WalkFunc(context.Background(), root, func(VarBind) error { return nil })
	assert.ErrorIs(t, err, ErrOIDNotIncreasing)
}

func TestClientGetBulkV1(t *testing.T) {
	agent := newFakeAgent(t, testView.handle)
	c := newTestClient(t, agent, WithVersion(Version1))

	_, err := c.GetBulk(context.Background(), 0, 10, OIDSystem)
	assert.ErrorIs(t, err, ErrInvalidPDUTag)

	_, err = c.Inform(context.Background(), 0, OIDColdStart)
	assert.ErrorIs(t, err, ErrInvalidPDUTag)
}

func TestClientTimeout(t *testing.T) {
	agent := newFakeAgent(t, func(*Message) *Message { return nil })
	c := newTestClient(t, agent, WithTimeout(50*time.Millisecond), WithRetries(1))

	_, err := c.Get(context.Background(), OIDSysDescr)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsTimeout(err))

	snap := c.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.Timeouts)
	assert.Equal(t, int64(1), snap.Retries)
}

func TestClientIgnoresGarbage(t *testing.T) {
	agent := newFakeAgent(t, func(msg *Message) *Message { return msg.Response() })
	c := newTestClient(t, agent)

	c.mu.RLock()
	local := c.conn.LocalAddr().(*net.UDPAddr)
	c.mu.RUnlock()
	_, err := agent.conn.WriteToUDP([]byte{0x30, 0x03, 0x02, 0x01}, local)
	require.NoError(t, err)

	vbs, err := c.Get(context.Background(), OIDSysName)
	require.NoError(t, err)
	assert.Len(t, vbs, 1)

	assert.Eventually(t, func() bool {
		return c.Metrics().DecodeErrors.Value() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestClientNotConnected(t *testing.T) {
	c := NewClient(WithTarget("127.0.0.1"))

	_, err := c.Get(context.Background(), OIDSysDescr)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, c.Disconnect(context.Background()), ErrNotConnected)
	assert.ErrorIs(t, c.SendTrap(context.Background(), NewTrapV2(0, 0, OIDColdStart)), ErrNotConnected)
}

func TestClientUnsupportedVersion(t *testing.T) {
	c := NewClient(WithTarget("127.0.0.1"), WithVersion(SNMPVersion(3)))

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Equal(t, StateDisconnected, c.State())
}

func TestChunkOIDs(t *testing.T) {
	oids := []OID{{1, 1}, {1, 2}, {1, 3}}

	assert.Len(t, chunkOIDs(oids, 0), 1)
	assert.Len(t, chunkOIDs(oids, 3), 1)
	assert.Equal(t, [][]OID{{{1, 1}, {1, 2}}, {{1, 3}}}, chunkOIDs(oids, 2))
}
