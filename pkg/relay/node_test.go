// ABOUTME: Tests for relay node negotiation, mixing and broadcast
// ABOUTME: Uses a fake transport so ticks run deterministically
package relay

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/Resonate-Protocol/resonate-relay/internal/transport"
	"github.com/Resonate-Protocol/resonate-relay/pkg/audio"
	"github.com/Resonate-Protocol/resonate-relay/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// negotiated returns a node whose broadcast loop is not running, so Tick
// can be driven by the test
func negotiated(t *testing.T, ft *fakeTransport) *Node {
	t.Helper()
	n := newNode(Config{Transport: ft, Logger: DiscardLogger})
	require.NoError(t, n.negotiate())
	return n
}

func bindConflict() error {
	return fmt.Errorf("%w: :8927", transport.ErrBindConflict)
}

func receive(t *testing.T, ft *fakeTransport, from Peer, buf audio.Buffer) {
	t.Helper()
	data, err := protocol.Encode(buf)
	require.NoError(t, err)
	ft.handler.Received(from, data)
}

func TestNegotiateServer(t *testing.T) {
	ft := &fakeTransport{}
	n := negotiated(t, ft)

	assert.Equal(t, RoleServer, n.Role())
	assert.Equal(t, []string{":8927"}, ft.listenAddrs)
	assert.Empty(t, ft.dialAddrs)
	assert.Equal(t, 8927, n.Port())
	assert.Equal(t, StateRunning, n.State())
}

func TestNegotiateClientOnBindConflict(t *testing.T) {
	ft := &fakeTransport{listenErr: bindConflict()}
	n := negotiated(t, ft)

	assert.Equal(t, RoleClient, n.Role())
	assert.Equal(t, []string{"localhost:8927"}, ft.dialAddrs)
	assert.Equal(t, []string{"upstream"}, n.PeerIDs())
}

func TestNegotiateFatalErrors(t *testing.T) {
	tests := []struct {
		name      string
		listenErr error
		dialErr   error
		wantDials int
	}{
		{
			name:      "listen failure other than bind conflict",
			listenErr: errors.New("permission denied"),
			wantDials: 0,
		},
		{
			name:      "dial failure after bind conflict",
			listenErr: bindConflict(),
			dialErr:   errRefused,
			wantDials: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{listenErr: tt.listenErr, dialErr: tt.dialErr}
			n := newNode(Config{Transport: ft, Logger: DiscardLogger})

			err := n.negotiate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTransport)
			assert.Len(t, ft.dialAddrs, tt.wantDials)
		})
	}
}

func TestNewReturnsTransportError(t *testing.T) {
	ft := &fakeTransport{listenErr: errors.New("permission denied")}

	n, err := New(Config{Transport: ft, Logger: DiscardLogger})
	assert.Nil(t, n)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestStreamAudioMix(t *testing.T) {
	tests := []struct {
		name     string
		local    audio.Buffer
		incoming []audio.Buffer
		want     audio.Buffer
	}{
		{
			name:     "single remote is averaged",
			local:    audio.Buffer{{1.0}},
			incoming: []audio.Buffer{{{3.0}}},
			want:     audio.Buffer{{2.0}},
		},
		{
			name:     "remotes fold sequentially in arrival order",
			local:    audio.Buffer{{0.0}},
			incoming: []audio.Buffer{{{4.0}}, {{0.0}}},
			want:     audio.Buffer{{1.0}},
		},
		{
			name:     "no incoming leaves buffer unchanged",
			local:    audio.Buffer{{0.25, -0.5}, {0.75, 1}},
			incoming: nil,
			want:     audio.Buffer{{0.25, -0.5}, {0.75, 1}},
		},
		{
			name:     "stereo",
			local:    audio.Buffer{{1, 0}, {0, 1}},
			incoming: []audio.Buffer{{{1, 0}, {1, 0}}},
			want:     audio.Buffer{{1, 0}, {0.5, 0.5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{}
			n := negotiated(t, ft)
			remote := newFakeConn("remote")
			ft.handler.Connected(remote)

			for _, buf := range tt.incoming {
				receive(t, ft, remote, buf)
			}

			n.StreamAudio(tt.local, tt.want.Samples(), tt.want.Channels())

			assert.Equal(t, tt.want, tt.local)
			assert.Equal(t, 0, n.incoming.Len())
			assert.Equal(t, uint64(len(tt.incoming)), n.Stats().BuffersMixed)
		})
	}
}

func TestStreamAudioConsumesIncomingOnce(t *testing.T) {
	ft := &fakeTransport{}
	n := negotiated(t, ft)
	remote := newFakeConn("remote")
	ft.handler.Connected(remote)

	receive(t, ft, remote, audio.Buffer{{3}})

	first := audio.Buffer{{1}}
	n.StreamAudio(first, 1, 1)
	assert.Equal(t, audio.Buffer{{2}}, first)

	second := audio.Buffer{{1}}
	n.StreamAudio(second, 1, 1)
	assert.Equal(t, audio.Buffer{{1}}, second)
}

func TestStreamAudioDropsShapeMismatch(t *testing.T) {
	ft := &fakeTransport{}
	n := negotiated(t, ft)
	remote := newFakeConn("remote")
	ft.handler.Connected(remote)

	// Two samples, two channels, three samples, then one that fits
	receive(t, ft, remote, audio.Buffer{{9, 9}})
	receive(t, ft, remote, audio.Buffer{{9}, {9}})
	receive(t, ft, remote, audio.Buffer{{3, 3, 3}})
	receive(t, ft, remote, audio.Buffer{{3}})

	local := audio.Buffer{{1}}
	n.StreamAudio(local, 1, 1)

	assert.Equal(t, audio.Buffer{{2}}, local)
	stats := n.Stats()
	assert.Equal(t, uint64(3), stats.ShapeMismatches)
	assert.Equal(t, uint64(1), stats.BuffersMixed)
}

func TestStreamAudioQueuesMixedBuffer(t *testing.T) {
	ft := &fakeTransport{}
	n := negotiated(t, ft)
	remote := newFakeConn("remote")
	ft.handler.Connected(remote)

	receive(t, ft, remote, audio.Buffer{{3}})
	n.StreamAudio(audio.Buffer{{1}}, 1, 1)

	require.Equal(t, 1, n.Tick())
	frames := remote.sent()
	require.Len(t, frames, 1)

	env, err := protocol.Decode(frames[0])
	require.NoError(t, err)
	assert.Equal(t, audio.Buffer{{2}}, env.Buffer)
}

func TestTickFanOut(t *testing.T) {
	ft := &fakeTransport{}
	n := negotiated(t, ft)

	peers := []*fakeConn{newFakeConn("a"), newFakeConn("b"), newFakeConn("c")}
	for _, p := range peers {
		ft.handler.Connected(p)
	}

	n.StreamAudio(audio.Buffer{{0.1, 0.2}}, 2, 1)
	n.StreamAudio(audio.Buffer{{0.3, 0.4}}, 2, 1)

	assert.Equal(t, 6, n.Tick())
	assert.Equal(t, 0, n.outgoing.Len())

	for _, p := range peers {
		frames := p.sent()
		require.Len(t, frames, 2, "peer %s", p.ID())

		first, err := protocol.Decode(frames[0])
		require.NoError(t, err)
		assert.Equal(t, audio.Buffer{{0.1, 0.2}}, first.Buffer)
	}

	assert.Equal(t, 0, n.Tick())
	assert.Equal(t, uint64(6), n.Stats().BuffersSent)
}

func TestTickSendFailureIsolated(t *testing.T) {
	ft := &fakeTransport{}
	n := negotiated(t, ft)

	good1, bad, good2 := newFakeConn("good1"), newFakeConn("bad"), newFakeConn("good2")
	bad.sendErr = transport.ErrSendBufferFull
	for _, p := range []*fakeConn{good1, bad, good2} {
		ft.handler.Connected(p)
	}

	n.StreamAudio(audio.Buffer{{0.5}}, 1, 1)

	assert.Equal(t, 3, n.Tick())
	assert.Len(t, good1.sent(), 1)
	assert.Len(t, good2.sent(), 1)

	stats := n.Stats()
	assert.Equal(t, uint64(2), stats.BuffersSent)
	assert.Equal(t, uint64(1), stats.SendErrors)
}

func TestPeerRemovedOnDisconnect(t *testing.T) {
	ft := &fakeTransport{}
	n := negotiated(t, ft)

	a, b := newFakeConn("a"), newFakeConn("b")
	ft.handler.Connected(a)
	ft.handler.Connected(b)
	ft.handler.Disconnected(a, io.EOF)

	assert.Equal(t, []string{"b"}, n.PeerIDs())

	n.StreamAudio(audio.Buffer{{1}}, 1, 1)
	assert.Equal(t, 1, n.Tick())
	assert.Empty(t, a.sent())
	assert.Equal(t, StateRunning, n.State())
}

func TestDecodeErrorDropped(t *testing.T) {
	ft := &fakeTransport{}
	n := negotiated(t, ft)
	remote := newFakeConn("remote")
	ft.handler.Connected(remote)

	ft.handler.Received(remote, []byte{0xff, 0x00, 0x13})

	assert.Equal(t, 0, n.incoming.Len())
	assert.Equal(t, uint64(1), n.Stats().DecodeErrors)
}

func TestClientServerLost(t *testing.T) {
	ft := &fakeTransport{listenErr: bindConflict()}
	n := negotiated(t, ft)

	select {
	case <-n.Done():
		t.Fatal("node done before server loss")
	default:
	}
	assert.NoError(t, n.Err())

	ft.handler.Disconnected(ft.upstream, io.EOF)

	select {
	case <-n.Done():
	case <-time.After(time.Second):
		t.Fatal("expected Done to close after server loss")
	}

	assert.Equal(t, StateServerLost, n.State())
	assert.ErrorIs(t, n.Err(), ErrServerLost)
	assert.Equal(t, 0, len(n.PeerIDs()))

	// Audio keeps flowing through the callback without being queued
	buf := audio.Buffer{{1}}
	n.StreamAudio(buf, 1, 1)
	assert.Equal(t, 0, n.outgoing.Len())
}

func TestStopIdempotent(t *testing.T) {
	ft := &fakeTransport{}
	n, err := New(Config{Transport: ft, Logger: DiscardLogger})
	require.NoError(t, err)

	n.Stop()
	n.Stop()

	assert.Equal(t, StateStopped, n.State())
	assert.NoError(t, n.Err())
	assert.True(t, ft.listener.closed)
}

func TestBroadcastLoopSends(t *testing.T) {
	ft := &fakeTransport{}
	n, err := New(Config{Transport: ft, Logger: DiscardLogger})
	require.NoError(t, err)
	defer n.Stop()

	peer := newFakeConn("p")
	ft.handler.Connected(peer)

	n.StreamAudio(audio.Buffer{{0.5}}, 1, 1)

	require.Eventually(t, func() bool {
		return len(peer.sent()) == 1
	}, 2*time.Second, 5*time.Millisecond)
}
