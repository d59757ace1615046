// ABOUTME: Test doubles for the relay transport
// ABOUTME: Records listen, dial and send calls
package relay

import (
	"context"
	"errors"
	"net"
	"sync"
)

// fakeConn records sent frames
type fakeConn struct {
	id      string
	sendErr error

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string         { return c.id }
func (c *fakeConn) RemoteAddr() string { return "fake:" + c.id }

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

type fakeListener struct {
	closed bool
}

func (l *fakeListener) Addr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8927} }
func (l *fakeListener) Close() error   { l.closed = true; return nil }

// fakeTransport records negotiation calls and keeps the node's handler
type fakeTransport struct {
	listenErr error
	dialErr   error

	listenAddrs []string
	dialAddrs   []string
	handler     ConnHandler
	listener    *fakeListener
	upstream    *fakeConn
}

func (f *fakeTransport) Listen(addr string, h ConnHandler) (Listener, error) {
	f.listenAddrs = append(f.listenAddrs, addr)
	f.handler = h
	if f.listenErr != nil {
		return nil, f.listenErr
	}
	f.listener = &fakeListener{}
	return f.listener, nil
}

func (f *fakeTransport) Dial(ctx context.Context, addr string, h ConnHandler) (Peer, error) {
	f.dialAddrs = append(f.dialAddrs, addr)
	f.handler = h
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	f.upstream = newFakeConn("upstream")
	h.Connected(f.upstream)
	return f.upstream, nil
}

var errRefused = errors.New("connection refused")
