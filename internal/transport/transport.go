// ABOUTME: Transport interfaces and WebSocket implementation
// ABOUTME: Server upgrade, client dial and bind-conflict classification
package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrBindConflict means another process already listens on the port
	ErrBindConflict = errors.New("address already in use")

	// ErrClosed is returned when sending on a closed connection
	ErrClosed = errors.New("connection closed")

	// ErrSendBufferFull is returned when a connection's send queue is full
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is one established peer connection
type Conn interface {
	// ID returns a unique identifier for the connection
	ID() string
	// RemoteAddr returns the remote network address
	RemoteAddr() string
	// Send queues one binary frame; it never blocks
	Send(data []byte) error
	// Close closes the connection; Disconnected fires once
	Close() error
}

// Handler receives connection lifecycle and data events.
// Received is called from the connection's read goroutine.
type Handler interface {
	Connected(c Conn)
	Received(c Conn, data []byte)
	Disconnected(c Conn, err error)
}

// Listener is a bound server endpoint
type Listener interface {
	Addr() net.Addr
	Close() error
}

// Config holds transport configuration
type Config struct {
	// Path is the HTTP path upgraded to WebSocket
	Path string

	// SendQueue is the per-connection send channel capacity (default 256)
	SendQueue int

	// WriteTimeout bounds each frame write (default 10s)
	WriteTimeout time.Duration

	// PingInterval is the keepalive interval (default 30s)
	PingInterval time.Duration

	// Debug enables per-frame logging
	Debug bool
}

// WebSocket implements listening and dialing over gorilla/websocket
type WebSocket struct {
	config   Config
	upgrader websocket.Upgrader
	dialer   *websocket.Dialer
}

// NewWebSocket creates a WebSocket transport
func NewWebSocket(config Config) *WebSocket {
	if config.Path == "" {
		config.Path = "/"
	}
	if config.SendQueue <= 0 {
		config.SendQueue = 256
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.PingInterval <= 0 {
		config.PingInterval = 30 * time.Second
	}

	return &WebSocket{
		config: config,
		upgrader: websocket.Upgrader{
			// Peers are other relay nodes, not browsers
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 5 * time.Second,
		},
	}
}

// IsBindConflict reports whether err means the address is already owned
func IsBindConflict(err error) bool {
	return errors.Is(err, ErrBindConflict) || errors.Is(err, syscall.EADDRINUSE)
}

// Listen binds addr (host:port) and serves WebSocket upgrades on the configured path.
// A bind conflict is returned wrapped in ErrBindConflict.
func (t *WebSocket) Listen(addr string, h Handler) (Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("%w: %s", ErrBindConflict, addr)
		}
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	l := &wsListener{
		transport: t,
		listener:  ln,
		handler:   h,
		conns:     make(map[*wsConn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(t.config.Path, l.handleWebSocket)
	l.server = &http.Server{Handler: mux}

	go func() {
		if err := l.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("Relay listener error: %v", err)
		}
	}()

	log.Printf("WebSocket listener bound on %s%s", ln.Addr(), t.config.Path)
	return l, nil
}

// Dial connects to a listener at addr (host:port)
func (t *WebSocket) Dial(ctx context.Context, addr string, h Handler) (Conn, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: t.config.Path}
	log.Printf("Connecting to %s", u.String())

	ws, _, err := t.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	c := newConn(t, ws)
	c.start(h)
	return c, nil
}

// wsListener serves inbound connections
type wsListener struct {
	transport *WebSocket
	listener  net.Listener
	server    *http.Server
	handler   Handler

	mu     sync.Mutex
	conns  map[*wsConn]struct{}
	closed bool
}

func (l *wsListener) Addr() net.Addr {
	return l.listener.Addr()
}

// handleWebSocket upgrades and runs one inbound connection
func (l *wsListener) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := l.transport.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	c := newConn(l.transport, ws)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		log.Printf("Rejecting connection during shutdown")
		ws.Close()
		return
	}
	l.conns[c] = struct{}{}
	l.mu.Unlock()

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)

	c.start(l.handler)
	<-c.done

	l.mu.Lock()
	delete(l.conns, c)
	l.mu.Unlock()
}

// Close stops accepting and closes every inbound connection
func (l *wsListener) Close() error {
	l.mu.Lock()
	l.closed = true
	conns := make([]*wsConn, 0, len(l.conns))
	for c := range l.conns {
		conns = append(conns, c)
	}
	l.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("listener shutdown: %w", err)
	}
	return nil
}
