// ABOUTME: Relay node: role negotiation, peer events and the audio entry point
// ABOUTME: Binds the port as server or falls back to a single client connection
package relay

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/resonate-relay/internal/transport"
	"github.com/Resonate-Protocol/resonate-relay/pkg/audio"
	"github.com/Resonate-Protocol/resonate-relay/pkg/protocol"
)

const (
	// DefaultPort is the relay port when none is configured
	DefaultPort = 8927

	// DefaultDialHost is where a client looks for the port's owner
	DefaultDialHost = "localhost"
)

// ConnHandler receives transport events for a node
type ConnHandler = transport.Handler

// Listener is a bound server endpoint
type Listener = transport.Listener

// Transport is the messaging primitive a node negotiates over
type Transport interface {
	Listen(addr string, h ConnHandler) (Listener, error)
	Dial(ctx context.Context, addr string, h ConnHandler) (Peer, error)
}

// Role is the node's fixed position on its port
type Role int

const (
	RoleServer Role = iota + 1
	RoleClient
)

func (r Role) String() string {
	switch r {
	case RoleServer:
		return "server"
	case RoleClient:
		return "client"
	default:
		return "unknown"
	}
}

// State is the node lifecycle state
type State int32

const (
	StateRunning State = iota
	StateServerLost
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateServerLost:
		return "server lost"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config configures a relay node
type Config struct {
	// Port identifies the shared channel (default: 8927)
	Port int

	// BindHost is the interface the server binds (default: all)
	BindHost string

	// DialHost is where a client connects (default: localhost)
	DialHost string

	// Transport to negotiate over (default: WebSocket on protocol.Path)
	Transport Transport

	// Logger records node events (default: log.Default())
	Logger Logger

	// DialTimeout bounds the client connection attempt (default: 5s)
	DialTimeout time.Duration

	// Debug enables per-buffer logging
	Debug bool
}

// Stats is a snapshot of node counters
type Stats struct {
	Peers           int
	BuffersSent     uint64 // frames accepted by peer send queues
	SendErrors      uint64
	BuffersReceived uint64
	BuffersMixed    uint64
	ShapeMismatches uint64
	DecodeErrors    uint64
}

// Node is a running relay instance
type Node struct {
	config Config
	log    Logger

	// Role negotiation; written only inside New
	mu         sync.Mutex
	role       Role
	upstreamID string
	listener   Listener
	upstream   Peer

	peers    *Registry
	outgoing *Queue
	incoming *Queue

	// Owned by the StreamAudio caller
	mixScratch []audio.Buffer

	// Owned by Tick
	tickMu      sync.Mutex
	sendScratch []audio.Buffer

	state    atomic.Int32
	err      error
	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup

	buffersSent     atomic.Uint64
	sendErrors      atomic.Uint64
	buffersReceived atomic.Uint64
	buffersMixed    atomic.Uint64
	shapeMismatches atomic.Uint64
	decodeErrors    atomic.Uint64
}

// CreateStreamer negotiates a node on port with default settings
func CreateStreamer(port int) (*Node, error) {
	return New(Config{Port: port})
}

// New negotiates the node's role and starts broadcasting.
// A bind conflict makes the node a client; any other transport failure is returned.
func New(config Config) (*Node, error) {
	n := newNode(config)

	if err := n.negotiate(); err != nil {
		return nil, err
	}

	n.start()
	return n, nil
}

func newNode(config Config) *Node {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.DialHost == "" {
		config.DialHost = DefaultDialHost
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	if config.Transport == nil {
		config.Transport = &webSocketTransport{transport.NewWebSocket(transport.Config{
			Path:  protocol.Path,
			Debug: config.Debug,
		})}
	}

	return &Node{
		config:   config,
		log:      config.Logger,
		peers:    NewRegistry(),
		outgoing: NewQueue(),
		incoming: NewQueue(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// negotiate binds as server or falls back to one client connection
func (n *Node) negotiate() error {
	handler := &peerHandler{node: n}
	port := strconv.Itoa(n.config.Port)

	n.setRole(RoleServer)
	n.log.Printf("Attempting to own port %s", port)

	ln, err := n.config.Transport.Listen(net.JoinHostPort(n.config.BindHost, port), handler)
	if err == nil {
		n.mu.Lock()
		n.listener = ln
		n.mu.Unlock()
		n.log.Printf("Acting as server on %s", ln.Addr())
		return nil
	}

	if !transport.IsBindConflict(err) {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	n.log.Printf("Port %s is owned by another node (%v), acting as client", port, err)
	n.setRole(RoleClient)

	addr := net.JoinHostPort(n.config.DialHost, port)
	ctx, cancel := context.WithTimeout(context.Background(), n.config.DialTimeout)
	defer cancel()

	conn, err := n.config.Transport.Dial(ctx, addr, handler)
	if err != nil {
		return fmt.Errorf("%w: connect to %s: %w", ErrTransport, addr, err)
	}

	n.mu.Lock()
	n.upstream = conn
	n.mu.Unlock()
	n.log.Printf("Connected to server at %s", addr)
	return nil
}

func (n *Node) setRole(r Role) {
	n.mu.Lock()
	n.role = r
	n.mu.Unlock()
}

func (n *Node) start() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.broadcastLoop()
	}()
}

// StreamAudio is the per-cycle audio entry point. It averages every buffer
// received since the last call into buf (in arrival order, one fold per
// buffer), then queues buf by reference for broadcast. It never blocks on
// the network. The caller hands buf over: it may be read after the call but
// must not be written again; pass a fresh buffer next cycle.
//
// Remote buffers whose shape is not numChannels × numSamples are dropped.
func (n *Node) StreamAudio(buf audio.Buffer, numSamples, numChannels int) {
	if State(n.state.Load()) != StateRunning {
		return
	}

	remotes := n.incoming.Drain(n.mixScratch)
	if len(remotes) > 0 {
		localOK := fits(buf, numChannels, numSamples)
		for _, remote := range remotes {
			if !localOK || !remote.HasShape(numChannels, numSamples) {
				n.shapeMismatches.Add(1)
				if n.config.Debug {
					n.log.Printf("Dropping remote buffer: %v (got %dx%d, want %dx%d)", ErrShapeMismatch,
						remote.Channels(), remote.Samples(), numChannels, numSamples)
				}
				continue
			}
			audio.Fold(buf, remote, numChannels, numSamples)
			n.buffersMixed.Add(1)
		}
	}
	n.mixScratch = recycle(remotes)

	// Queued after mixing so the broadcaster never reads buf while it is written
	n.outgoing.Push(buf)
}

// fits reports whether buf holds at least channels × samples
func fits(buf audio.Buffer, channels, samples int) bool {
	if len(buf) < channels {
		return false
	}
	for ch := 0; ch < channels; ch++ {
		if len(buf[ch]) < samples {
			return false
		}
	}
	return true
}

// Role returns the negotiated role
func (n *Node) Role() Role {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.role
}

// Port returns the bound port for a server, the configured port otherwise
func (n *Node) Port() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.listener != nil {
		if addr, ok := n.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return n.config.Port
}

// PeerIDs returns connected peer ids in arrival order
func (n *Node) PeerIDs() []string {
	return n.peers.IDs()
}

// State returns the lifecycle state
func (n *Node) State() State {
	return State(n.state.Load())
}

// Done is closed when the node stops or loses its server
func (n *Node) Done() <-chan struct{} {
	return n.done
}

// Err returns ErrServerLost after the server went away, nil otherwise
func (n *Node) Err() error {
	select {
	case <-n.done:
		return n.err
	default:
		return nil
	}
}

// Stats returns a snapshot of node counters
func (n *Node) Stats() Stats {
	return Stats{
		Peers:           n.peers.Len(),
		BuffersSent:     n.buffersSent.Load(),
		SendErrors:      n.sendErrors.Load(),
		BuffersReceived: n.buffersReceived.Load(),
		BuffersMixed:    n.buffersMixed.Load(),
		ShapeMismatches: n.shapeMismatches.Load(),
		DecodeErrors:    n.decodeErrors.Load(),
	}
}

// Stop closes every connection and stops broadcasting
func (n *Node) Stop() {
	n.shutdown(StateStopped, nil)
	n.wg.Wait()
}

// shutdown moves the node to a terminal state once
func (n *Node) shutdown(state State, err error) {
	n.stopOnce.Do(func() {
		n.state.Store(int32(state))
		n.err = err
		close(n.stopChan)

		n.mu.Lock()
		listener, upstream := n.listener, n.upstream
		n.mu.Unlock()

		if listener != nil {
			if closeErr := listener.Close(); closeErr != nil {
				n.log.Printf("Error closing listener: %v", closeErr)
			}
		}
		if upstream != nil {
			upstream.Close()
		}

		if err != nil {
			n.log.Printf("Relay node %s: %v", state, err)
		} else {
			n.log.Printf("Relay node %s", state)
		}
		close(n.done)
	})
}

// peerHandler wires transport events into the node
type peerHandler struct {
	node *Node
}

func (h *peerHandler) Connected(c Peer) {
	n := h.node

	n.mu.Lock()
	if n.role == RoleClient {
		n.upstreamID = c.ID()
	}
	n.mu.Unlock()

	n.peers.Add(c)
	n.log.Printf("Peer connected: %s (%s), %d peers", c.ID(), c.RemoteAddr(), n.peers.Len())
}

func (h *peerHandler) Received(c Peer, data []byte) {
	n := h.node
	if State(n.state.Load()) != StateRunning {
		return
	}

	env, err := protocol.Decode(data)
	if err != nil {
		n.decodeErrors.Add(1)
		n.log.Printf("Dropping frame from %s: %v", c.ID(), err)
		return
	}

	n.buffersReceived.Add(1)
	n.incoming.Push(env.Buffer)
}

func (h *peerHandler) Disconnected(c Peer, err error) {
	n := h.node

	if n.peers.Remove(c.ID()) {
		n.log.Printf("Peer disconnected: %s, %d peers", c.ID(), n.peers.Len())
	}

	n.mu.Lock()
	lost := n.role == RoleClient && c.ID() == n.upstreamID
	n.mu.Unlock()

	if lost {
		n.shutdown(StateServerLost, fmt.Errorf("%w: %v", ErrServerLost, err))
	}
}

// webSocketTransport narrows transport.WebSocket to the Transport interface
type webSocketTransport struct {
	ws *transport.WebSocket
}

func (t *webSocketTransport) Listen(addr string, h ConnHandler) (Listener, error) {
	return t.ws.Listen(addr, h)
}

func (t *webSocketTransport) Dial(ctx context.Context, addr string, h ConnHandler) (Peer, error) {
	return t.ws.Dial(ctx, addr, h)
}
