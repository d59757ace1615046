// ABOUTME: WebSocket connection wrapper
// ABOUTME: Runs a reader and a writer goroutine and reports lifecycle events
package transport

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// wsConn is a single WebSocket peer connection
type wsConn struct {
	id        string
	ws        *websocket.Conn
	transport *WebSocket

	// Output channel for frames
	sendChan chan []byte

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

func newConn(t *WebSocket, ws *websocket.Conn) *wsConn {
	return &wsConn{
		id:        uuid.New().String(),
		ws:        ws,
		transport: t,
		sendChan:  make(chan []byte, t.config.SendQueue),
		done:      make(chan struct{}),
	}
}

func (c *wsConn) ID() string         { return c.id }
func (c *wsConn) RemoteAddr() string { return c.ws.RemoteAddr().String() }

// start reports Connected, then runs the writer and the reader
func (c *wsConn) start(h Handler) {
	h.Connected(c)

	go c.writeLoop()
	go c.readLoop(h)
}

// Send queues a frame without blocking
func (c *wsConn) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	select {
	case c.sendChan <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close shuts the connection down; safe to call more than once
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.sendChan)
		c.mu.Unlock()

		err = c.ws.Close()
	})
	return err
}

// readLoop delivers binary frames until the connection fails
func (c *wsConn) readLoop(h Handler) {
	var readErr error
	defer func() {
		c.Close()
		close(c.done)
		h.Disconnected(c, readErr)
	}()

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error from %s: %v", c.RemoteAddr(), err)
			}
			readErr = err
			return
		}

		if messageType != websocket.BinaryMessage {
			if c.transport.config.Debug {
				log.Printf("Ignoring non-binary frame (type %d) from %s", messageType, c.RemoteAddr())
			}
			continue
		}

		h.Received(c, data)
	}
}

// writeLoop sends queued frames and keepalive pings
func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(c.transport.config.PingInterval)
	defer ticker.Stop()

	writeDeadline := c.transport.config.WriteTimeout

	for {
		select {
		case data, ok := <-c.sendChan:
			if !ok {
				return
			}

			c.ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
				if c.transport.config.Debug {
					log.Printf("Write to %s failed: %v", c.RemoteAddr(), err)
				}
				c.Close()
				return
			}

		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				c.Close()
				return
			}
		}
	}
}
