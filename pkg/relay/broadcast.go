// ABOUTME: Broadcast scheduler for locally produced buffers
// ABOUTME: Drains the outgoing queue and fans each buffer out to every peer
package relay

import (
	"github.com/Resonate-Protocol/resonate-relay/pkg/protocol"
)

// broadcastLoop ticks whenever the outgoing queue signals
func (n *Node) broadcastLoop() {
	n.log.Printf("Broadcast started")

	for {
		select {
		case <-n.outgoing.Wake():
			n.Tick()
		case <-n.stopChan:
			n.log.Printf("Broadcast stopping")
			return
		}
	}
}

// Tick runs one broadcast: every queued buffer is encoded once and sent to
// every peer. A failed send is counted and skipped. Returns the number of
// send attempts.
func (n *Node) Tick() int {
	n.tickMu.Lock()
	defer n.tickMu.Unlock()

	bufs := n.outgoing.Drain(n.sendScratch)
	attempts := 0

	for _, buf := range bufs {
		data, err := protocol.Encode(buf)
		if err != nil {
			n.log.Printf("Error encoding buffer: %v", err)
			continue
		}

		n.peers.ForEach(func(p Peer) {
			attempts++
			if err := p.Send(data); err != nil {
				n.sendErrors.Add(1)
				if n.config.Debug {
					n.log.Printf("Error sending to %s: %v", p.ID(), err)
				}
				return
			}
			n.buffersSent.Add(1)
		})
	}

	n.sendScratch = recycle(bufs)
	return attempts
}
