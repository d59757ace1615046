// ABOUTME: Peer audio relay package
// ABOUTME: Server-or-client negotiation on one port plus buffer exchange and mixing
// Package relay implements a node that shares a logical audio channel with
// other nodes on the same port.
//
// On construction a node tries to own the port as the server. If another
// node already owns it, the node connects to that server as a client
// instead. The role never changes afterwards.
//
// Each audio cycle the host calls StreamAudio: the local buffer is averaged
// with every buffer received from peers since the previous cycle, then queued
// for broadcast to all peers.
//
// Example:
//
//	node, err := relay.CreateStreamer(8927)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Stop()
//
//	buf := audio.NewBuffer(2, 1024)
//	node.StreamAudio(buf, 1024, 2)
package relay
