// ABOUTME: Loopback probe for the relay
// ABOUTME: Starts two nodes on one port and checks that audio is mixed across them
package main

import (
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/Resonate-Protocol/resonate-relay/internal/version"
	"github.com/Resonate-Protocol/resonate-relay/pkg/audio"
	"github.com/Resonate-Protocol/resonate-relay/pkg/relay"
	"github.com/spf13/pflag"
)

var (
	port     = pflag.IntP("port", "p", 18927, "Port the two nodes negotiate over")
	channels = pflag.Int("channels", 2, "Channels per buffer")
	samples  = pflag.Int("samples", 256, "Samples per channel per buffer")
	remote   = pflag.Float32("remote", 0.8, "Sample value sent by the client node")
	local    = pflag.Float32("local", 0.2, "Sample value produced by the server node")
	timeout  = pflag.Duration("timeout", 5*time.Second, "How long to wait for each step")
	verbose  = pflag.BoolP("verbose", "v", false, "Log node events")
)

func main() {
	pflag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	fmt.Printf("=== %s loopback probe ===\n", version.String())
	fmt.Printf("Port %d, buffers of %d ch x %d samples\n\n", *port, *channels, *samples)

	if err := run(); err != nil {
		fmt.Printf("FAIL: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("PASS")
}

func run() error {
	var logger relay.Logger = relay.DiscardLogger
	if *verbose {
		logger = log.Default()
	}

	config := relay.Config{
		Port:     *port,
		BindHost: "127.0.0.1",
		DialHost: "127.0.0.1",
		Logger:   logger,
	}

	server, err := relay.New(config)
	if err != nil {
		return fmt.Errorf("first node: %w", err)
	}
	defer server.Stop()
	fmt.Printf("First node:  %s\n", server.Role())

	if server.Role() != relay.RoleServer {
		return fmt.Errorf("port %d is already owned by another process", *port)
	}

	client, err := relay.New(config)
	if err != nil {
		return fmt.Errorf("second node: %w", err)
	}
	defer client.Stop()
	fmt.Printf("Second node: %s\n", client.Role())

	if err := waitFor("client registration", func() bool {
		return len(server.PeerIDs()) == 1
	}); err != nil {
		return err
	}

	client.StreamAudio(filled(*remote), *samples, *channels)

	if err := waitFor("buffer delivery", func() bool {
		return server.Stats().BuffersReceived == 1
	}); err != nil {
		return err
	}

	buf := filled(*local)
	server.StreamAudio(buf, *samples, *channels)

	want := (*local + *remote) * 0.5
	got := buf[0][0]
	fmt.Printf("\nMixed sample: (%.3f + %.3f) * 0.5 = %.4f (expected %.4f)\n", *local, *remote, got, want)

	if math.Abs(float64(got-want)) > 1e-6 {
		return fmt.Errorf("mixed sample %.6f, expected %.6f", got, want)
	}

	stats := server.Stats()
	fmt.Printf("Server stats: received=%d mixed=%d shape_drops=%d\n",
		stats.BuffersReceived, stats.BuffersMixed, stats.ShapeMismatches)
	return nil
}

func filled(v float32) audio.Buffer {
	buf := audio.NewBuffer(*channels, *samples)
	for _, row := range buf {
		for i := range row {
			row[i] = v
		}
	}
	return buf
}

func waitFor(step string, cond func() bool) error {
	deadline := time.Now().Add(*timeout)
	for !cond() {
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %s", step)
		}
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Printf("  ✓ %s\n", step)
	return nil
}
