// ABOUTME: Entry point for the Resonate relay node
// ABOUTME: Parses CLI flags, negotiates the port and drives local audio
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/resonate-relay/internal/discovery"
	"github.com/Resonate-Protocol/resonate-relay/internal/host"
	"github.com/Resonate-Protocol/resonate-relay/internal/ui"
	"github.com/Resonate-Protocol/resonate-relay/internal/version"
	"github.com/Resonate-Protocol/resonate-relay/pkg/audio/output"
	"github.com/Resonate-Protocol/resonate-relay/pkg/audio/source"
	"github.com/Resonate-Protocol/resonate-relay/pkg/protocol"
	"github.com/Resonate-Protocol/resonate-relay/pkg/relay"
	"github.com/spf13/pflag"
)

var (
	port       = pflag.IntP("port", "p", relay.DefaultPort, "Relay port; the first node to bind it becomes the server")
	channels   = pflag.Int("channels", host.DefaultChannels, "Channels per buffer")
	samples    = pflag.Int("samples", host.DefaultSamples, "Samples per channel per buffer")
	sampleRate = pflag.Int("sample-rate", host.DefaultSampleRate, "Sample rate in Hz")
	audioFile  = pflag.String("audio", "", "Audio file to relay (MP3, FLAC, WAV). If not specified, plays a test tone")
	toneHz     = pflag.Float64("tone", source.DefaultToneHz, "Test tone frequency in Hz")
	record     = pflag.String("record", "", "Record the mixed stream to this WAV file")
	noPlayback = pflag.Bool("no-playback", false, "Do not play the mixed stream locally")
	mdns       = pflag.Bool("mdns", false, "Advertise the relay via mDNS when acting as server")
	name       = pflag.String("name", "", "Node friendly name (default: hostname-resonate-relay)")
	logFile    = pflag.String("log-file", "resonate-relay.log", "Log file path")
	debug      = pflag.Bool("debug", false, "Enable debug logging")
	noTUI      = pflag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	pflag.Parse()

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	nodeName := *name
	if nodeName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		nodeName = fmt.Sprintf("%s-resonate-relay", hostname)
	}

	log.Printf("Starting %s: %s", version.String(), nodeName)
	if *debug {
		log.Printf("Debug logging enabled")
	}

	src, err := source.New(*audioFile, *toneHz, *sampleRate, *channels)
	if err != nil {
		log.Fatalf("Failed to open audio source: %v", err)
	}
	defer src.Close()

	title, artist, _ := src.Metadata()
	audioTitle := title
	if artist != "" {
		audioTitle = artist + " - " + title
	}
	log.Printf("Audio source: %s (%d Hz, %d ch)", audioTitle, src.SampleRate(), src.Channels())

	outputs, player := openOutputs()
	defer func() {
		if err := outputs.Close(); err != nil {
			log.Printf("Error closing outputs: %v", err)
		}
	}()

	node, err := relay.New(relay.Config{
		Port:   *port,
		Logger: log.Default(),
		Debug:  *debug,
	})
	if err != nil {
		log.Fatalf("Failed to start relay node: %v", err)
	}

	var disc *discovery.Manager
	if *mdns && node.Role() == relay.RoleServer {
		disc = discovery.NewManager(discovery.Config{
			ServiceName: nodeName,
			Port:        node.Port(),
			Path:        protocol.Path,
			Channels:    *channels,
			Samples:     *samples,
		})
		if err := disc.Advertise(); err != nil {
			log.Printf("mDNS advertisement failed: %v", err)
		}
	}

	driver := host.New(host.Config{
		SampleRate: *sampleRate,
		Channels:   *channels,
		Samples:    *samples,
		Debug:      *debug,
	}, node, source.NewReader(src, *sampleRate, *channels), outputs)
	go driver.Start()

	var tui *ui.TUI
	var quit <-chan struct{}
	if useTUI {
		tui = ui.New(nodeName)
		quit = tui.Controls().Quit
		go func() {
			if err := tui.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
		go handleVolumeControl(player, tui.Controls(), node.Done())
		go statusLoop(tui, node, driver, nodeName, audioTitle)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Printf("Received quit signal from TUI")
	case sig := <-sigChan:
		log.Printf("Received %v signal, shutting down gracefully...", sig)
	case <-node.Done():
		log.Printf("Relay node ended: %v", node.Err())
	}

	driver.Stop()
	node.Stop()
	if disc != nil {
		disc.Stop()
	}
	if tui != nil {
		tui.Stop()
	}

	stats := node.Stats()
	log.Printf("Relay stopped: sent=%d received=%d mixed=%d shape_drops=%d decode_errors=%d send_errors=%d cycles=%d",
		stats.BuffersSent, stats.BuffersReceived, stats.BuffersMixed,
		stats.ShapeMismatches, stats.DecodeErrors, stats.SendErrors, driver.Cycles())

	if node.Err() != nil {
		// os.Exit skips deferred cleanup
		outputs.Close()
		src.Close()
		f.Close()
		os.Exit(1)
	}
}

// openOutputs opens playback and recording; a failed playback device is skipped
func openOutputs() (output.Multi, *output.Oto) {
	var outputs output.Multi
	var player *output.Oto

	if !*noPlayback {
		player = output.NewOto()
		if err := player.Open(*sampleRate, *channels); err != nil {
			log.Printf("Playback disabled: %v", err)
			player = nil
		} else {
			outputs = append(outputs, player)
		}
	}

	if *record != "" {
		rec := output.NewWAVRecorder(*record)
		if err := rec.Open(*sampleRate, *channels); err != nil {
			log.Fatalf("Failed to open recording: %v", err)
		}
		log.Printf("Recording mixed stream to %s", *record)
		outputs = append(outputs, rec)
	}

	return outputs, player
}

// handleVolumeControl applies TUI volume changes to local playback
func handleVolumeControl(player *output.Oto, controls *ui.Controls, done <-chan struct{}) {
	for {
		select {
		case vol := <-controls.Volume:
			if player == nil {
				continue
			}
			log.Printf("Volume change: %d%%, muted=%v", vol.Volume, vol.Muted)
			player.SetVolume(vol.Volume)
			player.SetMuted(vol.Muted)
		case <-done:
			return
		}
	}
}

// statusLoop periodically pushes node state to the TUI
func statusLoop(tui *ui.TUI, node *relay.Node, driver *host.Driver, nodeName, audioTitle string) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		stats := node.Stats()
		tui.Update(ui.Status{
			Name:            nodeName,
			Role:            node.Role().String(),
			State:           node.State().String(),
			Port:            node.Port(),
			Peers:           node.PeerIDs(),
			AudioTitle:      audioTitle,
			SampleRate:      *sampleRate,
			Channels:        *channels,
			Samples:         *samples,
			Sent:            stats.BuffersSent,
			Received:        stats.BuffersReceived,
			Mixed:           stats.BuffersMixed,
			ShapeMismatches: stats.ShapeMismatches,
			DecodeErrors:    stats.DecodeErrors,
			SendErrors:      stats.SendErrors,
			Cycles:          driver.Cycles(),
		})

		select {
		case <-ticker.C:
		case <-node.Done():
			return
		}
	}
}
