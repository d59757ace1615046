// ABOUTME: Buffer envelope exchanged between relay peers
// ABOUTME: CBOR encoding of channel-major float sample arrays
package protocol

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/resonate-relay/pkg/audio"
	"github.com/fxamacker/cbor/v2"
)

const (
	// Path is the WebSocket endpoint relay nodes serve and dial
	Path = "/relay"

	// MaxSamplesPerChannel bounds decoded channel rows
	MaxSamplesPerChannel = 1 << 16

	// MaxChannels bounds decoded channel count
	MaxChannels = 64
)

// ErrEmptyEnvelope is returned when a frame decodes to an envelope without a buffer
var ErrEmptyEnvelope = errors.New("envelope has no buffer")

// Envelope wraps one transmitted buffer
type Envelope struct {
	Buffer audio.Buffer `cbor:"buffer" json:"buffer"`
}

// encMode writes deterministic CBOR; floats shrink to the shortest lossless width.
var encMode cbor.EncMode

// decMode rejects oversized arrays before allocating them.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("protocol: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		MaxArrayElements: MaxSamplesPerChannel,
	}.DecMode()
	if err != nil {
		panic("protocol: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encode wraps buf in an envelope and encodes it
func Encode(buf audio.Buffer) ([]byte, error) {
	data, err := encMode.Marshal(Envelope{Buffer: buf})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}

// Decode parses one frame into an envelope
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Buffer == nil {
		return Envelope{}, ErrEmptyEnvelope
	}
	if len(env.Buffer) > MaxChannels {
		return Envelope{}, fmt.Errorf("decode envelope: %d channels exceeds limit %d", len(env.Buffer), MaxChannels)
	}
	return env, nil
}
