package thaplmagic

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Frame size constants for MsgpackPublisher.
const (
	// MaxFrameSize is the maximum frame size (16 MiB), including length prefix.
	MaxFrameSize = 16 * 1024 * 1024
	// LengthPrefixSize is the size of the big-endian length prefix in bytes.
	LengthPrefixSize = 4
	// MaxPayloadSize is the maximum encoded payload size.
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
)

// ErrFrameTooLarge is returned when an encoded payload exceeds MaxPayloadSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// msgpackDisplayData is the frame body. Image bytes travel as msgpack bin.
type msgpackDisplayData struct {
	Source   string            `msgpack:"source"`
	Data     map[string][]byte `msgpack:"data"`
	Metadata map[string]any    `msgpack:"metadata,omitempty"`
}

// MsgpackPublisher writes length-prefixed msgpack frames, for hosts that
// read display data over a pipe.
type MsgpackPublisher struct {
	mu sync.Mutex
	w  io.Writer
}

// NewMsgpackPublisher creates a publisher writing frames to w.
func NewMsgpackPublisher(w io.Writer) *MsgpackPublisher {
	return &MsgpackPublisher{w: w}
}

// Publish writes one frame. Safe for concurrent use.
func (p *MsgpackPublisher) Publish(_ context.Context, payload DisplayPayload) error {
	body, err := msgpack.Marshal(msgpackDisplayData(payload))
	if err != nil {
		return fmt.Errorf("encoding display data: %w", err)
	}
	if len(body) > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, len(body), MaxPayloadSize)
	}

	frame := make([]byte, LengthPrefixSize+len(body))
	binary.BigEndian.PutUint32(frame[:LengthPrefixSize], uint32(len(body))) // #nosec G115 -- bounded by MaxPayloadSize
	copy(frame[LengthPrefixSize:], body)

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.w.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// ReadFrame reads one frame written by MsgpackPublisher.
// Returns io.EOF when r is exhausted at a frame boundary.
func ReadFrame(r io.Reader) (*DisplayPayload, error) {
	var prefix [LengthPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame length: %w", err)
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, size, MaxPayloadSize)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("reading frame body: %w", err)
	}

	var msg msgpackDisplayData
	if err := msgpack.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	payload := DisplayPayload(msg)
	return &payload, nil
}
