package locator

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const HeaderSize = 3

// Message headers broadcast by the locator firmware.
var (
	PrelaunchHeader = []byte("PLM")
	TelemetryHeader = []byte("TLM")
)

// MessageType identifies a locator message by its header.
type MessageType int

const (
	MessageUnknown MessageType = iota
	MessagePrelaunch
	MessageTelemetry
)

func (t MessageType) String() string {
	switch t {
	case MessagePrelaunch:
		return "prelaunch"
	case MessageTelemetry:
		return "telemetry"
	default:
		return "unknown"
	}
}

// Classify returns the message type for msg. Foreign traffic on the channel
// yields MessageUnknown with a nil error.
func Classify(msg []byte) (MessageType, error) {
	h, err := field(msg, 0, HeaderSize)
	if err != nil {
		return MessageUnknown, err
	}
	switch {
	case bytes.Equal(h, PrelaunchHeader):
		return MessagePrelaunch, nil
	case bytes.Equal(h, TelemetryHeader):
		return MessageTelemetry, nil
	default:
		return MessageUnknown, nil
	}
}

// Bridge link framing: one marker byte, a little-endian uint16 payload
// length, then the locator message.
const (
	FrameMarker     = 0x3E
	FrameHeaderSize = 3
	MaxFrameSize    = 512
)

// EncodeFrame wraps a locator message for the bridge link.
func EncodeFrame(msg []byte) []byte {
	buf := make([]byte, FrameHeaderSize+len(msg))
	buf[0] = FrameMarker
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(msg))) //nolint:gosec // callers keep messages under MaxFrameSize
	copy(buf[FrameHeaderSize:], msg)
	return buf
}

// DecodeFrameHeader validates a frame header and returns the payload length.
func DecodeFrameHeader(head []byte) (int, error) {
	if len(head) < FrameHeaderSize {
		return 0, fmt.Errorf("frame header too short: got %d bytes, need %d", len(head), FrameHeaderSize)
	}
	if head[0] != FrameMarker {
		return 0, fmt.Errorf("%w: 0x%02x", ErrBadFrameMarker, head[0])
	}
	size := int(binary.LittleEndian.Uint16(head[1:3]))
	if size > MaxFrameSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	return size, nil
}
