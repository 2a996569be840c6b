// Package protocol implements the binary frame protocol of the bridge.
//
// TCP is a byte stream, so frames carry a fixed-size 14-byte header followed
// by a variable-length body. The receiver reads the header first to learn
// the body length, then reads exactly that many bytes.
//
// Frame format:
//
//	0      3  4  5  6         10        14
//	┌──────┬──┬──┬──┬─────────┬─────────┬───────────────┐
//	│magic │v │ct│mt│  corr   │ bodyLen │    body ...    │
//	│ m5b  │01│  │  │ uint32  │ uint32  │ bodyLen bytes  │
//	└──────┴──┴──┴──┴─────────┴─────────┴───────────────┘
//
// corr is the correlation id matching a response to its request. The uint32
// body length keeps bulk payloads (tick arrays, 9000+ symbol enumerations)
// unambiguous without chunk negotiation.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"mt5bridge/contract"
)

// Magic number bytes: "m5b". Used to quickly reject non-protocol
// connections (e.g. an HTTP client hitting the bridge port).
const (
	MagicByte1 byte = 0x6d // 'm'
	MagicByte2 byte = 0x35 // '5'
	MagicByte3 byte = 0x62 // 'b'
	Version    byte = 0x01
	HeaderSize int  = 14 // 3 (magic) + 1 (version) + 1 (codec) + 1 (msgType) + 4 (corr) + 4 (bodyLen)
)

// MsgType distinguishes request, response, and heartbeat frames.
type MsgType byte

const (
	MsgTypeRequest   MsgType = 0
	MsgTypeResponse  MsgType = 1
	MsgTypeHeartbeat MsgType = 2 // keepalive probe, no body
)

// Codec type constants, mirrored from the codec package to avoid a
// circular import.
const (
	CodecTypeJSON   byte = 0
	CodecTypeBinary byte = 1
)

// Header is the fixed 14-byte frame header.
type Header struct {
	CodecType byte    // envelope serialization: 0=JSON, 1=binary
	MsgType   MsgType // request, response, or heartbeat
	Corr      uint32  // correlation id matching request to response
	BodyLen   uint32  // body length in bytes
}

// Encode writes a complete frame (header + body) to w. Callers sharing a
// writer across goroutines must serialize Encode calls, otherwise frames
// interleave and corrupt the stream.
func Encode(w io.Writer, h *Header, body []byte) error {
	buf := make([]byte, HeaderSize)
	buf[0], buf[1], buf[2] = MagicByte1, MagicByte2, MagicByte3
	buf[3] = Version
	buf[4] = h.CodecType
	buf[5] = byte(h.MsgType)
	binary.BigEndian.PutUint32(buf[6:10], h.Corr)
	binary.BigEndian.PutUint32(buf[10:14], h.BodyLen)

	if _, err := w.Write(buf); err != nil {
		return err
	}
	// Body may be nil for heartbeat frames.
	if _, err := w.Write(body); err != nil {
		return err
	}
	return nil
}

// Decode reads a complete frame from r, validating magic, version, codec
// type, and message type. io.ReadFull guarantees exactly N bytes per step,
// so partial reads never split a frame.
func Decode(r io.Reader) (*Header, []byte, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, nil, err
	}

	if headerBuf[0] != MagicByte1 || headerBuf[1] != MagicByte2 || headerBuf[2] != MagicByte3 {
		return nil, nil, fmt.Errorf("%w: invalid magic number %x", contract.ErrMalformedPayload, headerBuf[0:3])
	}
	if headerBuf[3] != Version {
		return nil, nil, fmt.Errorf("%w: unsupported protocol version %d", contract.ErrMalformedPayload, headerBuf[3])
	}
	if headerBuf[4] != CodecTypeJSON && headerBuf[4] != CodecTypeBinary {
		return nil, nil, fmt.Errorf("%w: unsupported codec type %d", contract.ErrMalformedPayload, headerBuf[4])
	}
	msgType := headerBuf[5]
	if msgType > byte(MsgTypeHeartbeat) {
		return nil, nil, fmt.Errorf("%w: unsupported message type %d", contract.ErrMalformedPayload, msgType)
	}

	corr := binary.BigEndian.Uint32(headerBuf[6:10])
	bodyLen := binary.BigEndian.Uint32(headerBuf[10:14])

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, err
	}

	return &Header{
		CodecType: headerBuf[4],
		MsgType:   MsgType(msgType),
		Corr:      corr,
		BodyLen:   bodyLen,
	}, body, nil
}
