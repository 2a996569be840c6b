package codec

import (
	"encoding/binary"
	"fmt"

	"mt5bridge/contract"
	"mt5bridge/message"
)

// BinaryCodec serializes envelopes with a length-prefixed field layout:
//
//	opLen uint16 | op | kind byte | errCode int32 | errLen uint16 | errMsg | payloadLen uint32 | payload
//
// All integers are big-endian. Payload length is 32-bit because bulk
// responses (symbol enumerations, tick arrays) routinely exceed 64 KiB.
type BinaryCodec struct{}

func (c *BinaryCodec) Encode(env *message.Envelope) ([]byte, error) {
	total := 2 + len(env.Op) + 1 + 4 + 2 + len(env.ErrMsg) + 4 + len(env.Payload)
	buf := make([]byte, total)

	offset := 0
	binary.BigEndian.PutUint16(buf[offset:], uint16(len(env.Op)))
	offset += 2
	copy(buf[offset:], env.Op)
	offset += len(env.Op)

	buf[offset] = byte(env.Kind)
	offset++

	binary.BigEndian.PutUint32(buf[offset:], uint32(env.ErrCode))
	offset += 4

	binary.BigEndian.PutUint16(buf[offset:], uint16(len(env.ErrMsg)))
	offset += 2
	copy(buf[offset:], env.ErrMsg)
	offset += len(env.ErrMsg)

	binary.BigEndian.PutUint32(buf[offset:], uint32(len(env.Payload)))
	offset += 4
	copy(buf[offset:], env.Payload)

	return buf, nil
}

func (c *BinaryCodec) Decode(data []byte, env *message.Envelope) error {
	offset := 0

	opLen, err := readLen16(data, &offset)
	if err != nil {
		return err
	}
	env.Op = string(data[offset : offset+opLen])
	offset += opLen

	if offset+1+4 > len(data) {
		return truncated(offset)
	}
	env.Kind = message.Kind(data[offset])
	offset++
	env.ErrCode = int32(binary.BigEndian.Uint32(data[offset:]))
	offset += 4

	errLen, err := readLen16(data, &offset)
	if err != nil {
		return err
	}
	env.ErrMsg = string(data[offset : offset+errLen])
	offset += errLen

	if offset+4 > len(data) {
		return truncated(offset)
	}
	payloadLen := int(binary.BigEndian.Uint32(data[offset:]))
	offset += 4
	if offset+payloadLen != len(data) {
		return fmt.Errorf("%w: envelope payload length %d does not match remaining %d bytes",
			contract.ErrMalformedPayload, payloadLen, len(data)-offset)
	}
	env.Payload = make([]byte, payloadLen)
	copy(env.Payload, data[offset:])

	return nil
}

func (c *BinaryCodec) Type() Type {
	return TypeBinary
}

// readLen16 reads a uint16 length prefix and checks the prefixed bytes are
// actually present.
func readLen16(data []byte, offset *int) (int, error) {
	if *offset+2 > len(data) {
		return 0, truncated(*offset)
	}
	n := int(binary.BigEndian.Uint16(data[*offset:]))
	*offset += 2
	if *offset+n > len(data) {
		return 0, truncated(*offset)
	}
	return n, nil
}

func truncated(offset int) error {
	return fmt.Errorf("%w: envelope truncated at byte %d", contract.ErrMalformedPayload, offset)
}
