// Package codec serializes envelopes and payloads for the wire.
//
// Two layers live here. Envelope codecs (JSON or binary) turn a
// message.Envelope into frame body bytes. Payload helpers encode the value
// inside an envelope: structured records travel as a JSON document, typed
// numeric arrays travel as element type + shape + raw bytes so bulk market
// data never loses float precision to a textual round trip.
package codec

import "mt5bridge/message"

// Type selects the envelope serialization format.
type Type byte

const (
	TypeJSON   Type = 0
	TypeBinary Type = 1
)

// Codec encodes and decodes envelopes. Round-trip lossless for every
// envelope the contract can produce.
type Codec interface {
	Encode(env *message.Envelope) ([]byte, error)
	Decode(data []byte, env *message.Envelope) error
	Type() Type
}

// Get returns the codec for a wire type byte. Unknown types fall back to
// binary; the protocol layer rejects invalid codec bytes before this runs.
func Get(t Type) Codec {
	if t == TypeJSON {
		return &JSONCodec{}
	}
	return &BinaryCodec{}
}
