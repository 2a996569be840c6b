// Package message defines the envelope exchanged between the bridge client
// and server.
//
// Envelope is serialized by the codec layer and wrapped in a protocol frame
// for transmission over TCP. The correlation id that matches a response to
// its request lives in the frame header, not in the envelope body.
package message

// Kind tags the encoding of an envelope payload.
type Kind byte

const (
	KindRecord Kind = 0 // JSON document: scalars, records, lists of records
	KindArray  Kind = 1 // typed numeric array with shape metadata
)

// Envelope carries the data for a single request or response.
//
//   - On request:  Op is set, Payload contains the encoded parameters.
//   - On response: Payload contains the encoded result, or ErrCode/ErrMsg
//     describe the failure. A response never carries both.
type Envelope struct {
	Op      string `json:"op"`                 // Operation name, e.g. "account_info"
	Kind    Kind   `json:"kind"`               // Payload encoding
	ErrCode int32  `json:"err_code,omitempty"` // Error descriptor code, 0 on success
	ErrMsg  string `json:"err_msg,omitempty"`  // Error descriptor message, empty on success
	Payload []byte `json:"payload,omitempty"`  // Encoded parameters (request) or result (response)
}

// IsError reports whether the envelope carries an error descriptor instead
// of a success payload.
func (e *Envelope) IsError() bool {
	return e.ErrCode != 0 || e.ErrMsg != ""
}
