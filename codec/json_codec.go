package codec

import (
	"encoding/json"
	"fmt"

	"mt5bridge/contract"
	"mt5bridge/message"
)

// JSONCodec serializes envelopes as JSON. Human-readable and easy to debug;
// larger and slower than the binary codec, so it is mainly a diagnostic
// option behind the config debug toggle.
type JSONCodec struct{}

func (c *JSONCodec) Encode(env *message.Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func (c *JSONCodec) Decode(data []byte, env *message.Envelope) error {
	if err := json.Unmarshal(data, env); err != nil {
		return fmt.Errorf("%w: envelope: %v", contract.ErrMalformedPayload, err)
	}
	return nil
}

func (c *JSONCodec) Type() Type {
	return TypeJSON
}
