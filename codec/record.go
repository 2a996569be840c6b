package codec

import (
	"encoding/json"
	"fmt"

	"mt5bridge/contract"
)

// EncodeRecord serializes a structured value (record, list of records, or
// bare scalar) as a JSON document. A nil value encodes as an empty payload.
func EncodeRecord(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// DecodeRecord parses a JSON document payload into v. A syntactically
// invalid document is a protocol violation.
func DecodeRecord(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: record: %v", contract.ErrMalformedPayload, err)
	}
	return nil
}
