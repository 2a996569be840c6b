package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mt5bridge/message"
)

func TestErrorFromEnvelope(t *testing.T) {
	assert.NoError(t, ErrorFromEnvelope("account_info", &message.Envelope{Op: "account_info"}))

	err := ErrorFromEnvelope("nope", &message.Envelope{ErrCode: CodeUnknownOperation, ErrMsg: "unknown operation: nope"})
	assert.ErrorIs(t, err, ErrUnknownOperation)

	err = ErrorFromEnvelope("login", &message.Envelope{ErrCode: CodeInvalidParams, ErrMsg: "unexpected end of JSON input"})
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestErrorFromEnvelopeRemote(t *testing.T) {
	env := &message.Envelope{ErrCode: RetcodeInvalidVolume, ErrMsg: "Invalid volume"}
	err := ErrorFromEnvelope("order_send", env)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "order_send", remote.Op)
	assert.Equal(t, RetcodeInvalidVolume, remote.Code)
	assert.Contains(t, remote.Error(), "Invalid volume")

	// Internal failures also surface as RemoteError, with the reserved code.
	err = ErrorFromEnvelope("version", &message.Envelope{ErrCode: CodeInternal, ErrMsg: "boom"})
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, CodeInternal, remote.Code)
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrConnection, ErrTimeout, ErrConnectionClosed,
		ErrCancelled, ErrMalformedPayload, ErrUnknownOperation,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, errors.Is(a, b))
			}
		}
	}
}
