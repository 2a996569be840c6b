package contract

import (
	"errors"
	"fmt"

	"mt5bridge/message"
)

// Sentinel errors for the bridge error taxonomy. Local conditions (timeout,
// closed session) never reach the peer; wire errors are decoded back into
// these sentinels or into a RemoteError.
var (
	// ErrConnection indicates transport establishment failure.
	ErrConnection = errors.New("mt5bridge: connection failed")
	// ErrTimeout indicates no response arrived within the caller's deadline.
	// Local only; it does not imply the peer failed.
	ErrTimeout = errors.New("mt5bridge: call timed out")
	// ErrConnectionClosed indicates the session was torn down while a call
	// was pending.
	ErrConnectionClosed = errors.New("mt5bridge: connection closed")
	// ErrCancelled indicates the caller abandoned an in-flight call. The
	// request on the wire is not retracted; a late response is discarded.
	ErrCancelled = errors.New("mt5bridge: call cancelled")
	// ErrMalformedPayload indicates a codec-level decode failure, i.e. a
	// protocol violation.
	ErrMalformedPayload = errors.New("mt5bridge: malformed payload")
	// ErrUnknownOperation indicates a contract mismatch between peers.
	// Fatal: operation catalogs are versioned together, never negotiated.
	ErrUnknownOperation = errors.New("mt5bridge: unknown operation")
)

// Bridge-level error descriptor codes carried in response envelopes.
// Negative codes are reserved for the bridge itself; positive codes are
// terminal retcodes passed through untouched.
const (
	CodeInternal         int32 = -1 // handler panic or unclassified failure
	CodeInvalidParams    int32 = -2 // request parameters failed to decode
	CodeUnknownOperation int32 = -3 // operation name not in the catalog
)

// RemoteError is a domain failure reported by the terminal capability,
// ferried through the response envelope's error descriptor.
type RemoteError struct {
	Op      string // operation that failed
	Code    int32  // terminal or bridge error code
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("mt5bridge: %s failed: [%d] %s", e.Op, e.Code, e.Message)
}

// ErrorFromEnvelope converts a response envelope's error descriptor into a
// typed error. Bridge-level codes map onto sentinels so callers can use
// errors.Is; everything else becomes a RemoteError.
func ErrorFromEnvelope(op string, env *message.Envelope) error {
	if !env.IsError() {
		return nil
	}
	switch env.ErrCode {
	case CodeUnknownOperation:
		return fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	case CodeInvalidParams:
		return fmt.Errorf("%w: %s: %s", ErrMalformedPayload, op, env.ErrMsg)
	}
	return &RemoteError{Op: op, Code: env.ErrCode, Message: env.ErrMsg}
}
