package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mt5bridge/contract"
)

func makeSymbols(n int) []contract.SymbolInfo {
	out := make([]contract.SymbolInfo, n)
	for i := range out {
		out[i] = contract.SymbolInfo{Name: fmt.Sprintf("SYM%04d", i)}
	}
	return out
}

func TestChunkSymbols(t *testing.T) {
	cases := []struct {
		n          int
		wantChunks int
	}{
		{0, 0},
		{1, 1},
		{symbolChunkSize, 1},
		{symbolChunkSize + 1, 2},
		{9123, 19},
	}
	for _, tc := range cases {
		chunked := chunkSymbols(makeSymbols(tc.n))
		assert.Equal(t, tc.n, chunked.Total)
		require.Len(t, chunked.Chunks, tc.wantChunks)
		for i, chunk := range chunked.Chunks {
			if i < len(chunked.Chunks)-1 {
				assert.Len(t, chunk, symbolChunkSize)
			} else {
				assert.NotEmpty(t, chunk)
			}
		}
		assert.Len(t, chunked.Symbols(), tc.n)
	}
}

func TestChunkSymbolsPreservesOrder(t *testing.T) {
	symbols := makeSymbols(symbolChunkSize + 7)
	flat := chunkSymbols(symbols).Symbols()
	assert.Equal(t, symbols, flat)
}

func TestErrorEnvelope(t *testing.T) {
	env := errorEnvelope("order_send", &contract.RemoteError{Op: "order_send", Code: 10014, Message: "Invalid volume"})
	assert.Equal(t, int32(10014), env.ErrCode)
	assert.Equal(t, "Invalid volume", env.ErrMsg)

	env = errorEnvelope("login", fmt.Errorf("%w: bad json", contract.ErrMalformedPayload))
	assert.Equal(t, contract.CodeInvalidParams, env.ErrCode)

	env = errorEnvelope("version", errors.New("disk on fire"))
	assert.Equal(t, contract.CodeInternal, env.ErrCode)
	assert.Equal(t, "disk on fire", env.ErrMsg)
}

func TestBindTerminalCoversCatalog(t *testing.T) {
	handlers := bindTerminal(nil)
	for _, d := range contract.Catalog {
		_, ok := handlers[d.Name]
		assert.True(t, ok, "operation %s has no binding", d.Name)
	}
	assert.Len(t, handlers, len(contract.Catalog))
}
