package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mt5bridge/contract"
)

func TestArrayRoundTrip(t *testing.T) {
	shapes := [][]int{
		{4},
		{2, 2},
		{2, 3, 2},
	}
	for _, shape := range shapes {
		n := 1
		for _, d := range shape {
			n *= d
		}
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(i) * 1.5
		}
		a, err := NewFloat64Array(shape, values)
		require.NoError(t, err)

		data, err := EncodeArray(a)
		require.NoError(t, err)

		got, err := DecodeArray(data)
		require.NoError(t, err)
		assert.Equal(t, shape, got.Shape)
		assert.Equal(t, ElemFloat64, got.Elem)

		out, err := got.Float64s()
		require.NoError(t, err)
		assert.Equal(t, values, out)
	}
}

func TestArrayPreservesFloatPrecision(t *testing.T) {
	// Prices like 1.08507 do not survive naive text formatting; the raw
	// bit layout must.
	values := []float64{1.08507, 147.253, 0.000001, 2400.505}
	a, err := NewFloat64Array([]int{4}, values)
	require.NoError(t, err)
	data, err := EncodeArray(a)
	require.NoError(t, err)
	got, err := DecodeArray(data)
	require.NoError(t, err)
	out, err := got.Float64s()
	require.NoError(t, err)
	assert.Equal(t, values, out)
}

func TestEncodeArrayRejectsBadShape(t *testing.T) {
	_, err := EncodeArray(&Array{Elem: ElemFloat64, Shape: nil})
	assert.ErrorIs(t, err, contract.ErrMalformedPayload)

	_, err = EncodeArray(&Array{Elem: ElemFloat64, Shape: []int{1, 1, 1, 1}, Data: make([]byte, 8)})
	assert.ErrorIs(t, err, contract.ErrMalformedPayload)

	_, err = EncodeArray(&Array{Elem: ElemFloat64, Shape: []int{2}, Data: make([]byte, 8)})
	assert.ErrorIs(t, err, contract.ErrMalformedPayload)
}

func TestDecodeArrayMalformed(t *testing.T) {
	a, err := NewFloat64Array([]int{2}, []float64{1, 2})
	require.NoError(t, err)
	data, err := EncodeArray(a)
	require.NoError(t, err)

	cases := map[string][]byte{
		"empty":           {},
		"unknown elem":    {9, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 0},
		"zero rank":       {0, 0},
		"excessive rank":  {0, 4, 0, 0, 0, 1},
		"shape truncated": data[:4],
		"data short":      data[:len(data)-8],
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeArray(bad)
			assert.ErrorIs(t, err, contract.ErrMalformedPayload)
		})
	}
}

func TestDecodeArrayRejectsOverflowingShape(t *testing.T) {
	// A shape whose element count wraps the int range must not pass the
	// byte-length check with an empty body.
	payload := []byte{
		byte(ElemFloat64), 3,
		0x80, 0x00, 0x00, 0x00, // 2147483648
		0x40, 0x00, 0x00, 0x00, // 1073741824
		0x00, 0x00, 0x00, 0x01,
	}
	_, err := DecodeArray(payload)
	assert.ErrorIs(t, err, contract.ErrMalformedPayload)

	// Same shape with a token body, the product still cannot be trusted.
	_, err = DecodeArray(append(payload, make([]byte, 16)...))
	assert.ErrorIs(t, err, contract.ErrMalformedPayload)
}

func TestRatesArrayConversion(t *testing.T) {
	rates := []contract.Rate{
		{Time: 1700000000, Open: 1.1, High: 1.2, Low: 1.0, Close: 1.15, TickVolume: 120, Spread: 2, RealVolume: 0},
		{Time: 1700000060, Open: 1.15, High: 1.3, Low: 1.1, Close: 1.25, TickVolume: 98, Spread: 3, RealVolume: 5},
	}
	a, err := RatesToArray(rates)
	require.NoError(t, err)
	assert.Equal(t, []int{2, RateColumns}, a.Shape)

	got, err := ArrayToRates(a)
	require.NoError(t, err)
	assert.Equal(t, rates, got)
}

func TestTicksArrayConversion(t *testing.T) {
	ticks := []contract.Tick{
		{Time: 1700000000, Bid: 1.085, Ask: 1.0852, Last: 1.085, Volume: 1, TimeMsc: 1700000000123, Flags: 2},
	}
	a, err := TicksToArray(ticks)
	require.NoError(t, err)
	assert.Equal(t, []int{1, TickColumns}, a.Shape)

	got, err := ArrayToTicks(a)
	require.NoError(t, err)
	assert.Equal(t, ticks, got)
}

func TestArrayToRatesRejectsWrongShape(t *testing.T) {
	a, err := NewFloat64Array([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	_, err = ArrayToRates(a)
	assert.ErrorIs(t, err, contract.ErrMalformedPayload)
	_, err = ArrayToTicks(a)
	assert.ErrorIs(t, err, contract.ErrMalformedPayload)
}

func TestEmptyRates(t *testing.T) {
	a, err := RatesToArray(nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, RateColumns}, a.Shape)

	got, err := ArrayToRates(a)
	require.NoError(t, err)
	assert.Empty(t, got)
}
