package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"mt5bridge/contract"
)

// ElemType tags the element type of a numeric array payload.
type ElemType byte

const (
	ElemFloat64 ElemType = 0
	ElemInt64   ElemType = 1
	ElemUint64  ElemType = 2
)

// Size returns the element width in bytes.
func (t ElemType) Size() int {
	switch t {
	case ElemFloat64, ElemInt64, ElemUint64:
		return 8
	}
	return 0
}

// MaxRank bounds array dimensionality. Nothing in the contract needs more
// than a matrix, rank 3 leaves headroom for cube-shaped results.
const MaxRank = 3

// Array is a typed multi-dimensional numeric buffer used for bulk
// market-data results. Invariant: len(Data) == product(Shape) × elem size.
type Array struct {
	Elem  ElemType
	Shape []int
	Data  []byte // big-endian elements, row-major
}

// Len returns the element count, the product of the shape.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// EncodeArray serializes an array payload:
//
//	elem byte | rank byte | dim uint32 × rank | raw data
func EncodeArray(a *Array) ([]byte, error) {
	if len(a.Shape) == 0 || len(a.Shape) > MaxRank {
		return nil, fmt.Errorf("%w: array rank %d out of range", contract.ErrMalformedPayload, len(a.Shape))
	}
	if want := a.Len() * a.Elem.Size(); want != len(a.Data) {
		return nil, fmt.Errorf("%w: array data is %d bytes, shape %v needs %d",
			contract.ErrMalformedPayload, len(a.Data), a.Shape, want)
	}
	buf := make([]byte, 2+4*len(a.Shape)+len(a.Data))
	buf[0] = byte(a.Elem)
	buf[1] = byte(len(a.Shape))
	offset := 2
	for _, d := range a.Shape {
		binary.BigEndian.PutUint32(buf[offset:], uint32(d))
		offset += 4
	}
	copy(buf[offset:], a.Data)
	return buf, nil
}

// DecodeArray parses an array payload, validating the element type, rank,
// and the shape/byte-length invariant.
func DecodeArray(data []byte) (*Array, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: array header truncated", contract.ErrMalformedPayload)
	}
	elem := ElemType(data[0])
	if elem.Size() == 0 {
		return nil, fmt.Errorf("%w: unknown array element type %d", contract.ErrMalformedPayload, data[0])
	}
	rank := int(data[1])
	if rank == 0 || rank > MaxRank {
		return nil, fmt.Errorf("%w: array rank %d out of range", contract.ErrMalformedPayload, rank)
	}
	if len(data) < 2+4*rank {
		return nil, fmt.Errorf("%w: array shape truncated", contract.ErrMalformedPayload)
	}
	a := &Array{Elem: elem, Shape: make([]int, rank)}
	a.Data = data[2+4*rank:]

	// Check the running shape product against the byte budget divide-side,
	// so a hostile shape cannot wrap the product past the int range and
	// slip through the length check below.
	maxElems := len(a.Data) / elem.Size()
	elems := 1
	offset := 2
	for i := 0; i < rank; i++ {
		d := int(binary.BigEndian.Uint32(data[offset:]))
		offset += 4
		a.Shape[i] = d
		if d != 0 && elems > maxElems/d {
			return nil, fmt.Errorf("%w: array data is %d bytes, shape %v needs more",
				contract.ErrMalformedPayload, len(a.Data), a.Shape[:i+1])
		}
		elems *= d
	}
	if want := elems * elem.Size(); want != len(a.Data) {
		return nil, fmt.Errorf("%w: array data is %d bytes, shape %v needs %d",
			contract.ErrMalformedPayload, len(a.Data), a.Shape, want)
	}
	return a, nil
}

// NewFloat64Array builds a float64 array from row-major values.
func NewFloat64Array(shape []int, values []float64) (*Array, error) {
	a := &Array{Elem: ElemFloat64, Shape: shape, Data: make([]byte, 8*len(values))}
	if a.Len() != len(values) {
		return nil, fmt.Errorf("%w: %d values do not fill shape %v", contract.ErrMalformedPayload, len(values), shape)
	}
	for i, v := range values {
		binary.BigEndian.PutUint64(a.Data[8*i:], math.Float64bits(v))
	}
	return a, nil
}

// Float64s returns the elements of a float64 array in row-major order.
func (a *Array) Float64s() ([]float64, error) {
	if a.Elem != ElemFloat64 {
		return nil, fmt.Errorf("%w: element type %d is not float64", contract.ErrMalformedPayload, a.Elem)
	}
	out := make([]float64, a.Len())
	for i := range out {
		out[i] = math.Float64frombits(binary.BigEndian.Uint64(a.Data[8*i:]))
	}
	return out, nil
}

// Column counts for the bar and tick matrix layouts.
const (
	RateColumns = 8 // time, open, high, low, close, tick_volume, spread, real_volume
	TickColumns = 7 // time, bid, ask, last, volume, time_msc, flags
)

// RatesToArray packs OHLCV bars into an [n, 8] float64 matrix.
func RatesToArray(rates []contract.Rate) (*Array, error) {
	values := make([]float64, 0, len(rates)*RateColumns)
	for _, r := range rates {
		values = append(values,
			float64(r.Time), r.Open, r.High, r.Low, r.Close,
			float64(r.TickVolume), float64(r.Spread), float64(r.RealVolume))
	}
	return NewFloat64Array([]int{len(rates), RateColumns}, values)
}

// ArrayToRates unpacks an [n, 8] float64 matrix into OHLCV bars.
func ArrayToRates(a *Array) ([]contract.Rate, error) {
	if len(a.Shape) != 2 || a.Shape[1] != RateColumns {
		return nil, fmt.Errorf("%w: rates array has shape %v, want [n %d]",
			contract.ErrMalformedPayload, a.Shape, RateColumns)
	}
	values, err := a.Float64s()
	if err != nil {
		return nil, err
	}
	rates := make([]contract.Rate, a.Shape[0])
	for i := range rates {
		row := values[i*RateColumns:]
		rates[i] = contract.Rate{
			Time:       int64(row[0]),
			Open:       row[1],
			High:       row[2],
			Low:        row[3],
			Close:      row[4],
			TickVolume: int64(row[5]),
			Spread:     int32(row[6]),
			RealVolume: int64(row[7]),
		}
	}
	return rates, nil
}

// TicksToArray packs ticks into an [n, 7] float64 matrix.
func TicksToArray(ticks []contract.Tick) (*Array, error) {
	values := make([]float64, 0, len(ticks)*TickColumns)
	for _, t := range ticks {
		values = append(values,
			float64(t.Time), t.Bid, t.Ask, t.Last,
			float64(t.Volume), float64(t.TimeMsc), float64(t.Flags))
	}
	return NewFloat64Array([]int{len(ticks), TickColumns}, values)
}

// ArrayToTicks unpacks an [n, 7] float64 matrix into ticks.
func ArrayToTicks(a *Array) ([]contract.Tick, error) {
	if len(a.Shape) != 2 || a.Shape[1] != TickColumns {
		return nil, fmt.Errorf("%w: ticks array has shape %v, want [n %d]",
			contract.ErrMalformedPayload, a.Shape, TickColumns)
	}
	values, err := a.Float64s()
	if err != nil {
		return nil, err
	}
	ticks := make([]contract.Tick, a.Shape[0])
	for i := range ticks {
		row := values[i*TickColumns:]
		ticks[i] = contract.Tick{
			Time:    int64(row[0]),
			Bid:     row[1],
			Ask:     row[2],
			Last:    row[3],
			Volume:  int64(row[4]),
			TimeMsc: int64(row[5]),
			Flags:   int32(row[6]),
		}
	}
	return ticks, nil
}
