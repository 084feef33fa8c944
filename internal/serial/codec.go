// Package serial encodes parameter vectors and matrices as nested JSON
// arrays of numbers (non-finite entries as strings) and round trips whole models through snapshots of their
// property layout.
package serial

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modelspace/internal/numeric"
)

var (
	// ErrShapeMismatch is wrapped by *ShapeError.
	ErrShapeMismatch = errors.New("serial: shape mismatch")

	ErrMalformed = errors.New("serial: malformed data")
)

// ShapeError reports decoded data whose dimensions disagree with an already
// allocated target.
type ShapeError struct {
	What string
	Want []int
	Got  []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("serial: %s: want shape %v, got %v", e.What, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

// Float is a float64 whose non-finite values encode as the strings "Inf",
// "-Inf" and "NaN".
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	x := float64(f)
	switch {
	case math.IsNaN(x):
		return []byte(`"NaN"`), nil
	case math.IsInf(x, 1):
		return []byte(`"Inf"`), nil
	case math.IsInf(x, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, x, 'g', -1, 64), nil
}

func (f *Float) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"NaN"`:
		*f = Float(math.NaN())
		return nil
	case `"Inf"`, `"+Inf"`:
		*f = Float(math.Inf(1))
		return nil
	case `"-Inf"`:
		*f = Float(math.Inf(-1))
		return nil
	}
	var x float64
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	*f = Float(x)
	return nil
}

func toFloats(xs []float64) []Float {
	out := make([]Float, len(xs))
	for i, x := range xs {
		out[i] = Float(x)
	}
	return out
}

func fromFloats(fs []Float) []float64 {
	out := make([]float64, len(fs))
	for i, f := range fs {
		out[i] = float64(f)
	}
	return out
}

func EncodeVector(v *numeric.Vector) ([]byte, error) {
	return json.Marshal(toFloats(v.Data()))
}

func DecodeVector(data []byte) (*numeric.Vector, error) {
	var fs []Float
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return numeric.NewVectorFrom(fromFloats(fs)), nil
}

// DecodeVectorInto decodes into dst, which must already have the encoded
// length.
func DecodeVectorInto(data []byte, dst *numeric.Vector) error {
	v, err := DecodeVector(data)
	if err != nil {
		return err
	}
	if v.Len() != dst.Len() {
		return &ShapeError{What: "vector", Want: []int{dst.Len()}, Got: []int{v.Len()}}
	}
	dst.Memcpy(v)
	return nil
}

func EncodeMatrix(m mat.Matrix) ([]byte, error) {
	rows := numeric.Rows(m)
	out := make([][]Float, len(rows))
	for i, row := range rows {
		out[i] = toFloats(row)
	}
	return json.Marshal(out)
}

func DecodeMatrix(data []byte) (*mat.Dense, error) {
	var frows [][]Float
	if err := json.Unmarshal(data, &frows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	rows := make([][]float64, len(frows))
	for i, row := range frows {
		rows[i] = fromFloats(row)
	}
	m, err := numeric.MatrixFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

// DecodeMatrixInto decodes into dst, which must already have the encoded
// dimensions.
func DecodeMatrixInto(data []byte, dst *mat.Dense) error {
	m, err := DecodeMatrix(data)
	if err != nil {
		return err
	}
	wr, wc := numeric.Dims(dst)
	gr, gc := numeric.Dims(m)
	if wr != gr || wc != gc {
		return &ShapeError{What: "matrix", Want: []int{wr, wc}, Got: []int{gr, gc}}
	}
	if gr > 0 && gc > 0 {
		dst.Copy(m)
	}
	return nil
}
