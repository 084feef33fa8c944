// Package numeric provides the dense vector container used for parameter
// storage, with bridges to gonum for matrix work.
//
// A [Vector] is a thin wrapper around a float64 slice. Views returned by
// [Vector.Sub] share storage with their parent; the parent's backing array
// stays alive for as long as any view references it.
package numeric

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrShape is the panic value (wrapped) for operations on containers whose
// dimensions disagree.
var ErrShape = errors.New("numeric: dimension mismatch")

type Vector struct {
	data []float64
}

// NewVector returns a zero-filled vector of length n.
func NewVector(n int) *Vector {
	if n < 0 {
		panic(fmt.Errorf("%w: negative length %d", ErrShape, n))
	}
	return &Vector{data: make([]float64, n)}
}

// NewVectorFrom copies data into a new vector.
func NewVectorFrom(data []float64) *Vector {
	v := NewVector(len(data))
	copy(v.data, data)
	return v
}

// FromVec copies any gonum vector into a new Vector.
func FromVec(a mat.Vector) *Vector {
	v := NewVector(a.Len())
	for i := range v.data {
		v.data[i] = a.AtVec(i)
	}
	return v
}

func (v *Vector) Len() int { return len(v.data) }

func (v *Vector) Get(i int) float64 { return v.data[i] }

func (v *Vector) Set(i int, x float64) { v.data[i] = x }

func (v *Vector) SetAll(x float64) {
	for i := range v.data {
		v.data[i] = x
	}
}

// Memcpy copies src into v. Both vectors must have the same length.
func (v *Vector) Memcpy(src *Vector) {
	if len(v.data) != len(src.data) {
		panic(fmt.Errorf("%w: memcpy %d <- %d", ErrShape, len(v.data), len(src.data)))
	}
	copy(v.data, src.data)
}

func (v *Vector) Dup() *Vector {
	return NewVectorFrom(v.data)
}

// Sub returns a view of n elements starting at offset.
func (v *Vector) Sub(offset, n int) *Vector {
	if offset < 0 || n < 0 || offset+n > len(v.data) {
		panic(fmt.Errorf("%w: sub [%d:%d] of %d", ErrShape, offset, offset+n, len(v.data)))
	}
	return &Vector{data: v.data[offset : offset+n : offset+n]}
}

// Data exposes the backing storage.
func (v *Vector) Data() []float64 { return v.data }

// Slice returns a copy of the elements.
func (v *Vector) Slice() []float64 {
	out := make([]float64, len(v.data))
	copy(out, v.data)
	return out
}

func (v *Vector) Equal(o *Vector) bool {
	if len(v.data) != len(o.data) {
		return false
	}
	for i, x := range v.data {
		if x != o.data[i] {
			return false
		}
	}
	return true
}

func (v *Vector) IsFinite() bool {
	for _, x := range v.data {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// VecDense returns a gonum vector sharing v's storage. gonum rejects zero
// length constructors, so an empty vector maps to an empty VecDense.
func (v *Vector) VecDense() *mat.VecDense {
	if len(v.data) == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(len(v.data), v.data)
}

// CopyVec copies a gonum vector of the same length into v.
func (v *Vector) CopyVec(a mat.Vector) {
	if a.Len() != len(v.data) {
		panic(fmt.Errorf("%w: copy %d <- %d", ErrShape, len(v.data), a.Len()))
	}
	for i := range v.data {
		v.data[i] = a.AtVec(i)
	}
}
