package numeric

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// NewMatrix returns a zero rows×cols matrix. A zero dimension yields an
// empty Dense instead of gonum's zero-length panic.
func NewMatrix(rows, cols int) *mat.Dense {
	if rows < 0 || cols < 0 {
		panic(fmt.Errorf("%w: negative dims %dx%d", ErrShape, rows, cols))
	}
	if rows == 0 || cols == 0 {
		return &mat.Dense{}
	}
	return mat.NewDense(rows, cols, nil)
}

// Rows copies m into a row-major nested slice.
func Rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		out[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// MatrixFromRows builds a matrix from a row-major nested slice. Every row
// must have the same length.
func MatrixFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return &mat.Dense{}, nil
	}
	cols := len(rows[0])
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), cols)
		}
	}
	m := NewMatrix(len(rows), cols)
	for i, row := range rows {
		for j, x := range row {
			m.Set(i, j, x)
		}
	}
	return m, nil
}

// Dims reports m's dimensions, treating an empty Dense as 0x0.
func Dims(m *mat.Dense) (int, int) {
	if m.IsEmpty() {
		return 0, 0
	}
	return m.Dims()
}
