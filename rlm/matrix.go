/*
DESCRIPTION
  matrix.go provides Matrix, a probes by chips data matrix with chip-major
  storage.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean)

  It is free software: you can redistribute it and/or modify them
  under the terms of the GNU General Public License as published by the
  Free Software Foundation, either version 3 of the License, or (at your
  option) any later version.

  It is distributed in the hope that it will be useful, but WITHOUT
  ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
  FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License
  for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses.
*/

package rlm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix holds one value per (probe, chip) pair. Storage is chip-major: the
// value for probe i on chip j lives at offset j*rows+i of Data, so each chip
// is a contiguous block. Indexing out of range panics.
type Matrix struct {
	rows, cols int
	d          *mat.Dense // cols x rows, row j is chip j.
}

// NewMatrix returns a rows x cols Matrix backed by data, which must be in
// chip-major order and have length rows*cols. If data is nil a zeroed
// backing slice is allocated. The Matrix does not copy data.
func NewMatrix(rows, cols int, data []float64) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: invalid matrix size %dx%d", ErrDimension, rows, cols)
	}
	if data == nil {
		data = make([]float64, rows*cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: data length %d for %dx%d matrix", ErrDimension, len(data), rows, cols)
	}
	return &Matrix{rows: rows, cols: cols, d: mat.NewDense(cols, rows, data)}, nil
}

// NewMatrixFromRows returns a Matrix built from a slice of probe rows, each
// holding one value per chip. The values are copied.
func NewMatrixFromRows(probes [][]float64) (*Matrix, error) {
	if len(probes) == 0 || len(probes[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrDimension)
	}
	rows, cols := len(probes), len(probes[0])
	m, err := NewMatrix(rows, cols, nil)
	if err != nil {
		return nil, err
	}
	for i, p := range probes {
		if len(p) != cols {
			return nil, fmt.Errorf("%w: probe %d has %d values, want %d", ErrDimension, i, len(p), cols)
		}
		for j, v := range p {
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// Dims returns the number of probes (rows) and chips (cols).
func (m *Matrix) Dims() (rows, cols int) { return m.rows, m.cols }

// At returns the value for probe i on chip j.
func (m *Matrix) At(i, j int) float64 { return m.d.At(j, i) }

// Set sets the value for probe i on chip j.
func (m *Matrix) Set(i, j int, v float64) { m.d.Set(j, i, v) }

// Chip returns the values of chip j. The slice shares storage with m.
func (m *Matrix) Chip(j int) []float64 { return m.d.RawRowView(j) }

// Data returns the backing slice in chip-major order.
func (m *Matrix) Data() []float64 { return m.d.RawMatrix().Data }

// Fill sets every element to v.
func (m *Matrix) Fill(v float64) {
	data := m.Data()
	for i := range data {
		data[i] = v
	}
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	data := make([]float64, len(m.Data()))
	copy(data, m.Data())
	return &Matrix{rows: m.rows, cols: m.cols, d: mat.NewDense(m.cols, m.rows, data)}
}

// CopyFrom copies the values of src into m. The dimensions must agree.
func (m *Matrix) CopyFrom(src *Matrix) {
	if src.rows != m.rows || src.cols != m.cols {
		panic(mat.ErrShape)
	}
	copy(m.Data(), src.Data())
}

// sameShape reports an error unless every non-nil matrix in ms has the given
// dimensions.
func sameShape(rows, cols int, ms ...*Matrix) error {
	for _, m := range ms {
		if m == nil {
			continue
		}
		if m.rows != rows || m.cols != cols {
			return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrDimension, m.rows, m.cols, rows, cols)
		}
	}
	return nil
}

// ProbeEffects expands the probe part of a full model coefficient vector into
// one effect per probe, reconstructing the last probe's effect from the
// sum-to-zero constraint.
func ProbeEffects(beta []float64, rows, cols int) []float64 {
	pe := make([]float64, rows)
	var sum float64
	for i := 0; i < rows-1; i++ {
		pe[i] = beta[cols+i]
		sum += pe[i]
	}
	pe[rows-1] = -sum
	return pe
}
