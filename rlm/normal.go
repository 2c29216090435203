/*
DESCRIPTION
  normal.go builds the weighted normal equations of the probes + chips
  additive model directly from the weight and response matrices.

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
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// XTWX returns X^T W X for the chips + sum-to-zero probes design, where
// the weights are taken from w. The result has dimension cols+rows-1 and is
// laid out as
//
//	[ P  R^T ]
//	[ R  S   ]
//
// with P the diagonal of per chip weight sums, R the coupling block
// w(chip, probe) - w(chip, last probe), and S the probe block whose diagonal
// holds probe weight sums plus the last probe's weight sum, which also fills
// every off diagonal entry.
func XTWX(w *Matrix) *mat.SymDense {
	rows, cols := w.Dims()
	p := cols + rows - 1
	xtwx := mat.NewSymDense(p, nil)

	probeSum := make([]float64, rows)
	for j := 0; j < cols; j++ {
		c := w.Chip(j)
		xtwx.SetSym(j, j, floats.Sum(c))
		floats.Add(probeSum, c)
		last := c[rows-1]
		for i := 0; i < rows-1; i++ {
			xtwx.SetSym(j, cols+i, c[i]-last)
		}
	}

	last := probeSum[rows-1]
	for i := 0; i < rows-1; i++ {
		xtwx.SetSym(cols+i, cols+i, probeSum[i]+last)
		for k := i + 1; k < rows-1; k++ {
			xtwx.SetSym(cols+i, cols+k, last)
		}
	}
	return xtwx
}

// XTWY returns X^T W y for the chips + sum-to-zero probes design. The first
// cols entries are weighted chip sums; the remaining rows-1 entries are the
// weighted probe sums less that of the last probe.
func XTWY(w, y *Matrix) []float64 {
	rows, cols := w.Dims()
	xtwy := make([]float64, cols+rows-1)
	probeSum := make([]float64, rows)
	for j := 0; j < cols; j++ {
		wc, yc := w.Chip(j), y.Chip(j)
		xtwy[j] = floats.Dot(wc, yc)
		for i := range wc {
			probeSum[i] += wc[i] * yc[i]
		}
	}
	for i := 0; i < rows-1; i++ {
		xtwy[cols+i] = probeSum[i] - probeSum[rows-1]
	}
	return xtwy
}

// ColumnXTWX returns X^T W X for the chip only design used when probe effects
// are fixed. It is diagonal with the per chip weight sums.
func ColumnXTWX(w *Matrix) *mat.DiagDense {
	_, cols := w.Dims()
	d := make([]float64, cols)
	for j := range d {
		d[j] = floats.Sum(w.Chip(j))
	}
	return mat.NewDiagDense(cols, d)
}

// ColumnXTWY returns X^T W y for the chip only design.
func ColumnXTWY(w, y *Matrix) []float64 {
	_, cols := w.Dims()
	xtwy := make([]float64, cols)
	for j := range xtwy {
		xtwy[j] = floats.Dot(w.Chip(j), y.Chip(j))
	}
	return xtwy
}
