/*
DESCRIPTION
  design.go provides the explicit design matrix of the probes + chips model
  and a dense weighted least squares solver built on it.

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
	"math"

	"gonum.org/v1/gonum/mat"
)

// Design returns the (rows*cols) x (cols+rows-1) design matrix of the chips +
// sum-to-zero probes model with one row per observation in chip-major order.
// The last probe's row carries -1 in every probe column.
func Design(rows, cols int) *mat.Dense {
	x := mat.NewDense(rows*cols, cols+rows-1, nil)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			obs := j*rows + i
			x.Set(obs, j, 1)
			if i < rows-1 {
				x.Set(obs, cols+i, 1)
				continue
			}
			for k := 0; k < rows-1; k++ {
				x.Set(obs, cols+k, -1)
			}
		}
	}
	return x
}

// DenseFit solves the weighted least squares problem for y with weights w by
// QR factorization of the explicit design. It is much slower than the normal
// equations path and is intended as a reference. The fitted values are
// returned in chip-major order along with the coefficients.
func DenseFit(y, w *Matrix) ([]float64, []float64, error) {
	rows, cols := y.Dims()
	err := sameShape(rows, cols, w)
	if err != nil {
		return nil, nil, err
	}
	n, p := rows*cols, cols+rows-1
	if n < p {
		return nil, nil, fmt.Errorf("%w: %d observations for %d parameters", ErrNoResidualDF, n, p)
	}

	// Scale each observation by the root of its weight so the ordinary
	// least squares solution is the weighted one.
	x := Design(rows, cols)
	b := mat.NewVecDense(n, nil)
	for obs, v := range y.Data() {
		s := math.Sqrt(w.Data()[obs])
		b.SetVec(obs, s*v)
		row := x.RawRowView(obs)
		for k := range row {
			row[k] *= s
		}
	}

	qr := new(mat.QR)
	qr.Factorize(x)
	c := mat.NewVecDense(p, nil)
	err = qr.SolveVecTo(c, false, b)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: could not solve QR: %v", ErrSingularDesign, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(Design(rows, cols), c)
	return fitted.RawVector().Data, c.RawVector().Data, nil
}
