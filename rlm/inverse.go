/*
DESCRIPTION
  inverse.go provides the matrix inverses used by the fitting and standard
  error routines: a Cholesky inverse, an SVD generalized inverse, and a
  closed form partitioned inverse specialised to the probes + chips design.

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
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// svdTol is the relative singular value cutoff of svdInverse.
var svdTol = math.Sqrt(2.220446049250313e-16)

// choleskyInverse returns the inverse of the symmetric positive definite
// matrix a. An ill-conditioned factorization is treated as a failure.
func choleskyInverse(a *mat.SymDense) (*mat.SymDense, error) {
	var chol mat.Cholesky
	if !chol.Factorize(a) {
		return nil, ErrNotPositiveDefinite
	}
	inv := new(mat.SymDense)
	err := chol.InverseTo(inv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPositiveDefinite, err)
	}
	return inv, nil
}

// svdInverse returns the Moore-Penrose generalized inverse of the symmetric
// matrix a. Singular values below svdTol times the largest are treated as
// zero.
func svdInverse(a mat.Symmetric) (*mat.SymDense, error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, errors.New("could not factorize matrix")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	// Scale the columns of V by the reciprocal singular values, then
	// form V S^+ U^T.
	n := a.SymmetricDim()
	for i, si := range s {
		inv := 0.0
		if si > svdTol*s[0] {
			inv = 1 / si
		}
		for r := 0; r < n; r++ {
			v.Set(r, i, v.At(r, i)*inv)
		}
	}
	var g mat.Dense
	g.Mul(&v, u.T())
	return symmetrize(&g), nil
}

// symmetrize returns the symmetric part (a+a^T)/2 of the square matrix a.
func symmetrize(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, (a.At(i, j)+a.At(j, i))/2)
		}
	}
	return s
}

// invert returns the Cholesky inverse of a, falling back to the generalized
// inverse when a is not positive definite. The returned bool reports whether
// the fallback was used.
func invert(a *mat.SymDense) (*mat.SymDense, bool, error) {
	inv, err := choleskyInverse(a)
	if err == nil {
		return inv, false, nil
	}
	inv, err = svdInverse(a)
	if err != nil {
		return nil, true, fmt.Errorf("could not compute generalized inverse: %w", err)
	}
	return inv, true, nil
}

// XTWXInverse inverts a matrix produced by XTWX for a rows x cols design
// using its block structure. With P the diagonal chip block, R the coupling
// block and S the probe block, RP = R P^-1 and the Schur complement
// S' = S - RP R^T give
//
//	[ P^-1 + RP^T S'^-1 RP   -(S'^-1 RP)^T ]
//	[ -S'^-1 RP               S'^-1        ]
//
// so only the (rows-1) x (rows-1) Schur complement is factorized. An error
// wrapping ErrSingularDesign is returned if a chip has no weight or the
// Schur complement is not positive definite.
func XTWXInverse(rows, cols int, xtwx *mat.SymDense) (*mat.SymDense, error) {
	p := cols + rows - 1
	if n := xtwx.SymmetricDim(); n != p {
		return nil, fmt.Errorf("%w: got %d, want %d for %dx%d design", ErrDimension, n, p, rows, cols)
	}

	pinv := make([]float64, cols)
	for j := range pinv {
		d := xtwx.At(j, j)
		if !(d > 0) {
			return nil, fmt.Errorf("%w: chip %d has no weight", ErrSingularDesign, j)
		}
		pinv[j] = 1 / d
	}

	inv := mat.NewSymDense(p, nil)
	if rows == 1 {
		for j, v := range pinv {
			inv.SetSym(j, j, v)
		}
		return inv, nil
	}

	q := rows - 1
	rp := mat.NewDense(q, cols, nil)
	for i := 0; i < q; i++ {
		for j := 0; j < cols; j++ {
			rp.Set(i, j, xtwx.At(cols+i, j)*pinv[j])
		}
	}

	schur := mat.NewSymDense(q, nil)
	for i := 0; i < q; i++ {
		for k := i; k < q; k++ {
			s := xtwx.At(cols+i, cols+k)
			for j := 0; j < cols; j++ {
				s -= rp.At(i, j) * xtwx.At(cols+k, j)
			}
			schur.SetSym(i, k, s)
		}
	}
	sinv, err := choleskyInverse(schur)
	if err != nil {
		return nil, fmt.Errorf("%w: could not invert schur complement: %v", ErrSingularDesign, err)
	}

	var ll mat.Dense
	ll.Mul(sinv, rp)
	ll.Scale(-1, &ll)

	var ul mat.Dense
	ul.Mul(rp.T(), &ll)

	for j := 0; j < cols; j++ {
		inv.SetSym(j, j, pinv[j]-ul.At(j, j))
		for l := j + 1; l < cols; l++ {
			inv.SetSym(j, l, -ul.At(j, l))
		}
	}
	for i := 0; i < q; i++ {
		for j := 0; j < cols; j++ {
			inv.SetSym(j, cols+i, ll.At(i, j))
		}
		for k := i; k < q; k++ {
			inv.SetSym(cols+i, cols+k, sinv.At(i, k))
		}
	}
	return inv, nil
}

// ColumnXTWXInverse inverts the diagonal matrix produced by ColumnXTWX.
func ColumnXTWXInverse(xtwx *mat.DiagDense) (*mat.DiagDense, error) {
	n := xtwx.SymmetricDim()
	d := make([]float64, n)
	for j := range d {
		v := xtwx.At(j, j)
		if !(v > 0) {
			return nil, fmt.Errorf("%w: chip %d has no weight", ErrSingularDesign, j)
		}
		d[j] = 1 / v
	}
	return mat.NewDiagDense(n, d), nil
}
