/*
DESCRIPTION
  inverse_test.go provides testing of the normal equations builders in
  normal.go and the inverses in inverse.go.

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
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// randomWeights returns a rows x cols matrix of weights in [0.1, 1.1).
func randomWeights(rnd *rand.Rand, rows, cols int) *Matrix {
	w, _ := NewMatrix(rows, cols, nil)
	data := w.Data()
	for i := range data {
		data[i] = 0.1 + rnd.Float64()
	}
	return w
}

// TestNormalEquations checks XTWX and XTWY against products with the
// explicit design matrix.
func TestNormalEquations(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	dims := [][2]int{{4, 3}, {1, 3}, {5, 1}, {7, 6}}

	for _, d := range dims {
		rows, cols := d[0], d[1]
		w := randomWeights(rnd, rows, cols)
		y := randomWeights(rnd, rows, cols)
		x := Design(rows, cols)

		var xtw mat.Dense
		xtw.Mul(x.T(), mat.NewDiagDense(rows*cols, w.Data()))
		var want mat.Dense
		want.Mul(&xtw, x)
		got := XTWX(w)
		if !mat.EqualApprox(got, &want, 1e-12) {
			t.Errorf("%dx%d: unexpected XTWX.\nGot:\n%v\nWant:\n%v", rows, cols, mat.Formatted(got), mat.Formatted(&want))
		}

		var wantY mat.VecDense
		wantY.MulVec(&xtw, mat.NewVecDense(rows*cols, y.Data()))
		gotY := XTWY(w, y)
		if !floats.EqualApprox(gotY, wantY.RawVector().Data, 1e-12) {
			t.Errorf("%dx%d: unexpected XTWY. Got: %v, Want: %v", rows, cols, gotY, wantY.RawVector().Data)
		}
	}
}

// TestXTWXInverse checks the partitioned inverse against a general dense
// inverse for random positive weights.
func TestXTWXInverse(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	dims := [][2]int{{4, 3}, {2, 2}, {6, 5}, {5, 1}, {9, 12}}

	for _, d := range dims {
		rows, cols := d[0], d[1]
		xtwx := XTWX(randomWeights(rnd, rows, cols))

		got, err := XTWXInverse(rows, cols, xtwx)
		if err != nil {
			t.Errorf("%dx%d: could not invert: %v", rows, cols, err)
			continue
		}
		var want mat.Dense
		err = want.Inverse(xtwx)
		if err != nil {
			t.Fatalf("%dx%d: could not compute reference inverse: %v", rows, cols, err)
		}
		if !mat.EqualApprox(got, &want, 1e-9) {
			t.Errorf("%dx%d: unexpected inverse.\nGot:\n%v\nWant:\n%v", rows, cols, mat.Formatted(got), mat.Formatted(&want))
		}
	}
}

func TestXTWXInverseSingleProbe(t *testing.T) {
	w, _ := NewMatrix(1, 3, []float64{2, 4, 0.5})
	inv, err := XTWXInverse(1, 3, XTWX(w))
	if err != nil {
		t.Fatalf("could not invert: %v", err)
	}
	want := []float64{0.5, 0.25, 2}
	for j, v := range want {
		if inv.At(j, j) != v {
			t.Errorf("unexpected diagonal %d. Got: %v, Want: %v", j, inv.At(j, j), v)
		}
	}
}

func TestXTWXInverseSingular(t *testing.T) {
	// Chip 1 carries no weight.
	w, _ := NewMatrix(3, 2, []float64{1, 1, 1, 0, 0, 0})
	_, err := XTWXInverse(3, 2, XTWX(w))
	if !errors.Is(err, ErrSingularDesign) {
		t.Errorf("did not get expected error for empty chip. Got: %v, Want: %v", err, ErrSingularDesign)
	}

	// Probe 0 carries no weight, so the Schur complement is singular.
	w, _ = NewMatrix(3, 2, []float64{0, 1, 1, 0, 1, 1})
	_, err = XTWXInverse(3, 2, XTWX(w))
	if !errors.Is(err, ErrSingularDesign) {
		t.Errorf("did not get expected error for empty probe. Got: %v, Want: %v", err, ErrSingularDesign)
	}

	_, err = XTWXInverse(3, 3, XTWX(w))
	if !errors.Is(err, ErrDimension) {
		t.Errorf("did not get expected error for wrong size. Got: %v, Want: %v", err, ErrDimension)
	}
}

// TestInvertFallback checks that a singular matrix falls back to the
// generalized inverse.
func TestInvertFallback(t *testing.T) {
	a := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	inv, ginv, err := invert(a)
	if err != nil {
		t.Fatalf("could not invert: %v", err)
	}
	if !ginv {
		t.Errorf("expected generalized inverse to be used")
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(inv.At(i, j)-0.25) > 1e-12 {
				t.Errorf("unexpected element (%d, %d). Got: %v, Want: %v", i, j, inv.At(i, j), 0.25)
			}
		}
	}

	a = mat.NewSymDense(2, []float64{4, 1, 1, 3})
	inv, ginv, err = invert(a)
	if err != nil {
		t.Fatalf("could not invert: %v", err)
	}
	if ginv {
		t.Errorf("generalized inverse used for positive definite matrix")
	}
	var prod mat.Dense
	prod.Mul(a, inv)
	if !mat.EqualApprox(&prod, eye(2), 1e-12) {
		t.Errorf("a*inv is not the identity.\nGot:\n%v", mat.Formatted(&prod))
	}
}

func TestColumnXTWX(t *testing.T) {
	w, _ := NewMatrix(2, 3, []float64{1, 1, 0.5, 0.5, 2, 2})
	y, _ := NewMatrix(2, 3, []float64{1, 3, 2, 4, 1, 1})
	inv, err := ColumnXTWXInverse(ColumnXTWX(w))
	if err != nil {
		t.Fatalf("could not invert: %v", err)
	}
	xtwy := ColumnXTWY(w, y)
	want := []float64{2, 3, 1}
	for j := range want {
		got := inv.At(j, j) * xtwy[j]
		if math.Abs(got-want[j]) > 1e-12 {
			t.Errorf("unexpected weighted chip mean %d. Got: %v, Want: %v", j, got, want[j])
		}
	}

	w.Set(0, 2, 0)
	w.Set(1, 2, 0)
	_, err = ColumnXTWXInverse(ColumnXTWX(w))
	if !errors.Is(err, ErrSingularDesign) {
		t.Errorf("did not get expected error. Got: %v, Want: %v", err, ErrSingularDesign)
	}
}

func eye(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return d
}
