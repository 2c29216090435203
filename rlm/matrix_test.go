/*
DESCRIPTION
  matrix_test.go provides testing of the Matrix type in matrix.go.

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
	"testing"
)

// TestMatrixLayout checks that elements are stored chip-major.
func TestMatrixLayout(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	m, err := NewMatrix(3, 2, data)
	if err != nil {
		t.Fatalf("could not create matrix: %v", err)
	}

	tests := []struct {
		i, j int
		want float64
	}{
		{i: 0, j: 0, want: 1},
		{i: 2, j: 0, want: 3},
		{i: 0, j: 1, want: 4},
		{i: 1, j: 1, want: 5},
	}
	for n, test := range tests {
		got := m.At(test.i, test.j)
		if got != test.want {
			t.Errorf("did not get expected value for test %d. Got: %v, Want: %v", n, got, test.want)
		}
	}

	m.Set(1, 0, 20)
	if data[1] != 20 {
		t.Errorf("Set did not write through to backing data. Got: %v, Want: %v", data[1], 20)
	}
	chip := m.Chip(1)
	if len(chip) != 3 || chip[0] != 4 || chip[2] != 6 {
		t.Errorf("unexpected chip view. Got: %v, Want: [4 5 6]", chip)
	}
}

func TestNewMatrixErrors(t *testing.T) {
	tests := []struct {
		rows, cols int
		data       []float64
	}{
		{rows: 0, cols: 2},
		{rows: 2, cols: -1},
		{rows: 2, cols: 2, data: []float64{1, 2, 3}},
	}
	for i, test := range tests {
		_, err := NewMatrix(test.rows, test.cols, test.data)
		if !errors.Is(err, ErrDimension) {
			t.Errorf("did not get expected error for test %d. Got: %v, Want: %v", i, err, ErrDimension)
		}
	}

	_, err := NewMatrixFromRows([][]float64{{1, 2}, {3}})
	if !errors.Is(err, ErrDimension) {
		t.Errorf("ragged rows accepted. Got: %v, Want: %v", err, ErrDimension)
	}
}

func TestMatrixFromRows(t *testing.T) {
	m, err := NewMatrixFromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	if err != nil {
		t.Fatalf("could not create matrix: %v", err)
	}
	rows, cols := m.Dims()
	if rows != 2 || cols != 3 {
		t.Fatalf("unexpected dimensions. Got: %dx%d, Want: 2x3", rows, cols)
	}
	want := []float64{1, 4, 2, 5, 3, 6}
	for i, v := range m.Data() {
		if v != want[i] {
			t.Errorf("unexpected data at %d. Got: %v, Want: %v", i, v, want[i])
		}
	}

	c := m.Clone()
	c.Fill(0)
	if m.At(0, 0) != 1 {
		t.Errorf("clone shares storage with original")
	}
	c.CopyFrom(m)
	if c.At(1, 2) != 6 {
		t.Errorf("did not copy values. Got: %v, Want: %v", c.At(1, 2), 6)
	}
}

func TestProbeEffects(t *testing.T) {
	beta := []float64{10, 11, 9, 1, 0, -1}
	pe := ProbeEffects(beta, 4, 3)
	want := []float64{1, 0, -1, 0}
	for i := range want {
		if pe[i] != want[i] {
			t.Errorf("unexpected probe effect %d. Got: %v, Want: %v", i, pe[i], want[i])
		}
	}

	// One probe has no free effects.
	pe = ProbeEffects([]float64{3, 4}, 1, 2)
	if len(pe) != 1 || pe[0] != 0 {
		t.Errorf("unexpected single probe effect. Got: %v, Want: [0]", pe)
	}
}
