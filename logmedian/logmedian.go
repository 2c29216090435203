/*
DESCRIPTION
  logmedian.go provides the log2 median baseline summary of a probe set.

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

// Package logmedian provides a simple non-robust baseline summary of a probe
// set: the log2 of the median intensity on each chip.
package logmedian

import (
	"errors"
	"fmt"
	"math"

	"github.com/ausocean/plm/rlm"
)

// ErrProbeIndex is returned for a probe index outside the matrix.
var ErrProbeIndex = errors.New("probe index out of range")

// Estimate returns log2 of the median of the selected probes of y on each
// chip. If probes is nil every probe is used. Standard errors are not
// available for this summary, so every se entry is NaN.
func Estimate(y *rlm.Matrix, probes []int) (est, se []float64, err error) {
	rows, cols := y.Dims()
	if probes == nil {
		probes = make([]int, rows)
		for i := range probes {
			probes[i] = i
		}
	}
	if len(probes) == 0 {
		return nil, nil, fmt.Errorf("%w: no probes selected", ErrProbeIndex)
	}
	for _, p := range probes {
		if p < 0 || p >= rows {
			return nil, nil, fmt.Errorf("%w: %d not in [0, %d)", ErrProbeIndex, p, rows)
		}
	}

	est = make([]float64, cols)
	se = make([]float64, cols)
	z := make([]float64, len(probes))
	for j := 0; j < cols; j++ {
		for i, p := range probes {
			z[i] = y.At(p, j)
		}
		est[j] = math.Log2(rlm.Median(z))
		se[j] = math.NaN()
	}
	return est, se, nil
}
