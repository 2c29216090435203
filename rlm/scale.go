/*
DESCRIPTION
  scale.go provides the median based robust scale estimate and the IRLS
  convergence statistic.

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
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// madConst makes the median absolute deviation consistent with the standard
// deviation under normal errors.
const madConst = 0.6745

// Median returns the median of x, averaging the two middle values when
// len(x) is even. x is not modified. The median of an empty slice is NaN.
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	s := make([]float64, n)
	copy(s, x)
	sort.Float64s(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// MedianAbs returns the median of the absolute values of x.
func MedianAbs(x []float64) float64 {
	a := make([]float64, len(x))
	for i, v := range x {
		a[i] = math.Abs(v)
	}
	return Median(a)
}

// MADScale returns the robust scale estimate median(|x|)/0.6745 for
// residuals x.
func MADScale(x []float64) float64 {
	return MedianAbs(x) / madConst
}

// irlsDelta returns the relative change between successive residual vectors.
func irlsDelta(prev, cur []float64) float64 {
	const divisor = 1e-20
	sum := math.Pow(floats.Distance(prev, cur, 2), 2)
	sum2 := floats.Dot(prev, prev)
	return math.Sqrt(sum / math.Max(sum2, divisor))
}
