/*
DESCRIPTION
  report.go provides the text report written by rlmfit.

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

package main

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/plm/rlm"
)

// report collects everything rlmfit prints.
type report struct {
	chips    []string
	psi      string
	k        float64
	fit      *rlm.Result
	method   rlm.SEMethod // Zero if no standard errors were computed.
	se       *rlm.SEResult
	baseline []float64
}

// write writes r as text to w.
func (r *report) write(w io.Writer) error {
	var b strings.Builder
	rows, cols := r.fit.Residuals.Dims()
	weights := r.fit.Weights.Data()

	var down int
	for _, v := range weights {
		if v < 1 {
			down++
		}
	}

	fmt.Fprintf(&b, "probes: %d\n", rows)
	fmt.Fprintf(&b, "chips: %d\n", cols)
	fmt.Fprintf(&b, "psi: %s (k=%g)\n", r.psi, r.k)
	fmt.Fprintf(&b, "outcome: %v\n", r.fit.Outcome)
	fmt.Fprintf(&b, "iterations: %d\n", r.fit.Iterations)
	fmt.Fprintf(&b, "scale: %.6f\n", r.fit.Scale)
	fmt.Fprintf(&b, "mean weight: %.4f\n", stat.Mean(weights, nil))
	fmt.Fprintf(&b, "downweighted: %d\n", down)
	if r.se != nil {
		fmt.Fprintf(&b, "se method: %v\n", r.method)
		fmt.Fprintf(&b, "residual se: %.6f\n", r.se.ResidualSE)
		if r.se.GeneralizedInverse {
			fmt.Fprintf(&b, "warning: generalized inverse used\n")
		}
	}

	fmt.Fprintf(&b, "\n%-12s %12s %12s\n", "chip", "effect", "se")
	for j, v := range r.fit.ChipEffects() {
		fmt.Fprintf(&b, "%-12s %12.6f %12s\n", r.chips[j], v, r.seAt(j))
	}

	fmt.Fprintf(&b, "\n%-12s %12s %12s\n", "probe", "effect", "se")
	for i, v := range r.fit.ProbeEffects() {
		fmt.Fprintf(&b, "%-12d %12.6f %12s\n", i, v, r.seAt(cols+i))
	}

	if r.baseline != nil {
		fmt.Fprintf(&b, "\n%-12s %12s\n", "chip", "log2 median")
		for j, v := range r.baseline {
			fmt.Fprintf(&b, "%-12s %12.6f\n", r.chips[j], v)
		}
	}

	if r.se != nil && r.se.VarCov != nil {
		fmt.Fprintf(&b, "\ncovariance:\n%.6g\n", mat.Formatted(r.se.VarCov, mat.Squeeze()))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// seAt returns the formatted standard error of coefficient i, or "-".
func (r *report) seAt(i int) string {
	if r.se == nil || i >= len(r.se.SE) {
		return "-"
	}
	return fmt.Sprintf("%.6f", r.se.SE[i])
}
