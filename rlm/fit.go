/*
DESCRIPTION
  fit.go provides robust fitting of the probes + chips additive model by
  iteratively reweighted least squares.

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

// Package rlm fits the two-way additive model
//
//	y[i,j] = chip[j] + probe[i] + e[i,j],  sum(probe) = 0
//
// to one probe set (probes x chips matrix of log intensities) by robust
// M-estimation, and computes standard errors for the fitted parameters.
//
// All state lives in the call; the package is safe for concurrent use on
// distinct inputs.
package rlm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ausocean/plm/psi"
)

// IRLS constants.
const (
	tolerance = 1e-4  // Convergence threshold for irlsDelta.
	minScale  = 1e-10 // Scales below this are degenerate.
)

// Result holds the output of Fit.
type Result struct {
	// Beta holds cols chip effects followed by rows-1 probe effects. Use
	// ProbeEffects to recover the last probe's effect.
	Beta []float64

	Residuals *Matrix
	Weights   *Matrix

	// Scale is the residual scale of the final residuals, or the fixed
	// scale if one was given.
	Scale float64

	Iterations int     // IRLS iterations performed.
	Delta      float64 // Final relative residual change.
	Outcome    Outcome
}

// ChipEffects returns the chip effects of r.
func (r *Result) ChipEffects() []float64 {
	_, cols := r.Residuals.Dims()
	return r.Beta[:cols]
}

// ProbeEffects returns all probe effects of r, including the constrained
// last one.
func (r *Result) ProbeEffects() []float64 {
	rows, cols := r.Residuals.Dims()
	return ProbeEffects(r.Beta, rows, cols)
}

// Fit robustly fits the probes + chips model to y. By default Huber's psi
// with k = 1.345 is used, weights start at 1 and the scale is re-estimated
// by MAD at every iteration; see the Option functions for alternatives.
//
// If the normal equations become singular, Fit returns the result of the
// last complete iteration with Outcome SingularDesign together with an error
// wrapping ErrSingularDesign. Failing to converge is not an error.
func Fit(y *Matrix, opts ...Option) (*Result, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if c.chipScales != nil {
		return nil, fmt.Errorf("%w: chip scales need fixed probe effects", ErrInvalidOption)
	}
	rows, cols := y.Dims()
	err = sameShape(rows, cols, c.prior, c.weights)
	if err != nil {
		return nil, err
	}

	wts := c.weights
	if wts == nil {
		wts, _ = NewMatrix(rows, cols, nil)
	}
	if !c.warm {
		if c.prior != nil {
			wts.CopyFrom(c.prior)
		} else {
			wts.Fill(1)
		}
	}
	resids := y.Clone()

	res := &Result{
		Beta:      make([]float64, cols+rows-1),
		Residuals: resids,
		Weights:   wts,
		Outcome:   MaxIterReached,
	}
	err = startingValues(wts, resids, res.Beta)
	if err != nil {
		res.Outcome = SingularDesign
		return res, err
	}

	r, w := resids.Data(), wts.Data()
	old := make([]float64, len(r))
	p := cols + rows - 1
	for iter := 0; iter < c.maxIter; iter++ {
		scale := c.fitScale(r)
		if math.Abs(scale) < minScale {
			c.warning("scale too small, stopping", "iteration", iter, "scale", scale)
			res.Outcome = DegenerateScale
			break
		}
		copy(old, r)

		for i := range r {
			w[i] = c.weight(i, r[i]/scale)
		}

		inv, err := XTWXInverse(rows, cols, XTWX(wts))
		if err != nil {
			res.Outcome = SingularDesign
			res.Scale = c.fitScale(r)
			return res, fmt.Errorf("could not solve normal equations at iteration %d: %w", iter, err)
		}
		var beta mat.VecDense
		beta.MulVec(inv, mat.NewVecDense(p, XTWY(wts, y)))
		copy(res.Beta, beta.RawVector().Data)

		fitResiduals(y, res.Beta, resids)

		res.Iterations = iter + 1
		res.Delta = irlsDelta(old, r)
		c.debug("irls iteration", "iteration", iter, "scale", scale, "delta", res.Delta)
		if res.Delta < tolerance {
			res.Outcome = Converged
			break
		}
	}

	res.Scale = c.fitScale(r)
	return res, nil
}

// fitScale returns the fixed scale if one was given, otherwise the MAD scale
// of r.
func (c *config) fitScale(r []float64) float64 {
	if c.scale < 0 {
		return MADScale(r)
	}
	return c.scale
}

// startingValues computes weighted column (chip) means of resids, sweeps them
// out, then does the same for row (probe) means. On return resids holds the
// swept residuals and beta the chip means and the first rows-1 probe means.
func startingValues(wts, resids *Matrix, beta []float64) error {
	rows, cols := resids.Dims()
	for j := 0; j < cols; j++ {
		w, r := wts.Chip(j), resids.Chip(j)
		var sum, sumw float64
		for i := range r {
			sum += w[i] * r[i]
			sumw += w[i]
		}
		if sumw == 0 {
			return fmt.Errorf("%w: chip %d has no weight", ErrSingularDesign, j)
		}
		beta[j] = sum / sumw
		for i := range r {
			r[i] -= beta[j]
		}
	}

	for i := 0; i < rows; i++ {
		var sum, sumw float64
		for j := 0; j < cols; j++ {
			sum += wts.At(i, j) * resids.At(i, j)
			sumw += wts.At(i, j)
		}
		if sumw == 0 {
			return fmt.Errorf("%w: probe %d has no weight", ErrSingularDesign, i)
		}
		mean := sum / sumw
		for j := 0; j < cols; j++ {
			resids.Set(i, j, resids.At(i, j)-mean)
		}
		if i < rows-1 {
			beta[cols+i] = mean
		}
	}
	return nil
}

// fitResiduals sets resids to y less the fitted values implied by beta.
func fitResiduals(y *Matrix, beta []float64, resids *Matrix) {
	rows, cols := y.Dims()
	pe := ProbeEffects(beta, rows, cols)
	for j := 0; j < cols; j++ {
		yc, rc := y.Chip(j), resids.Chip(j)
		for i := range yc {
			rc[i] = yc[i] - (beta[j] + pe[i])
		}
	}
}

// FitANOVA fits y with unit prior weights and an estimated scale.
func FitANOVA(y *Matrix, fn psi.Function, k float64, maxIter int) (*Result, error) {
	return Fit(y, WithPsi(fn, k), WithMaxIter(maxIter))
}

// FitANOVAScale fits y with unit prior weights; a non-negative scale is held
// fixed, a negative one is estimated.
func FitANOVAScale(y *Matrix, scale float64, fn psi.Function, k float64, maxIter int) (*Result, error) {
	return Fit(y, WithScale(scale), WithPsi(fn, k), WithMaxIter(maxIter))
}

// WeightedFitANOVA fits y with prior weights w and an estimated scale.
func WeightedFitANOVA(y, w *Matrix, fn psi.Function, k float64, maxIter int) (*Result, error) {
	return Fit(y, WithPriorWeights(w), WithPsi(fn, k), WithMaxIter(maxIter))
}

// WeightedFitANOVAScale fits y with prior weights w; a non-negative scale is
// held fixed, a negative one is estimated.
func WeightedFitANOVAScale(y, w *Matrix, scale float64, fn psi.Function, k float64, maxIter int) (*Result, error) {
	return Fit(y, WithPriorWeights(w), WithScale(scale), WithPsi(fn, k), WithMaxIter(maxIter))
}
