/*
DESCRIPTION
  probefit.go provides the chip only robust fit used when probe effects
  are already known.

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

	"github.com/ausocean/plm/psi"
)

// ProbeResult holds the output of FitGivenProbeEffects.
type ProbeResult struct {
	Beta      []float64 // One effect per chip.
	Residuals *Matrix
	Weights   *Matrix

	// Scales holds the final residual scale of each chip.
	Scales []float64

	Iterations int
	Delta      float64
	Outcome    Outcome
}

// FitGivenProbeEffects robustly fits chip effects to y with the probe
// effects held at probeEffects, which must have one entry per row of y.
// Each chip has its own residual scale: WithChipScales fixes them per chip,
// WithScale fixes them all, and by default each is a MAD estimate of that
// chip's residuals.
//
// Chips are fitted independently. A chip whose scale is degenerate, or
// whose updated weights would all be zero, keeps its previous weights for
// that iteration. The outcome is DegenerateScale only when every chip has a
// degenerate scale.
func FitGivenProbeEffects(y *Matrix, probeEffects []float64, opts ...Option) (*ProbeResult, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	rows, cols := y.Dims()
	if len(probeEffects) != rows {
		return nil, fmt.Errorf("%w: %d probe effects for %d probes", ErrDimension, len(probeEffects), rows)
	}
	if c.chipScales != nil && len(c.chipScales) != cols {
		return nil, fmt.Errorf("%w: %d chip scales for %d chips", ErrDimension, len(c.chipScales), cols)
	}
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

	// adj is y with the known probe effects removed; the chip only model
	// is fitted to it.
	adj := y.Clone()
	for j := 0; j < cols; j++ {
		a := adj.Chip(j)
		for i := range a {
			a[i] -= probeEffects[i]
		}
	}

	res := &ProbeResult{
		Beta:      make([]float64, cols),
		Residuals: adj.Clone(),
		Weights:   wts,
		Scales:    make([]float64, cols),
		Outcome:   MaxIterReached,
	}
	resids := res.Residuals
	for j := 0; j < cols; j++ {
		w, r := wts.Chip(j), resids.Chip(j)
		var sum, sumw float64
		for i := range r {
			sum += w[i] * r[i]
			sumw += w[i]
		}
		if sumw == 0 {
			res.Outcome = SingularDesign
			return res, fmt.Errorf("%w: chip %d has no weight", ErrSingularDesign, j)
		}
		res.Beta[j] = sum / sumw
		for i := range r {
			r[i] -= res.Beta[j]
		}
	}

	r := resids.Data()
	old := make([]float64, len(r))
	prev := make([]float64, rows)
	for iter := 0; iter < c.maxIter; iter++ {
		copy(old, r)

		var degenerate int
		for j := 0; j < cols; j++ {
			rc := resids.Chip(j)
			scale := c.chipScale(j, rc)
			if math.Abs(scale) < minScale {
				degenerate++
				continue
			}
			wc := wts.Chip(j)
			copy(prev, wc)
			var sumw float64
			for i := range rc {
				wc[i] = c.weight(j*rows+i, rc[i]/scale)
				sumw += wc[i]
			}
			if sumw == 0 {
				c.warning("chip has no weight, keeping previous weights", "iteration", iter, "chip", j)
				copy(wc, prev)
			}
		}
		if degenerate == cols {
			c.warning("scale too small on every chip, stopping", "iteration", iter)
			res.Outcome = DegenerateScale
			break
		}

		inv, err := ColumnXTWXInverse(ColumnXTWX(wts))
		if err != nil {
			res.Outcome = SingularDesign
			c.chipScalesOf(resids, res.Scales)
			return res, fmt.Errorf("could not solve normal equations at iteration %d: %w", iter, err)
		}
		xtwy := ColumnXTWY(wts, adj)
		for j := range res.Beta {
			res.Beta[j] = inv.At(j, j) * xtwy[j]
		}

		for j := 0; j < cols; j++ {
			a, rc := adj.Chip(j), resids.Chip(j)
			for i := range a {
				rc[i] = a[i] - res.Beta[j]
			}
		}

		res.Iterations = iter + 1
		res.Delta = irlsDelta(old, r)
		c.debug("irls iteration", "iteration", iter, "degenerate", degenerate, "delta", res.Delta)
		if res.Delta < tolerance {
			res.Outcome = Converged
			break
		}
	}

	c.chipScalesOf(resids, res.Scales)
	return res, nil
}

// chipScale returns the scale to use for chip j with residuals r.
func (c *config) chipScale(j int, r []float64) float64 {
	s := c.scale
	if c.chipScales != nil {
		s = c.chipScales[j]
	}
	if s < 0 {
		return MADScale(r)
	}
	return s
}

// chipScalesOf writes the scale of every chip of resids into dst.
func (c *config) chipScalesOf(resids *Matrix, dst []float64) {
	for j := range dst {
		dst[j] = c.chipScale(j, resids.Chip(j))
	}
}

// WeightedFitGivenProbeEffects is FitGivenProbeEffects with prior weights w.
func WeightedFitGivenProbeEffects(y *Matrix, probeEffects []float64, w *Matrix, fn psi.Function, k float64, maxIter int) (*ProbeResult, error) {
	return FitGivenProbeEffects(y, probeEffects, WithPriorWeights(w), WithPsi(fn, k), WithMaxIter(maxIter))
}
