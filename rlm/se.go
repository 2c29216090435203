/*
DESCRIPTION
  se.go provides standard errors for the parameters of a fitted probes +
  chips model using Huber's three asymptotic approximations or a weighted
  residual mean square.

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
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/plm/psi"
	"github.com/ausocean/utils/logging"
)

// SEMethod selects how StandardErrors approximates the parameter covariance.
type SEMethod int

// Standard error methods. The first three follow Huber (1981).
const (
	// SEHuber1 scales (X^T X)^-1 by kappa^2 (sum psi^2/(n-p)) / (sum psi'/n)^2.
	SEHuber1 SEMethod = iota + 1

	// SEHuber2 scales W^-1 by kappa (sum psi^2/(n-p)) / (sum psi'/n), where
	// W = X^T diag(psi') X.
	SEHuber2

	// SEHuber3 uses the sandwich W^-1 (X^T X) W^-1 scaled by
	// (sum psi^2/(n-p)) / kappa.
	SEHuber3

	// SEWeightedRMSE scales (X^T W X)^-1, with W the fit weights, by the
	// weighted residual mean square.
	SEWeightedRMSE
)

// String implements fmt.Stringer.
func (m SEMethod) String() string {
	switch m {
	case SEHuber1:
		return "huber1"
	case SEHuber2:
		return "huber2"
	case SEHuber3:
		return "huber3"
	case SEWeightedRMSE:
		return "wrmse"
	default:
		return fmt.Sprintf("SEMethod(%d)", int(m))
	}
}

// SEResult holds parameter standard errors.
type SEResult struct {
	// SE holds one standard error per chip followed by one per probe. For
	// StandardErrors the last entry belongs to the constrained last probe.
	SE []float64

	// ResidualSE is the MAD residual scale for the Huber methods and the
	// weighted root mean square residual otherwise.
	ResidualSE float64

	// VarCov is the parameter covariance, set only if WithVarCov was given.
	VarCov *mat.SymDense

	// GeneralizedInverse reports that W was not positive definite and a
	// generalized inverse was used in its place.
	GeneralizedInverse bool
}

type seConfig struct {
	psi    psi.Function
	k      float64
	varcov bool
	log    logging.Logger
}

// SEOption is the function signature returned by option functions below for
// use with StandardErrors.
type SEOption func(*seConfig) error

// WithSEPsi returns an SEOption that sets the influence function used by
// the Huber methods. It should match the one used for the fit.
func WithSEPsi(fn psi.Function, k float64) SEOption {
	return func(c *seConfig) error {
		if fn == nil {
			return fmt.Errorf("%w: nil psi function", ErrInvalidOption)
		}
		c.psi, c.k = fn, k
		return nil
	}
}

// WithVarCov returns an SEOption requesting the covariance matrix.
func WithVarCov() SEOption {
	return func(c *seConfig) error {
		c.varcov = true
		return nil
	}
}

// WithSELogger returns an SEOption that sets a logger for warnings.
func WithSELogger(l logging.Logger) SEOption {
	return func(c *seConfig) error {
		c.log = l
		return nil
	}
}

func newSEConfig(opts []SEOption) (*seConfig, error) {
	c := &seConfig{psi: psi.Huber{}, k: psi.HuberK}
	for i, opt := range opts {
		err := opt(c)
		if err != nil {
			return nil, fmt.Errorf("could not apply option %d: %w", i, err)
		}
	}
	return c, nil
}

// StandardErrors returns standard errors for the fit of y described by beta,
// resid and weights, normally the outputs of Fit.
func StandardErrors(y *Matrix, beta []float64, resid, weights *Matrix, method SEMethod, opts ...SEOption) (*SEResult, error) {
	c, err := newSEConfig(opts)
	if err != nil {
		return nil, err
	}
	if method < SEHuber1 || method > SEWeightedRMSE {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMethod, int(method))
	}
	rows, cols := y.Dims()
	err = sameShape(rows, cols, resid, weights)
	if err != nil {
		return nil, err
	}
	n, p := rows*cols, cols+rows-1
	if len(beta) != p {
		return nil, fmt.Errorf("%w: %d coefficients, want %d", ErrDimension, len(beta), p)
	}
	if n <= p {
		return nil, fmt.Errorf("%w: %d observations for %d parameters", ErrNoResidualDF, n, p)
	}

	res := &SEResult{}
	cov := mat.NewSymDense(p, nil)
	r := resid.Data()

	if method == SEWeightedRMSE {
		w := weights.Data()
		var rss float64
		for i := range r {
			rss += w[i] * r[i] * r[i]
		}
		res.ResidualSE = math.Sqrt(rss / float64(n-p))

		inv, err := XTWXInverse(rows, cols, XTWX(weights))
		if err != nil {
			return nil, fmt.Errorf("could not invert weighted normal matrix: %w", err)
		}
		cov.ScaleSym(res.ResidualSE*res.ResidualSE, inv)
		return c.finish(res, cov, rows, cols), nil
	}

	scale := MADScale(r)
	if scale < minScale {
		return nil, fmt.Errorf("%w: %g", ErrDegenerateScale, scale)
	}
	res.ResidualSE = scale

	var sumpsi2 float64
	deriv := make([]float64, n)
	for i, v := range r {
		u := v / scale
		s := c.psi.Eval(u, c.k, psi.Value)
		sumpsi2 += s * s
		deriv[i] = c.psi.Eval(u, c.k, psi.Derivative)
	}
	m, varderiv := stat.PopMeanVariance(deriv, nil)
	if m == 0 {
		return nil, ErrZeroDerivative
	}
	kappa := 1 + float64(p)/float64(n)*varderiv/(m*m)
	vs := scale * scale * sumpsi2 / float64(n-p)

	ones, _ := NewMatrix(rows, cols, nil)
	ones.Fill(1)
	xtx := XTWX(ones)

	if method == SEHuber1 {
		inv, err := XTWXInverse(rows, cols, xtx)
		if err != nil {
			return nil, fmt.Errorf("could not invert normal matrix: %w", err)
		}
		cov.ScaleSym(kappa*kappa*vs/(m*m), inv)
		return c.finish(res, cov, rows, cols), nil
	}

	dm, _ := NewMatrix(rows, cols, deriv)
	winv, ginv, err := invert(XTWX(dm))
	if err != nil {
		return nil, fmt.Errorf("could not invert psi derivative matrix: %w", err)
	}
	if ginv {
		res.GeneralizedInverse = true
		if c.log != nil {
			c.log.Warning("psi derivative matrix not positive definite, using generalized inverse", "method", method.String())
		}
	}

	switch method {
	case SEHuber2:
		cov.ScaleSym(kappa*vs/m, winv)
	case SEHuber3:
		var left, sandwich mat.Dense
		left.Mul(winv, xtx)
		sandwich.Mul(&left, winv)
		cov.ScaleSym(vs/kappa, symmetrize(&sandwich))
	}
	return c.finish(res, cov, rows, cols), nil
}

// finish fills the standard errors of res from the covariance cov.
func (c *seConfig) finish(res *SEResult, cov *mat.SymDense, rows, cols int) *SEResult {
	p := cols + rows - 1
	res.SE = make([]float64, p+1)
	for i := 0; i < p; i++ {
		res.SE[i] = math.Sqrt(cov.At(i, i))
	}

	// The last probe effect is minus the sum of the others, so its variance
	// is the sum of the probe block.
	var v float64
	for i := cols; i < p; i++ {
		for k := cols; k < p; k++ {
			v += cov.At(i, k)
		}
	}
	res.SE[p] = math.Sqrt(v)

	if c.varcov {
		res.VarCov = cov
	}
	return res
}

// StandardErrorsGivenProbeEffects returns per chip standard errors for a fit
// made by FitGivenProbeEffects. Each chip's error is its weighted root mean
// square residual over rows-1 degrees of freedom scaled by the inverse root
// of its weight sum. ResidualSE is the pooled weighted root mean square.
func StandardErrorsGivenProbeEffects(y *Matrix, probeEffects, beta []float64, resid, weights *Matrix, opts ...SEOption) (*SEResult, error) {
	c, err := newSEConfig(opts)
	if err != nil {
		return nil, err
	}
	rows, cols := y.Dims()
	err = sameShape(rows, cols, resid, weights)
	if err != nil {
		return nil, err
	}
	if len(probeEffects) != rows || len(beta) != cols {
		return nil, fmt.Errorf("%w: %d probe effects and %d chip effects for %dx%d matrix", ErrDimension, len(probeEffects), len(beta), rows, cols)
	}
	if rows < 2 {
		return nil, fmt.Errorf("%w: one probe per chip", ErrNoResidualDF)
	}

	inv, err := ColumnXTWXInverse(ColumnXTWX(weights))
	if err != nil {
		return nil, fmt.Errorf("could not invert weighted normal matrix: %w", err)
	}

	res := &SEResult{SE: make([]float64, cols)}
	var cov *mat.SymDense
	if c.varcov {
		cov = mat.NewSymDense(cols, nil)
	}
	var total float64
	for j := 0; j < cols; j++ {
		w, r := weights.Chip(j), resid.Chip(j)
		var rss float64
		for i := range r {
			rss += w[i] * r[i] * r[i]
		}
		total += rss
		v := rss / float64(rows-1) * inv.At(j, j)
		res.SE[j] = math.Sqrt(v)
		if cov != nil {
			cov.SetSym(j, j, v)
		}
	}
	res.ResidualSE = math.Sqrt(total / float64(rows*cols-cols))
	res.VarCov = cov
	return res, nil
}
