/*
DESCRIPTION
  options.go provides functional options for the fitting routines.

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

	"github.com/ausocean/plm/psi"
	"github.com/ausocean/utils/logging"
)

// DefaultMaxIter is the iteration cap used when WithMaxIter is not given.
const DefaultMaxIter = 20

// config holds the settings of one fit call.
type config struct {
	psi        psi.Function
	k          float64
	maxIter    int
	prior      *Matrix
	scale      float64
	chipScales []float64
	weights    *Matrix
	warm       bool
	log        logging.Logger
}

// Option is the function signature returned by option functions below for
// use with Fit and FitGivenProbeEffects.
type Option func(*config) error

func newConfig(opts []Option) (*config, error) {
	c := &config{
		psi:     psi.Huber{},
		k:       psi.HuberK,
		maxIter: DefaultMaxIter,
		scale:   -1,
	}
	for i, opt := range opts {
		err := opt(c)
		if err != nil {
			return nil, fmt.Errorf("could not apply option %d: %w", i, err)
		}
	}
	if c.warm && c.weights == nil {
		return nil, fmt.Errorf("%w: warm start needs a weights buffer", ErrInvalidOption)
	}
	return c, nil
}

// WithPsi returns an Option that sets the influence function and its tuning
// constant. The default is Huber with k = 1.345.
func WithPsi(fn psi.Function, k float64) Option {
	return func(c *config) error {
		if fn == nil {
			return fmt.Errorf("%w: nil psi function", ErrInvalidOption)
		}
		c.psi, c.k = fn, k
		return nil
	}
}

// WithMaxIter returns an Option that sets the maximum number of IRLS
// iterations. Zero returns the starting values.
func WithMaxIter(n int) Option {
	return func(c *config) error {
		if n < 0 {
			return fmt.Errorf("%w: negative iteration cap %d", ErrInvalidOption, n)
		}
		c.maxIter = n
		return nil
	}
}

// WithPriorWeights returns an Option that multiplies every robustness weight
// by the corresponding entry of w. Without a warm start w also provides the
// starting weights. w is not modified.
func WithPriorWeights(w *Matrix) Option {
	return func(c *config) error {
		if w == nil {
			return fmt.Errorf("%w: nil prior weights", ErrInvalidOption)
		}
		c.prior = w
		return nil
	}
}

// WithScale returns an Option that fixes the residual scale. A negative
// value, the default, requests a MAD estimate at every iteration.
func WithScale(s float64) Option {
	return func(c *config) error {
		c.scale = s
		return nil
	}
}

// WithChipScales returns an Option that fixes the residual scale of each chip
// in FitGivenProbeEffects. Negative entries are estimated. It is rejected by
// Fit.
func WithChipScales(s []float64) Option {
	return func(c *config) error {
		c.chipScales = s
		return nil
	}
}

// WithWeights returns an Option that uses w as the weight buffer of the fit.
// On return w holds the final robustness weights and the result's Weights
// field is w itself. Unless WithWarmStart is also given, the contents of w
// on entry are ignored.
func WithWeights(w *Matrix) Option {
	return func(c *config) error {
		if w == nil {
			return fmt.Errorf("%w: nil weights buffer", ErrInvalidOption)
		}
		c.weights = w
		return nil
	}
}

// WithWarmStart returns an Option marking the WithWeights buffer as already
// initialised, so its contents are used to compute the starting values
// instead of unit or prior weights.
func WithWarmStart() Option {
	return func(c *config) error {
		c.warm = true
		return nil
	}
}

// WithLogger returns an Option that sets a logger for iteration progress.
func WithLogger(l logging.Logger) Option {
	return func(c *config) error {
		c.log = l
		return nil
	}
}

func (c *config) debug(msg string, args ...interface{}) {
	if c.log != nil {
		c.log.Debug(msg, args...)
	}
}

func (c *config) warning(msg string, args ...interface{}) {
	if c.log != nil {
		c.log.Warning(msg, args...)
	}
}

// weight returns the IRLS weight of element idx for scaled residual u.
func (c *config) weight(idx int, u float64) float64 {
	w := c.psi.Eval(u, c.k, psi.Weight)
	if c.prior != nil {
		w *= c.prior.Data()[idx]
	}
	return w
}
