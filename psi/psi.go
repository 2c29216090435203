/*
DESCRIPTION
  psi.go provides the influence (psi) functions used to weight residuals
  in robust linear model fits.

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

// Package psi provides influence functions for M-estimation. Each function
// is evaluated on a scaled residual u with a tuning constant k and returns,
// depending on the requested Order, the robustness weight psi(u)/u, the
// derivative psi'(u) or psi(u) itself.
package psi

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Order selects what a Function evaluates.
type Order int

// Evaluation orders.
const (
	Weight     Order = 0 // psi(u)/u, the IRLS weight.
	Derivative Order = 1 // psi'(u).
	Value      Order = 2 // psi(u).
)

// Function is an influence function.
type Function interface {
	Eval(u, k float64, o Order) float64
}

// Func adapts an ordinary function to the Function interface.
type Func func(u, k float64, o Order) float64

// Eval implements Function.
func (f Func) Eval(u, k float64, o Order) float64 { return f(u, k, o) }

// Default tuning constants, chosen for 95% efficiency under normal errors.
const (
	HuberK   = 1.345
	FairK    = 1.3998
	CauchyK  = 2.3849
	WelschK  = 2.9846
	TukeyK   = 4.6851
	AndrewsK = 1.339
)

// ErrUnknown is returned by ByName for an unrecognised function name.
var ErrUnknown = errors.New("unknown psi function")

// Huber is Huber's psi; quadratic loss inside [-k, k] and linear outside.
type Huber struct{}

// Eval implements Function.
func (Huber) Eval(u, k float64, o Order) float64 {
	switch o {
	case Weight:
		if 1 < k/math.Abs(u) {
			return 1
		}
		return k / math.Abs(u)
	case Derivative:
		if math.Abs(u) <= k {
			return 1
		}
		return 0
	default:
		if math.Abs(u) <= k {
			return u
		}
		return math.Copysign(k, u)
	}
}

// Fair is the "fair" psi function, u/(1+|u|/k).
type Fair struct{}

// Eval implements Function.
func (Fair) Eval(u, k float64, o Order) float64 {
	d := 1 + math.Abs(u)/k
	switch o {
	case Weight:
		return 1 / d
	case Derivative:
		return 1 / (d * d)
	default:
		return u / d
	}
}

// Cauchy is the Cauchy (Lorentzian) psi function.
type Cauchy struct{}

// Eval implements Function.
func (Cauchy) Eval(u, k float64, o Order) float64 {
	r := (u / k) * (u / k)
	switch o {
	case Weight:
		return 1 / (1 + r)
	case Derivative:
		return (1 - r) / ((1 + r) * (1 + r))
	default:
		return u / (1 + r)
	}
}

// GemanMcClure is the Geman-McClure psi function; k is ignored.
type GemanMcClure struct{}

// Eval implements Function.
func (GemanMcClure) Eval(u, _ float64, o Order) float64 {
	d := 1 + u*u
	switch o {
	case Weight:
		return 1 / (d * d)
	case Derivative:
		return (1 - 3*u*u) / (d * d * d)
	default:
		return u / (d * d)
	}
}

// Welsch is the Welsch psi function, u*exp(-(u/k)^2).
type Welsch struct{}

// Eval implements Function.
func (Welsch) Eval(u, k float64, o Order) float64 {
	e := math.Exp(-(u / k) * (u / k))
	switch o {
	case Weight:
		return e
	case Derivative:
		return e * (1 - 2*u*u/(k*k))
	default:
		return u * e
	}
}

// Tukey is Tukey's biweight; residuals beyond k get zero weight.
type Tukey struct{}

// Eval implements Function.
func (Tukey) Eval(u, k float64, o Order) float64 {
	if math.Abs(u) > k {
		return 0
	}
	r := (u / k) * (u / k)
	switch o {
	case Weight:
		return (1 - r) * (1 - r)
	case Derivative:
		return (1 - r) * (1 - 5*r)
	default:
		return u * (1 - r) * (1 - r)
	}
}

// Andrews is Andrews' sine wave; residuals beyond k*pi get zero weight.
type Andrews struct{}

// Eval implements Function.
func (Andrews) Eval(u, k float64, o Order) float64 {
	if math.Abs(u) > k*math.Pi {
		return 0
	}
	switch o {
	case Weight:
		if u == 0 {
			return 1
		}
		return math.Sin(u/k) / (u / k)
	case Derivative:
		return math.Cos(u / k)
	default:
		return k * math.Sin(u/k)
	}
}

// LeastSquares gives every residual unit weight, turning an IRLS fit into
// ordinary weighted least squares.
type LeastSquares struct{}

// Eval implements Function.
func (LeastSquares) Eval(u, _ float64, o Order) float64 {
	if o == Value {
		return u
	}
	return 1
}

var byName = map[string]struct {
	fn Function
	k  float64
}{
	"huber":        {Huber{}, HuberK},
	"fair":         {Fair{}, FairK},
	"cauchy":       {Cauchy{}, CauchyK},
	"gemanmcclure": {GemanMcClure{}, 1},
	"welsch":       {Welsch{}, WelschK},
	"tukey":        {Tukey{}, TukeyK},
	"andrews":      {Andrews{}, AndrewsK},
	"ls":           {LeastSquares{}, 1},
}

// Names returns the names accepted by ByName in sorted order.
func Names() []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByName returns the named function and its default tuning constant.
// Names are case insensitive.
func ByName(name string) (Function, float64, error) {
	e, ok := byName[strings.ToLower(name)]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return e.fn, e.k, nil
}
