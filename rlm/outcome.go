/*
DESCRIPTION
  outcome.go provides fit outcomes and the errors returned by the rlm
  package.

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

import "errors"

// Errors returned by this package.
var (
	ErrDimension           = errors.New("dimension mismatch")
	ErrNotPositiveDefinite = errors.New("matrix is not positive definite")
	ErrSingularDesign      = errors.New("singular design")
	ErrInvalidMethod       = errors.New("invalid standard error method")
	ErrNoResidualDF        = errors.New("no residual degrees of freedom")
	ErrInvalidOption       = errors.New("invalid option")
	ErrDegenerateScale     = errors.New("degenerate residual scale")
	ErrZeroDerivative      = errors.New("psi derivative vanishes at every residual")
)

// Outcome describes how an IRLS fit terminated.
type Outcome int

// Fit outcomes.
const (
	Converged       Outcome = iota // Residual change fell below the tolerance.
	MaxIterReached                 // Iteration cap hit before convergence.
	DegenerateScale                // Robust scale collapsed to ~0; residuals are ~0.
	SingularDesign                 // Normal equations could not be inverted.
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case MaxIterReached:
		return "max iterations reached"
	case DegenerateScale:
		return "degenerate scale"
	case SingularDesign:
		return "singular design"
	default:
		return "unknown"
	}
}
