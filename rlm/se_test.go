/*
DESCRIPTION
  se_test.go provides testing of the standard error routines in se.go.

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
	"math"
	"testing"
)

// cleanFit returns a converged fit of a 6 x 5 probe set whose residuals all
// lie well inside the Huber threshold.
func cleanFit(t *testing.T) (*Matrix, *Result) {
	t.Helper()
	chips := []float64{8, 9, 10, 9.5, 8.5}
	probes := []float64{0.5, -0.3, 0.2, -0.6, 0.4, -0.2}
	noise := [][]float64{
		{0.002, 0.031, 0.046, -0.021, 0.027, 0.02},
		{0.016, -0.039, -0.047, -0.012, 0.025, -0.025},
		{0, -0.018, 0.035, 0.045, -0.01, 0.05},
		{-0.044, 0.031, 0.038, -0.035, 0.021, 0.006},
		{0.046, -0.029, 0.004, 0.038, 0.014, -0.019},
	}
	y := additive(t, chips, probes, noise)
	res, err := Fit(y)
	if err != nil {
		t.Fatalf("could not fit: %v", err)
	}
	return y, res
}

// TestStandardErrorsAgree checks that the Huber methods agree on a well
// conditioned design without outliers.
func TestStandardErrorsAgree(t *testing.T) {
	y, fit := cleanFit(t)

	var ses [][]float64
	for _, m := range []SEMethod{SEHuber1, SEHuber2, SEHuber3} {
		res, err := StandardErrors(y, fit.Beta, fit.Residuals, fit.Weights, m)
		if err != nil {
			t.Fatalf("%v: could not compute standard errors: %v", m, err)
		}
		if len(res.SE) != 11 {
			t.Fatalf("%v: unexpected length. Got: %d, Want: 11", m, len(res.SE))
		}
		if res.GeneralizedInverse {
			t.Errorf("%v: unexpected generalized inverse", m)
		}
		if res.ResidualSE != fit.Scale {
			t.Errorf("%v: residual SE is not the MAD scale. Got: %v, Want: %v", m, res.ResidualSE, fit.Scale)
		}
		ses = append(ses, res.SE)
	}

	for i := range ses[0] {
		for m := 1; m < len(ses); m++ {
			if rel := math.Abs(ses[m][i]-ses[0][i]) / ses[0][i]; rel > 0.05 {
				t.Errorf("method %d differs from method 1 at %d. Got: %v, Want: %v", m+1, i, ses[m][i], ses[0][i])
			}
		}
	}
}

func TestStandardErrorsWeightedRMSE(t *testing.T) {
	y, fit := cleanFit(t)

	res, err := StandardErrors(y, fit.Beta, fit.Residuals, fit.Weights, SEWeightedRMSE, WithVarCov())
	if err != nil {
		t.Fatalf("could not compute standard errors: %v", err)
	}

	// Every weight is 1 and the design is balanced, so each coefficient
	// has variance sigma^2/6.
	const want = 0.013067
	for i, se := range res.SE {
		if math.Abs(se-want) > 1e-5 {
			t.Errorf("unexpected standard error %d. Got: %v, Want: %v", i, se, want)
		}
	}

	if res.VarCov == nil {
		t.Fatalf("covariance not returned")
	}
	if n := res.VarCov.SymmetricDim(); n != 10 {
		t.Fatalf("unexpected covariance size. Got: %d, Want: 10", n)
	}
	for i := 0; i < 10; i++ {
		if got := math.Sqrt(res.VarCov.At(i, i)); math.Abs(got-res.SE[i]) > 1e-12 {
			t.Errorf("covariance diagonal %d does not match. Got: %v, Want: %v", i, got, res.SE[i])
		}
	}

	// The last probe's variance is the sum of the probe block.
	var v float64
	for i := 5; i < 10; i++ {
		for k := 5; k < 10; k++ {
			v += res.VarCov.At(i, k)
		}
	}
	if math.Abs(math.Sqrt(v)-res.SE[10]) > 1e-12 {
		t.Errorf("unexpected last probe standard error. Got: %v, Want: %v", res.SE[10], math.Sqrt(v))
	}

	res, err = StandardErrors(y, fit.Beta, fit.Residuals, fit.Weights, SEHuber1)
	if err != nil {
		t.Fatalf("could not compute standard errors: %v", err)
	}
	if res.VarCov != nil {
		t.Errorf("covariance returned without being requested")
	}
}

func TestStandardErrorsErrors(t *testing.T) {
	y, fit := cleanFit(t)

	for _, m := range []SEMethod{0, 5, -1} {
		_, err := StandardErrors(y, fit.Beta, fit.Residuals, fit.Weights, m)
		if !errors.Is(err, ErrInvalidMethod) {
			t.Errorf("did not get expected error for method %d. Got: %v, Want: %v", m, err, ErrInvalidMethod)
		}
	}

	_, err := StandardErrors(y, fit.Beta[:5], fit.Residuals, fit.Weights, SEHuber1)
	if !errors.Is(err, ErrDimension) {
		t.Errorf("did not get expected error for short beta. Got: %v, Want: %v", err, ErrDimension)
	}

	one, _ := NewMatrix(1, 3, []float64{1, 2, 3})
	_, err = StandardErrors(one, []float64{1, 2, 3}, one, one, SEWeightedRMSE)
	if !errors.Is(err, ErrNoResidualDF) {
		t.Errorf("did not get expected error for single probe. Got: %v, Want: %v", err, ErrNoResidualDF)
	}

	zero, _ := NewMatrix(6, 5, nil)
	_, err = StandardErrors(y, fit.Beta, zero, fit.Weights, SEHuber2)
	if !errors.Is(err, ErrDegenerateScale) {
		t.Errorf("did not get expected error for zero residuals. Got: %v, Want: %v", err, ErrDegenerateScale)
	}
}

func TestStandardErrorsGivenProbeEffects(t *testing.T) {
	y, _ := NewMatrix(2, 2, []float64{3, 1, 5, 5})
	resid, _ := NewMatrix(2, 2, []float64{1, -1, 0, 0})
	w, _ := NewMatrix(2, 2, nil)
	w.Fill(1)

	res, err := StandardErrorsGivenProbeEffects(y, []float64{0, 0}, []float64{2, 5}, resid, w, WithVarCov())
	if err != nil {
		t.Fatalf("could not compute standard errors: %v", err)
	}
	want := []float64{1, 0}
	for j := range want {
		if math.Abs(res.SE[j]-want[j]) > 1e-12 {
			t.Errorf("unexpected standard error %d. Got: %v, Want: %v", j, res.SE[j], want[j])
		}
	}
	if math.Abs(res.ResidualSE-1) > 1e-12 {
		t.Errorf("unexpected residual SE. Got: %v, Want: 1", res.ResidualSE)
	}
	if res.VarCov == nil || res.VarCov.At(0, 0) != 1 {
		t.Errorf("unexpected covariance: %v", res.VarCov)
	}

	one, _ := NewMatrix(1, 2, nil)
	_, err = StandardErrorsGivenProbeEffects(one, []float64{0}, []float64{0, 0}, one, one)
	if !errors.Is(err, ErrNoResidualDF) {
		t.Errorf("did not get expected error. Got: %v, Want: %v", err, ErrNoResidualDF)
	}
}

// TestStandardErrorsGeneralizedInverse checks that a chip lying entirely
// outside the Huber threshold falls back to the generalized inverse and
// still gives finite standard errors.
func TestStandardErrorsGeneralizedInverse(t *testing.T) {
	y, fit := cleanFit(t)
	resid := fit.Residuals.Clone()
	r := resid.Chip(0)
	for i := range r {
		r[i] = 100
	}

	for _, m := range []SEMethod{SEHuber2, SEHuber3} {
		res, err := StandardErrors(y, fit.Beta, resid, fit.Weights, m)
		if err != nil {
			t.Fatalf("%v: could not compute standard errors: %v", m, err)
		}
		if !res.GeneralizedInverse {
			t.Errorf("%v: expected generalized inverse to be used", m)
		}
		for i, se := range res.SE {
			if math.IsNaN(se) || math.IsInf(se, 0) {
				t.Errorf("%v: standard error %d not finite. Got: %v", m, i, se)
			}
		}
		if res.SE[0] > 1e-6 {
			t.Errorf("%v: unexpected standard error for chip outside threshold. Got: %v, Want: 0", m, res.SE[0])
		}
	}

	res, err := StandardErrors(y, fit.Beta, resid, fit.Weights, SEHuber1)
	if err != nil {
		t.Fatalf("could not compute standard errors: %v", err)
	}
	if res.GeneralizedInverse {
		t.Errorf("generalized inverse used for method %v", SEHuber1)
	}
}
