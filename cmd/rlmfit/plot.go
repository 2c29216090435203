/*
DESCRIPTION
  plot.go provides diagnostic plots of a fitted probe set.

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
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/plm/rlm"
)

// plotFit writes residual, weight and fitted value plots of res to dir.
func plotFit(dir string, chips []string, y *rlm.Matrix, res *rlm.Result) error {
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("could not create plot directory: %w", err)
	}

	p := newPlot("Residuals", "Probe", "Residual")
	err = plotutil.AddLinePoints(p, perChip(chips, res.Residuals)...)
	if err != nil {
		return fmt.Errorf("could not plot residuals: %w", err)
	}
	err = savePlot(dir, p)
	if err != nil {
		return err
	}

	p = newPlot("Weights", "Probe", "Weight")
	err = plotutil.AddScatters(p, perChip(chips, res.Weights)...)
	if err != nil {
		return fmt.Errorf("could not plot weights: %w", err)
	}
	err = savePlot(dir, p)
	if err != nil {
		return err
	}

	// Observed against fitted, where fitted = observed - residual.
	obs, r := y.Data(), res.Residuals.Data()
	xy := make(plotter.XYs, len(obs))
	for i := range obs {
		xy[i].X, xy[i].Y = obs[i]-r[i], obs[i]
	}
	s, err := plotter.NewScatter(xy)
	if err != nil {
		return fmt.Errorf("could not plot fitted values: %w", err)
	}
	p = newPlot("Fitted", "Fitted value", "Observed value")
	p.Add(s)
	return savePlot(dir, p)
}

// perChip returns name, XYs pairs of m against probe index, one per chip,
// in the form taken by the plotutil Add functions.
func perChip(chips []string, m *rlm.Matrix) []interface{} {
	_, cols := m.Dims()
	vs := make([]interface{}, 0, 2*cols)
	for j := 0; j < cols; j++ {
		c := m.Chip(j)
		xy := make(plotter.XYs, len(c))
		for i, v := range c {
			xy[i].X, xy[i].Y = float64(i), v
		}
		vs = append(vs, chips[j], xy)
	}
	return vs
}

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	return p
}

// savePlot writes p to dir as a square PNG named after its title.
func savePlot(dir string, p *plot.Plot) error {
	name := filepath.Join(dir, p.Title.Text+".png")
	err := p.Save(15*vg.Centimeter, 15*vg.Centimeter, name)
	if err != nil {
		return fmt.Errorf("could not save %s: %w", name, err)
	}
	return nil
}
