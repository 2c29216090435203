/*
DESCRIPTION
  input.go provides reading of a probe set from CSV.

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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ausocean/plm/rlm"
)

// probeSet is a probes x chips matrix as read from CSV.
type probeSet struct {
	chips []string    // Chip names, one per column.
	raw   *rlm.Matrix // Values as read.
	y     *rlm.Matrix // Values to fit; log2 of raw if requested.
}

// readProbeSet reads one line per probe and one column per chip from r. If
// header is set the first line names the chips. If log2 is set the fitted
// values are the log2 of the raw values, which must then be positive.
func readProbeSet(r io.Reader, header, log2 bool) (*probeSet, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not read CSV: %w", err)
	}

	ps := &probeSet{}
	if header {
		if len(records) == 0 {
			return nil, fmt.Errorf("missing header")
		}
		ps.chips = records[0]
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no probes")
	}

	rows := make([][]float64, len(records))
	for i, rec := range records {
		rows[i] = make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("could not parse probe %d chip %d: %w", i, j, err)
			}
			rows[i][j] = v
		}
	}
	ps.raw, err = rlm.NewMatrixFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("could not build matrix: %w", err)
	}
	_, cols := ps.raw.Dims()

	if ps.chips == nil {
		ps.chips = make([]string, cols)
		for j := range ps.chips {
			ps.chips[j] = strconv.Itoa(j)
		}
	}
	if len(ps.chips) != cols {
		return nil, fmt.Errorf("%d chip names for %d chips", len(ps.chips), cols)
	}

	ps.y = ps.raw
	if log2 {
		ps.y = ps.raw.Clone()
		data := ps.y.Data()
		for i, v := range data {
			if !(v > 0) {
				return nil, fmt.Errorf("cannot take log2 of %v", v)
			}
			data[i] = math.Log2(v)
		}
	}
	return ps, nil
}

// intensities returns the values of ps on the raw intensity scale, undoing
// the log2 scale of the input if it was not transformed on reading.
func (ps *probeSet) intensities(log2 bool) *rlm.Matrix {
	if log2 {
		return ps.raw
	}
	m := ps.raw.Clone()
	data := m.Data()
	for i, v := range data {
		data[i] = math.Exp2(v)
	}
	return m
}
