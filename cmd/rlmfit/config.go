/*
DESCRIPTION
  config.go provides command line and config file handling for rlmfit.

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
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/ausocean/utils/filemap"
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/sliceutils"

	"github.com/ausocean/plm/psi"
	"github.com/ausocean/plm/rlm"
)

// config holds the settings of one rlmfit run.
type config struct {
	in       string
	header   bool
	log2     bool
	file     string
	psi      string
	k        float64
	maxIter  int
	scale    float64
	se       int
	varcov   bool
	baseline bool
	plotDir  string
	logLevel int
	logPath  string
}

// register defines the flags of c on fs.
func (c *config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.in, "in", "", "CSV file with one line per probe and one column per chip")
	fs.BoolVar(&c.header, "header", false, "first CSV line holds chip names")
	fs.BoolVar(&c.log2, "log2", false, "take log2 of raw intensities before fitting")
	fs.StringVar(&c.file, "config", "", "optional config file of key value lines; flags override it")
	fs.StringVar(&c.psi, "psi", "huber", "influence function: "+strings.Join(psi.Names(), ", "))
	fs.Float64Var(&c.k, "k", 0, "psi tuning constant, 0 for the function's default")
	fs.IntVar(&c.maxIter, "maxiter", rlm.DefaultMaxIter, "maximum IRLS iterations")
	fs.Float64Var(&c.scale, "scale", -1, "fixed residual scale, negative to estimate")
	fs.IntVar(&c.se, "se", 0, "standard error method 1-4, 0 for none")
	fs.BoolVar(&c.varcov, "varcov", false, "print the parameter covariance")
	fs.BoolVar(&c.baseline, "baseline", false, "also print log2 median estimates")
	fs.StringVar(&c.plotDir, "plot", "", "directory for diagnostic plots, empty for none")
	fs.IntVar(&c.logLevel, "LogLevel", int(logging.Info), "log level, Debug (-1) to Fatal (4)")
	fs.StringVar(&c.logPath, "LogPath", defaultLogPath, "log file path")
}

// loadFile reads the config file at path and applies every key not already
// set on the command line to the flag of the same name.
func loadFile(fs *flag.FlagSet, path string) error {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	m, err := filemap.ReadFrom(path, "\n", " ")
	if err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := strings.TrimSpace(k)
		if name == "" || strings.HasPrefix(name, "#") || set[name] {
			continue
		}
		if name == "config" || fs.Lookup(name) == nil {
			return fmt.Errorf("unknown config key %q", name)
		}
		err = fs.Set(name, strings.TrimSpace(m[k]))
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", name, err)
		}
	}
	return nil
}

// validate checks c, returning the psi function and tuning constant to use.
func (c *config) validate() (psi.Function, float64, error) {
	if c.in == "" {
		return nil, 0, errors.New("no input file given")
	}
	if !sliceutils.ContainsString(psi.Names(), strings.ToLower(c.psi)) {
		return nil, 0, fmt.Errorf("invalid psi function %q, want one of %v", c.psi, psi.Names())
	}
	fn, k, err := psi.ByName(c.psi)
	if err != nil {
		return nil, 0, fmt.Errorf("could not select psi function: %w", err)
	}
	if c.k < 0 {
		return nil, 0, fmt.Errorf("negative tuning constant %v", c.k)
	}
	if c.k > 0 {
		k = c.k
	}
	if c.maxIter < 0 {
		return nil, 0, fmt.Errorf("negative iteration cap %d", c.maxIter)
	}
	if c.se < 0 || c.se > int(rlm.SEWeightedRMSE) {
		return nil, 0, fmt.Errorf("invalid standard error method %d", c.se)
	}
	return fn, k, nil
}

// validLogLevel reports whether c holds a usable log level, defaulting it to
// Info if not.
func (c *config) validLogLevel() bool {
	if c.logLevel < int(logging.Debug) || c.logLevel > int(logging.Fatal) {
		c.logLevel = int(logging.Info)
		return false
	}
	return true
}
