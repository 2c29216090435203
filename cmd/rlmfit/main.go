/*
DESCRIPTION
  rlmfit fits the robust probes + chips model to a probe set read from a
  CSV file and reports the estimated effects and their standard errors.

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

// rlmfit is a command line front end to the rlm package.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/plm/logmedian"
	"github.com/ausocean/plm/rlm"
	"github.com/ausocean/utils/logging"
)

// Logging configuration consts.
const (
	progName       = "rlmfit"
	defaultLogPath = "rlmfit.log"
	logMaxSize     = 50 // MB.
	logMaxBackup   = 5
	logMaxAge      = 28 // Days.
	logSuppress    = true
)

func main() {
	var c config
	fs := flag.NewFlagSet(progName, flag.ExitOnError)
	c.register(fs)
	fs.Parse(os.Args[1:])

	var cfgErr error
	if c.file != "" {
		cfgErr = loadFile(fs, c.file)
	}

	validLogLevel := c.validLogLevel()
	fileLog := &lumberjack.Logger{
		Filename:   c.logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(int8(c.logLevel), io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Debug("logger initialised", "level", c.logLevel)
	if !validLogLevel {
		log.Error("invalid log level was defaulted to Info")
	}
	if cfgErr != nil {
		log.Fatal("could not load config", "error", cfgErr)
	}

	err := run(&c, os.Stdout, log)
	if err != nil {
		log.Fatal("rlmfit failed", "error", err)
	}
}

// run performs the fit described by c and writes the report to out.
func run(c *config, out io.Writer, log logging.Logger) error {
	fn, k, err := c.validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	f, err := os.Open(c.in)
	if err != nil {
		return fmt.Errorf("could not open input: %w", err)
	}
	ps, err := readProbeSet(f, c.header, c.log2)
	f.Close()
	if err != nil {
		return fmt.Errorf("could not read %s: %w", c.in, err)
	}
	rows, cols := ps.y.Dims()
	log.Info("read probe set", "file", c.in, "probes", rows, "chips", cols)

	fit, err := rlm.Fit(ps.y,
		rlm.WithPsi(fn, k),
		rlm.WithMaxIter(c.maxIter),
		rlm.WithScale(c.scale),
		rlm.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("could not fit: %w", err)
	}
	log.Info("fit done", "outcome", fit.Outcome.String(), "iterations", fit.Iterations, "scale", fit.Scale)

	rep := &report{chips: ps.chips, psi: c.psi, k: k, fit: fit}
	if c.se != 0 {
		rep.method = rlm.SEMethod(c.se)
		opts := []rlm.SEOption{rlm.WithSEPsi(fn, k), rlm.WithSELogger(log)}
		if c.varcov {
			opts = append(opts, rlm.WithVarCov())
		}
		rep.se, err = rlm.StandardErrors(ps.y, fit.Beta, fit.Residuals, fit.Weights, rep.method, opts...)
		if err != nil {
			return fmt.Errorf("could not compute standard errors: %w", err)
		}
	}

	if c.baseline {
		rep.baseline, _, err = logmedian.Estimate(ps.intensities(c.log2), nil)
		if err != nil {
			return fmt.Errorf("could not compute baseline: %w", err)
		}
	}

	if c.plotDir != "" {
		err = plotFit(c.plotDir, ps.chips, ps.y, fit)
		if err != nil {
			log.Warning("could not plot fit", "error", err)
		}
	}

	return rep.write(out)
}
