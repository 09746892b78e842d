// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package armlog is a thin, colourised logging façade over gosl/io, used
// uniformly across the filter components instead of the standard log
// package, matching the teacher's own habit of printing progress and
// warnings through io.Pf and friends rather than a logging framework.
package armlog

import "github.com/cpmech/gosl/io"

// Verbose controls whether Info messages are printed. Warn and Error
// always print.
var Verbose = true

// Info prints a progress message when Verbose is set.
func Info(format string, args ...interface{}) {
	if Verbose {
		io.Pf(format, args...)
	}
}

// Warn prints a yellow warning message. Used for the locally-recovered
// error kinds (Degeneracy, Stale, MissingKinematics) that do not abort
// the filter.
func Warn(format string, args ...interface{}) {
	io.Pfyel("WARN: "+format, args...)
}

// Error prints a red error message. Used just before a surfaced error
// (InvalidInput, LoadTimeout) propagates to the caller.
func Error(format string, args ...interface{}) {
	io.Pfred("ERROR: "+format, args...)
}
