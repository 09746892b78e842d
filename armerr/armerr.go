// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package armerr classifies the outcomes the filter core can produce, as
// laid out in the error handling design: a small fixed set of error kinds
// rather than one exception type per failure site.
package armerr

import (
	"errors"
	"fmt"

	"github.com/cpmech/gosl/chk"
)

// Sentinel kinds. Use errors.Is against these, never string comparison.
var (
	// ErrInvalidInput marks configuration or mesh-tree construction failures.
	// Fatal at startup; always surfaced to the caller.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingKinematics marks a per-step Jacobian or transform missing
	// for a particle's link. The filter driver skips the reweight of the
	// affected particle, which keeps its previous weight.
	ErrMissingKinematics = errors.New("missing kinematics")

	// ErrDegeneracy marks a sample set whose total weight collapsed to zero
	// after reweighting.
	ErrDegeneracy = errors.New("degenerate sample set")

	// ErrStale marks an observation whose timestamp did not advance.
	ErrStale = errors.New("stale observation")

	// ErrLoadTimeout marks a map-loader wait that exceeded its deadline.
	ErrLoadTimeout = errors.New("map load timeout")
)

// wrapped carries a sentinel kind plus context, so errors.Is still matches
// the kind while %v/Error() carries the detail.
type wrapped struct {
	kind error
	msg  string
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.kind }

func wrap(kind error, format string, args ...interface{}) error {
	return &wrapped{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// InvalidInput builds an ErrInvalidInput with context.
func InvalidInput(format string, args ...interface{}) error {
	return wrap(ErrInvalidInput, format, args...)
}

// MissingKinematics builds an ErrMissingKinematics naming the offending link.
func MissingKinematics(mapID string) error {
	return wrap(ErrMissingKinematics, "no jacobian/transform for map_id=%q", mapID)
}

// Degeneracy builds an ErrDegeneracy.
func Degeneracy() error {
	return wrap(ErrDegeneracy, "total sample weight is zero after reweighting")
}

// Stale builds an ErrStale naming the offending timestamps.
func Stale(t, lastT float64) error {
	return wrap(ErrStale, "observation t=%v is not newer than last=%v", t, lastT)
}

// LoadTimeout builds an ErrLoadTimeout.
func LoadTimeout(deadlineSec float64) error {
	return wrap(ErrLoadTimeout, "map loader did not publish a state space within %vs", deadlineSec)
}

// Invariant panics via chk.Panic when cond is false. Used for conditions
// that indicate a programming error in the core rather than a recoverable
// runtime condition (e.g. publishing the mesh-map tree twice).
func Invariant(cond bool, format string, args ...interface{}) {
	if !cond {
		chk.Panic(format, args...)
	}
}
