// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package observe implements C3: the torque-residual observation model
// that maps a hypothesised contact location to a likelihood of the
// measured external-torque vector.
package observe

import (
	"math"

	"github.com/cpmech/gosl/la"

	"github.com/cxdcxd/armcl/armerr"
	"github.com/cxdcxd/armcl/meshmap"
	"github.com/cxdcxd/armcl/surface"
)

// Input bundles everything an observation step needs from the external
// kinematic collaborator (§6): the measured external-torque vector, the
// per-link Jacobian, and the per-link wrench-frame transform (only
// consulted for links with WrenchTransform set).
type Input struct {
	TauMeas          []float64
	Jacobians        map[string][][]float64 // map_id -> J x 6
	WrenchTransforms map[string]meshmap.Mat4 // map_id -> 4x4 rigid transform
}

// Model is the fixed information matrix Λ that shapes the Gaussian-form
// likelihood.
type Model struct {
	Lambda [][]float64 // J x J, symmetric positive semi-definite
}

// NewModel wraps a configured information matrix.
func NewModel(lambda [][]float64) *Model {
	return &Model{Lambda: lambda}
}

// Likelihood scores one particle against in, writing state.Force and
// state.LastUpdate per §4.3 steps 4 and 6, and returning the same
// likelihood value as the particle's new weight.
func (m *Model) Likelihood(tree *meshmap.Tree, st *surface.State, in Input) (float64, error) {
	node, ok := tree.Get(st.MapID)
	if !ok {
		return 0, armerr.MissingKinematics(st.MapID)
	}
	jac, ok := in.Jacobians[st.MapID]
	if !ok {
		return 0, armerr.MissingKinematics(st.MapID)
	}

	p, err := st.Position(tree)
	if err != nil {
		return 0, err
	}
	n, err := st.Normal(tree)
	if err != nil {
		return 0, err
	}

	moment := p.Cross(n)
	force := n

	if node.WrenchTransform {
		wt, ok := in.WrenchTransforms[st.MapID]
		if !ok {
			return 0, armerr.MissingKinematics(st.MapID)
		}
		moment, force = transformWrench(wt, moment, force)
	}

	w := make([]float64, 6)
	w[0], w[1], w[2] = moment[0], moment[1], moment[2]
	w[3], w[4], w[5] = force[0], force[1], force[2]

	jDim := len(in.TauMeas)
	tauPred := fitRows(jac, jDim)
	pred := make([]float64, jDim)
	la.MatVecMul(pred, 1, tauPred, w)

	tauMeas := in.TauMeas
	normMeas := la.VecNorm(tauMeas)
	normPred := la.VecNorm(pred)

	measUnit := make([]float64, jDim)
	predUnit := make([]float64, jDim)
	if normMeas > 1e-5 && normPred > 1e-5 {
		st.Force = normMeas / normPred
		for i := 0; i < jDim; i++ {
			measUnit[i] = tauMeas[i] / normMeas
			predUnit[i] = pred[i] / normPred
		}
	} else {
		st.Force = 0
		copy(measUnit, tauMeas)
		copy(predUnit, pred)
	}

	r := make([]float64, jDim)
	for i := 0; i < jDim; i++ {
		r[i] = measUnit[i] - predUnit[i]
	}

	lambda := fitSquare(m.Lambda, jDim)
	lr := make([]float64, jDim)
	la.MatVecMul(lr, 1, lambda, r)
	quad := dot(r, lr)

	likelihood := math.Exp(-0.5 * quad)
	st.LastUpdate = likelihood
	return likelihood, nil
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// fitRows zero-pads or truncates a (rows x 6) matrix to exactly want rows,
// per §4.3 step 3.
func fitRows(m [][]float64, want int) [][]float64 {
	if len(m) == want {
		return m
	}
	out := make([][]float64, want)
	for i := 0; i < want; i++ {
		if i < len(m) {
			out[i] = m[i]
		} else {
			out[i] = make([]float64, 6)
		}
	}
	return out
}

// fitSquare zero-pads or truncates a square matrix to want x want.
func fitSquare(m [][]float64, want int) [][]float64 {
	if len(m) == want {
		return m
	}
	out := la.MatAlloc(want, want)
	for i := 0; i < want && i < len(m); i++ {
		for j := 0; j < want && j < len(m[i]); j++ {
			out[i][j] = m[i][j]
		}
	}
	return out
}

// transformWrench carries a (moment, force) pair from the link frame into
// the frame described by t (a 4x4 rigid transform), using the standard
// spatial-force transport law: force rotates, moment rotates and picks up
// a translation-cross-force term.
func transformWrench(t meshmap.Mat4, moment, force meshmap.Vector3) (meshmap.Vector3, meshmap.Vector3) {
	rotate := func(v meshmap.Vector3) meshmap.Vector3 {
		return meshmap.Vector3{
			t[0][0]*v[0] + t[0][1]*v[1] + t[0][2]*v[2],
			t[1][0]*v[0] + t[1][1]*v[1] + t[1][2]*v[2],
			t[2][0]*v[0] + t[2][1]*v[1] + t[2][2]*v[2],
		}
	}
	translation := meshmap.Vector3{t[0][3], t[1][3], t[2][3]}
	forceOut := rotate(force)
	momentOut := rotate(moment).Add(translation.Cross(forceOut))
	return momentOut, forceOut
}
