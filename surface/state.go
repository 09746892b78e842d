// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package surface implements C2: the surface-constrained particle state,
// its uniform sampler, and its random-walk prediction kernel.
package surface

import (
	"github.com/cxdcxd/armcl/armerr"
	"github.com/cxdcxd/armcl/meshmap"
)

// State is one particle: a parametric point on a mesh edge, plus the two
// scalars the observation model and resampler read and write.
type State struct {
	MapID      string
	EdgeIdx    int
	S          float64 // in [0,1], parametric position from Active towards Goal
	Active     int     // vertex index the walk is currently advancing away from
	Goal       int     // vertex index the walk is currently advancing towards
	Force      float64 // written by the observation model
	LastUpdate float64 // most recent likelihood, written by the observation model
}

// Position is the particle's location in world coordinates: the edge
// endpoints blended by S and carried through the link's accumulated
// frame transform.
func (s State) Position(tree *meshmap.Tree) (meshmap.Vector3, error) {
	node, ok := tree.Get(s.MapID)
	if !ok {
		return meshmap.Vector3{}, armerr.MissingKinematics(s.MapID)
	}
	pa := node.Mesh.Verts[s.Active].Position
	pg := node.Mesh.Verts[s.Goal].Position
	local := pa.Scale(1 - s.S).Add(pg.Scale(s.S))
	return node.WorldPoint(local), nil
}

// Normal is the SLERP-like (linear blend, renormalised) interpolation of
// the two endpoint normals, carried through the link's frame.
func (s State) Normal(tree *meshmap.Tree) (meshmap.Vector3, error) {
	node, ok := tree.Get(s.MapID)
	if !ok {
		return meshmap.Vector3{}, armerr.MissingKinematics(s.MapID)
	}
	na := node.Mesh.Verts[s.Active].Normal
	ng := node.Mesh.Verts[s.Goal].Normal
	blend := na.Scale(1 - s.S).Add(ng.Scale(s.S)).Normalized()
	return node.WorldNormal(blend), nil
}
