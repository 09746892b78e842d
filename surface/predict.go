// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surface

import (
	"math"
	"math/rand"

	"github.com/cxdcxd/armcl/armerr"
	"github.com/cxdcxd/armcl/armrand"
	"github.com/cxdcxd/armcl/meshmap"
)

// Predictor advances particles by the link-local random-walk kernel of
// §4.2: a one-sided Gaussian step, consumed greedily across edges, with
// strict no-immediate-backtracking and leaf-vertex reflection.
type Predictor struct {
	rng   *rand.Rand
	Sigma float64 // step-size scale; step = Sigma * sqrt(dt) * |N(0,1)|
}

// NewPredictor builds a Predictor with its own independent stream, per §5.
func NewPredictor(seed int64, sigma float64) *Predictor {
	return &Predictor{rng: armrand.New(seed, "surface.predictor"), Sigma: sigma}
}

// Predict returns st advanced by one random-walk step over dt. The walk
// never crosses into another link: an explicit cross-link edge is outside
// this kernel's scope (§4.2's "forbidden unless declared").
func (pr *Predictor) Predict(tree *meshmap.Tree, st State, dt float64) (State, error) {
	if dt < 0 {
		return st, armerr.InvalidInput("surface: predict dt must be >= 0, got %v", dt)
	}
	node, ok := tree.Get(st.MapID)
	if !ok {
		return st, armerr.MissingKinematics(st.MapID)
	}
	mesh := node.Mesh
	delta := pr.Sigma * math.Sqrt(dt) * math.Abs(pr.rng.NormFloat64())

	cur := st
	prevEdge := -1
	for {
		if cur.EdgeIdx < 0 || cur.EdgeIdx >= len(mesh.Edges) {
			return st, armerr.InvalidInput("surface: particle edge index %d out of range for link %q", cur.EdgeIdx, cur.MapID)
		}
		edge := mesh.Edges[cur.EdgeIdx]
		remaining := (1 - cur.S) * edge.Length
		if delta < remaining {
			if edge.Length > 0 {
				cur.S += delta / edge.Length
			}
			return cur, nil
		}
		delta -= remaining
		vertex := cur.Goal
		prevEdge = cur.EdgeIdx

		incident := mesh.EdgesAt(vertex)
		candidates := make([]int, 0, len(incident))
		for _, eidx := range incident {
			if eidx != prevEdge {
				candidates = append(candidates, eidx)
			}
		}
		if len(candidates) == 0 {
			// Leaf vertex (or nothing left but the edge just crossed): reflect.
			cur.EdgeIdx = prevEdge
			cur.Active, cur.Goal = cur.Goal, cur.Active
			cur.S = 0
			continue
		}
		choice := candidates[pr.rng.Intn(len(candidates))]
		next := mesh.Edges[choice]
		cur.EdgeIdx = choice
		cur.Active = vertex
		cur.Goal = next.Other(vertex)
		cur.S = 0
	}
}
