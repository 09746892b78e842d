// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surface

import (
	"math/rand"
	"sort"

	"github.com/cxdcxd/armcl/armerr"
	"github.com/cxdcxd/armcl/armrand"
	"github.com/cxdcxd/armcl/meshmap"
)

// Sampler draws particles uniformly across every link of a mesh-map tree,
// weighted by per-link total edge length (§4.2).
type Sampler struct {
	rng *rand.Rand
}

// NewSampler builds a Sampler with its own independent stream, per §5.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: armrand.New(seed, "surface.sampler")}
}

// Sample draws n particles spread across tree's links in proportion to
// each link's total edge length, rounding to whole counts per link and
// topping up any shortfall from the links with the largest fractional
// remainder. n == 0 returns an empty, non-nil slice.
func (sm *Sampler) Sample(tree *meshmap.Tree, n int) ([]State, error) {
	if n < 0 {
		return nil, armerr.InvalidInput("surface: sample count must be >= 0, got %d", n)
	}
	out := make([]State, 0, n)
	if n == 0 {
		return out, nil
	}
	nodes := tree.Nodes()
	total := 0.0
	for _, node := range nodes {
		total += node.Mesh.SumEdgeLength()
	}
	if total <= 0 {
		return nil, armerr.InvalidInput("surface: mesh-map tree has zero total edge length")
	}

	type share struct {
		idx   int
		count int
		frac  float64
	}
	shares := make([]share, len(nodes))
	assigned := 0
	for i, node := range nodes {
		raw := float64(n) * node.Mesh.SumEdgeLength() / total
		count := int(raw + 0.5) // round to nearest
		shares[i] = share{idx: i, count: count, frac: raw - float64(count)}
		assigned += count
	}
	// Reconcile rounding to exactly n: top up shortfall from the largest
	// fractional residual, or trim from the smallest if rounding overshot.
	if diff := n - assigned; diff > 0 {
		order := append([]share(nil), shares...)
		sort.SliceStable(order, func(a, b int) bool { return order[a].frac > order[b].frac })
		for k := 0; k < diff; k++ {
			shares[order[k%len(order)].idx].count++
		}
	} else if diff < 0 {
		order := append([]share(nil), shares...)
		sort.SliceStable(order, func(a, b int) bool { return order[a].frac < order[b].frac })
		for k := 0; k < -diff; k++ {
			s := &shares[order[k%len(order)].idx]
			if s.count > 0 {
				s.count--
			}
		}
	}

	for _, sh := range shares {
		node := nodes[sh.idx]
		for i := 0; i < sh.count; i++ {
			st, err := sm.sampleOnMesh(node.FrameID, node.Mesh)
			if err != nil {
				return nil, err
			}
			out = append(out, st)
		}
	}
	return out, nil
}

// sampleOnMesh draws one particle on a single link's mesh: an edge chosen
// with probability proportional to its length, then s ~ U[0,1], with the
// edge's first-listed endpoint (V0) fixed as active by convention.
func (sm *Sampler) sampleOnMesh(frameID string, mesh *meshmap.Mesh) (State, error) {
	if len(mesh.Edges) == 0 {
		return State{}, armerr.InvalidInput("surface: link %q has no edges", frameID)
	}
	r := sm.rng.Float64() * mesh.SumEdgeLength()
	idx := len(mesh.Edges) - 1
	acc := 0.0
	for i, e := range mesh.Edges {
		acc += e.Length
		if r < acc {
			idx = i
			break
		}
	}
	e := mesh.Edges[idx]
	return State{
		MapID:   frameID,
		EdgeIdx: idx,
		S:       sm.rng.Float64(),
		Active:  e.V0,
		Goal:    e.V1,
	}, nil
}
