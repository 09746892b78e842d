// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package meshmap

import (
	"github.com/cpmech/gosl/la"

	"github.com/cxdcxd/armcl/armerr"
)

// Mat4 is a 4x4 rigid transform, stored as a gosl la matrix so it composes
// with la.MatMul like any other matrix in this module.
type Mat4 = [][]float64

// Identity4 returns a fresh 4x4 identity matrix.
func Identity4() Mat4 {
	m := la.MatAlloc(4, 4)
	for i := 0; i < 4; i++ {
		m[i][i] = 1
	}
	return m
}

// Node is one link in the mesh-map tree. Per the arena design note, the
// parent relationship is a read-only integer index into Tree.nodes fixed
// at construction time; only Local/World (the transforms) mutate
// afterwards.
type Node struct {
	FrameID         string
	ParentID        string
	WrenchTransform bool // §9: per-link flag, replaces the "finger" name heuristic
	Mesh            *Mesh

	Local Mat4 // parent-to-node rigid transform, supplied each tick by the kinematics collaborator
	World Mat4 // cached composition of Local with every ancestor's Local; recomputed on UpdateTransforms

	parentIdx int   // -1 for the root
	childIdx  []int // indices into Tree.nodes
}

// Tree is the rooted arena of Nodes built once at startup.
type Tree struct {
	nodes    []*Node
	index    map[string]int
	rootIdx  int
}

// NewTree builds a Tree from nodes already carrying their mesh and
// (optional) parent frame id. Order is not required to be parent-before-
// child; NewTree resolves parent indices after the fact and fails with
// InvalidInput if a referenced parent is absent, duplicated, or missing a
// single root.
func NewTree(nodes []*Node) (*Tree, error) {
	t := &Tree{nodes: nodes, index: make(map[string]int, len(nodes)), rootIdx: -1}
	for i, n := range nodes {
		if _, dup := t.index[n.FrameID]; dup {
			return nil, armerr.InvalidInput("duplicate frame id %q in mesh-map tree", n.FrameID)
		}
		t.index[n.FrameID] = i
		n.parentIdx = -1
		n.childIdx = nil
		n.World = Identity4()
		if n.Local == nil {
			n.Local = Identity4()
		}
	}
	for i, n := range nodes {
		if n.ParentID == "" {
			if t.rootIdx != -1 {
				return nil, armerr.InvalidInput("mesh-map tree has more than one root: %q and %q", nodes[t.rootIdx].FrameID, n.FrameID)
			}
			t.rootIdx = i
			continue
		}
		pi, ok := t.index[n.ParentID]
		if !ok {
			return nil, armerr.InvalidInput("frame %q references absent parent %q", n.FrameID, n.ParentID)
		}
		n.parentIdx = pi
		nodes[pi].childIdx = append(nodes[pi].childIdx, i)
	}
	if t.rootIdx == -1 {
		return nil, armerr.InvalidInput("mesh-map tree has no root (a node with empty parent_id)")
	}
	t.recompose(t.rootIdx)
	return t, nil
}

// Get returns the node for a frame id in O(1).
func (t *Tree) Get(frameID string) (*Node, bool) {
	i, ok := t.index[frameID]
	if !ok {
		return nil, false
	}
	return t.nodes[i], true
}

// FrameIDs returns every frame id in the tree, in construction order.
func (t *Tree) FrameIDs() []string {
	ids := make([]string, len(t.nodes))
	for i, n := range t.nodes {
		ids[i] = n.FrameID
	}
	return ids
}

// Nodes returns every node in the tree, in construction order.
func (t *Tree) Nodes() []*Node { return t.nodes }

// SumEdgeLength sums a node's mesh's edge lengths; exposed on Tree for
// parity with the spec's sumEdgeLength(node) operation.
func (t *Tree) SumEdgeLength(n *Node) float64 { return n.Mesh.SumEdgeLength() }

// Neighbours returns the 1-ring of a vertex on a given node's mesh.
func (t *Tree) Neighbours(n *Node, vertex int) []int { return n.Mesh.Neighbours(vertex) }

// TransformProvider supplies the current parent-to-node rigid transform
// for a frame, as produced by the external kinematics collaborator.
type TransformProvider interface {
	LocalTransform(frameID string) (Mat4, bool)
}

// UpdateTransforms refreshes every node's Local transform from provider
// and recomposes World transforms parent-before-child. Per §5, this is
// the only mutation mesh-tree transforms ever undergo, and it happens
// strictly between filter steps.
func (t *Tree) UpdateTransforms(provider TransformProvider) {
	for _, n := range t.nodes {
		if local, ok := provider.LocalTransform(n.FrameID); ok {
			n.Local = local
		}
	}
	t.recompose(t.rootIdx)
}

// recompose walks the tree parent-before-child, composing World = Parent.World * Local.
func (t *Tree) recompose(idx int) {
	n := t.nodes[idx]
	if n.parentIdx == -1 {
		n.World = la.MatClone(n.Local)
	} else {
		parent := t.nodes[n.parentIdx]
		la.MatMul(n.World, 1, parent.World, n.Local)
	}
	for _, ci := range n.childIdx {
		t.recompose(ci)
	}
}

// WorldPoint transforms a point from node-local coordinates to world
// coordinates using the node's cached World transform.
func (n *Node) WorldPoint(p Vector3) Vector3 {
	w := n.World
	return Vector3{
		w[0][0]*p[0] + w[0][1]*p[1] + w[0][2]*p[2] + w[0][3],
		w[1][0]*p[0] + w[1][1]*p[1] + w[1][2]*p[2] + w[1][3],
		w[2][0]*p[0] + w[2][1]*p[1] + w[2][2]*p[2] + w[2][3],
	}
}

// WorldNormal rotates (but does not translate) a normal from node-local to
// world coordinates.
func (n *Node) WorldNormal(v Vector3) Vector3 {
	w := n.World
	return Vector3{
		w[0][0]*v[0] + w[0][1]*v[1] + w[0][2]*v[2],
		w[1][0]*v[0] + w[1][1]*v[1] + w[1][2]*v[2],
		w[2][0]*v[0] + w[2][1]*v[1] + w[2][2]*v[2],
	}.Normalized()
}
