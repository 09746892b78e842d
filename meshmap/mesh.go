// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package meshmap implements C1, the mesh-map tree: a rooted tree of
// triangulated link meshes connected by rigid per-link frame transforms.
package meshmap

import (
	"math"

	"github.com/katalvlaran/lvlath/graph"

	"github.com/cxdcxd/armcl/armerr"
)

// Vector3 is a packed 3-component vector. Kept as a plain array (not a
// boxed struct-of-pointers) so slices of it lay out contiguously, per the
// aligned-numerics design note.
type Vector3 [3]float64

// Add, Sub, Scale, Dot, Cross, Norm, Normalized are the small set of
// direct 3-vector operations the filter needs. gosl/la works over generic
// []float64 slices and matrices (used for Jacobians and the info matrix
// elsewhere in this module); nothing in the example pack offers a
// fixed-size 3-vector type with cross/normalize, so these are hand-rolled.
func (v Vector3) Add(o Vector3) Vector3 { return Vector3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vector3) Sub(o Vector3) Vector3 { return Vector3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v Vector3) Scale(s float64) Vector3 { return Vector3{v[0] * s, v[1] * s, v[2] * s} }
func (v Vector3) Dot(o Vector3) float64 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}
func (v Vector3) Norm() float64 { return math.Sqrt(v.Dot(v)) }
func (v Vector3) Normalized() Vector3 {
	n := v.Norm()
	if n < 1e-12 {
		return v
	}
	return v.Scale(1.0 / n)
}
func (v Vector3) SquaredDistanceTo(o Vector3) float64 {
	d := v.Sub(o)
	return d.Dot(d)
}

// Vertex is one mesh vertex: a position and a normal, both in the link's
// local frame.
type Vertex struct {
	Position Vector3
	Normal   Vector3
}

// Edge is an undirected connection between two vertex indices, with its
// cached Euclidean length (constant for the lifetime of the mesh: only
// per-node frame transforms move, never vertex positions).
type Edge struct {
	V0, V1 int
	Length float64
}

// Mesh is the triangulated surface of one link: vertices, edges, and an
// adjacency index over them.
type Mesh struct {
	Verts []Vertex
	Edges []Edge

	adj        *graph.Graph // undirected vertex-id adjacency, used for 1-ring queries
	sumLength  float64
	edgesAtV   map[int][]int // vertex index -> incident edge indices, built once
}

// NewMesh builds a Mesh from vertices and (v0,v1) index pairs, computing
// cached edge lengths and the adjacency graph.
func NewMesh(verts []Vertex, edgeIdx [][2]int) (*Mesh, error) {
	m := &Mesh{
		Verts:    verts,
		adj:      graph.NewGraph(false, false),
		edgesAtV: make(map[int][]int),
	}
	for i := range verts {
		m.adj.AddVertex(&graph.Vertex{ID: vertexID(i)})
	}
	for _, pair := range edgeIdx {
		v0, v1 := pair[0], pair[1]
		if v0 < 0 || v0 >= len(verts) || v1 < 0 || v1 >= len(verts) {
			return nil, armerr.InvalidInput("edge references vertex out of range: (%d,%d) with %d vertices", v0, v1, len(verts))
		}
		length := verts[v0].Position.Sub(verts[v1].Position).Norm()
		eidx := len(m.Edges)
		m.Edges = append(m.Edges, Edge{V0: v0, V1: v1, Length: length})
		m.adj.AddEdge(vertexID(v0), vertexID(v1), 0)
		m.edgesAtV[v0] = append(m.edgesAtV[v0], eidx)
		m.edgesAtV[v1] = append(m.edgesAtV[v1], eidx)
		m.sumLength += length
	}
	return m, nil
}

func vertexID(i int) string { return intToID(i) }

// Neighbours returns the 1-ring of vertex indices adjacent to v.
func (m *Mesh) Neighbours(v int) []int {
	nbrs := m.adj.Neighbors(vertexID(v))
	out := make([]int, 0, len(nbrs))
	for _, nv := range nbrs {
		out = append(out, idToInt(nv.ID))
	}
	return out
}

// Degree returns the number of edges incident to v.
func (m *Mesh) Degree(v int) int { return len(m.edgesAtV[v]) }

// EdgesAt returns the indices of edges incident to vertex v.
func (m *Mesh) EdgesAt(v int) []int { return m.edgesAtV[v] }

// SumEdgeLength is the total length of all edges in the mesh, cached at
// construction time.
func (m *Mesh) SumEdgeLength() float64 { return m.sumLength }

// Other returns the vertex at the far end of edge e from v.
func (e Edge) Other(v int) int {
	if e.V0 == v {
		return e.V1
	}
	return e.V0
}
