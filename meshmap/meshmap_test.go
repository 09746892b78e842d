// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package meshmap

import (
	"context"
	"testing"
	"time"

	"github.com/cpmech/gosl/chk"
)

func triangle() (*Mesh, error) {
	verts := []Vertex{
		{Position: Vector3{0, 0, 0}, Normal: Vector3{0, 0, 1}},
		{Position: Vector3{1, 0, 0}, Normal: Vector3{0, 0, 1}},
		{Position: Vector3{0, 1, 0}, Normal: Vector3{0, 0, 1}},
	}
	return NewMesh(verts, [][2]int{{0, 1}, {1, 2}, {2, 0}})
}

func Test_mesh_neighbours_and_edge_length(tst *testing.T) {

	chk.PrintTitle("mesh_neighbours_and_edge_length")

	m, err := triangle()
	if err != nil {
		tst.Fatalf("cannot build mesh: %v", err)
	}
	chk.IntAssert(len(m.Edges), 3)
	chk.IntAssert(m.Degree(0), 2)

	nbrs := m.Neighbours(0)
	if len(nbrs) != 2 {
		tst.Fatalf("expected 2 neighbours of vertex 0, got %d", len(nbrs))
	}
	chk.Scalar(tst, "edge(0,1) length", 1e-12, m.Edges[0].Length, 1.0)
}

func Test_mesh_rejects_out_of_range_edge(tst *testing.T) {

	chk.PrintTitle("mesh_rejects_out_of_range_edge")

	verts := []Vertex{{Position: Vector3{0, 0, 0}}, {Position: Vector3{1, 0, 0}}}
	if _, err := NewMesh(verts, [][2]int{{0, 5}}); err == nil {
		tst.Fatalf("expected an error for an out-of-range edge")
	}
}

func twoNodeTree(tst *testing.T) *Tree {
	parentMesh, err := triangle()
	if err != nil {
		tst.Fatalf("cannot build parent mesh: %v", err)
	}
	childMesh, err := triangle()
	if err != nil {
		tst.Fatalf("cannot build child mesh: %v", err)
	}
	tree, err := NewTree([]*Node{
		{FrameID: "base", Mesh: parentMesh},
		{FrameID: "link1", ParentID: "base", Mesh: childMesh},
	})
	if err != nil {
		tst.Fatalf("cannot build tree: %v", err)
	}
	return tree
}

func Test_tree_rejects_missing_parent(tst *testing.T) {

	chk.PrintTitle("tree_rejects_missing_parent")

	mesh, err := triangle()
	if err != nil {
		tst.Fatalf("cannot build mesh: %v", err)
	}
	_, err = NewTree([]*Node{{FrameID: "link1", ParentID: "base", Mesh: mesh}})
	if err == nil {
		tst.Fatalf("expected an error for a missing parent frame")
	}
}

func Test_tree_rejects_duplicate_root(tst *testing.T) {

	chk.PrintTitle("tree_rejects_duplicate_root")

	meshA, _ := triangle()
	meshB, _ := triangle()
	_, err := NewTree([]*Node{
		{FrameID: "base1", Mesh: meshA},
		{FrameID: "base2", Mesh: meshB},
	})
	if err == nil {
		tst.Fatalf("expected an error for more than one root")
	}
}

func Test_tree_world_point_composes_translation(tst *testing.T) {

	chk.PrintTitle("tree_world_point_composes_translation")

	tree := twoNodeTree(tst)
	node, ok := tree.Get("link1")
	if !ok {
		tst.Fatalf("link1 not found")
	}
	local := Identity4()
	local[0][3] = 2.0 // translate link1 by (2,0,0) in its parent frame
	tree.UpdateTransforms(fixedTransforms{"link1": local})

	p := node.WorldPoint(Vector3{1, 0, 0})
	chk.Scalar(tst, "world x", 1e-12, p[0], 3.0)
}

type fixedTransforms map[string]Mat4

func (f fixedTransforms) LocalTransform(frameID string) (Mat4, bool) {
	m, ok := f[frameID]
	return m, ok
}

func Test_provider_wait_returns_published_tree(tst *testing.T) {

	chk.PrintTitle("provider_wait_returns_published_tree")

	p := NewProvider()
	tree := twoNodeTree(tst)
	go p.Publish(tree)

	got, err := p.WaitForStateSpace(context.Background(), time.Second)
	if err != nil {
		tst.Fatalf("WaitForStateSpace failed: %v", err)
	}
	if got != tree {
		tst.Fatalf("expected the published tree back")
	}
}

func Test_provider_wait_times_out(tst *testing.T) {

	chk.PrintTitle("provider_wait_times_out")

	p := NewProvider()
	_, err := p.WaitForStateSpace(context.Background(), 10*time.Millisecond)
	if err == nil {
		tst.Fatalf("expected a load-timeout error")
	}
}
