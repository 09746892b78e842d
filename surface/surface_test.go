// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package surface

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cxdcxd/armcl/meshmap"
)

// square builds a unit-square link mesh: four vertices, four boundary
// edges, no diagonal, all normals pointing +Z.
func square(frameID string) *meshmap.Node {
	verts := []meshmap.Vertex{
		{Position: meshmap.Vector3{0, 0, 0}, Normal: meshmap.Vector3{0, 0, 1}},
		{Position: meshmap.Vector3{1, 0, 0}, Normal: meshmap.Vector3{0, 0, 1}},
		{Position: meshmap.Vector3{1, 1, 0}, Normal: meshmap.Vector3{0, 0, 1}},
		{Position: meshmap.Vector3{0, 1, 0}, Normal: meshmap.Vector3{0, 0, 1}},
	}
	edges := [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	mesh, err := meshmap.NewMesh(verts, edges)
	if err != nil {
		panic(err)
	}
	return &meshmap.Node{FrameID: frameID, ParentID: "", Mesh: mesh}
}

func oneLinkTree(tst *testing.T) *meshmap.Tree {
	tree, err := meshmap.NewTree([]*meshmap.Node{square("link0")})
	if err != nil {
		tst.Fatalf("cannot build tree: %v", err)
	}
	return tree
}

func Test_sample_count_and_range(tst *testing.T) {

	chk.PrintTitle("sample_count_and_range")

	tree := oneLinkTree(tst)
	sm := NewSampler(1)
	particles, err := sm.Sample(tree, 200)
	if err != nil {
		tst.Fatalf("Sample failed: %v\n", err)
	}
	chk.IntAssert(len(particles), 200)
	for _, p := range particles {
		if p.S < 0 || p.S > 1 {
			tst.Fatalf("s out of range: %v", p.S)
		}
		if p.MapID != "link0" {
			tst.Fatalf("unexpected map id: %v", p.MapID)
		}
	}
}

func Test_sample_zero_is_empty(tst *testing.T) {

	chk.PrintTitle("sample_zero_is_empty")

	tree := oneLinkTree(tst)
	sm := NewSampler(1)
	particles, err := sm.Sample(tree, 0)
	if err != nil {
		tst.Fatalf("Sample failed: %v\n", err)
	}
	chk.IntAssert(len(particles), 0)
}

func Test_predict_stays_in_range(tst *testing.T) {

	chk.PrintTitle("predict_stays_in_range")

	tree := oneLinkTree(tst)
	pr := NewPredictor(7, 0.2)
	st := State{MapID: "link0", EdgeIdx: 0, S: 0.5, Active: 0, Goal: 1}
	for i := 0; i < 500; i++ {
		var err error
		st, err = pr.Predict(tree, st, 0.1)
		if err != nil {
			tst.Fatalf("Predict failed at step %d: %v\n", i, err)
		}
		if st.S < 0 || st.S > 1 {
			tst.Fatalf("s left [0,1] at step %d: %v", i, st.S)
		}
		if st.EdgeIdx < 0 || st.EdgeIdx >= 4 {
			tst.Fatalf("edge index out of range at step %d: %v", i, st.EdgeIdx)
		}
	}
}

func Test_predict_no_immediate_backtrack(tst *testing.T) {

	chk.PrintTitle("predict_no_immediate_backtrack")

	tree := oneLinkTree(tst)
	pr := NewPredictor(3, 5.0) // large sigma forces many vertex crossings per step
	st := State{MapID: "link0", EdgeIdx: 0, S: 0.0, Active: 0, Goal: 1}
	for i := 0; i < 50; i++ {
		var err error
		st, err = pr.Predict(tree, st, 1.0)
		if err != nil {
			tst.Fatalf("Predict failed at step %d: %v\n", i, err)
		}
		if st.S < 0 || st.S > 1 {
			tst.Fatalf("s left [0,1] at step %d: %v", i, st.S)
		}
		// Every vertex of the square has degree 2, so a walk that never
		// reverses keeps circling 0->1->2->3->0 on edge i = Active.
		if st.Goal != (st.Active+1)%4 || st.EdgeIdx != st.Active {
			tst.Fatalf("walk reversed at step %d: edge=%d active=%d goal=%d", i, st.EdgeIdx, st.Active, st.Goal)
		}
	}
}
