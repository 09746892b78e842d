// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resample

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cxdcxd/armcl/meshmap"
	"github.com/cxdcxd/armcl/sampleset"
	"github.com/cxdcxd/armcl/surface"
)

type fixedHistogram int

func (f fixedHistogram) HistogramSize() int { return int(f) }

func lineTree(tst *testing.T) *meshmap.Tree {
	verts := []meshmap.Vertex{
		{Position: meshmap.Vector3{0, 0, 0}, Normal: meshmap.Vector3{0, 1, 0}},
		{Position: meshmap.Vector3{1, 0, 0}, Normal: meshmap.Vector3{0, 1, 0}},
	}
	mesh, err := meshmap.NewMesh(verts, [][2]int{{0, 1}})
	if err != nil {
		tst.Fatalf("cannot build mesh: %v", err)
	}
	tree, err := meshmap.NewTree([]*meshmap.Node{{FrameID: "link0", Mesh: mesh}})
	if err != nil {
		tst.Fatalf("cannot build tree: %v", err)
	}
	return tree
}

func uniformSamples(n int) []sampleset.Sample {
	samples := make([]sampleset.Sample, n)
	w := 1.0 / float64(n)
	for i := range samples {
		samples[i] = sampleset.Sample{
			State:  surface.State{MapID: "link0", EdgeIdx: 0, S: 0.5, Active: 0, Goal: 1},
			Weight: w,
		}
	}
	return samples
}

func Test_resample_without_recovery_respects_capacity(tst *testing.T) {

	chk.PrintTitle("resample_without_recovery_respects_capacity")

	tree := lineTree(tst)
	cfg := Config{Nmin: 2, Nmax: 50, KLDError: 0.01, KLDZ: 0.99, UniformPercent: 0, MinWeightRatio: 1}
	r := New(cfg, 11, surface.NewSampler(11))

	out := sampleset.New(cfg.Nmax, nil)
	err := r.Resample(tree, uniformSamples(20), fixedHistogram(5), false, out)
	if err != nil {
		tst.Fatalf("Resample failed: %v\n", err)
	}
	if out.Len() == 0 || out.Len() > cfg.Nmax {
		tst.Fatalf("resample produced %d samples, want in (0, %d]", out.Len(), cfg.Nmax)
	}
}

func Test_resample_empty_input_is_degeneracy(tst *testing.T) {

	chk.PrintTitle("resample_empty_input_is_degeneracy")

	tree := lineTree(tst)
	cfg := Config{Nmin: 2, Nmax: 50, KLDError: 0.01, KLDZ: 0.99, UniformPercent: 0, MinWeightRatio: 1}
	r := New(cfg, 3, surface.NewSampler(3))
	out := sampleset.New(cfg.Nmax, nil)
	err := r.Resample(tree, nil, fixedHistogram(5), false, out)
	if err == nil {
		tst.Fatalf("expected Degeneracy error for empty input")
	}
}

func Test_resample_with_recovery_injects_uniform_samples(tst *testing.T) {

	chk.PrintTitle("resample_with_recovery_injects_uniform_samples")

	tree := lineTree(tst)
	cfg := Config{Nmin: 2, Nmax: 50, KLDError: 0.01, KLDZ: 0.99, UniformPercent: 1.0, MinWeightRatio: 1, RecoveryProbability: 1.0}
	r := New(cfg, 5, surface.NewSampler(5))
	out := sampleset.New(cfg.Nmax, nil)
	err := r.Resample(tree, uniformSamples(20), fixedHistogram(5), true, out)
	if err != nil {
		tst.Fatalf("Resample failed: %v\n", err)
	}
	if out.Len() == 0 {
		tst.Fatalf("expected recovery resample to produce samples")
	}
}

func Test_wheel_resample_respects_capacity(tst *testing.T) {

	chk.PrintTitle("wheel_resample_respects_capacity")

	tree := lineTree(tst)
	cfg := Config{Nmin: 2, Nmax: 50, KLDError: 0.01, KLDZ: 0.99, UniformPercent: 0, MinWeightRatio: 1}
	r := New(cfg, 17, surface.NewSampler(17))
	out := sampleset.New(cfg.Nmax, nil)
	err := r.ResampleWheel(tree, uniformSamples(20), fixedHistogram(5), false, out)
	if err != nil {
		tst.Fatalf("ResampleWheel failed: %v\n", err)
	}
	if out.Len() == 0 || out.Len() > cfg.Nmax {
		tst.Fatalf("wheel resample produced %d samples, want in (0, %d]", out.Len(), cfg.Nmax)
	}
}
