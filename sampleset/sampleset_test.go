// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampleset

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cxdcxd/armcl/surface"
)

type countingObserver struct {
	inserts int
	clears  int
}

func (o *countingObserver) OnInsert(s Sample) { o.inserts++ }
func (o *countingObserver) OnClear()          { o.clears++ }

func Test_insertion_refuses_past_capacity(tst *testing.T) {

	chk.PrintTitle("insertion_refuses_past_capacity")

	obs := &countingObserver{}
	set := New(2, obs)
	h := set.GetInsertion()
	if !h.Insert(Sample{Weight: 1}) {
		tst.Fatalf("expected first insert to succeed")
	}
	if !h.Insert(Sample{Weight: 1}) {
		tst.Fatalf("expected second insert to succeed")
	}
	if h.Insert(Sample{Weight: 1}) {
		tst.Fatalf("expected third insert to be refused at capacity")
	}
	chk.IntAssert(set.Len(), 2)
	chk.IntAssert(obs.inserts, 2)
}

func Test_normalise_scales_to_one(tst *testing.T) {

	chk.PrintTitle("normalise_scales_to_one")

	set := New(4, nil)
	h := set.GetInsertion()
	h.Insert(Sample{Weight: 1})
	h.Insert(Sample{Weight: 3})
	h.Done()
	set.Normalise()
	if set.Degenerate() {
		tst.Fatalf("did not expect degeneracy")
	}
	sum := 0.0
	for _, sm := range set.Samples() {
		sum += sm.Weight
	}
	chk.Scalar(tst, "sum", 1e-12, sum, 1.0)
}

func Test_normalise_zero_weight_flags_degeneracy(tst *testing.T) {

	chk.PrintTitle("normalise_zero_weight_flags_degeneracy")

	set := New(4, nil)
	h := set.GetInsertion()
	h.Insert(Sample{State: surface.State{}, Weight: 0})
	h.Insert(Sample{State: surface.State{}, Weight: 0})
	h.Done()
	set.Normalise()
	if !set.Degenerate() {
		tst.Fatalf("expected degeneracy when total weight is zero")
	}
	for _, sm := range set.Samples() {
		chk.Scalar(tst, "weight", 1e-12, sm.Weight, 0)
	}
}

func Test_clear_notifies_observer(tst *testing.T) {

	chk.PrintTitle("clear_notifies_observer")

	obs := &countingObserver{}
	set := New(4, obs)
	set.GetInsertion().Insert(Sample{Weight: 1})
	set.Clear()
	chk.IntAssert(set.Len(), 0)
	chk.IntAssert(obs.clears, 1)
}
