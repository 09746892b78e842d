// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sampleset implements C4: a fixed-capacity particle container
// with guarded insertion, weight normalisation, and degeneracy detection.
package sampleset

import (
	"github.com/google/uuid"

	"github.com/cxdcxd/armcl/surface"
)

// Sample is one weighted particle.
type Sample struct {
	State  surface.State
	Weight float64
}

// DensityObserver is the density collaborator (C5): it is notified on
// every insert and on clear, per §4.4.
type DensityObserver interface {
	OnInsert(s Sample)
	OnClear()
}

// Set is a fixed-capacity particle container. ID identifies this
// generation of particles in a published snapshot: a fresh Set (whether
// from Init or from a resample) gets a fresh ID, so a downstream
// visualisation collaborator can tell one generation of samples from the
// next without comparing contents.
type Set struct {
	ID          string
	Nmax        int
	samples     []Sample
	totalWeight float64
	degenerate  bool
	observer    DensityObserver
}

// New builds an empty Set with the given capacity. observer may be nil.
func New(nmax int, observer DensityObserver) *Set {
	return &Set{ID: uuid.NewString(), Nmax: nmax, samples: make([]Sample, 0, nmax), observer: observer}
}

// Len is the current particle count.
func (s *Set) Len() int { return len(s.samples) }

// Samples returns the current particles. The caller must not mutate the
// returned slice's backing array across a Clear/Insert.
func (s *Set) Samples() []Sample { return s.samples }

// TotalWeight is the sum of weights as of the last Normalise or batch
// insert, whichever happened last.
func (s *Set) TotalWeight() float64 { return s.totalWeight }

// Degenerate reports whether the last Normalise saw zero total weight.
func (s *Set) Degenerate() bool { return s.degenerate }

// EffectiveSampleSize is N_eff = 1 / Σ wᵢ², used by the filter driver to
// decide whether to resample (§5 step 6).
func (s *Set) EffectiveSampleSize() float64 {
	sumSq := 0.0
	for _, sm := range s.samples {
		sumSq += sm.Weight * sm.Weight
	}
	if sumSq == 0 {
		return 0
	}
	return 1 / sumSq
}

// Clear empties the set and notifies the density collaborator.
func (s *Set) Clear() {
	s.samples = s.samples[:0]
	s.totalWeight = 0
	s.degenerate = false
	if s.observer != nil {
		s.observer.OnClear()
	}
}

// Insertion is the stateful handle returned by GetInsertion: it refuses
// insertions once the set reaches Nmax and recomputes total weight once
// the batch completes.
type Insertion struct {
	set *Set
}

// GetInsertion returns a handle for a batch insert.
func (s *Set) GetInsertion() *Insertion {
	return &Insertion{set: s}
}

// Insert adds sample unless the set is already at capacity, in which case
// it is silently refused (ok == false) rather than an error: a full
// sample set is an expected steady-state condition, not a failure.
func (h *Insertion) Insert(sample Sample) (ok bool) {
	if len(h.set.samples) >= h.set.Nmax {
		return false
	}
	h.set.samples = append(h.set.samples, sample)
	h.set.totalWeight += sample.Weight
	if h.set.observer != nil {
		h.set.observer.OnInsert(sample)
	}
	return true
}

// Done recomputes total weight from scratch, guarding against any
// subtlety in incremental accumulation during the batch.
func (h *Insertion) Done() {
	h.set.RecomputeTotalWeight()
}

// RecomputeTotalWeight resyncs the cached total weight from the current
// samples. Callers that mutate Weight in place on the slice returned by
// Samples (as the filter driver does during reweighting) must call this
// before Normalise, since such mutation bypasses Insert's running total.
func (s *Set) RecomputeTotalWeight() {
	total := 0.0
	for _, sm := range s.samples {
		total += sm.Weight
	}
	s.totalWeight = total
}

// Normalise scales weights to sum to 1. If total weight is (numerically)
// zero, weights are left unchanged and the degeneracy flag is raised,
// per §4.4 and the Degeneracy error kind.
func (s *Set) Normalise() {
	if s.totalWeight <= 0 {
		s.degenerate = true
		return
	}
	s.degenerate = false
	for i := range s.samples {
		s.samples[i].Weight /= s.totalWeight
	}
	s.totalWeight = 1
}

// Replace swaps in a whole new generation of samples, as the resampler
// does (C6), recomputing total weight and notifying the density
// collaborator of the clear-then-refill.
func (s *Set) Replace(samples []Sample) {
	if s.observer != nil {
		s.observer.OnClear()
	}
	s.samples = samples
	total := 0.0
	for _, sm := range samples {
		total += sm.Weight
	}
	s.totalWeight = total
	s.degenerate = total <= 0
	if s.observer != nil {
		for _, sm := range samples {
			s.observer.OnInsert(sm)
		}
	}
}
