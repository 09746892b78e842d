// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resample implements C6: the KLD-bounded adaptive resampler,
// its randomised and wheel-of-fortune draw variants, and random-pose
// recovery injection.
package resample

import (
	"math"
	"math/rand"

	"github.com/cxdcxd/armcl/armerr"
	"github.com/cxdcxd/armcl/armrand"
	"github.com/cxdcxd/armcl/meshmap"
	"github.com/cxdcxd/armcl/sampleset"
	"github.com/cxdcxd/armcl/surface"
)

// HistogramSizer is the density collaborator's contribution to the
// KLD bound (§4.6): the count of occupied vertex distributions.
type HistogramSizer interface {
	HistogramSize() int
}

// Config holds the resampler's tunables, mirroring the corresponding
// armcfg fields (RecoveryProbability is armcfg's RecoveryProb).
type Config struct {
	Nmin, Nmax          int
	KLDError, KLDZ      float64
	UniformPercent      float64
	MinWeightRatio      float64
	RecoveryProbability float64
}

// Resampler draws a new generation of samples from the current one.
type Resampler struct {
	cfg     Config
	rng     *rand.Rand
	uniform *surface.Sampler
}

// New builds a Resampler with its own independent stream, per §5.
func New(cfg Config, seed int64, uniform *surface.Sampler) *Resampler {
	return &Resampler{cfg: cfg, rng: armrand.New(seed, "resample"), uniform: uniform}
}

// klBound is n* from §4.6: the minimum draw count bounding KL divergence
// at confidence z and error ε, clamped to nmax. k <= 1 means "no bound
// available yet", per the original's fallback.
func klBound(k int, kldError, kldZ float64, nmax int) int {
	if k <= 1 {
		return nmax
	}
	fraction := 2.0 / (9.0 * float64(k-1))
	exponent := 1.0 - fraction + math.Sqrt(fraction)*kldZ
	n := int(math.Ceil(float64(k-1) / (2.0 * kldError) * exponent * exponent * exponent))
	if n < nmax {
		return n
	}
	return nmax
}

func cumulativeWeights(samples []sampleset.Sample) []float64 {
	c := make([]float64, len(samples)+1)
	for i, s := range samples {
		c[i+1] = c[i] + s.Weight
	}
	return c
}

// drawSystematic is the "randomised" variant of §4.6: an independent
// u ~ U[0,1) per draw against the cumulative weights.
func drawSystematic(rng *rand.Rand, samples []sampleset.Sample, cumsum []float64) sampleset.Sample {
	u := rng.Float64()
	return pick(samples, cumsum, u)
}

func pick(samples []sampleset.Sample, cumsum []float64, u float64) sampleset.Sample {
	for j := 0; j < len(samples); j++ {
		if cumsum[j] <= u && u < cumsum[j+1] {
			return samples[j]
		}
	}
	return samples[len(samples)-1]
}

func (r *Resampler) nmin() int {
	if r.cfg.Nmin < 2 {
		return 2
	}
	return r.cfg.Nmin
}

// Resample is the randomised KLD-bounded draw loop. recovery switches on
// random-pose injection per draw. The result is written into out (which
// the caller must have Clear()ed or which must otherwise be empty).
func (r *Resampler) Resample(tree *meshmap.Tree, samples []sampleset.Sample, hist HistogramSizer, recovery bool, out *sampleset.Set) error {
	if len(samples) == 0 {
		return armerr.Degeneracy()
	}
	cumsum := cumulativeWeights(samples)
	nStar := klBound(hist.HistogramSize(), r.cfg.KLDError, r.cfg.KLDZ, r.cfg.Nmax)
	nmin := r.nmin()

	insertion := out.GetInsertion()
	minWeight := math.Inf(1)
	count := 0
	for i := 0; i < r.cfg.Nmax; i++ {
		drawn, w, err := r.draw(tree, samples, cumsum, recovery)
		if err != nil {
			return err
		}
		if !insertion.Insert(drawn) {
			break
		}
		if w < minWeight {
			minWeight = w
		}
		count++
		if count > nmin && count > nStar {
			break
		}
	}
	insertion.Done()
	return r.topUp(tree, out, minWeight)
}

// draw produces one (sample, weight) pair: a uniform recovery pose with
// probability RecoveryProbability (weight = the uniform value drawn for
// that recovery test itself, per §4.6's deliberate low-weight bias), or a
// systematic draw from the existing generation.
func (r *Resampler) draw(tree *meshmap.Tree, samples []sampleset.Sample, cumsum []float64, recovery bool) (sampleset.Sample, float64, error) {
	if recovery {
		rr := r.rng.Float64()
		if rr < r.cfg.RecoveryProbability {
			states, err := r.uniform.Sample(tree, 1)
			if err != nil {
				return sampleset.Sample{}, 0, err
			}
			return sampleset.Sample{State: states[0], Weight: rr}, rr, nil
		}
	}
	s := drawSystematic(r.rng, samples, cumsum)
	return s, s.Weight, nil
}

// topUp appends uniform poses after the KL loop, per §4.6's "top-up with
// uniform poses": m = floor((Nmax - size) * uniform_percent), each
// weighted min_weight_ratio * w_min, stopping early once the set refuses
// an insertion.
func (r *Resampler) topUp(tree *meshmap.Tree, out *sampleset.Set, minWeight float64) error {
	if math.IsInf(minWeight, 1) {
		minWeight = 0
	}
	m := int(float64(r.cfg.Nmax-out.Len()) * r.cfg.UniformPercent)
	if m <= 0 {
		return nil
	}
	insertion := out.GetInsertion()
	for i := 0; i < m; i++ {
		states, err := r.uniform.Sample(tree, 1)
		if err != nil {
			return err
		}
		sample := sampleset.Sample{State: states[0], Weight: r.cfg.MinWeightRatio * minWeight}
		if !insertion.Insert(sample) {
			break
		}
	}
	insertion.Done()
	return nil
}

// ResampleWheel is the stratified wheel-of-fortune variant of §4.6: one
// offset draw u0, then Nout systematic draws at u_i = (u0 + i/Nout) mod 1.
// Recovery replaces a fraction RecoveryProbability of the Nout draws with
// uniform poses, independently per draw.
func (r *Resampler) ResampleWheel(tree *meshmap.Tree, samples []sampleset.Sample, hist HistogramSizer, recovery bool, out *sampleset.Set) error {
	if len(samples) == 0 {
		return armerr.Degeneracy()
	}
	cumsum := cumulativeWeights(samples)
	nStar := klBound(hist.HistogramSize(), r.cfg.KLDError, r.cfg.KLDZ, r.cfg.Nmax)
	nOut := nStar
	if nOut < r.nmin() {
		nOut = r.nmin()
	}
	if nOut > r.cfg.Nmax {
		nOut = r.cfg.Nmax
	}

	u0 := r.rng.Float64()
	insertion := out.GetInsertion()
	minWeight := math.Inf(1)
	for i := 0; i < nOut; i++ {
		if recovery && r.rng.Float64() < r.cfg.RecoveryProbability {
			states, err := r.uniform.Sample(tree, 1)
			if err != nil {
				return err
			}
			w := r.rng.Float64()
			sample := sampleset.Sample{State: states[0], Weight: w}
			if w < minWeight {
				minWeight = w
			}
			if !insertion.Insert(sample) {
				break
			}
			continue
		}
		u := math.Mod(u0+float64(i)/float64(nOut), 1.0)
		s := pick(samples, cumsum, u)
		if s.Weight < minWeight {
			minWeight = s.Weight
		}
		if !insertion.Insert(s) {
			break
		}
	}
	insertion.Done()
	return r.topUp(tree, out, minWeight)
}
