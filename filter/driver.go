// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package filter implements C7: the driver that orchestrates
// predict -> update -> normalise -> estimate -> resample in strict
// order, per observation tuple.
package filter

import (
	"context"
	"time"

	"github.com/niceyeti/channerics/channels"

	"github.com/cxdcxd/armcl/armcfg"
	"github.com/cxdcxd/armcl/armlog"
	"github.com/cxdcxd/armcl/density"
	"github.com/cxdcxd/armcl/meshmap"
	"github.com/cxdcxd/armcl/observe"
	"github.com/cxdcxd/armcl/resample"
	"github.com/cxdcxd/armcl/sampleset"
	"github.com/cxdcxd/armcl/surface"
)

// Kinematics is the external kinematic collaborator (§6, §7 Non-goals):
// it turns a joint configuration into the mesh tree's per-link local
// transforms. The core never computes inverse kinematics itself.
type Kinematics interface {
	Transforms(jointState []float64) meshmap.TransformProvider
}

// Observation is one input tuple from the sensing collaborator (§6).
type Observation struct {
	Timestamp        float64
	JointState       []float64
	TauExt           []float64
	Jacobians        map[string][][]float64
	WrenchTransforms map[string]meshmap.Mat4
}

// Driver is the single-threaded core step loop (§5). All particle
// updates within one Step happen synchronously; only map loading and the
// output publish are asynchronous.
type Driver struct {
	cfg        *armcfg.Config
	provider   *meshmap.Provider
	kinematics Kinematics

	tree      *meshmap.Tree
	sampler   *surface.Sampler
	predictor *surface.Predictor
	model     *observe.Model
	set       *sampleset.Set
	density   *density.Estimator
	resampler *resample.Resampler

	haveLastT bool
	lastT     float64
	stepCount int
	stale     int

	out chan []density.Contact
}

// NewDriver wires the seven components from a validated configuration. It
// does not block on the mesh tree becoming available; call Init for that.
func NewDriver(cfg *armcfg.Config, provider *meshmap.Provider, kinematics Kinematics) *Driver {
	dens := density.New(cfg.NContacts, cfg.IgnoreWeight)
	set := sampleset.New(cfg.Nmax, dens)
	sampler := surface.NewSampler(cfg.RandomSeed)
	predictor := surface.NewPredictor(cfg.RandomSeed, cfg.StepSigma)
	model := observe.NewModel(cfg.InfoMatrix)
	resampler := resample.New(resample.Config{
		Nmin:                cfg.Nmin,
		Nmax:                cfg.Nmax,
		KLDError:            cfg.KLDError,
		KLDZ:                cfg.KLDZ,
		UniformPercent:      cfg.UniformPercent,
		MinWeightRatio:      cfg.MinWeightRatio,
		RecoveryProbability: cfg.RecoveryProb,
	}, cfg.RandomSeed, sampler)

	return &Driver{
		cfg:        cfg,
		provider:   provider,
		kinematics: kinematics,
		sampler:    sampler,
		predictor:  predictor,
		model:      model,
		set:        set,
		density:    dens,
		resampler:  resampler,
		out:        make(chan []density.Contact, 1),
	}
}

// Init blocks on the mesh-map loader's gated rendezvous (§5) and then
// draws the initial uniform generation of particles.
func (d *Driver) Init(ctx context.Context, loadDeadline time.Duration) error {
	tree, err := d.provider.WaitForStateSpace(ctx, loadDeadline)
	if err != nil {
		return err
	}
	d.tree = tree
	d.density.SetTree(tree)

	states, err := d.sampler.Sample(tree, d.cfg.SampleSize)
	if err != nil {
		return err
	}
	w := 0.0
	if len(states) > 0 {
		w = 1.0 / float64(len(states))
	}
	ins := d.set.GetInsertion()
	for _, st := range states {
		ins.Insert(sampleset.Sample{State: st, Weight: w})
	}
	ins.Done()
	d.set.Normalise()
	return nil
}

// StaleDropped counts observations dropped for non-increasing timestamps.
func (d *Driver) StaleDropped() int { return d.stale }

// StepCount counts observations actually processed (excluding drops).
func (d *Driver) StepCount() int { return d.stepCount }

// Subscribe returns a channel of published contact snapshots that stops
// on done, per §5's single-producer/single-consumer output publisher.
func (d *Driver) Subscribe(done <-chan struct{}) <-chan []density.Contact {
	return channels.OrDone(done, d.out)
}

// Step advances the filter by one observation, per §4.7's six-step
// ordering. A stale (non-increasing) timestamp is dropped without an
// error, per §7: the stale counter is incremented, a warning is logged,
// and Step returns a nil contact list.
func (d *Driver) Step(obs Observation) ([]density.Contact, error) {
	if d.haveLastT && obs.Timestamp <= d.lastT {
		d.stale++
		armlog.Warn("filter: dropping stale observation at t=%v (last=%v)", obs.Timestamp, d.lastT)
		return nil, nil
	}
	dt := 0.0
	if d.haveLastT {
		dt = obs.Timestamp - d.lastT
	}

	d.density.OnClear()

	provider := d.kinematics.Transforms(obs.JointState)
	d.tree.UpdateTransforms(provider)
	d.density.SetTree(d.tree)

	samples := d.set.Samples()
	for i := range samples {
		next, err := d.predictor.Predict(d.tree, samples[i].State, dt)
		if err != nil {
			return nil, err
		}
		samples[i].State = next
	}

	in := observe.Input{TauMeas: obs.TauExt, Jacobians: obs.Jacobians, WrenchTransforms: obs.WrenchTransforms}
	for i := range samples {
		ell, err := d.model.Likelihood(d.tree, &samples[i].State, in)
		if err != nil {
			armlog.Warn("filter: missing kinematics for %q, keeping previous estimate: %v", samples[i].State.MapID, err)
			continue
		}
		samples[i].Weight = ell
		d.density.OnInsert(samples[i])
	}

	d.set.RecomputeTotalWeight()
	d.set.Normalise()
	recovery := d.set.Degenerate()

	contacts := d.density.Contacts()

	threshold := d.cfg.NEffFraction * float64(d.set.Len())
	if recovery || d.set.EffectiveSampleSize() < threshold {
		next := sampleset.New(d.cfg.Nmax, d.density)
		if err := d.resampler.Resample(d.tree, d.set.Samples(), d.density, recovery, next); err != nil {
			return nil, err
		}
		d.set = next
	}

	d.lastT = obs.Timestamp
	d.haveLastT = true
	d.stepCount++

	select {
	case d.out <- contacts:
	default:
		select {
		case <-d.out:
		default:
		}
		d.out <- contacts
	}

	return contacts, nil
}
