// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package density implements C5: per-vertex weighted position
// distributions, union-find-by-mesh-adjacency clustering, and the top-k
// contact representative estimate.
package density

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/cxdcxd/armcl/meshmap"
	"github.com/cxdcxd/armcl/sampleset"
)

type vertexKey struct {
	mapID  string
	vertex int
}

type vertexDist struct {
	key         vertexKey
	sumWeight   float64
	weightedPos meshmap.Vector3
	samples     []sampleset.Sample
	clusterID   int // 0 = unlabelled
}

type cluster struct {
	sumWeight   float64
	weightedPos meshmap.Vector3
	samples     []sampleset.Sample
	vertexIDs   map[vertexKey]struct{}
}

// Contact is one ranked contact candidate: the representative particle
// nearest its cluster's weighted mean, and the cluster's total weight. ID
// identifies the cluster within one published snapshot, letting a
// visualisation collaborator track or key on a specific contact without
// depending on its rank.
type Contact struct {
	ID     string
	Sample sampleset.Sample
	Score  float64
}

// Estimator is the density collaborator (C5). It implements
// sampleset.DensityObserver so a Set can drive it directly.
type Estimator struct {
	Tree         *meshmap.Tree
	IgnoreWeight bool
	NContacts    int

	vertices map[vertexKey]*vertexDist
	order    []vertexKey // insertion order, for the deterministic visiting order clustering requires

	labels   map[vertexKey]int
	clusters map[int]*cluster
	nextID   int
}

// New builds an Estimator. nContacts bounds Contacts' result length;
// ignoreWeight replaces each particle's weight with 1 when accumulating
// vertex distributions (useful once the set has already normalised).
func New(nContacts int, ignoreWeight bool) *Estimator {
	e := &Estimator{NContacts: nContacts, IgnoreWeight: ignoreWeight}
	e.reset()
	return e
}

// SetTree must be called before any insert for the current step: vertex
// positions are resolved against whichever tree is current.
func (e *Estimator) SetTree(tree *meshmap.Tree) { e.Tree = tree }

func (e *Estimator) reset() {
	e.vertices = make(map[vertexKey]*vertexDist)
	e.order = e.order[:0]
	e.labels = nil
	e.clusters = nil
}

// OnClear implements sampleset.DensityObserver.
func (e *Estimator) OnClear() { e.reset() }

// OnInsert implements sampleset.DensityObserver: it folds one sample into
// its vertex distribution, selecting active_vertex when s < 0.5 else
// goal_vertex, per §4.5.
func (e *Estimator) OnInsert(s sampleset.Sample) {
	if e.Tree == nil {
		return
	}
	vertex := s.State.Active
	if s.State.S >= 0.5 {
		vertex = s.State.Goal
	}
	key := vertexKey{mapID: s.State.MapID, vertex: vertex}
	d, ok := e.vertices[key]
	if !ok {
		d = &vertexDist{key: key}
		e.vertices[key] = d
		e.order = append(e.order, key)
	}
	pos, err := s.State.Position(e.Tree)
	if err != nil {
		return
	}
	w := s.Weight
	if e.IgnoreWeight {
		w = 1.0
	}
	d.sumWeight += w
	d.weightedPos = d.weightedPos.Add(pos.Scale(w))
	d.samples = append(d.samples, s)
}

// HistogramSize is the count of occupied vertex distributions across all
// maps, feeding the KLD bound in C6.
func (e *Estimator) HistogramSize() int { return len(e.vertices) }

// cluster runs the union-find-by-adjacency pass of §4.5, visiting vertex
// distributions in insertion order.
func (e *Estimator) cluster() {
	e.labels = make(map[vertexKey]int, len(e.vertices))
	e.clusters = make(map[int]*cluster)
	e.nextID = 0
	for _, d := range e.vertices {
		d.clusterID = 0
	}

	for _, key := range e.order {
		d := e.vertices[key]
		if d.clusterID != 0 {
			continue
		}
		node, ok := e.Tree.Get(key.mapID)
		if !ok {
			continue
		}
		neighbours := node.Mesh.Neighbours(key.vertex)

		foundSet := make(map[int]struct{})
		for _, nv := range neighbours {
			if l, ok := e.labels[vertexKey{key.mapID, nv}]; ok && l != 0 {
				foundSet[l] = struct{}{}
			}
		}
		found := make([]int, 0, len(foundSet))
		for l := range foundSet {
			found = append(found, l)
		}
		sort.Ints(found)

		switch len(found) {
		case 0:
			e.nextID++
			cid := e.nextID
			cd := &cluster{vertexIDs: make(map[vertexKey]struct{})}
			e.clusters[cid] = cd
			e.mergeVertex(cd, d)
			cd.vertexIDs[key] = struct{}{}
			e.labels[key] = cid
			d.clusterID = cid
			for _, nv := range neighbours {
				nk := vertexKey{key.mapID, nv}
				e.labels[nk] = cid
				cd.vertexIDs[nk] = struct{}{}
			}

		case 1:
			fl := found[0]
			cd := e.clusters[fl]
			e.mergeVertex(cd, d)
			cd.vertexIDs[key] = struct{}{}
			e.labels[key] = fl
			d.clusterID = fl

		default:
			// Survivor: largest vertex set, ties broken by smallest label.
			largeLabel := found[0]
			largeCount := -1
			for _, l := range found {
				cs := len(e.clusters[l].vertexIDs)
				if cs > largeCount {
					largeCount = cs
					largeLabel = l
				}
			}
			survivor := e.clusters[largeLabel]
			for _, l := range found {
				if l == largeLabel {
					continue
				}
				loser := e.clusters[l]
				e.mergeCluster(survivor, loser)
				for vk := range loser.vertexIDs {
					e.labels[vk] = largeLabel
				}
				delete(e.clusters, l)
			}
			e.mergeVertex(survivor, d)
			survivor.vertexIDs[key] = struct{}{}
			e.labels[key] = largeLabel
			d.clusterID = largeLabel
			for _, nv := range neighbours {
				nk := vertexKey{key.mapID, nv}
				e.labels[nk] = largeLabel
				survivor.vertexIDs[nk] = struct{}{}
			}
		}
	}
}

func (e *Estimator) mergeVertex(c *cluster, d *vertexDist) {
	c.sumWeight += d.sumWeight
	c.weightedPos = c.weightedPos.Add(d.weightedPos)
	c.samples = append(c.samples, d.samples...)
}

func (e *Estimator) mergeCluster(dst, src *cluster) {
	dst.sumWeight += src.sumWeight
	dst.weightedPos = dst.weightedPos.Add(src.weightedPos)
	dst.samples = append(dst.samples, src.samples...)
}

// Contacts re-clusters the current vertex distributions and returns up to
// NContacts representatives, ranked by cluster weight descending.
func (e *Estimator) Contacts() []Contact {
	if e.Tree == nil {
		return nil
	}
	e.cluster()

	labels := make([]int, 0, len(e.clusters))
	for label := range e.clusters {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	type labelled struct {
		Contact
		label int
	}
	results := make([]labelled, 0, len(e.clusters))
	for _, label := range labels {
		cd := e.clusters[label]
		if len(cd.samples) == 0 || cd.sumWeight <= 0 {
			continue
		}
		mean := cd.weightedPos.Scale(1 / cd.sumWeight)

		var best sampleset.Sample
		bestDist := math.Inf(1)
		sumW := 0.0
		for _, s := range cd.samples {
			pos, err := s.State.Position(e.Tree)
			if err != nil {
				continue
			}
			sumW += s.Weight
			if d := pos.SquaredDistanceTo(mean); d < bestDist {
				bestDist = d
				best = s
			}
		}
		results = append(results, labelled{Contact: Contact{ID: uuid.NewString(), Sample: best, Score: sumW}, label: label})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].label < results[j].label
	})
	out := make([]Contact, len(results))
	for i, r := range results {
		out[i] = r.Contact
	}
	if len(out) > e.NContacts {
		out = out[:e.NContacts]
	}
	return out
}
