// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"os"

	"github.com/cxdcxd/armcl/armerr"
	"github.com/cxdcxd/armcl/filter"
	"github.com/cxdcxd/armcl/meshmap"
)

// bagTuple is the on-disk JSON shape of one replayed observation: a
// timestamp, joint state, measured external torques, per-link Jacobians,
// per-link wrench transforms, and the per-link local transforms the
// kinematic collaborator would otherwise compute from joint_state.
type bagTuple struct {
	Timestamp        float64                 `json:"timestamp"`
	JointState       []float64               `json:"joint_state"`
	TauExt           []float64               `json:"tau_ext"`
	Jacobians        map[string][][]float64  `json:"jacobians"`
	WrenchTransforms map[string]meshmap.Mat4 `json:"wrench_transforms"`
	LocalTransforms  map[string]meshmap.Mat4 `json:"local_transforms"`
}

// loadBag reads a JSON array of bagTuple into replay observations.
func loadBag(path string) ([]bagTuple, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, armerr.InvalidInput("cannot read bag file %q: %v", path, err)
	}
	var tuples []bagTuple
	if err := json.Unmarshal(b, &tuples); err != nil {
		return nil, armerr.InvalidInput("cannot parse bag file %q: %v", path, err)
	}
	return tuples, nil
}

// bagKinematics plays back the local_transforms recorded in the bag
// instead of computing them from joint_state, since a replay tool has no
// inverse-kinematics collaborator of its own (§7 Non-goals).
type bagKinematics struct {
	current map[string]meshmap.Mat4
}

func (k *bagKinematics) Transforms(jointState []float64) meshmap.TransformProvider {
	return k
}

func (k *bagKinematics) LocalTransform(frameID string) (meshmap.Mat4, bool) {
	t, ok := k.current[frameID]
	return t, ok
}

func (t bagTuple) toObservation() filter.Observation {
	return filter.Observation{
		Timestamp:        t.Timestamp,
		JointState:       t.JointState,
		TauExt:           t.TauExt,
		Jacobians:        t.Jacobians,
		WrenchTransforms: t.WrenchTransforms,
	}
}
