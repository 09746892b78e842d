// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package meshmap

import (
	"encoding/json"
	"path/filepath"

	"github.com/cpmech/gosl/io"

	"github.com/cxdcxd/armcl/armcfg"
	"github.com/cxdcxd/armcl/armerr"
)

// meshFile is the on-disk JSON shape of one triangulated link mesh. The
// core only ever consumes the Tree abstraction built from it (§6): any
// triangulated-mesh format the mesh-loading collaborator supports could
// sit behind Load instead.
type meshFile struct {
	Verts []struct {
		Position [3]float64 `json:"position"`
		Normal   [3]float64 `json:"normal"`
	} `json:"verts"`
	Edges [][2]int `json:"edges"`
}

// Load builds a mesh-map tree from a directory of mesh files named by the
// given specs, matching spec §4.1's load(files, parent_ids, frame_ids).
func Load(meshPath string, specs []armcfg.MeshSpec) (*Tree, error) {
	if len(specs) == 0 {
		return nil, armerr.InvalidInput("no mesh specs given")
	}
	nodes := make([]*Node, 0, len(specs))
	for _, spec := range specs {
		path := filepath.Join(meshPath, spec.File)
		b, err := io.ReadFile(path)
		if err != nil {
			return nil, armerr.InvalidInput("cannot read mesh file %q for frame %q: %v", path, spec.FrameID, err)
		}
		var mf meshFile
		if err := json.Unmarshal(b, &mf); err != nil {
			return nil, armerr.InvalidInput("cannot parse mesh file %q: %v", path, err)
		}
		verts := make([]Vertex, len(mf.Verts))
		for i, v := range mf.Verts {
			verts[i] = Vertex{Position: Vector3(v.Position), Normal: Vector3(v.Normal).Normalized()}
		}
		mesh, err := NewMesh(verts, mf.Edges)
		if err != nil {
			return nil, armerr.InvalidInput("mesh file %q for frame %q: %v", path, spec.FrameID, err)
		}
		nodes = append(nodes, &Node{
			FrameID:         spec.FrameID,
			ParentID:        spec.ParentID,
			WrenchTransform: spec.WrenchTransform,
			Mesh:            mesh,
		})
	}
	return NewTree(nodes)
}
