// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package armrand hands out the per-component independently seeded
// generators required by §5: no two components ever draw from the same
// stream, and a fixed seed must reproduce a run bit-for-bit.
package armrand

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// New returns a *rand.Rand private to component. If seed is negative the
// generator is seeded from the wall clock (non-reproducible, for normal
// operation); otherwise it is derived deterministically from seed and
// component so that distinct components never share a stream even when
// given the same base seed.
func New(seed int64, component string) *rand.Rand {
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	h := fnv.New64a()
	h.Write([]byte(component))
	mixed := seed ^ int64(h.Sum64())
	return rand.New(rand.NewSource(mixed))
}
