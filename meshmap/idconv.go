// Copyright 2024 The Armcl Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package meshmap

import "strconv"

// intToID/idToInt convert between vertex indices and the string vertex ids
// lvlath/graph requires.
func intToID(i int) string { return strconv.Itoa(i) }

func idToInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		panic("meshmap: corrupt vertex id " + s)
	}
	return i
}
