/*
Copyright 2014 The Perkeep Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tiered

import (
	"errors"
	"fmt"
)

// ErrConfig is returned by ConfigFromJSON / Config.Validate for a
// malformed configuration (spec §7 "configuration mismatch" — recoverable
// at construction time, unlike the arity-mismatch case below, which is a
// programmer error discovered mid-operation).
var ErrConfig = errors.New("tiered: invalid configuration")

// arityMismatch panics (spec §7: "programmer error, not recoverable at
// runtime; treat as an assertion") when a set operation is given two maps
// with different ElementsPerEntry.
func arityMismatch(a, b int) {
	panic(fmt.Sprintf("tiered: arity mismatch in set operation: %d vs %d", a, b))
}
