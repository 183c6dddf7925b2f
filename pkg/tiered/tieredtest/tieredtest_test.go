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

package tieredtest

import (
	"testing"

	"github.com/dstore-go/tieredmap/pkg/tiered"
)

// TestHandleAcrossConfigs runs the conformance harness against a spread of
// MaxSize values (forcing Small/Medium/Full along the way) and both
// set/list duplicate-key modes, the same way kvtest.TestSorted is run once
// per backend in pkg/sorted's own tests.
func TestHandleAcrossConfigs(t *testing.T) {
	for _, maxSize := range []int{2048, 256, 64} {
		for _, mapIsSet := range []bool{true, false} {
			cfg := tiered.Config{ElementsPerEntry: 2, MaxSize: maxSize, MapIsSet: mapIsSet}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("invalid config %+v: %v", cfg, err)
			}
			TestHandle(t, cfg)
		}
	}
}
