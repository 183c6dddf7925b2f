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
	"fmt"

	"github.com/dstore-go/tieredmap/pkg/jsonconfig"
)

// defaultMaxSize is the Small-tier byte budget spec §2 calls
// "typical ≤2 KiB payload, tunable" — it reuses Config.MaxSize, the same
// budget Full uses per sub-sequence, so there's only one knob to tune.
const defaultMaxSize = 2048

// maxArity and maxMaxSize are the hard ceilings of spec §3.1 and §4.4.
const (
	maxArity   = 65535
	maxMaxSize = 65536
)

// Config carries the recognized options of spec §6.4.
type Config struct {
	// ElementsPerEntry is the arity of each entry: 1..65535.
	ElementsPerEntry uint16
	// MaxSize is the per-sub-sequence byte cap in Full (and the promotion
	// threshold Medium checks against, scaled ×3). Must be in (0, 65536].
	MaxSize int
	// MapIsSet rejects/replaces duplicates on the active comparison
	// domain (key-only for Insert, full-width for InsertFullWidth).
	MapIsSet bool
	// Compress is carried through to the packed-sequence backend as a
	// hint; this module's backend (pkg/tiered/packedseq) does not itself
	// compress (the compression backend is an external collaborator per
	// spec §1), so the flag is observable via Config but does not change
	// behavior here.
	Compress bool
	// IsSurrogate marks a reference-mode map: stored keys are atom ids,
	// resolved through an element.Resolver borrowed per call.
	IsSurrogate bool
}

// DefaultConfig returns a Config with MaxSize defaulted to 2 KiB and
// ElementsPerEntry defaulted to 2 (the common (key, value) shape).
func DefaultConfig() Config {
	return Config{ElementsPerEntry: 2, MaxSize: defaultMaxSize}
}

// Validate reports a non-nil ErrConfig-wrapping error if c is not usable.
func (c Config) Validate() error {
	if c.ElementsPerEntry < 1 || c.ElementsPerEntry > maxArity {
		return fmt.Errorf("%w: elementsPerEntry must be in [1, %d], got %d", ErrConfig, maxArity, c.ElementsPerEntry)
	}
	if c.MaxSize <= 0 || c.MaxSize > maxMaxSize {
		return fmt.Errorf("%w: maxSize must be in (0, %d], got %d", ErrConfig, maxMaxSize, c.MaxSize)
	}
	return nil
}

// ConfigFromJSON builds a Config from a jsonconfig.Obj, following the
// teacher's sorted.NewKeyValue(cfg jsonconfig.Obj) idiom: typed accessors
// followed by cfg.Validate() to catch unknown keys.
func ConfigFromJSON(cfg jsonconfig.Obj) (Config, error) {
	c := Config{
		ElementsPerEntry: uint16(cfg.OptionalInt("elementsPerEntry", 2)),
		MaxSize:          cfg.OptionalInt("maxSize", defaultMaxSize),
		MapIsSet:         cfg.OptionalBool("mapIsSet", false),
		Compress:         cfg.OptionalBool("compress", false),
		IsSurrogate:      cfg.OptionalBool("isSurrogate", false),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}
