// Package typestate implements C3: a mapping from variable id to lattice
// element, threaded through the analyzer and rewriter. See spec.md §3,
// §4.3.
//
// Grounded on the teacher's plain-map-wrapped-by-a-small-struct pattern
// (internal/analyzer.Analyzer.TypeMap, internal/vm.Compiler.typeMap):
// a bare map[K]V field consulted and mutated directly through a handful
// of named methods, rather than a generic container abstraction.
package typestate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/blockc/internal/lattice"
)

// State is a TypeState: variable-id → lattice.Type. The zero value is a
// valid, empty state (every variable reads as lattice.Any).
type State struct {
	vars map[string]lattice.Type
}

// New creates an empty TypeState.
func New() *State {
	return &State{vars: map[string]lattice.Type{}}
}

// Get returns the recorded type for id, or lattice.Any if id has not been
// recorded (spec.md §4.3).
func (s *State) Get(id string) lattice.Type {
	if s == nil || s.vars == nil {
		return lattice.Any
	}
	if t, ok := s.vars[id]; ok {
		return t
	}
	return lattice.Any
}

// Set records t as id's type, returning whether the stored value changed
// (spec.md §4.3) — used by the loop fixed-point to detect convergence.
func (s *State) Set(id string, t lattice.Type) bool {
	if s.vars == nil {
		s.vars = map[string]lattice.Type{}
	}
	old, existed := s.vars[id]
	if existed && old == t {
		return false
	}
	s.vars[id] = t
	return true
}

// Clone returns a deep (independent) copy of s.
func (s *State) Clone() *State {
	out := &State{vars: make(map[string]lattice.Type, len(s.vars))}
	for k, v := range s.vars {
		out.vars[k] = v
	}
	return out
}

// Or joins other into s element-wise by bitwise union for keys present in
// both states. A key present in only one of the two states is promoted to
// lattice.Any on the merged state — this is the conservative rule a
// variable assigned on only one branch of a conditional demands (spec.md
// §4.3, and the later of the two source revisions spec.md §9 resolves
// in favor of: "the later behavior is specified here"). Returns whether s
// changed.
func (s *State) Or(other *State) bool {
	changed := false
	seen := map[string]bool{}
	for k, v := range s.vars {
		seen[k] = true
		ov, ok := other.vars[k]
		var merged lattice.Type
		if ok {
			merged = lattice.Join(v, ov)
		} else {
			merged = lattice.Any
		}
		if merged != v {
			s.vars[k] = merged
			changed = true
		}
	}
	for k := range other.vars {
		if seen[k] {
			continue
		}
		// Present only on other's side: also promotes to Any.
		if s.vars == nil {
			s.vars = map[string]lattice.Type{}
		}
		if s.vars[k] != lattice.Any {
			s.vars[k] = lattice.Any
			changed = true
		}
	}
	return changed
}

// Clear resets every recorded variable to lattice.Any, for yields and
// opaque calls (spec.md §4.3/§5). Returns whether anything was non-Any
// beforehand.
func (s *State) Clear() bool {
	changed := false
	for k, v := range s.vars {
		if v != lattice.Any {
			changed = true
		}
		s.vars[k] = lattice.Any
	}
	return changed
}

// String renders the state as a sorted "name:TYPE, ..." list, used by
// ir.Dump when an annotation is present.
func (s *State) String() string {
	if s == nil || len(s.vars) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(s.vars))
	for k := range s.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", k, s.vars[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
