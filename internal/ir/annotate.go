package ir

// Annotation is the per-block metadata the analyzer (C4) attaches and the
// rewriter (C5) reads: a snapshot of the TypeState on entry to and/or
// exit from a block. It is declared here as an opaque interface{} slot
// (rather than importing internal/typestate, so ir does not depend on
// typestate) and exposed through Set/Get pairs; callers do the type
// assertion themselves.
//
// Annotations are metadata only; per spec.md §3 they never change
// execution semantics.

// SetEntryState records the TypeState snapshot on entry to n.
func (n *Input) SetEntryState(v interface{}) { n.annotation = v }

// EntryState returns the previously recorded entry-state snapshot, or nil.
func (n *Input) EntryState() interface{} { return n.annotation }

// SetEntryState records the TypeState snapshot on entry to s.
func (s *Stack) SetEntryState(v interface{}) { s.entryState = v }

// EntryState returns the previously recorded entry-state snapshot, or nil.
func (s *Stack) EntryState() interface{} { return s.entryState }

// SetExitState records the TypeState snapshot on exit from s.
func (s *Stack) SetExitState(v interface{}) { s.exitState = v }

// ExitState returns the previously recorded exit-state snapshot, or nil.
func (s *Stack) ExitState() interface{} { return s.exitState }
