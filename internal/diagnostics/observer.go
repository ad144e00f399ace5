package diagnostics

// Logger is the narrow structured-logging seam spec.md §6 calls for:
// "when runtime.debug is true the compiler emits one log line per
// compiled script/procedure carrying its name or code and the emitted
// factory source." Grounded on internal/backend.Backend's two-method
// interface (narrow, no framework) rather than pulling in a logging
// library the teacher never imports for this kind of line either.
type Logger interface {
	// Debugf logs a debug-level line. There is no level check on the
	// interface; codegen.Generate gates its per-script line on
	// Context.Debug before calling it.
	Debugf(format string, args ...interface{})
}

// NopLogger discards every line. The default when no Logger is wired.
type NopLogger struct{}

// Debugf implements Logger by doing nothing.
func (NopLogger) Debugf(string, ...interface{}) {}

// CompileEvent is delivered to a SnapshotObserver after each successful
// compile (spec.md §6 "Test hook"): the generated factory's name/id and
// its textual source.
type CompileEvent struct {
	SessionID     string
	ScriptID      string
	IsProcedure   bool
	FactorySource string
}

// SnapshotObserver receives a CompileEvent after each successful compile.
// Snapshot tests register one to capture golden factory sources; it is
// optional (a nil Observer on codegen.Context means "no one is watching").
type SnapshotObserver interface {
	Observe(CompileEvent)
}

// ObserverFunc adapts a plain function to a SnapshotObserver.
type ObserverFunc func(CompileEvent)

// Observe implements SnapshotObserver.
func (f ObserverFunc) Observe(e CompileEvent) { f(e) }

// RecordingObserver accumulates every event it receives, in order — the
// simplest SnapshotObserver, used directly by pkg/compiler's tests and as
// the backing store behind hostbridge/extrpc's gRPC-streamed
// RemoteObserver (SPEC_FULL.md §4 S4).
type RecordingObserver struct {
	Events []CompileEvent
}

// Observe implements SnapshotObserver.
func (r *RecordingObserver) Observe(e CompileEvent) {
	r.Events = append(r.Events, e)
}
