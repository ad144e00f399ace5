package extrpc

import (
	"context"
	"time"

	"github.com/jhump/protoreflect/dynamic"

	"github.com/funvibe/blockc/internal/diagnostics"
)

// RemoteObserver streams each CompileEvent to a remote collector over the
// same proto-free gRPC dispatch Dispatcher uses for extension ops
// (SPEC_FULL.md §4 S4, "Remote snapshot observer"). It backs every event
// with a diagnostics.RecordingObserver so a caller can still inspect what
// was (attempted to be) sent after the fact, mirroring how
// builtinGrpcServeAsync lets an RPC keep running while the caller moves
// on — here the fire-and-forget half is the one-way Observe call, not a
// server loop.
type RemoteObserver struct {
	dispatcher *Dispatcher
	local      diagnostics.RecordingObserver
	logger     diagnostics.Logger
	timeout    time.Duration
}

// NewRemoteObserver returns a RemoteObserver that reports events to the
// service/method named by dispatcher. A nil logger discards send errors;
// a zero timeout defaults to 5s per event.
func NewRemoteObserver(dispatcher *Dispatcher, logger diagnostics.Logger, timeout time.Duration) *RemoteObserver {
	if logger == nil {
		logger = diagnostics.NopLogger{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteObserver{dispatcher: dispatcher, logger: logger, timeout: timeout}
}

// Observe implements diagnostics.SnapshotObserver. The interface has no
// error return (a local RecordingObserver can't fail), so a remote send
// failure is logged rather than propagated — a dropped snapshot must
// never abort compilation (spec.md §6 "Test hook" is diagnostic-only).
func (r *RemoteObserver) Observe(e diagnostics.CompileEvent) {
	r.local.Observe(e)

	md, err := r.dispatcher.Registry.findMethod(r.dispatcher.ServiceName, r.dispatcher.MethodName)
	if err != nil {
		r.logger.Debugf("extrpc: remote observer: %v", err)
		return
	}

	req := dynamic.NewMessage(md.GetInputType())
	setIfPresent(req, "session_id", e.SessionID)
	setIfPresent(req, "script_id", e.ScriptID)
	setIfPresent(req, "is_procedure", e.IsProcedure)
	setIfPresent(req, "factory_source", e.FactorySource)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	resp := dynamic.NewMessage(md.GetOutputType())
	fullMethod := "/" + r.dispatcher.ServiceName + "/" + r.dispatcher.MethodName
	if err := r.dispatcher.Conn.Invoke(ctx, fullMethod, req, resp); err != nil {
		r.logger.Debugf("extrpc: remote observer: reporting %s: %v", e.ScriptID, err)
	}
}

// Events returns every event observed locally so far, in order.
func (r *RemoteObserver) Events() []diagnostics.CompileEvent { return r.local.Events }

func setIfPresent(msg *dynamic.Message, field string, val interface{}) {
	fd := msg.GetMessageDescriptor().FindFieldByName(field)
	if fd == nil {
		return
	}
	_ = msg.TrySetField(fd, val)
}
