package extrpc

import (
	"testing"
	"time"

	"github.com/funvibe/blockc/internal/diagnostics"
)

func TestRemoteObserver_RecordsLocallyEvenWhenSendFails(t *testing.T) {
	reg := NewRegistry() // empty: the remote method can never be found
	d, err := Dial("127.0.0.1:0", reg, "blockctest.Collector", "ReportCompile")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer d.Close()

	obs := NewRemoteObserver(d, diagnostics.NopLogger{}, time.Second)
	obs.Observe(diagnostics.CompileEvent{SessionID: "s1", ScriptID: "script1", FactorySource: "function*(){}"})

	events := obs.Events()
	if len(events) != 1 {
		t.Fatalf("len(Events()) = %d, want 1", len(events))
	}
	if events[0].ScriptID != "script1" {
		t.Fatalf("ScriptID = %q, want script1", events[0].ScriptID)
	}
}
