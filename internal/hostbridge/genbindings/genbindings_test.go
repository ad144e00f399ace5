package genbindings

import (
	"context"
	"testing"

	"github.com/funvibe/blockc/internal/hostbridge"
)

type fakeOp struct{ result string }

func (f fakeOp) Call(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return f.result, nil
}

var _ hostbridge.ExtensionOp = fakeOp{}

func TestRegisterAndLookup(t *testing.T) {
	Reset()
	defer Reset()

	Register("pen_setPenColorToColor", fakeOp{result: "ok"}, false, false)

	op, ok := Lookup("pen_setPenColorToColor")
	if !ok {
		t.Fatal("expected Lookup to find the registered opcode")
	}
	result, err := op.Call(context.Background(), nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result != "ok" {
		t.Fatalf("result = %v, want ok", result)
	}
}

func TestLookup_Missing(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Lookup("does_not_exist"); ok {
		t.Fatal("expected Lookup to fail for an unregistered opcode")
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	Reset()
	defer Reset()

	Register("music_playDrumForBeats", fakeOp{}, true, false)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a panic registering a duplicate opcode")
		}
	}()
	Register("music_playDrumForBeats", fakeOp{}, true, false)
}

func TestAll_SortedByOpcode(t *testing.T) {
	Reset()
	defer Reset()

	Register("zzz", fakeOp{}, false, false)
	Register("aaa", fakeOp{}, false, false)

	all := All()
	if len(all) != 2 {
		t.Fatalf("len(All()) = %d, want 2", len(all))
	}
	if all[0].Opcode != "aaa" || all[1].Opcode != "zzz" {
		t.Fatalf("All() not sorted: %+v", all)
	}
}
