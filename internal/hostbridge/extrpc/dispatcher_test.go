package extrpc

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const sampleProto = `
syntax = "proto3";
package blockctest;

message PenCallRequest {
  int32 r = 1;
  int32 g = 2;
  int32 b = 3;
}

message PenCallResponse {
  bool ok = 1;
}

service PenExt {
  rpc SetColor(PenCallRequest) returns (PenCallResponse);
}
`

func writeSampleProto(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pen.proto")
	if err := os.WriteFile(path, []byte(sampleProto), 0o644); err != nil {
		t.Fatalf("writing sample proto: %v", err)
	}
	return path
}

func TestRegistry_LoadProtoAndFindMethod(t *testing.T) {
	path := writeSampleProto(t)
	reg := NewRegistry()
	if err := reg.LoadProto(path, nil); err != nil {
		t.Fatalf("LoadProto: %v", err)
	}
	md, err := reg.findMethod("blockctest.PenExt", "SetColor")
	if err != nil {
		t.Fatalf("findMethod: %v", err)
	}
	if md.GetName() != "SetColor" {
		t.Fatalf("method name = %q, want SetColor", md.GetName())
	}
}

func TestRegistry_FindMethod_NotLoaded(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.findMethod("blockctest.PenExt", "SetColor"); err == nil {
		t.Fatal("expected an error looking up a method in an empty registry")
	}
}

func TestDispatcher_Call_MethodNotFound(t *testing.T) {
	reg := NewRegistry()
	d, err := Dial("127.0.0.1:0", reg, "blockctest.PenExt", "SetColor")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer d.Close()

	if _, err := d.Call(context.Background(), map[string]interface{}{"r": int32(1)}); err == nil {
		t.Fatal("expected an error dispatching against an empty registry")
	}
}
