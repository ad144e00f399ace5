// Package extrpc dispatches COMPATIBILITY_LAYER/ADDON_CALL opcodes to an
// out-of-process extension host over gRPC, and streams compile snapshots
// to a remote collector the same way — both without a single generated
// .pb.go: every message is parsed at runtime with jhump/protoreflect's
// protoparse and built/read with dynamic.Message, exactly the way
// internal/evaluator/builtins_grpc.go's grpcLoadProto/grpcInvoke let a
// funxy script call an RPC method it only knows the .proto path and
// "package.Service/Method" string for.
package extrpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Registry holds every *desc.FileDescriptor parsed so far, keyed by proto
// file name — mirrors internal/evaluator/builtins_grpc.go's package-level
// protoRegistry, scoped to a Dispatcher instead of the whole process since
// a compiler run may talk to more than one extension host.
type Registry struct {
	mu    sync.RWMutex
	files map[string]*desc.FileDescriptor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{files: make(map[string]*desc.FileDescriptor)} }

// LoadProto parses protoPath (and its imports, resolved under
// importPaths) and registers every file it and its dependencies define.
func (r *Registry) LoadProto(protoPath string, importPaths []string) error {
	if len(importPaths) == 0 {
		importPaths = []string{"."}
	}
	parser := protoparse.Parser{ImportPaths: importPaths}
	fds, err := parser.ParseFiles(protoPath)
	if err != nil {
		return fmt.Errorf("parsing proto %s: %w", protoPath, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fd := range fds {
		r.files[fd.GetName()] = fd
	}
	return nil
}

func (r *Registry) findMethod(serviceName, methodName string) (*desc.MethodDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, fd := range r.files {
		if svc := fd.FindService(serviceName); svc != nil {
			if md := svc.FindMethodByName(methodName); md != nil {
				return md, nil
			}
		}
	}
	return nil, fmt.Errorf("method %s/%s not found (proto not loaded?)", serviceName, methodName)
}

// Dispatcher implements hostbridge.ExtensionOp by invoking one fixed gRPC
// unary method on a remote extension host, translating the call's args
// map to the method's request message and its response back to a
// map[string]interface{} (spec.md §4.7's ExtensionOp contract).
type Dispatcher struct {
	Conn        *grpc.ClientConn
	Registry    *Registry
	ServiceName string
	MethodName  string
}

// Dial opens an insecure gRPC connection to target — mirroring
// builtinGrpcConnect's grpc.NewClient(target, insecure credentials) — and
// returns a Dispatcher bound to one service/method pair on it.
func Dial(target string, reg *Registry, serviceName, methodName string) (*Dispatcher, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dialing extension host %s: %w", target, err)
	}
	return &Dispatcher{Conn: conn, Registry: reg, ServiceName: serviceName, MethodName: methodName}, nil
}

// Close releases the underlying connection.
func (d *Dispatcher) Close() error { return d.Conn.Close() }

// Call implements hostbridge.ExtensionOp.
func (d *Dispatcher) Call(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	md, err := d.Registry.findMethod(d.ServiceName, d.MethodName)
	if err != nil {
		return nil, err
	}

	reqMsg := dynamic.NewMessage(md.GetInputType())
	for name, val := range args {
		fd := reqMsg.GetMessageDescriptor().FindFieldByName(name)
		if fd == nil {
			continue
		}
		if err := reqMsg.TrySetField(fd, val); err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
	}

	respMsg := dynamic.NewMessage(md.GetOutputType())
	fullMethod := "/" + d.ServiceName + "/" + d.MethodName
	if err := d.Conn.Invoke(ctx, fullMethod, reqMsg, respMsg); err != nil {
		return nil, fmt.Errorf("extension RPC %s failed: %w", fullMethod, err)
	}

	out := make(map[string]interface{})
	for _, fd := range respMsg.GetMessageDescriptor().GetFields() {
		out[fd.GetName()] = respMsg.GetField(fd)
	}
	return out, nil
}
