// Package llm exposes a small gRPC surface over the admission/attachment
// engine so that a long-running model-serving process can be queried and
// managed remotely instead of only through the local CLI or SSH fan-out.
// It mirrors cri/runtime.go's grpc.DialContext/ClientConn pattern, but
// since genv's RPCs are genv-specific rather than the CRI API there is no
// protoc-generated stub to wrap: the ServiceDesc, request/reply types, and
// codec below play that role by hand.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

const serviceName = "genv.llm.LLM"

// AttachRequest asks the server to attach eid to devices, the same way
// "genv attach" would locally.
type AttachRequest struct {
	EID                   string
	GPUs                  *int
	GPUMemory             *string
	Index                 *int
	AllowOverSubscription bool
}

// AttachReply reports the device indices now attached to the requesting eid.
type AttachReply struct {
	Indices []int
}

// HealthRequest takes no parameters; it exists so Health fits the same
// unary-RPC shape as the others.
type HealthRequest struct{}

// HealthReply summarizes the server's host.
type HealthReply struct {
	Host        string
	ActiveEnvs  int
	DeviceCount int
}

// PSRequest takes no parameters.
type PSRequest struct{}

// ProcessInfo is one row of a PSReply.
type ProcessInfo struct {
	PID     int
	EID     string
	Indices []int
}

// PSReply lists the processes currently holding GPU memory on the server's
// host.
type PSReply struct {
	Processes []ProcessInfo
}

// Server is implemented by whatever backs the "genv llm serve" process.
type Server interface {
	Attach(ctx context.Context, req *AttachRequest) (*AttachReply, error)
	Health(ctx context.Context, req *HealthRequest) (*HealthReply, error)
	PS(ctx context.Context, req *PSRequest) (*PSReply, error)
}

func attachHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(AttachRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Attach(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Attach"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).Attach(ctx, req.(*AttachRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func healthHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(HealthRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Health(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Health"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).Health(ctx, req.(*HealthRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func psHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	req := new(PSRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).PS(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/PS"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).PS(ctx, req.(*PSRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// serviceDesc wires Server into grpc.Server.RegisterService the way a
// protoc-generated _grpc.pb.go file normally would.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Attach", Handler: attachHandler},
		{MethodName: "Health", Handler: healthHandler},
		{MethodName: "PS", Handler: psHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/llm/llm.go",
}

// RegisterServer attaches srv to s under the genv.llm.LLM service name.
func RegisterServer(s *grpc.Server, srv Server) {
	s.RegisterService(&serviceDesc, srv)
}

// Client is a thin wrapper over a single grpc.ClientConn dialed against a
// "genv llm serve" address.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a "genv llm serve" instance at address, following the
// same grpc.DialContext(ctx, address, grpc.WithInsecure(), grpc.WithBlock())
// pattern as cri.NewRuntime.
func Dial(ctx context.Context, address string) (*Client, error) {
	conn, err := grpc.DialContext(ctx, address,
		grpc.WithInsecure(),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("llm: couldn't connect to %q: %w", address, err)
	}
	return &Client{conn: conn}, nil
}

// Close implements the io.Closer interface.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Attach(ctx context.Context, req *AttachRequest) (*AttachReply, error) {
	reply := new(AttachReply)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/Attach", req, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) Health(ctx context.Context, req *HealthRequest) (*HealthReply, error) {
	reply := new(HealthReply)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/Health", req, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (c *Client) PS(ctx context.Context, req *PSRequest) (*PSReply, error) {
	reply := new(PSReply)
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/PS", req, reply); err != nil {
		return nil, err
	}
	return reply, nil
}
