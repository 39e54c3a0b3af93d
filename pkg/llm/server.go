package llm

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/genv-io/genv/pkg/devices"
	"github.com/genv-io/genv/pkg/envs"
	"github.com/genv-io/genv/pkg/snapshot"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// engineServer backs a "genv llm serve" process: it answers Attach/Health/PS
// RPCs by delegating straight to the same devices/envs/snapshot packages the
// local CLI uses: Attach admits like "genv attach", Health reports the
// host's active-environment and device counts, and PS lists the host's
// compute processes.
type engineServer struct {
	host string
}

// NewServer returns a Server backed by the local admission/attachment
// engine, host-stamped the same way pkg/metrics labels its series.
func NewServer(host string) Server {
	return &engineServer{host: host}
}

func (s *engineServer) Attach(ctx context.Context, req *AttachRequest) (*AttachReply, error) {
	if req.EID == "" {
		return nil, fmt.Errorf("llm: attach: eid is required")
	}
	indices, err := devices.Attach(req.EID, devices.Options{
		Index:                 req.Index,
		GPUs:                  req.GPUs,
		GPUMemory:             req.GPUMemory,
		AllowOverSubscription: req.AllowOverSubscription,
	})
	if err != nil {
		return nil, err
	}
	return &AttachReply{Indices: indices}, nil
}

func (s *engineServer) Health(ctx context.Context, req *HealthRequest) (*HealthReply, error) {
	e, err := envs.Snapshot()
	if err != nil {
		return nil, err
	}
	d, err := devices.Snapshot()
	if err != nil {
		return nil, err
	}
	return &HealthReply{
		Host:        s.host,
		ActiveEnvs:  len(e.EIDs()),
		DeviceCount: len(d.Devices),
	}, nil
}

func (s *engineServer) PS(ctx context.Context, req *PSRequest) (*PSReply, error) {
	procs, err := snapshot.Processes(ctx)
	if err != nil {
		return nil, err
	}

	reply := &PSReply{}
	for _, p := range procs.Processes {
		info := ProcessInfo{PID: p.PID, Indices: p.Indices()}
		if p.EID != nil {
			info.EID = *p.EID
		}
		reply.Processes = append(reply.Processes, info)
	}
	return reply, nil
}

// Serve listens on addr and blocks serving RPCs until ctx is canceled or the
// listener fails.
func Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("llm: listening on %q: %w", addr, err)
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	s := grpc.NewServer()
	RegisterServer(s, NewServer(host))

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(lis) }()

	logrus.Infof("llm: serving on %s", addr)
	select {
	case <-ctx.Done():
		s.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
