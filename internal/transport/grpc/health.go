// Package grpcx exposes the standard gRPC health service for the board,
// backed by periodic store pings.
package grpcx

import (
	"context"
	"time"

	"github.com/cwrk-planet/board-service/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported next to the overall "" entry.
const ServiceName = "board.v1.Board"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Health struct {
	srv   *health.Server
	store Pinger
	every time.Duration
}

// NewServer builds a gRPC server with the health and reflection services
// registered. The status starts as NOT_SERVING until the first Refresh.
func NewServer(store Pinger, every time.Duration) (*grpc.Server, *Health) {
	if every <= 0 {
		every = 10 * time.Second
	}
	h := &Health{srv: health.NewServer(), store: store, every: every}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(StreamServerInterceptor()),
	)
	healthpb.RegisterHealthServer(s, h.srv)
	reflection.Register(s)
	return s, h
}

// Refresh pings the store once and publishes the result.
func (h *Health) Refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, h.every)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logger.FromContext(ctx).Warn("store ping failed", "err", err)
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

// Watch refreshes the status until ctx is done, then marks everything as
// shutting down.
func (h *Health) Watch(ctx context.Context) {
	ticker := time.NewTicker(h.every)
	defer ticker.Stop()

	h.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

func (h *Health) set(st healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", st)
	h.srv.SetServingStatus(ServiceName, st)
}

// Stop drains in-flight calls for at most wait, then closes whatever is
// left. Health Watch streams never finish on their own.
func Stop(s *grpc.Server, wait time.Duration) {
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(wait):
		s.Stop()
		<-done
	}
}
