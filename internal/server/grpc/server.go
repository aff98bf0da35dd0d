// Package grpc exposes the standard gRPC health service for the key service.
// The overall status follows the credential store; the "keys" service is
// SERVING only while the pool still holds unburned keys.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/abidm-bit/riceKrispies/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// KeysService is the health service name reporting key availability.
const KeysService = "keys"

// Store is what the prober asks about.
type Store interface {
	Ping(ctx context.Context) error
	CountUnburned(ctx context.Context) (int64, error)
}

type HealthServer struct {
	address  string
	store    Store
	interval time.Duration
	logger   logging.Logger
	health   *health.Server
}

func NewHealthServer(address string, store Store, interval time.Duration, l logging.Logger) *HealthServer {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(KeysService, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		address:  address,
		store:    store,
		interval: interval,
		logger:   l.With("module", "grpc_health"),
		health:   hs,
	}
}

// Probe queries the store once and updates both statuses.
func (s *HealthServer) Probe(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	keys := healthpb.HealthCheckResponse_NOT_SERVING

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn(ctx, "store probe failed", "error", err)
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	} else if n, err := s.store.CountUnburned(ctx); err != nil {
		s.logger.Warn(ctx, "key count failed", "error", err)
	} else if n > 0 {
		keys = healthpb.HealthCheckResponse_SERVING
	}

	s.health.SetServingStatus("", overall)
	s.health.SetServingStatus(KeysService, keys)
}

func (s *HealthServer) probeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *HealthServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.Probe(ctx)
	go s.probeLoop(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC health server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
