package grpcserver

import (
	"context"
	"errors"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	userv1 "userManagement/api/user/v1"
	"userManagement/internal/config"
	"userManagement/repository"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// NewServer builds a gRPC server with UserService, the standard health service and,
// if enabled, server reflection registered. It does not listen.
func NewServer(cfg *config.Config, users repository.UserStore, log *zap.Logger) (*grpc.Server, *health.Server) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	// Interceptors run outermost first: the request id must exist before logging,
	// and recovery sits inside logging so recovered panics are logged as Internal.
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		NewRequestIDInterceptor(),
		NewLoggingInterceptor(log, healthCheckMethod),
		NewRecoveryInterceptor(log),
		NewTimeoutInterceptor(cfg.GRPC.RequestTimeout),
	))

	userv1.RegisterUserServiceServer(srv, &UserServer{Users: users, Log: log})

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(userv1.UserService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	if cfg.GRPC.Reflection {
		reflection.Register(srv)
	}
	return srv, hs
}

// StartGRPC starts the gRPC server on cfg.GRPC.Address and returns the bound address
// and a shutdown function. Shutdown marks the service NOT_SERVING, then stops gracefully,
// falling back to a hard stop when ctx expires.
func StartGRPC(cfg *config.Config, users repository.UserStore, log *zap.Logger) (net.Addr, func(context.Context) error, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	addr := cfg.GRPC.Address
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	// Plaintext only; terminate TLS in front of the service if needed.
	srv, hs := NewServer(cfg, users, log)

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("grpc serve", zap.Error(err))
		}
	}()

	return lis.Addr(), func(ctx context.Context) error {
		hs.Shutdown()
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
