//go:build protogen

package main

import (
	"context"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/arefin-anik/docmarket/internal/entitlement"
	"github.com/arefin-anik/docmarket/libs/config"
	"github.com/arefin-anik/docmarket/libs/grpcx"
	entitlementsv1 "github.com/arefin-anik/docmarket/protos/gen/entitlements/v1"
)

// startGRPC serves the bookability check used by the search indexer. Requires
// generated proto code.
func startGRPC(ctx context.Context, logger *slog.Logger, engine *entitlement.Engine) {
	port, err := config.Port("GRPC_PORT", "9090")
	if err != nil {
		logger.Error("grpc config error", "err", err)
		return
	}

	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		return
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(grpcx.UnaryServerRequestIDInterceptor()),
	)
	entitlementsv1.RegisterBookabilityServiceServer(srv, &bookabilityServer{engine: engine})

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	logger.Info("grpc server listening", "port", port)
	if err := srv.Serve(lis); err != nil {
		logger.Error("grpc server failed", "err", err)
	}
}

type bookabilityServer struct {
	entitlementsv1.UnimplementedBookabilityServiceServer
	engine *entitlement.Engine
}

func (s *bookabilityServer) CheckBookable(ctx context.Context, req *entitlementsv1.CheckBookableRequest) (*entitlementsv1.CheckBookableResponse, error) {
	now := time.Now().UTC()
	bookable, err := s.engine.IsBookable(ctx, req.GetDoctorId(), now)
	if err != nil {
		return nil, err
	}
	return &entitlementsv1.CheckBookableResponse{
		Bookable: bookable,
		AsOf:     now.Format(time.RFC3339),
	}, nil
}
