//go:build !protogen

package main

import (
	"context"
	"log/slog"

	"github.com/arefin-anik/docmarket/internal/entitlement"
)

// startGRPC is a no-op unless built with -tags protogen after generating
// the proto code.
func startGRPC(_ context.Context, logger *slog.Logger, _ *entitlement.Engine) {
	logger.Info("grpc server disabled (build with -tags protogen)")
}
