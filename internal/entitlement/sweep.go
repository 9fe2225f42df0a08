package entitlement

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SweepWorker runs the expiry sweep on a fixed interval. The sweep itself is
// idempotent, so overlapping deployments running it concurrently are safe.
type SweepWorker struct {
	engine   *Engine
	logger   *slog.Logger
	interval time.Duration
}

func NewSweepWorker(engine *Engine, logger *slog.Logger, interval time.Duration) *SweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweepWorker{engine: engine, logger: logger, interval: interval}
}

func (w *SweepWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweepOnce(ctx)
		}
	}
}

func (w *SweepWorker) sweepOnce(ctx context.Context) {
	spanCtx, span := otel.Tracer("entitlement").Start(ctx, "subscription.sweep",
		trace.WithAttributes(attribute.String("job", "subscription_expiry_sweep")),
	)
	defer span.End()

	changed, err := w.engine.SweepExpirations(spanCtx, time.Now().UTC())
	if err != nil {
		span.RecordError(err)
		w.logger.Error("subscription sweep failed", "err", err)
		return
	}
	span.SetAttributes(attribute.Int("subscriptions.changed", changed))
	if changed > 0 {
		w.logger.Info("subscription sweep applied transitions", "changed", changed)
	}
}
