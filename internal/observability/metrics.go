package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sandeepkv93/session-lifecycle-service/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	sessionCreatedCounter  metric.Int64Counter
	sessionExpiredCounter  metric.Int64Counter
	timeoutWarningCounter  metric.Int64Counter
	sweepRunCounter        metric.Int64Counter
	sweepReapedCounter     metric.Int64Counter
	repositoryOpCounter    metric.Int64Counter
	tokenValidationCounter metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("session-lifecycle-service")
	createdCounter, err := meter.Int64Counter("session.created")
	if err != nil {
		return nil, err
	}
	expiredCounter, err := meter.Int64Counter("session.expirations")
	if err != nil {
		return nil, err
	}
	warningCounter, err := meter.Int64Counter("session.timeout.warnings")
	if err != nil {
		return nil, err
	}
	sweepRunCounter, err := meter.Int64Counter("session.sweeps")
	if err != nil {
		return nil, err
	}
	sweepReapedCounter, err := meter.Int64Counter("session.sweeps.reaped")
	if err != nil {
		return nil, err
	}
	repoCounter, err := meter.Int64Counter("repository.operations")
	if err != nil {
		return nil, err
	}
	tokenCounter, err := meter.Int64Counter("auth.token.validations")
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		sessionCreatedCounter:  createdCounter,
		sessionExpiredCounter:  expiredCounter,
		timeoutWarningCounter:  warningCounter,
		sweepRunCounter:        sweepRunCounter,
		sweepReapedCounter:     sweepReapedCounter,
		repositoryOpCounter:    repoCounter,
		tokenValidationCounter: tokenCounter,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordSessionCreated(ctx context.Context) {
	m := current()
	if m == nil {
		return
	}
	m.sessionCreatedCounter.Add(ctx, 1)
}

func RecordSessionExpiration(ctx context.Context, reason string) {
	m := current()
	if m == nil {
		return
	}
	m.sessionExpiredCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func RecordTimeoutWarning(ctx context.Context) {
	m := current()
	if m == nil {
		return
	}
	m.timeoutWarningCounter.Add(ctx, 1)
}

func RecordSweep(ctx context.Context, reaped int) {
	m := current()
	if m == nil {
		return
	}
	m.sweepRunCounter.Add(ctx, 1)
	if reaped > 0 {
		m.sweepReapedCounter.Add(ctx, int64(reaped))
	}
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.repositoryOpCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("entity", entity),
			attribute.String("operation", operation),
			attribute.String("outcome", outcome),
		),
	)
}

func RecordAccessTokenValidation(ctx context.Context, status, source string) {
	m := current()
	if m == nil {
		return
	}
	m.tokenValidationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("status", status),
			attribute.String("source", source),
		),
	)
}
