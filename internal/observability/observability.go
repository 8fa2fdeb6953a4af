package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MeterName scopes the instruments recorded by the services package.
const MeterName = "qsar-llm-backend/services"

type Observability struct {
	meterProvider *metric.MeterProvider
}

// New installs a global OpenTelemetry meter provider whose readings are
// exported through reg, next to the Prometheus collectors in
// internal/metrics. On failure the global no-op provider stays in place.
func New(serviceName string, reg promclient.Registerer, log *zap.Logger) *Observability {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		log.Warn("otel prometheus exporter unavailable", zap.Error(err))
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	log.Debug("otel meter provider installed", zap.String("service", serviceName))

	return &Observability{meterProvider: provider}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}

// TokenRecorder counts model tokens per provider and direction.
type TokenRecorder struct {
	tokens otelmetric.Int64Counter
}

// NewTokenRecorder resolves its counter through the global meter provider,
// so it can be built before New runs.
func NewTokenRecorder() *TokenRecorder {
	tokens, _ := otel.Meter(MeterName).Int64Counter(
		"llm.tokens",
		otelmetric.WithDescription("Tokens consumed by model calls"),
		otelmetric.WithUnit("{token}"),
	)
	return &TokenRecorder{tokens: tokens}
}

// Record adds input and output token counts for one call. Non-positive
// counts are skipped.
func (r *TokenRecorder) Record(ctx context.Context, provider string, input, output int64) {
	if r == nil || r.tokens == nil {
		return
	}
	if input > 0 {
		r.tokens.Add(ctx, input, otelmetric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("direction", "input"),
		))
	}
	if output > 0 {
		r.tokens.Add(ctx, output, otelmetric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("direction", "output"),
		))
	}
}
