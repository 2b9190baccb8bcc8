package embeddings

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/textembed/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/textembed/internal/embeddings"

// Metrics holds all embedding-related instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	meter      metric.Meter
	logger     *logging.Logger
	duration   metric.Float64Histogram
	batchSize  metric.Int64Histogram
	errors     metric.Int64Counter
	modelLoads metric.Int64Counter
}

// NewMetrics creates the embedding instruments on meter. A nil meter uses
// the global meter provider.
func NewMetrics(meter metric.Meter, logger *logging.Logger) *Metrics {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Metrics{
		meter:  meter,
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	ctx := context.Background()
	var err error

	m.duration, err = m.meter.Float64Histogram(
		"textembed.embedding.duration_seconds",
		metric.WithDescription("Duration of an Embed call in seconds, labeled by strategy (hash, pretrained) and model."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		m.logger.Warn(ctx, "failed to create duration histogram", zap.Error(err))
	}

	m.batchSize, err = m.meter.Int64Histogram(
		"textembed.embedding.batch_size",
		metric.WithDescription("Number of texts per Embed call."),
		metric.WithUnit("{text}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	if err != nil {
		m.logger.Warn(ctx, "failed to create batch size histogram", zap.Error(err))
	}

	m.errors, err = m.meter.Int64Counter(
		"textembed.embedding.errors_total",
		metric.WithDescription("Failed Embed calls, including model load failures and ONNX runtime errors."),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.logger.Warn(ctx, "failed to create errors counter", zap.Error(err))
	}

	m.modelLoads, err = m.meter.Int64Counter(
		"textembed.embedding.model_loads_total",
		metric.WithDescription("Model load attempts, labeled by model and result (ok, error)."),
		metric.WithUnit("{load}"),
	)
	if err != nil {
		m.logger.Warn(ctx, "failed to create model loads counter", zap.Error(err))
	}
}

// RecordEmbed records one Embed call.
func (m *Metrics) RecordEmbed(ctx context.Context, strategy Strategy, model string, duration time.Duration, batchSize int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("strategy", strategy.String()),
		attribute.String("model", model),
	)

	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), attrs)
	}
	if m.batchSize != nil {
		m.batchSize.Record(ctx, int64(batchSize), attrs)
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, attrs)
	}
}

// RecordModelLoad records one model load attempt.
func (m *Metrics) RecordModelLoad(ctx context.Context, model string, err error) {
	if m == nil || m.modelLoads == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.modelLoads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("result", result),
	))
}
