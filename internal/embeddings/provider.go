package embeddings

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/textembed/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// hashModelLabel is the model attribute recorded for the hash strategy.
const hashModelLabel = "sha256"

// Provider embeds text batches using the strategy selected by its settings.
// It is safe for concurrent use.
type Provider struct {
	settings SettingsSource
	handle   *ModelHandle
	logger   *logging.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

type providerOptions struct {
	logger *logging.Logger
	meter  metric.Meter
	tracer trace.Tracer
	loader ModelLoader
}

// Option configures a Provider.
type Option func(*providerOptions)

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *providerOptions) { o.logger = l }
}

// WithMeter sets the meter for embedding metrics. Defaults to the global
// meter provider.
func WithMeter(m metric.Meter) Option {
	return func(o *providerOptions) { o.meter = m }
}

// WithTracer sets the tracer. Defaults to the global tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *providerOptions) { o.tracer = t }
}

// WithLoader replaces the pretrained model loader. Defaults to LoadFastEmbed.
func WithLoader(l ModelLoader) Option {
	return func(o *providerOptions) { o.loader = l }
}

// NewProvider creates a Provider reading settings from src on every call.
// No model is loaded until the first pretrained Embed.
func NewProvider(src SettingsSource, opts ...Option) *Provider {
	o := &providerOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(instrumentationName)
	}

	logger := o.logger.Named("embeddings")
	metrics := NewMetrics(o.meter, logger)

	return &Provider{
		settings: src,
		handle:   NewModelHandle(o.loader, logger, metrics),
		logger:   logger,
		metrics:  metrics,
		tracer:   o.tracer,
	}
}

// Embed returns one vector per text, in the order given.
//
// Under the pretrained strategy the model is loaded on first use; a load
// failure is logged and returned, wrapping ErrDependencyMissing when the
// runtime is absent. Under the hash strategy Embed never fails except for
// a done ctx. An empty batch yields an empty, non-nil result.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := p.settings.EmbeddingSettings()
	strategy := ParseStrategy(s.Provider)
	model := hashModelLabel
	if strategy == StrategyPretrained {
		model = s.Model
	}

	ctx, _ = logging.WithBatchID(ctx)
	ctx, span := p.tracer.Start(ctx, "embeddings.Embed", trace.WithAttributes(
		attribute.String("embedding.strategy", strategy.String()),
		attribute.String("embedding.model", model),
		attribute.Int("embedding.batch_size", len(texts)),
	))
	defer span.End()

	start := time.Now()
	var (
		vectors [][]float32
		err     error
	)
	switch strategy {
	case StrategyPretrained:
		vectors, err = p.embedPretrained(ctx, s, texts)
	default:
		vectors = HashEmbed(texts, s.Dim)
	}
	elapsed := time.Since(start)
	p.metrics.RecordEmbed(ctx, strategy, model, elapsed, len(texts), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	p.logger.Debug(ctx, "embedded batch",
		zap.Stringer("strategy", strategy),
		zap.Int("texts", len(texts)),
		zap.Duration("duration", elapsed))
	return vectors, nil
}

func (p *Provider) embedPretrained(ctx context.Context, s Settings, texts []string) ([][]float32, error) {
	m, err := p.handle.Get(ctx, ModelSpec{
		Name:      s.Model,
		CacheDir:  s.CacheDir,
		MaxLength: s.MaxLength,
	})
	if err != nil {
		p.logger.Error(ctx, "embedding model unavailable",
			zap.String("model", s.Model),
			zap.Error(err))
		return nil, err
	}

	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return m.Embed(ctx, texts)
}

// ModelState reports the pretrained model's lifecycle state.
func (p *Provider) ModelState() ModelState {
	return p.handle.State()
}

// Close releases the pretrained model if one is loaded. The Provider can
// still be used afterwards; the model is loaded again on demand.
func (p *Provider) Close() error {
	return p.handle.Close()
}
