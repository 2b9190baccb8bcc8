// Package logging provides structured logging with OpenTelemetry integration.
//
// Logging wraps Zap with:
//   - a Trace level (-2, below Debug)
//   - stderr and OpenTelemetry outputs
//   - context field injection (trace_id, span_id, batch.id)
//   - level-aware sampling where errors are never sampled
//
// Logs go to stderr because the textembed CLI writes vectors to stdout.
//
// # Usage
//
//	cfg, err := logging.FromSettings(appCfg.Logging, appCfg.Telemetry)
//	logger, err := logging.NewLogger(cfg, tel.LoggerProvider())
//	defer logger.Sync()
//
//	ctx, _ = logging.WithBatchID(ctx)
//	logger.Info(ctx, "embedded batch", zap.Int("texts", n))
//
// Output:
//
//	{"ts":"2026-03-02T10:15:30Z","level":"info","msg":"embedded batch",
//	 "service":"textembed","batch.id":"5f0c...","texts":32}
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	provider := embeddings.NewProvider(src, embeddings.WithLogger(tl.Logger))
//	tl.AssertLogged(t, zapcore.ErrorLevel, "embedding model unavailable")
//	tl.AssertNotContains(t, "secret document text")
//
// Logger is safe for concurrent use. Child loggers (With, Named) do not
// affect their parent.
package logging
