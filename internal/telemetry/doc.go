// Package telemetry provides OpenTelemetry instrumentation for textembed.
//
// Traces and metrics are exported over OTLP (gRPC by default, or
// http/protobuf) to a collector.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	provider := embeddings.NewProvider(src,
//	    embeddings.WithTracer(tel.Tracer("textembed/embeddings")),
//	    embeddings.WithMeter(tel.Meter("textembed/embeddings")),
//	)
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: "grpc"
//	  service_name: "textembed"
//
// # Error Handling
//
// Telemetry failures do not fail the caller. If a provider cannot be
// created, the instance is marked degraded and Tracer/Meter fall back to
// the global providers.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	_, span := tt.Tracer("test").Start(ctx, "embeddings.Embed")
//	span.End()
//	tt.AssertSpanExists(t, "embeddings.Embed")
package telemetry
