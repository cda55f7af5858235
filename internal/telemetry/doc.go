// Package telemetry provides OpenTelemetry tracing and metrics for framebox.
//
// Spans and counters cover every call the client makes to the hosting
// backend. Export goes to an OTLP collector over gRPC or HTTP/protobuf and is
// off by default.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	client := hosting.New(serverURL, hosting.WithTelemetry(tel))
//
// # Configuration
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc        # or http/protobuf
//	  insecure: true        # only allowed for loopback endpoints
//	  sampling_rate: 1.0
//
// # Error Handling
//
// Exporter setup failures never stop the client. The instance falls back to
// no-op providers and Health reports the reason.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	client := hosting.New(srv.URL, hosting.WithTelemetry(tt.Telemetry))
//	...
//	tt.AssertSpanExists(t, "hosting.ListProjects")
package telemetry
