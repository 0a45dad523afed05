package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/weaveai/weave/errs"
)

// ExporterKind selects which span exporter TracerConfig wires up.
type ExporterKind string

const (
	ExporterConsole ExporterKind = "console"
	ExporterOTLP    ExporterKind = "otlp"
	ExporterNone    ExporterKind = "none"
)

// TracerConfig configures the process-wide TracerProvider. Grounded on the
// teacher's pkg/observability TracerConfig, narrowed to the two exporter
// contracts spec §4.7 names (console, OTLP-over-HTTP) instead of the
// teacher's grpc-only exporter.
type TracerConfig struct {
	ServiceName  string
	Exporter     ExporterKind
	OTLPEndpoint string
	SamplingRate float64 // 0..1, probabilistic per §4.7
}

func (c *TracerConfig) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "weave"
	}
	if c.SamplingRate <= 0 {
		c.SamplingRate = 1
	}
}

// Init builds a *sdktrace.TracerProvider per cfg. Callers are responsible
// for calling Shutdown on the returned provider (flushes the batcher).
func Init(ctx context.Context, cfg TracerConfig) (*sdktrace.TracerProvider, error) {
	cfg.setDefaults()

	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.Exporter {
	case ExporterOTLP:
		exporter, err = newOTLPExporter(ctx, cfg.OTLPEndpoint)
	case ExporterConsole, "":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ExporterNone:
		return sdktrace.NewTracerProvider(), nil
	default:
		return nil, errs.Wrapf(errs.ConfigError, "observability.Init", "unknown exporter kind %q", cfg.Exporter)
	}
	if err != nil {
		return nil, errs.New(errs.ConfigError, "observability.Init", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, errs.New(errs.ConfigError, "observability.Init", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
		sdktrace.WithResource(res),
	)
	return tp, nil
}

func newOTLPExporter(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("otlp exporter requires an endpoint")
	}
	client := otlptracehttp.NewClient(
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	return otlptrace.New(ctx, client)
}
