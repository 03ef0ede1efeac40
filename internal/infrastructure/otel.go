package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"b3data/internal/config"
	apperrors "b3data/internal/errors"
)

// MeterName is the instrumentation scope of every tracer and meter.
const MeterName = "b3data"

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// Registry is private to the providers so metrics can be written to a
	// textfile without touching the global registry.
	Registry *prometheus.Registry
	Metrics  *DataMetrics
	Logger   *slog.Logger

	traceOut io.Closer
}

// InitializeOTel sets up tracing and metrics as configured. Disabled parts
// fall back to no-op implementations, so callers never need nil checks.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger: logger,
		Tracer: otel.Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
	}

	if cfg.EnableTracing && cfg.TraceExporter != "none" {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	providers.Metrics, err = CreateDataMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	logger.DebugContext(ctx, "OpenTelemetry initialization complete",
		slog.String("service", cfg.ServiceName),
		slog.Bool("tracing_enabled", providers.TracerProvider != nil),
		slog.Bool("metrics_enabled", providers.MeterProvider != nil))

	return providers, nil
}

func createResource(cfg config.TelemetryConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

func initializeTracing(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders) error {
	if cfg.TraceExporter != "stdout" {
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	var out io.Writer = os.Stderr
	if cfg.TraceFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0755); err != nil {
			return fmt.Errorf("failed to create trace directory: %w", err)
		}
		file, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open trace file: %w", err)
		}
		providers.traceOut = file
		out = file
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)
	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(ctx context.Context, res *resource.Resource, providers *OTelProviders) error {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))

	providers.Logger.DebugContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// WriteMetricsFile writes the current metric values to path in the
// Prometheus text format, for the node exporter textfile collector.
func (p *OTelProviders) WriteMetricsFile(path string) error {
	if p.Registry == nil {
		return apperrors.NewConfigError("metrics are disabled, cannot write "+path, nil)
	}
	if err := prometheus.WriteToTextfile(path, p.Registry); err != nil {
		return apperrors.NewStorageError("failed to write metrics file", err).WithContext("path", path)
	}
	return nil
}

// Shutdown flushes and shuts down the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if p.traceOut != nil {
		if err := p.traceOut.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// DataMetrics holds the counters of the data pipeline. A nil *DataMetrics
// records nothing.
type DataMetrics struct {
	RowsRead          metric.Int64Counter
	RowsWritten       metric.Int64Counter
	Notices           metric.Int64Counter
	Operations        metric.Int64Counter
	OperationErrors   metric.Int64Counter
	OperationDuration metric.Float64Histogram
}

// CreateDataMetrics creates the pipeline instruments on meter
func CreateDataMetrics(meter metric.Meter) (*DataMetrics, error) {
	rowsRead, err := meter.Int64Counter(
		"b3data_rows_read",
		metric.WithDescription("Rows read from input tables"),
	)
	if err != nil {
		return nil, err
	}

	rowsWritten, err := meter.Int64Counter(
		"b3data_rows_written",
		metric.WithDescription("Rows written to output files"),
	)
	if err != nil {
		return nil, err
	}

	notices, err := meter.Int64Counter(
		"b3data_notices",
		metric.WithDescription("User notices emitted while processing"),
	)
	if err != nil {
		return nil, err
	}

	operations, err := meter.Int64Counter(
		"b3data_operations",
		metric.WithDescription("Pipeline operations executed"),
	)
	if err != nil {
		return nil, err
	}

	operationErrors, err := meter.Int64Counter(
		"b3data_operation_errors",
		metric.WithDescription("Pipeline operations that failed, by error type"),
	)
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram(
		"b3data_operation_duration_seconds",
		metric.WithDescription("Pipeline operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &DataMetrics{
		RowsRead:          rowsRead,
		RowsWritten:       rowsWritten,
		Notices:           notices,
		Operations:        operations,
		OperationErrors:   operationErrors,
		OperationDuration: operationDuration,
	}, nil
}

// RecordRowsRead counts rows loaded for a record kind
func (m *DataMetrics) RecordRowsRead(ctx context.Context, kind string, n int) {
	if m == nil {
		return
	}
	m.RowsRead.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordRowsWritten counts rows written in a file format
func (m *DataMetrics) RecordRowsWritten(ctx context.Context, format string, n int) {
	if m == nil {
		return
	}
	m.RowsWritten.Add(ctx, int64(n), metric.WithAttributes(attribute.String("format", format)))
}

// RecordNotice counts a user notice emitted by operation
func (m *DataMetrics) RecordNotice(ctx context.Context, operation string, level slog.Level) {
	if m == nil {
		return
	}
	m.Notices.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("level", level.String()),
	))
}

// RecordOperation records an operation's execution, duration and outcome
func (m *DataMetrics) RecordOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{attribute.String("operation", operation)}
	m.Operations.Add(ctx, 1, metric.WithAttributes(attrs...))

	status := "success"
	if err != nil {
		status = "failure"
		errType := string(apperrors.TypeOf(err))
		if errType == "" {
			errType = "UNKNOWN"
		}
		m.OperationErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("error_type", errType),
		))
	}
	m.OperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

// StartSpan starts a span on the global tracer provider, which is a no-op
// unless tracing was initialized.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(MeterName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err, trace.WithAttributes(attribute.String("error.type", string(apperrors.TypeOf(err)))))
	span.SetStatus(codes.Error, err.Error())
}
