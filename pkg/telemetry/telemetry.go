package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lccmrx/go-context-kit/pkg/telemetry/logger"
	"github.com/lccmrx/go-context-kit/pkg/telemetry/meter"
	"github.com/lccmrx/go-context-kit/pkg/telemetry/tracer"

	"go.opentelemetry.io/contrib/instrumentation/host"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	nooplog "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"go.opentelemetry.io/otel/sdk/resource"
)

const defaultCollectorEndpoint = "localhost:4317"

var telemetryInstance *telemetry

type telemetry struct {
	serviceName string

	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	loggerProvider *sdklog.LoggerProvider
}

// New sets up the global OpenTelemetry providers. Signals that are not
// enabled get no-op providers. Every tracer provider created here copies
// baggage onto spans through tracer.BaggageSpanProcessor.
func New(ctx context.Context, opts ...opt) error {
	config := &config{
		collectorEndpoint: defaultCollectorEndpoint,
		samplingRatio:     1,
	}
	for _, opt := range opts {
		config = opt(config)
	}

	if config.serviceName == "" {
		slog.Warn("telemetry service name is not set; telemetry may not function as expected")
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(config.attributes...),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource for telemetry: %w", err)
	}

	res, err = resource.Merge(
		resource.Default(),
		res,
	)
	if err != nil {
		return fmt.Errorf("failed to merge resource for telemetry: %w", err)
	}

	t := &telemetry{
		serviceName: config.serviceName,
	}

	if err := t.setupProviders(ctx, config, res); err != nil {
		return err
	}
	telemetryInstance = t

	if config.enabledMeterProvider {
		if err := host.Start(); err != nil {
			return fmt.Errorf("failed to start host instrumentation: %w", err)
		}

		if err := runtime.Start(); err != nil {
			return fmt.Errorf("failed to start runtime instrumentation: %w", err)
		}
	}

	return nil
}

func (o *telemetry) setupProviders(ctx context.Context, config *config, res *resource.Resource) error {
	var meterProvider metric.MeterProvider = noopmetric.MeterProvider{}
	if config.enabledMeterProvider {
		exporterOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(config.collectorEndpoint)}
		if config.insecure {
			exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
		}

		meterExporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
		if err != nil {
			return fmt.Errorf("failed to create meter exporter: %w", err)
		}

		o.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(
				sdkmetric.NewPeriodicReader(meterExporter,
					sdkmetric.WithInterval(10*time.Second),
				),
			),
		)
		meterProvider = o.meterProvider
	}
	otel.SetMeterProvider(meterProvider)
	meter.New(o.serviceName)

	var tracerProvider trace.TracerProvider = nooptrace.NewTracerProvider()
	if config.enabledTraceProvider {
		exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.collectorEndpoint)}
		if config.insecure {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
		}

		traceExporter, err := otlptracegrpc.New(ctx, exporterOpts...)
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}

		o.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(
				sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.samplingRatio)),
			),
			sdktrace.WithSpanProcessor(tracer.NewBaggageSpanProcessor()),
			sdktrace.WithBatcher(traceExporter),
		)
		tracerProvider = o.tracerProvider

		otel.SetTextMapPropagator(
			propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
		)
	}
	otel.SetTracerProvider(tracerProvider)
	tracer.New(o.serviceName)

	var loggerProvider log.LoggerProvider = nooplog.NewLoggerProvider()
	if config.enabledLoggerProvider {
		exporterOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(config.collectorEndpoint)}
		if config.insecure {
			exporterOpts = append(exporterOpts, otlploggrpc.WithInsecure())
		}

		logExporter, err := otlploggrpc.New(ctx, exporterOpts...)
		if err != nil {
			return fmt.Errorf("failed to create log exporter: %w", err)
		}

		o.loggerProvider = sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(
				sdklog.NewBatchProcessor(logExporter)),
		)
		loggerProvider = o.loggerProvider

		logger.SetDefault(
			loggerProvider.Logger(o.serviceName),
			slog.Default().Handler(),
		)
	}
	global.SetLoggerProvider(loggerProvider)

	return nil
}

// Shutdown flushes and stops every provider New created.
func Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if telemetryInstance == nil {
		return nil
	}

	var errs []error
	if p := telemetryInstance.meterProvider; p != nil {
		errs = append(errs, p.Shutdown(ctx))
	}
	if p := telemetryInstance.tracerProvider; p != nil {
		errs = append(errs, p.Shutdown(ctx))
	}
	if p := telemetryInstance.loggerProvider; p != nil {
		errs = append(errs, p.Shutdown(ctx))
	}
	telemetryInstance = nil

	return errors.Join(errs...)
}
