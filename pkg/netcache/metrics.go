package netcache

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("kinship/netcache")
	meter  = otel.Meter("kinship/netcache")
)

var (
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
	cacheResolutions metric.Int64Counter
	cacheErrors      metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cacheHits, err = meter.Int64Counter(
			"kinship_cache_hits_total",
			metric.WithDescription("Network cache lookups served from memory"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheMisses, err = meter.Int64Counter(
			"kinship_cache_misses_total",
			metric.WithDescription("Network cache lookups that required resolution"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheResolutions, err = meter.Int64Counter(
			"kinship_cache_resolutions_total",
			metric.WithDescription("Repository resolutions performed by the network cache"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheErrors, err = meter.Int64Counter(
			"kinship_cache_errors_total",
			metric.WithDescription("Resolutions that failed"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordHit(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheHits.Add(ctx, 1)
}

func recordMiss(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheMisses.Add(ctx, 1)
}

func recordResolution(ctx context.Context, err error) {
	if initMetrics() != nil {
		return
	}
	cacheResolutions.Add(ctx, 1)
	if err != nil {
		cacheErrors.Add(ctx, 1)
	}
}

func startResolveSpan(ctx context.Context, id int64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "NetworkCache.Resolve",
		trace.WithAttributes(attribute.Int64("person.id", id)),
	)
}
