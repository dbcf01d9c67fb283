package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds all domain-specific metrics for the application
type Registry struct {
	meter metric.Meter

	// Scoring Domain Metrics
	ScoringDuration       metric.Float64Histogram
	ScoringCounter        metric.Int64Counter
	ScoringDegradedCount  metric.Int64Counter
	ScoreDistribution     metric.Int64Histogram
	AssessmentCacheHits   metric.Int64Counter
	AssessmentCacheMisses metric.Int64Counter

	// Detection Domain Metrics
	DetectionDuration   metric.Float64Histogram
	FindingsCounter     metric.Int64Counter
	CheckFailureCounter metric.Int64Counter
	SweepQueueDepth     metric.Int64ObservableGauge

	// Recommendation Domain Metrics
	RecommendationDuration metric.Float64Histogram
	RecommendationCounter  metric.Int64Counter
	AutoApprovableCounter  metric.Int64Counter

	// System Metrics
	DatabaseConnectionPool metric.Int64ObservableGauge
	APIRequestDuration     metric.Float64Histogram
	APIRequestCounter      metric.Int64Counter

	// State for observable metrics
	mu              sync.RWMutex
	sweepQueueDepth int64
	dbPoolSize      int64
}

// NewRegistry creates a new metrics registry with all domain metrics
func NewRegistry(meterName string) (*Registry, error) {
	r := &Registry{
		meter: otel.Meter(meterName),
	}

	if err := r.initScoringMetrics(); err != nil {
		return nil, err
	}

	if err := r.initDetectionMetrics(); err != nil {
		return nil, err
	}

	if err := r.initRecommendationMetrics(); err != nil {
		return nil, err
	}

	if err := r.initSystemMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

// initScoringMetrics initializes risk scoring metrics
func (r *Registry) initScoringMetrics() error {
	var err error

	r.ScoringDuration, err = r.meter.Float64Histogram(
		"iga.scoring.duration",
		metric.WithDescription("Risk scoring duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500),
	)
	if err != nil {
		return err
	}

	r.ScoringCounter, err = r.meter.Int64Counter(
		"iga.scoring.total",
		metric.WithDescription("Total risk scoring evaluations"),
	)
	if err != nil {
		return err
	}

	r.ScoringDegradedCount, err = r.meter.Int64Counter(
		"iga.scoring.degraded_total",
		metric.WithDescription("Evaluations that degraded to the default assessment"),
	)
	if err != nil {
		return err
	}

	r.ScoreDistribution, err = r.meter.Int64Histogram(
		"iga.scoring.score",
		metric.WithDescription("Distribution of computed risk scores"),
		metric.WithExplicitBucketBoundaries(0, 10, 25, 40, 50, 60, 75, 90, 100),
	)
	if err != nil {
		return err
	}

	r.AssessmentCacheHits, err = r.meter.Int64Counter(
		"iga.scoring.cache_hit_total",
		metric.WithDescription("Assessment cache hits"),
	)
	if err != nil {
		return err
	}

	r.AssessmentCacheMisses, err = r.meter.Int64Counter(
		"iga.scoring.cache_miss_total",
		metric.WithDescription("Assessment cache misses"),
	)

	return err
}

// initDetectionMetrics initializes anomaly detection metrics
func (r *Registry) initDetectionMetrics() error {
	var err error

	r.DetectionDuration, err = r.meter.Float64Histogram(
		"iga.detection.duration",
		metric.WithDescription("Anomaly detection pass duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	r.FindingsCounter, err = r.meter.Int64Counter(
		"iga.detection.findings_total",
		metric.WithDescription("Total anomaly findings emitted"),
	)
	if err != nil {
		return err
	}

	r.CheckFailureCounter, err = r.meter.Int64Counter(
		"iga.detection.check_failure_total",
		metric.WithDescription("Behavioral checks that failed closed"),
	)
	if err != nil {
		return err
	}

	r.SweepQueueDepth, err = r.meter.Int64ObservableGauge(
		"iga.detection.sweep_queue_depth",
		metric.WithDescription("Users pending in the current org sweep"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.sweepQueueDepth)
			return nil
		}),
	)

	return err
}

// initRecommendationMetrics initializes recommendation engine metrics
func (r *Registry) initRecommendationMetrics() error {
	var err error

	r.RecommendationDuration, err = r.meter.Float64Histogram(
		"iga.recommendation.duration",
		metric.WithDescription("Recommendation generation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000),
	)
	if err != nil {
		return err
	}

	r.RecommendationCounter, err = r.meter.Int64Counter(
		"iga.recommendation.total",
		metric.WithDescription("Total recommendations emitted"),
	)
	if err != nil {
		return err
	}

	r.AutoApprovableCounter, err = r.meter.Int64Counter(
		"iga.recommendation.auto_approvable_total",
		metric.WithDescription("Recommendations that passed the auto-approval gate"),
	)

	return err
}

// initSystemMetrics initializes system-level metrics
func (r *Registry) initSystemMetrics() error {
	var err error

	r.DatabaseConnectionPool, err = r.meter.Int64ObservableGauge(
		"iga.system.db_connection_pool_size",
		metric.WithDescription("Current database connection pool size"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.dbPoolSize)
			return nil
		}),
	)
	if err != nil {
		return err
	}

	r.APIRequestDuration, err = r.meter.Float64Histogram(
		"iga.api.request_duration",
		metric.WithDescription("API request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	r.APIRequestCounter, err = r.meter.Int64Counter(
		"iga.api.request_total",
		metric.WithDescription("Total number of API requests"),
	)

	return err
}

// Helper methods for updating observable metric values

// SetSweepQueueDepth sets the current org sweep queue depth
func (r *Registry) SetSweepQueueDepth(depth int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepQueueDepth = depth
}

// SetDBPoolSize sets the database connection pool size
func (r *Registry) SetDBPoolSize(size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbPoolSize = size
}

// Helper methods for recording metrics with common attribute patterns

// RecordScoring records one scoring evaluation
func (r *Registry) RecordScoring(ctx context.Context, durationMS float64, subject string, score int, degraded bool) {
	attrs := []attribute.KeyValue{
		attribute.String("subject", subject),
		attribute.Bool("degraded", degraded),
	}

	r.ScoringDuration.Record(ctx, durationMS, metric.WithAttributes(attrs...))
	r.ScoringCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	r.ScoreDistribution.Record(ctx, int64(score), metric.WithAttributes(attrs...))

	if degraded {
		r.ScoringDegradedCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordDetection records one detection pass
func (r *Registry) RecordDetection(ctx context.Context, durationMS float64, findings int) {
	r.DetectionDuration.Record(ctx, durationMS)
	if findings > 0 {
		r.FindingsCounter.Add(ctx, int64(findings))
	}
}

// RecordRecommendations records one recommendation pass
func (r *Registry) RecordRecommendations(ctx context.Context, durationMS float64, total, autoApprovable int) {
	r.RecommendationDuration.Record(ctx, durationMS)
	r.RecommendationCounter.Add(ctx, int64(total))
	if autoApprovable > 0 {
		r.AutoApprovableCounter.Add(ctx, int64(autoApprovable))
	}
}

// RecordAPIRequest records API request metrics
func (r *Registry) RecordAPIRequest(ctx context.Context, duration float64, method, path string, statusCode int) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status_code", statusCode),
	}

	r.APIRequestDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
	r.APIRequestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
