package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/freightdesk/backend/internal/domain/finance"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation name of business metrics
const MeterName = "freight-backend"

// Metric attribute keys
var (
	AttrOutcome   = attribute.Key("outcome")
	AttrStep      = attribute.Key("step")
	AttrOperation = attribute.Key("operation")
	AttrStore     = attribute.Key("store")
	AttrTable     = attribute.Key("table")
)

// Outcome labels a result as ok or error
func Outcome(err error) attribute.KeyValue {
	if err != nil {
		return AttrOutcome.String("error")
	}
	return AttrOutcome.String("ok")
}

// DurationBuckets are histogram bounds in seconds for sweeps and queries
var DurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120}

// ReconciliationMetrics counts sweep passes and the repairs each step made
type ReconciliationMetrics struct {
	runs     metric.Int64Counter
	fixes    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewReconciliationMetrics creates the sweep instruments on meter
func NewReconciliationMetrics(meter metric.Meter) (*ReconciliationMetrics, error) {
	runs, err := meter.Int64Counter("freight.reconciliation.runs",
		metric.WithDescription("Reconciliation passes by outcome"),
		metric.WithUnit("{run}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}
	fixes, err := meter.Int64Counter("freight.reconciliation.fixes",
		metric.WithDescription("Rows repaired by reconciliation step"),
		metric.WithUnit("{row}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create fixes counter: %w", err)
	}
	duration, err := meter.Float64Histogram("freight.reconciliation.duration",
		metric.WithDescription("Reconciliation pass latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DurationBuckets...))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return &ReconciliationMetrics{runs: runs, fixes: fixes, duration: duration}, nil
}

// RecordRun records one pass. Zero counts are skipped.
func (m *ReconciliationMetrics) RecordRun(ctx context.Context, report finance.ReconcileReport, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(Outcome(err)))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(Outcome(err)))

	steps := []struct {
		name  string
		count int
	}{
		{"orphan_costs_deleted", report.OrphanCostsDeleted},
		{"invalid_costs_deleted", report.InvalidCostsDeleted},
		{"links_cleared", report.LinksCleared},
		{"applications_deleted", report.ApplicationsDeleted},
		{"applications_zeroed", report.ApplicationsZeroed},
		{"applications_rebuilt", report.ApplicationsRebuilt},
		{"settled_without_number", report.SettledWithoutNumber},
		{"applied_without_number", report.AppliedWithoutNumber},
	}
	for _, s := range steps {
		if s.count > 0 {
			m.fixes.Add(ctx, int64(s.count), metric.WithAttributes(AttrStep.String(s.name)))
		}
	}
}

// LifecycleMetrics counts cost lifecycle and code allocation operations
type LifecycleMetrics struct {
	operations metric.Int64Counter
	collisions metric.Int64Counter
}

// NewLifecycleMetrics creates the lifecycle instruments on meter
func NewLifecycleMetrics(meter metric.Meter) (*LifecycleMetrics, error) {
	operations, err := meter.Int64Counter("freight.cost_lifecycle.operations",
		metric.WithDescription("Cost lifecycle operations by operation and outcome"),
		metric.WithUnit("{operation}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create operations counter: %w", err)
	}
	collisions, err := meter.Int64Counter("freight.numbering.collisions",
		metric.WithDescription("Business code collisions that forced a retry"),
		metric.WithUnit("{collision}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create collisions counter: %w", err)
	}
	return &LifecycleMetrics{operations: operations, collisions: collisions}, nil
}

// RecordOperation counts one lifecycle operation
func (m *LifecycleMetrics) RecordOperation(ctx context.Context, operation string, err error) {
	if m == nil {
		return
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(operation), Outcome(err)))
}

// RecordCollision counts one code collision
func (m *LifecycleMetrics) RecordCollision(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.collisions.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(operation)))
}
