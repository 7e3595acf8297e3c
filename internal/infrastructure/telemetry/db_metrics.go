package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

type queryStartKey struct{}

// DBMetricsPlugin is a GORM plugin recording query count and latency per
// store, operation and table.
type DBMetricsPlugin struct {
	store    string
	queries  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewDBMetricsPlugin creates the query instruments for store on meter
func NewDBMetricsPlugin(meter metric.Meter, store string) (*DBMetricsPlugin, error) {
	queries, err := meter.Int64Counter("freight.db.queries",
		metric.WithDescription("Database statements by store, operation and outcome"),
		metric.WithUnit("{query}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create query counter: %w", err)
	}
	duration, err := meter.Float64Histogram("freight.db.query.duration",
		metric.WithDescription("Database statement latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DurationBuckets...))
	if err != nil {
		return nil, fmt.Errorf("failed to create query histogram: %w", err)
	}
	return &DBMetricsPlugin{store: store, queries: queries, duration: duration}, nil
}

// Name returns the plugin name
func (p *DBMetricsPlugin) Name() string {
	return "freight:db_metrics:" + p.store
}

// Initialize registers before and after callbacks for every statement kind
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	type register func(name string, fn func(*gorm.DB)) error
	hooks := []struct {
		operation     string
		before, after register
	}{
		{"insert", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"select", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, h := range hooks {
		operation := h.operation
		if err := h.before(p.Name()+":before_"+operation, p.start); err != nil {
			return err
		}
		if err := h.after(p.Name()+":after_"+operation, func(db *gorm.DB) {
			p.record(db, operation)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *DBMetricsPlugin) start(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (p *DBMetricsPlugin) record(db *gorm.DB, operation string) {
	ctx := db.Statement.Context
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}

	err := db.Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	attrs := metric.WithAttributes(
		AttrStore.String(p.store),
		AttrOperation.String(operation),
		AttrTable.String(db.Statement.Table),
		Outcome(err),
	)
	p.queries.Add(ctx, 1, attrs)
	p.duration.Record(ctx, time.Since(start).Seconds(), attrs)
}
