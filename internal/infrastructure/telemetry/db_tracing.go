package telemetry

import (
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// DBTracingConfig controls the SQL spans of one store
type DBTracingConfig struct {
	Store          string
	TracerProvider trace.TracerProvider // nil uses the global provider
	WithVariables  bool                 // include bound values in db.statement
}

// RegisterDBTracing installs otelgorm on db and tags every span with the
// store name and table.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig) error {
	opts := []otelgorm.Option{
		otelgorm.WithDBName(cfg.Store),
		otelgorm.WithAttributes(attribute.String("freight.store", cfg.Store)),
	}
	if !cfg.WithVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// Runs ahead of otelgorm's after hooks, which end the span.
	cb := db.Callback()
	hooks := []struct {
		name     string
		register func(string, func(*gorm.DB)) error
	}{
		{"freight_trace:create", cb.Create().After("gorm:create").Before("otel:after:create").Register},
		{"freight_trace:query", cb.Query().After("gorm:query").Before("otel:after:query").Register},
		{"freight_trace:update", cb.Update().After("gorm:update").Before("otel:after:update").Register},
		{"freight_trace:delete", cb.Delete().After("gorm:delete").Before("otel:after:delete").Register},
		{"freight_trace:row", cb.Row().After("gorm:row").Before("otel:after:row").Register},
		{"freight_trace:raw", cb.Raw().After("gorm:raw").Before("otel:after:raw").Register},
	}
	for _, h := range hooks {
		if err := h.register(h.name, annotateSpan); err != nil {
			return err
		}
	}
	return nil
}

func annotateSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil || db.Statement.Table == "" {
		return
	}
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
}
