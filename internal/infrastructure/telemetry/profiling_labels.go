package telemetry

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelComponent = "component"
	ProfilingLabelOperation = "operation"
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
)

// MaxLabelValueLength truncates label values to keep profile series bounded
const MaxLabelValueLength = 128

// highCardinalityLabels are dropped from profiling labels. Codes and ids
// belong on spans, not on profile series.
var highCardinalityLabels = map[string]bool{
	"request_id":         true,
	"trace_id":           true,
	"span_id":            true,
	"cost_id":            true,
	"shipment_id":        true,
	"shipment_code":      true,
	"application_number": true,
}

// WithProfilingLabels runs fn with pprof labels attached to the current
// goroutine, so CPU and allocation samples taken inside fn carry them.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(maps.Clone(labels))
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// ProfileOperation runs fn under the component and operation labels and
// returns its error.
//
//	err := telemetry.ProfileOperation(ctx, "reconciliation", "run", func(ctx context.Context) error {
//		...
//	})
func ProfileOperation(ctx context.Context, component, operation string, fn func(context.Context) error) error {
	var err error
	WithProfilingLabels(ctx, OperationLabels(component, operation), func(c context.Context) {
		err = fn(c)
	})
	return err
}

// OperationLabels builds the labels of one service operation
func OperationLabels(component, operation string) map[string]string {
	return map[string]string{
		ProfilingLabelComponent: component,
		ProfilingLabelOperation: operation,
	}
}

// HTTPRequestLabels builds the labels of one matched route
func HTTPRequestLabels(route, method string) map[string]string {
	labels := make(map[string]string, 2)
	if route != "" {
		labels[ProfilingLabelRoute] = route
	}
	if method != "" {
		labels[ProfilingLabelMethod] = method
	}
	return labels
}

// sanitizeLabels returns sorted key/value pairs with empty, high-cardinality
// and unrepresentable keys removed and long values truncated.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}
	pairs := make([]string, 0, len(labels)*2)
	for _, key := range slices.Sorted(maps.Keys(labels)) {
		value := labels[key]
		if value == "" || highCardinalityLabels[key] {
			continue
		}
		clean := sanitizeLabelKey(key)
		if clean == "" || highCardinalityLabels[clean] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		pairs = append(pairs, clean, value)
	}
	return pairs
}

// sanitizeLabelKey lowercases key and keeps only [a-z0-9_], mapping spaces
// and dashes to underscores.
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteByte(c)
		case c == ' ', c == '-':
			b.WriteByte('_')
		}
	}
	return b.String()
}
