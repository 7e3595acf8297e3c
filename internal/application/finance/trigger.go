package finance

import "context"

// ReconcileTrigger requests a reconciliation pass after a mutation has
// committed. Implementations must not report failures back to the caller.
type ReconcileTrigger interface {
	TriggerReconcile(ctx context.Context, reason string)
}

// ReconcileTriggerFunc adapts a function to ReconcileTrigger
type ReconcileTriggerFunc func(ctx context.Context, reason string)

// TriggerReconcile calls f
func (f ReconcileTriggerFunc) TriggerReconcile(ctx context.Context, reason string) {
	f(ctx, reason)
}

func fire(ctx context.Context, t ReconcileTrigger, reason string) {
	if t == nil {
		return
	}
	// The request context may be canceled as soon as the handler returns.
	t.TriggerReconcile(context.WithoutCancel(ctx), reason)
}
