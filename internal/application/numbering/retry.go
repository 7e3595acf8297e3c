package numbering

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/freightdesk/backend/internal/domain/shared"
)

// RetryPolicy decides how often an operation is re-run. Attempts <= 0 means
// unbounded.
type RetryPolicy struct {
	Attempts    int
	IsRetryable func(error) bool
}

// DuplicateKeyPolicy retries only when the store rejected a unique value
func DuplicateKeyPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, IsRetryable: shared.IsDuplicateKey}
}

// WithRetry runs op until it succeeds, fails with a non-retryable error, the
// attempt budget is spent or ctx is done. Non-retryable errors are returned
// unchanged even when ctx is done by then. A retryable failure interrupted by
// ctx returns ctx.Err(); running out of attempts returns shared.ErrContention
// wrapping the last failure.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	isRetryable := policy.IsRetryable
	if isRetryable == nil {
		isRetryable = func(error) bool { return false }
	}

	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if policy.Attempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(policy.Attempts-1))
	}

	attempt := 0
	var lastErr error
	result, err := backoff.RetryWithData(func() (T, error) {
		attempt++
		v, err := op(ctx, attempt)
		lastErr = err
		if err != nil && !isRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithContext(b, ctx))
	if err == nil {
		return result, nil
	}
	if lastErr != nil && !isRetryable(lastErr) {
		return result, lastErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	return result, shared.ErrContention.WithMessage("too much concurrent contention after %d attempts", attempt).Wrap(lastErr)
}
