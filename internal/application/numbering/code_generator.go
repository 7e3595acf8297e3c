package numbering

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"

	"github.com/freightdesk/backend/internal/domain/numbering"
	"github.com/freightdesk/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	// Shipment and application code prefixes
	ShipmentPrefix    = "Rsl-"
	ApplicationPrefix = "F"

	randomCodeMin = 1000000
	randomCodeMax = 9999999
)

// CodeGenerator mints a business code
type CodeGenerator interface {
	Next(ctx context.Context) (string, error)
}

// SequentialCodeGenerator renders prefix + YYMMDD + 3-digit daily sequence
type SequentialCodeGenerator struct {
	allocator numbering.Allocator
	prefix    string
	clock     shared.Clock
}

// NewSequentialCodeGenerator creates a generator over allocator
func NewSequentialCodeGenerator(allocator numbering.Allocator, prefix string, clock shared.Clock) *SequentialCodeGenerator {
	if clock == nil {
		clock = shared.SystemClock(nil)
	}
	return &SequentialCodeGenerator{
		allocator: allocator,
		prefix:    prefix,
		clock:     clock,
	}
}

// Prefix returns the code prefix
func (g *SequentialCodeGenerator) Prefix() string {
	return g.prefix
}

// Next allocates the next sequence of today's partition
func (g *SequentialCodeGenerator) Next(ctx context.Context) (string, error) {
	partition := numbering.DatePartition(g.clock.Now())
	seq, err := g.allocator.Allocate(ctx, partition)
	if err != nil {
		return "", err
	}
	return numbering.FormatCode(g.prefix, partition, seq)
}

// CreateWithCode mints a code and hands it to create, retrying with a fresh
// code whenever create reports a duplicate key. Any other failure, including
// an allocation failure, is returned as is.
func CreateWithCode(ctx context.Context, gen CodeGenerator, attempts int, logger *zap.Logger, create func(ctx context.Context, code string) error) (string, error) {
	return WithRetry(ctx, DuplicateKeyPolicy(attempts), func(ctx context.Context, attempt int) (string, error) {
		code, err := gen.Next(ctx)
		if err != nil {
			return "", err
		}
		if err := create(ctx, code); err != nil {
			if shared.IsDuplicateKey(err) && logger != nil {
				logger.Warn("Business code collided, retrying",
					zap.String("code", code),
					zap.Int("attempt", attempt),
				)
			}
			return "", err
		}
		return code, nil
	})
}

var errCodeTaken = errors.New("random code already taken")

// ExistsFunc reports whether a code is already in use
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// RandomCodeGenerator draws uniform 7-digit codes until one is free
type RandomCodeGenerator struct {
	exists      ExistsFunc
	maxAttempts int
	intn        func(n int) int
}

// RandomCodeOption configures a RandomCodeGenerator
type RandomCodeOption func(*RandomCodeGenerator)

// WithMaxAttempts caps the number of draws. Zero keeps the search unbounded.
func WithMaxAttempts(n int) RandomCodeOption {
	return func(g *RandomCodeGenerator) {
		g.maxAttempts = n
	}
}

// WithIntn replaces the random source
func WithIntn(intn func(n int) int) RandomCodeOption {
	return func(g *RandomCodeGenerator) {
		g.intn = intn
	}
}

// NewRandomCodeGenerator creates a generator that checks codes with exists
func NewRandomCodeGenerator(exists ExistsFunc, opts ...RandomCodeOption) *RandomCodeGenerator {
	g := &RandomCodeGenerator{
		exists: exists,
		intn:   rand.IntN,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns a code not currently in use. The check is not a reservation;
// the insert that follows must still rely on the unique constraint.
func (g *RandomCodeGenerator) Next(ctx context.Context) (string, error) {
	policy := RetryPolicy{
		Attempts:    g.maxAttempts,
		IsRetryable: func(err error) bool { return errors.Is(err, errCodeTaken) },
	}
	return WithRetry(ctx, policy, func(ctx context.Context, _ int) (string, error) {
		code := strconv.Itoa(randomCodeMin + g.intn(randomCodeMax-randomCodeMin+1))
		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", err
		}
		if taken {
			return "", errCodeTaken
		}
		return code, nil
	})
}
