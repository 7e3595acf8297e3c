package numbering

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/freightdesk/backend/internal/domain/shared"
)

const (
	// PartitionLayout formats the date part of a sequential code (YYMMDD)
	PartitionLayout = "060102"

	// SequenceWidth is the number of digits of the per-day sequence
	SequenceWidth = 3

	// MaxSequence is the largest sequence that fits SequenceWidth
	MaxSequence = 999
)

// Allocator hands out strictly increasing, gap-free sequence numbers per
// partition key, starting at 1.
type Allocator interface {
	Allocate(ctx context.Context, partition string) (int, error)
}

// DatePartition returns the partition key for a calendar day
func DatePartition(t time.Time) string {
	return t.Format(PartitionLayout)
}

// CounterKey scopes a partition to one counter name so shipments and
// applications never share a counter row.
func CounterKey(name, partition string) string {
	return name + ":" + partition
}

// FormatCode renders prefix + partition + zero-padded sequence
func FormatCode(prefix, partition string, seq int) (string, error) {
	if seq < 1 {
		return "", shared.ErrInvalidInput.WithMessage("sequence must be positive, got %d", seq)
	}
	if seq > MaxSequence {
		return "", shared.ErrSequenceExhausted.WithMessage("daily sequence limit reached for %s%s", prefix, partition)
	}
	return fmt.Sprintf("%s%s%0*d", prefix, partition, SequenceWidth, seq), nil
}

// ParseSequence extracts the sequence suffix of a code produced by
// FormatCode. It returns false when code does not belong to the partition.
func ParseSequence(code, prefix, partition string) (int, bool) {
	head := prefix + partition
	if !strings.HasPrefix(code, head) {
		return 0, false
	}
	suffix := code[len(head):]
	if len(suffix) != SequenceWidth {
		return 0, false
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}
