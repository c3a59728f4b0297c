package parallel

import (
	"context"
	"fmt"
	"math"
)

// ============================================================================
// Two-Pass List-of-Lists Builder
// ============================================================================

// Producer generates the variable-length output list of one work item by
// calling emit once per value, in a deterministic order. A producer must be a
// pure function of read-only inputs: it is executed twice per item, once to
// count and once to write, and both runs must emit the identical sequence.
type Producer func(item int32, emit func(v int32))

// BuildLists assembles per-item variable-length lists into CSR form without
// locks or per-item allocation.
//
// Pass 1 runs every producer with a counting emit and records per-item
// lengths. An exclusive prefix sum over the counts yields the starts array
// and the total output size. Pass 2 re-runs every producer with an emit that
// writes through a private cursor seeded from starts[item].
//
// The returned starts slice has n+1 entries; lists has starts[n] entries.
// For n == 0 the result is the empty CSR ([0], []).
func BuildLists(ctx context.Context, config PoolConfig, n int, producer Producer) (starts []int32, lists []int32, err error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("negative item count %d", n)
	}

	starts = make([]int32, n+1)
	if n == 0 {
		return starts, []int32{}, nil
	}

	// Pass 1: count. Each work item owns one counter slot, so no atomics.
	ForEachIndex(ctx, config, n, func(i int32) {
		var count int32
		producer(i, func(int32) { count++ })
		starts[i+1] = count
	})

	// Exclusive scan over the counts, in place.
	var total int64
	for i := 1; i <= n; i++ {
		total += int64(starts[i])
		if total > math.MaxInt32 {
			// Keep going would wrap the int32 offsets.
			err = fmt.Errorf("list output of %d entries overflows 32-bit offsets", total)
			return nil, nil, err
		}
		starts[i] += starts[i-1]
	}

	// Pass 2: write through private cursors derived from starts.
	lists = make([]int32, starts[n])
	ForEachIndex(ctx, config, n, func(i int32) {
		cursor := starts[i]
		producer(i, func(v int32) {
			lists[cursor] = v
			cursor++
		})
	})

	return starts, lists, nil
}
