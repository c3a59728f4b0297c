// Package collections provides the compact data structures shared by the
// query kernels: CSR (compressed-sparse-row) helpers, bitsets, and slice
// pools.
package collections

import (
	"fmt"
	"sort"
)

// ============================================================================
// CSR Helpers
// ============================================================================

// ValidateCSR checks that starts is a well-formed offset array for lists.
func ValidateCSR(starts, lists []int32) error {
	if len(starts) == 0 {
		return fmt.Errorf("starts must have at least one entry")
	}
	if starts[0] != 0 {
		return fmt.Errorf("starts[0] must be 0, got %d", starts[0])
	}
	for i := 1; i < len(starts); i++ {
		if starts[i] < starts[i-1] {
			return fmt.Errorf("starts must be non-decreasing, starts[%d]=%d < starts[%d]=%d",
				i, starts[i], i-1, starts[i-1])
		}
	}
	if int(starts[len(starts)-1]) != len(lists) {
		return fmt.Errorf("starts[%d]=%d does not match list length %d",
			len(starts)-1, starts[len(starts)-1], len(lists))
	}
	return nil
}

// ExpandStarts inverts a CSR offset array into one row index per element:
// for starts [0 2 5 6] the result is [0 0 1 1 1 2]. Each output slot is
// located independently by binary search, so the fill parallelises over
// elements if needed; the sequential form here is already memory-bound.
func ExpandStarts(starts []int32) []int32 {
	n := len(starts) - 1
	total := int(starts[n])
	expanded := make([]int32, total)
	for j := 0; j < total; j++ {
		// Last row whose start is <= j.
		row := sort.Search(n, func(i int) bool { return starts[i+1] > int32(j) })
		expanded[j] = int32(row)
	}
	return expanded
}

// SortPairsByKey sorts the (keys[i], values[i]) pairs by key, carrying values
// stably so that the original value order survives within one key group.
// Both slices are permuted in place.
func SortPairsByKey(keys, values []int32) {
	if len(keys) != len(values) {
		panic(fmt.Sprintf("collections: key/value length mismatch %d != %d", len(keys), len(values)))
	}
	pairs := make([]pair, len(keys))
	for i := range keys {
		pairs[i] = pair{key: keys[i], value: values[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })
	for i := range pairs {
		keys[i] = pairs[i].key
		values[i] = pairs[i].value
	}
}

type pair struct {
	key   int32
	value int32
}

// GroupToCSR turns key-sorted pairs into a CSR over the key domain [0, n):
// starts has n+1 entries and lists holds the values grouped by key, with
// empty groups for keys that never occur. Keys must be sorted ascending and
// within [0, n).
func GroupToCSR(sortedKeys, values []int32, n int) (starts []int32, lists []int32) {
	starts = make([]int32, n+1)
	for _, k := range sortedKeys {
		starts[k+1]++
	}
	for i := 1; i <= n; i++ {
		starts[i] += starts[i-1]
	}
	lists = make([]int32, len(values))
	copy(lists, values)
	return starts, lists
}
