// Package stats implements syllable duration derivation and robust
// (tail-trimmed) central-tendency statistics over per-file duration
// sequences.
package stats

import (
	"sort"

	"github.com/book-expert/syllable-stats-service/internal/core"
)

// DeriveDurations converts one file's boundary timestamps into consecutive
// syllable durations. The input is copied and stable-sorted ascending before
// differencing, so callers may pass unsorted sequences and keep ownership of
// the slice. Inputs with one or zero boundaries yield an empty sequence.
func DeriveDurations(boundaries core.BoundarySequence) core.DurationSequence {
	if len(boundaries) <= 1 {
		return core.DurationSequence{}
	}

	sorted := make([]float64, len(boundaries))
	copy(sorted, boundaries)
	sort.Stable(sort.Float64Slice(sorted))

	durations := make(core.DurationSequence, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		durations = append(durations, sorted[i]-sorted[i-1])
	}

	return durations
}

// DeriveDurationsBatch applies DeriveDurations to a collection of per-file
// boundary sequences. Output index i corresponds to input index i; boundaries
// are never mixed across files.
func DeriveDurationsBatch(collection []core.BoundarySequence) []core.DurationSequence {
	out := make([]core.DurationSequence, 0, len(collection))
	for _, boundaries := range collection {
		out = append(out, DeriveDurations(boundaries))
	}

	return out
}
