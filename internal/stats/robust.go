package stats

import (
	"math"
	"sort"

	"github.com/book-expert/syllable-stats-service/internal/core"
)

// TrimFraction is the share of the sorted duration sequence retained when
// discarding the long-duration tail as outliers.
const TrimFraction = 0.95

// Trim returns the shortest floor(TrimFraction*n) durations in ascending
// order. The sort is stable, so exactly tied values keep their original
// relative order and a tie at the cutoff rank discards the latest original
// occurrence. For n=1 the cutoff is zero and the result is empty.
func Trim(durations core.DurationSequence) core.DurationSequence {
	cutoff := int(math.Floor(TrimFraction * float64(len(durations))))
	if cutoff == 0 {
		return core.DurationSequence{}
	}

	sorted := make([]float64, len(durations))
	copy(sorted, durations)
	sort.Stable(sort.Float64Slice(sorted))

	return sorted[:cutoff]
}

// ComputeRobustStats computes the sample mean and sample (unbiased) standard
// deviation of a duration sequence after trimming its longest tail. An empty
// input, or one whose trim cutoff is zero, yields the undefined sentinel
// (Defined false) with an empty filtered set; this is a normal outcome for
// files whose segmentation produced at most one boundary, not an error.
func ComputeRobustStats(durations core.DurationSequence) core.RobustStats {
	filtered := Trim(durations)
	if len(filtered) == 0 {
		return core.RobustStats{
			Mean:     0,
			Stdev:    0,
			Defined:  false,
			Filtered: core.DurationSequence{},
		}
	}

	sum := 0.0
	for _, d := range filtered {
		sum += d
	}

	mean := sum / float64(len(filtered))

	// Sample stdev is undefined for a single retained element; report zero
	// spread but keep the mean defined.
	stdev := 0.0

	if len(filtered) > 1 {
		sumSq := 0.0
		for _, d := range filtered {
			diff := d - mean
			sumSq += diff * diff
		}

		stdev = math.Sqrt(sumSq / float64(len(filtered)-1))
	}

	return core.RobustStats{
		Mean:     mean,
		Stdev:    stdev,
		Defined:  true,
		Filtered: filtered,
	}
}
