package core

// BoundarySequence holds the detected syllable-edge timestamps (seconds) for
// one file. Input order is not guaranteed; the duration deriver sorts a copy.
type BoundarySequence = []float64

// DurationSequence holds consecutive syllable durations (seconds) for one
// file. Length is max(0, len(boundaries)-1); every element is non-negative.
type DurationSequence = []float64

// RobustStats is the trimmed mean/standard-deviation result for one file's
// durations. Defined is false when no durations survive trimming; that is a
// normal outcome for files with one or zero boundaries, not an error.
type RobustStats struct {
	Mean     float64          `json:"mean"`
	Stdev    float64          `json:"stdev"`
	Defined  bool             `json:"defined"`
	Filtered DurationSequence `json:"filtered_durations"`
}

// FileRecord is the per-file aggregate stored in a dataset. Identifier equals
// the sanitized dataset key the record is stored under. Immutable once
// assembled; owned by the dataset.
type FileRecord struct {
	Identifier string           `json:"identifier"`
	Boundaries BoundarySequence `json:"boundary_sequence"`
	Durations  DurationSequence `json:"duration_sequence"`
	Stats      RobustStats      `json:"stats"`
}

// Dataset maps sanitized file identifiers to their records. Built empty at
// batch start, populated incrementally, persisted once at batch end.
type Dataset map[string]FileRecord
