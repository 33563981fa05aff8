// Package core defines the domain types and collaborator interfaces for the
// syllable-stats service.
package core

import "context"

// SegmentationService is the external acoustic boundary detector. It returns
// one boundary-timestamp sequence per input file path, indexed consistently
// with filepaths. The threshold is an opaque sensitivity parameter of the
// detector.
type SegmentationService interface {
	Detect(ctx context.Context, filepaths []string, threshold float64) ([]BoundarySequence, error)
}

// DatasetStore persists and retrieves aggregated datasets, plus raw blobs.
type DatasetStore interface {
	SaveDataset(ctx context.Context, key string, dataset Dataset) error
	LoadDataset(ctx context.Context, key string) (Dataset, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// ProgressFunc is invoked once per processed file with the zero-based file
// index, the batch total, and the estimated seconds remaining. It is advisory
// only and never affects results.
type ProgressFunc func(index, total int, estimatedSecondsRemaining float64)
