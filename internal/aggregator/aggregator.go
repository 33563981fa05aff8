// Package aggregator drives duration derivation and robust statistics across
// a batch of files, assembling the keyed dataset handed to the persistence
// collaborator.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/syllable-stats-service/internal/core"
	"github.com/book-expert/syllable-stats-service/internal/stats"
	"github.com/book-expert/syllable-stats-service/internal/statsutils"
)

var (
	// ErrShapeMismatch indicates the identifier and boundary collections
	// have different lengths. The batch aborts before any processing.
	ErrShapeMismatch = errors.New("identifier and boundary collections differ in length")
	// ErrIdentifierCollision indicates two input files sanitize to the same
	// dataset key. Only surfaced under CollisionError.
	ErrIdentifierCollision = errors.New("duplicate dataset key")
)

// CollisionPolicy selects how RunBatch treats two files whose identifiers
// sanitize to the same dataset key.
type CollisionPolicy int

const (
	// CollisionOverwrite keeps the last record written under a key. This is
	// the reference behavior; the overwrite is logged at warn level.
	CollisionOverwrite CollisionPolicy = iota
	// CollisionError aborts the batch on the first duplicate key.
	CollisionError
)

// Log message formats.
const (
	logFmtKeyOverwritten = "dataset key '%s' already present at file %d, overwriting"
	logFmtBatchDone      = "aggregated %d files in %s"
)

// Aggregator runs the per-file statistics pipeline over a batch. It holds no
// state between batches; a single instance may run batches sequentially.
type Aggregator struct {
	log      *logger.Logger
	progress core.ProgressFunc
	policy   CollisionPolicy
	now      func() time.Time
}

// New creates an Aggregator. The progress callback may be nil; results never
// depend on whether one is registered.
func New(log *logger.Logger, progress core.ProgressFunc, policy CollisionPolicy) (*Aggregator, error) {
	return &Aggregator{
		log:      log,
		progress: progress,
		policy:   policy,
		now:      time.Now,
	}, nil
}

// RunBatch derives durations and robust statistics for each file and collects
// the records into a dataset keyed by sanitized identifiers. The two input
// collections must be parallel; a length mismatch fails with ErrShapeMismatch
// before any file is touched.
//
// Cancellation is checked before each file index: an aborted batch returns
// the valid partial dataset together with the context's error so callers can
// inspect what completed. No durable writes happen here; persistence is the
// caller's step.
func (a *Aggregator) RunBatch(
	ctx context.Context,
	identifiers []string,
	boundaries []core.BoundarySequence,
) (core.Dataset, error) {
	if len(identifiers) != len(boundaries) {
		return nil, fmt.Errorf(
			"%w: %d identifiers, %d boundary sequences",
			ErrShapeMismatch, len(identifiers), len(boundaries),
		)
	}

	total := len(identifiers)
	dataset := make(core.Dataset, total)
	start := a.now()

	for k := 0; k < total; k++ {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return dataset, fmt.Errorf("batch aborted before file %d: %w", k, ctxErr)
		}

		durations := stats.DeriveDurations(boundaries[k])
		key := statsutils.SanitizeIdentifier(identifiers[k])

		// The record carries the dataset key, not the raw identifier, so a
		// record always names the key it is stored under.
		record := core.FileRecord{
			Identifier: key,
			Boundaries: boundaries[k],
			Durations:  durations,
			Stats:      stats.ComputeRobustStats(durations),
		}

		insertErr := a.insert(dataset, key, k, record)
		if insertErr != nil {
			return dataset, insertErr
		}

		a.report(start, k, total)
	}

	a.log.Info(logFmtBatchDone, total, a.now().Sub(start))

	return dataset, nil
}

// insert places a record under its key, applying the collision policy.
func (a *Aggregator) insert(dataset core.Dataset, key string, index int, record core.FileRecord) error {
	_, exists := dataset[key]
	if exists {
		if a.policy == CollisionError {
			return fmt.Errorf("%w: '%s' at file %d", ErrIdentifierCollision, key, index)
		}

		a.log.Warn(logFmtKeyOverwritten, key, index)
	}

	dataset[key] = record

	return nil
}

// report computes the remaining-time estimate from elapsed wall-clock time and
// invokes the progress callback. Advisory only.
func (a *Aggregator) report(start time.Time, index, total int) {
	if a.progress == nil {
		return
	}

	processed := index + 1
	elapsed := a.now().Sub(start).Seconds()
	remaining := elapsed / float64(processed) * float64(total-processed)

	a.progress(index, total, remaining)
}
