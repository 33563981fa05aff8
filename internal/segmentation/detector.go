// Package segmentation provides the client for the external acoustic
// boundary detector. The detector analyzes a file's amplitude envelope and
// emits syllable-edge timestamps; everything downstream of those timestamps
// lives in the stats and aggregator packages.
package segmentation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/syllable-stats-service/internal/core"
)

// DefaultThreshold is the detector sensitivity used by the single-file
// convenience entry point. Unit-less; opaque to this service.
const DefaultThreshold = 0.05

var (
	// ErrBinaryPathEmpty indicates the detector binary path is not configured.
	ErrBinaryPathEmpty = errors.New("detector binary path cannot be empty")
	// ErrNoFiles indicates Detect was called with no input file paths.
	ErrNoFiles = errors.New("no input files")
	// ErrOutputShape indicates the detector returned results for a different
	// number of files than requested.
	ErrOutputShape = errors.New("detector output does not match input file count")
)

// Config holds the configuration for the detector client.
type Config struct {
	BinaryPath string
	// TimeoutSeconds bounds one detector invocation. Zero applies no deadline
	// beyond the caller's context.
	TimeoutSeconds int
}

// Detector implements core.SegmentationService by invoking the detector
// binary.
type Detector struct {
	config Config
	log    *logger.Logger
}

// New creates a Detector.
func New(cfg Config, log *logger.Logger) (*Detector, error) {
	if cfg.BinaryPath == "" {
		return nil, ErrBinaryPathEmpty
	}

	return &Detector{
		config: cfg,
		log:    log,
	}, nil
}

// detectorFile is one file's entry in the detector's JSON output envelope.
// The detector also reports nucleus times and the sampled envelope; only the
// boundary timestamps matter here.
type detectorFile struct {
	Path          string    `json:"path"`
	BoundaryTimes []float64 `json:"boundary_times"`
}

// detectorOutput is the JSON envelope the detector writes to its output file.
type detectorOutput struct {
	Files []detectorFile `json:"files"`
}

// Detect runs the boundary detector over the given files and returns one
// boundary-timestamp sequence per file, in input order. Any detector failure
// is fatal and propagates unmodified; retries belong to the caller.
func (d *Detector) Detect(
	ctx context.Context,
	filepaths []string,
	threshold float64,
) ([]core.BoundarySequence, error) {
	if len(filepaths) == 0 {
		return nil, ErrNoFiles
	}

	if d.config.TimeoutSeconds > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, time.Duration(d.config.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	tempFile, err := os.CreateTemp("", "segmentation-output-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for detector output: %w", err)
	}

	defer func() {
		removeErr := os.Remove(tempFile.Name())
		if removeErr != nil {
			d.log.Warn("Failed to remove temp file '%s': %v", tempFile.Name(), removeErr)
		}
	}()

	args := []string{
		"--out", tempFile.Name(),
		"--threshold", strconv.FormatFloat(threshold, 'f', -1, 64),
	}
	args = append(args, filepaths...)

	// #nosec G204 -- the binary path comes from validated service configuration
	cmd := exec.CommandContext(ctx, d.config.BinaryPath, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("detector binary execution failed: %w - output: %s", err, string(output))
	}

	envelope, err := os.ReadFile(tempFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read detector output from temp file: %w", err)
	}

	return parseBoundaries(envelope, len(filepaths))
}

// parseBoundaries decodes the detector's JSON envelope and checks its shape
// against the number of requested files.
func parseBoundaries(envelope []byte, wantFiles int) ([]core.BoundarySequence, error) {
	var decoded detectorOutput

	err := parseJSON(envelope, &decoded)
	if err != nil {
		return nil, err
	}

	if len(decoded.Files) != wantFiles {
		return nil, fmt.Errorf(
			"%w: got %d, want %d",
			ErrOutputShape, len(decoded.Files), wantFiles,
		)
	}

	boundaries := make([]core.BoundarySequence, 0, len(decoded.Files))
	for _, file := range decoded.Files {
		boundaries = append(boundaries, file.BoundaryTimes)
	}

	return boundaries, nil
}
