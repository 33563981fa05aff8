// sylstats is the single-file convenience entry point for syllable duration
// statistics: it runs the boundary detector over one file (or a directory of
// audio files), derives durations, and reports the trimmed mean and standard
// deviation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/syllable-stats-service/internal/aggregator"
	"github.com/book-expert/syllable-stats-service/internal/config"
	"github.com/book-expert/syllable-stats-service/internal/core"
	"github.com/book-expert/syllable-stats-service/internal/segmentation"
	"github.com/book-expert/syllable-stats-service/internal/stats"
	"github.com/book-expert/syllable-stats-service/internal/statsutils"
)

// Flag names and descriptions.
const (
	flagFile          = "file"
	flagDir           = "dir"
	flagOutput        = "output"
	flagDetector      = "detector"
	flagThresholdName = "threshold"

	flagFileDesc      = "Audio file to analyze"
	flagDirDesc       = "Directory of audio files to analyze as a batch"
	flagOutputDesc    = "Output file path for the batch dataset (.json)"
	flagDetectorDesc  = "Path to the boundary detector binary (overrides configuration)"
	flagThresholdDesc = "Detector sensitivity threshold"
)

// Error and log messages.
const (
	errEitherFileOrDir   = "Either --file or --dir must be provided"
	errCannotSpecifyBoth = "Cannot specify both --file and --dir"
	errNoAudioFiles      = "no audio files found"

	logFileNameDefault = "sylstats.log"
	defaultOutputFile  = "dataset.json"

	outputFilePermissions = 0o600
)

// ErrNoAudioFiles is returned when a directory contains no supported audio
// files.
var ErrNoAudioFiles = errors.New(errNoAudioFiles)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	file         string
	dir          string
	output       string
	detector     string
	threshold    float64
	thresholdSet bool
}

func main() {
	err := run()
	if err != nil {
		// A logger might not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

// run is the main application entry point, returning an error on failure.
func run() error {
	flags := parseFlags()

	appLogger, err := logger.New(os.TempDir(), logFileNameDefault)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	defer func() {
		closeErr := appLogger.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	if flags.file == "" && flags.dir == "" {
		flag.Usage()

		return errors.New(errEitherFileOrDir)
	}

	if flags.file != "" && flags.dir != "" {
		return errors.New(errCannotSpecifyBoth)
	}

	detector, threshold, err := setupDetector(flags, appLogger)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if flags.file != "" {
		return analyzeSingleFile(ctx, detector, flags.file, threshold)
	}

	return analyzeDirectory(ctx, detector, appLogger, flags, threshold)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags() appFlags {
	var flags appFlags
	flag.StringVar(&flags.file, flagFile, "", flagFileDesc)
	flag.StringVar(&flags.dir, flagDir, "", flagDirDesc)
	flag.StringVar(&flags.output, flagOutput, "", flagOutputDesc)
	flag.StringVar(&flags.detector, flagDetector, "", flagDetectorDesc)
	flag.Float64Var(&flags.threshold, flagThresholdName, segmentation.DefaultThreshold, flagThresholdDesc)
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == flagThresholdName {
			flags.thresholdSet = true
		}
	})

	return flags
}

// setupDetector builds the segmentation client from the --detector override
// or the service configuration, and resolves the detection threshold to use.
func setupDetector(flags appFlags, appLogger *logger.Logger) (*segmentation.Detector, float64, error) {
	binaryPath := flags.detector
	threshold := flags.threshold
	timeoutSeconds := 0

	if binaryPath == "" {
		cfg, err := config.Load(appLogger)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load configuration: %w", err)
		}

		binaryPath = cfg.Segmentation.BinaryPath
		timeoutSeconds = cfg.Segmentation.TimeoutSeconds
		threshold = resolveThreshold(flags.threshold, flags.thresholdSet, cfg.Segmentation.Threshold)
	}

	detector, err := segmentation.New(segmentation.Config{
		BinaryPath:     binaryPath,
		TimeoutSeconds: timeoutSeconds,
	}, appLogger)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create detector client: %w", err)
	}

	return detector, threshold, nil
}

// resolveThreshold picks the detector threshold: an explicit --threshold flag
// wins, then the configured value, then the built-in default.
func resolveThreshold(flagValue float64, flagSet bool, configured float64) float64 {
	if flagSet {
		return flagValue
	}

	if configured > 0 {
		return configured
	}

	return segmentation.DefaultThreshold
}

// analyzeSingleFile implements getDurationStatistics: detect boundaries for
// one file, derive durations, and print the robust statistics. A file whose
// segmentation yields one or zero boundaries reports undefined statistics;
// that is a normal terminal outcome, not an error.
func analyzeSingleFile(
	ctx context.Context,
	detector *segmentation.Detector,
	path string,
	threshold float64,
) error {
	boundaries, err := detector.Detect(ctx, []string{path}, threshold)
	if err != nil {
		return fmt.Errorf("boundary detection failed for %s: %w", path, err)
	}

	durations := stats.DeriveDurations(boundaries[0])
	result := stats.ComputeRobustStats(durations)

	fmt.Printf("file: %s\n", path)
	fmt.Printf("boundaries: %d, durations: %d\n", len(boundaries[0]), len(durations))

	if !result.Defined {
		fmt.Println("mean: undefined")
		fmt.Println("stdev: undefined")

		return nil
	}

	fmt.Printf("mean: %.6f s\n", result.Mean)
	fmt.Printf("stdev: %.6f s\n", result.Stdev)
	fmt.Printf("retained durations: %d\n", len(result.Filtered))

	return nil
}

// analyzeDirectory harvests the audio files under a directory, runs the full
// batch pipeline with progress output, and writes the dataset to a JSON file.
func analyzeDirectory(
	ctx context.Context,
	detector *segmentation.Detector,
	appLogger *logger.Logger,
	flags appFlags,
	threshold float64,
) error {
	paths, identifiers, err := harvestAudioFiles(flags.dir)
	if err != nil {
		return err
	}

	boundaries, err := detector.Detect(ctx, paths, threshold)
	if err != nil {
		return fmt.Errorf("boundary detection failed for %s: %w", flags.dir, err)
	}

	progress := func(index, total int, remaining float64) {
		fmt.Printf(
			"\rProcessing %d/%d (est. remaining %s)",
			index+1, total, statsutils.FormatDuration(remaining),
		)
	}

	agg, err := aggregator.New(appLogger, progress, aggregator.CollisionOverwrite)
	if err != nil {
		return fmt.Errorf("failed to create aggregator: %w", err)
	}

	start := time.Now()

	dataset, err := agg.RunBatch(ctx, identifiers, boundaries)
	if err != nil {
		return fmt.Errorf("batch aggregation failed: %w", err)
	}

	fmt.Printf("\nAggregated %d files in %s\n", len(dataset), statsutils.FormatDuration(time.Since(start).Seconds()))

	return writeDataset(dataset, flags.output)
}

// harvestAudioFiles lists the supported audio files directly under dir,
// sorted by name, along with their base identifiers.
func harvestAudioFiles(dir string) ([]string, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var paths []string

	for _, entry := range entries {
		if entry.IsDir() || !statsutils.IsValidAudioFile(entry.Name()) {
			continue
		}

		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("%w in %s", ErrNoAudioFiles, dir)
	}

	sort.Strings(paths)

	identifiers := make([]string, 0, len(paths))
	for _, path := range paths {
		identifiers = append(identifiers, statsutils.BaseIdentifier(path))
	}

	return paths, identifiers, nil
}

// writeDataset serializes the dataset as one indented JSON aggregate.
func writeDataset(dataset core.Dataset, outputPath string) error {
	if outputPath == "" {
		outputPath = defaultOutputFile
	}

	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	err = os.WriteFile(outputPath, data, outputFilePermissions)
	if err != nil {
		return fmt.Errorf("failed to write dataset to %s: %w", outputPath, err)
	}

	fmt.Printf("Dataset written to: %s\n", outputPath)

	return nil
}
