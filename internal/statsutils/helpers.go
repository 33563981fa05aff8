// Package statsutils provides identifier and formatting helpers for the
// syllable-stats service.
//
// This package focuses on deriving stable dataset keys from file paths and on
// human-readable progress formatting, adhering to Go's best practices for
// clarity, error handling, and maintainability.
package statsutils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Identifier sanitization constants.
const (
	spaceReplacement       = "_"
	invalidCharReplacement = "_"
)

// Time formatting constants.
const (
	secondsInMinute = 60
	secondsInHour   = 3600
	formatSeconds   = "%.1fs"
	formatMinutes   = "%dm %.1fs"
	formatHours     = "%dh %dm"
)

// Audio file extension constants.
const (
	extAAC  = ".aac"
	extFLAC = ".flac"
	extM4A  = ".m4a"
	extMP3  = ".mp3"
	extOGG  = ".ogg"
	extWAV  = ".wav"
)

// SanitizeIdentifier turns a file identifier into a dataset key. Spaces become
// underscores so keys survive round-trips through field-style record stores,
// and characters that are invalid in most filesystems are replaced the same
// way.
func SanitizeIdentifier(identifier string) string {
	replacer := strings.NewReplacer(
		" ", spaceReplacement,
		"<", invalidCharReplacement,
		">", invalidCharReplacement,
		":", invalidCharReplacement,
		"\"", invalidCharReplacement,
		"/", invalidCharReplacement,
		"\\", invalidCharReplacement,
		"|", invalidCharReplacement,
		"?", invalidCharReplacement,
		"*", invalidCharReplacement,
	)

	return replacer.Replace(identifier)
}

// BaseIdentifier returns the file name of a path without its extension, the
// form used as the raw per-file identifier throughout the pipeline.
func BaseIdentifier(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FormatDuration formats a duration in a human-readable string (e.g., "1h 15m",
// "5m 30.5s", "45.2s"). Used for progress and remaining-time display.
func FormatDuration(seconds float64) string {
	if seconds < secondsInMinute {
		return fmt.Sprintf(formatSeconds, seconds)
	}

	if seconds < secondsInHour {
		minutes := int(seconds / secondsInMinute)
		remainingSeconds := seconds - float64(minutes*secondsInMinute)

		return fmt.Sprintf(formatMinutes, minutes, remainingSeconds)
	}

	hours := int(seconds / secondsInHour)
	remainingSeconds := seconds - float64(hours*secondsInHour)
	remainingMinutes := int(remainingSeconds / secondsInMinute)

	return fmt.Sprintf(formatHours, hours, remainingMinutes)
}

// IsValidAudioFile checks if a filename has a common audio file extension.
func IsValidAudioFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case extWAV, extMP3, extFLAC, extOGG, extM4A, extAAC:
		return true
	default:
		return false
	}
}
