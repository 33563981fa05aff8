package statsutils_test

import (
	"testing"

	"github.com/book-expert/syllable-stats-service/internal/statsutils"
)

func TestSanitizeIdentifier_ReplacesSpaces(t *testing.T) {
	t.Parallel()

	result := statsutils.SanitizeIdentifier("speaker one phrase 2")
	expected := "speaker_one_phrase_2"

	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestSanitizeIdentifier_ReplacesInvalidCharacters(t *testing.T) {
	t.Parallel()

	result := statsutils.SanitizeIdentifier(`ref:take|1?`)
	expected := "ref_take_1_"

	if result != expected {
		t.Errorf("Expected %q, got %q", expected, result)
	}
}

func TestSanitizeIdentifier_LeavesCleanIdentifiersAlone(t *testing.T) {
	t.Parallel()

	clean := "xtts_speaker1_phrase_3"
	if result := statsutils.SanitizeIdentifier(clean); result != clean {
		t.Errorf("Expected %q to be unchanged, got %q", clean, result)
	}
}

func TestBaseIdentifier(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/data/references/speaker1.wav":  "speaker1",
		"phrases/xtts_s2_phrase_1.wav":   "xtts_s2_phrase_1",
		"plain":                          "plain",
		"/deep/nested/dir/take.v2.flac":  "take.v2",
		"relative/path/with space 1.wav": "with space 1",
	}

	for path, expected := range cases {
		if result := statsutils.BaseIdentifier(path); result != expected {
			t.Errorf("BaseIdentifier(%q): expected %q, got %q", path, expected, result)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	cases := map[float64]string{
		45.2:   "45.2s",
		330.5:  "5m 30.5s",
		4500.0: "1h 15m",
	}

	for seconds, expected := range cases {
		if result := statsutils.FormatDuration(seconds); result != expected {
			t.Errorf("FormatDuration(%v): expected %q, got %q", seconds, expected, result)
		}
	}
}

func TestIsValidAudioFile(t *testing.T) {
	t.Parallel()

	valid := []string{"a.wav", "b.FLAC", "c.mp3", "dir/d.ogg"}
	invalid := []string{"a.txt", "b.json", "noext", "c.wav.bak"}

	for _, name := range valid {
		if !statsutils.IsValidAudioFile(name) {
			t.Errorf("Expected %q to be a valid audio file", name)
		}
	}

	for _, name := range invalid {
		if statsutils.IsValidAudioFile(name) {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}
