// Package settings defines the read-only run configuration consumed by the
// output writers: where artifacts go, which sample is being processed, and
// whether intermediate artifacts are persisted.
//
// A Settings value is constructed once per pipeline run (or per sample via
// WithSampleID) and passed explicitly to every writer. Nothing in this module
// mutates it, so a single value is safe to share across sequential or
// parallel calls.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Output subdirectories below Settings.OutDirectory.
const (
	CoordinatesDir   = "coordinates"
	AspectRatioDir   = "aspect_ratio"
	IntermediatesDir = "intermediates"
	OutlinesDir      = "outlines"
)

// Environment variables read by Load.
const (
	EnvOutDirectory      = "MORPH2D_OUT_DIRECTORY"
	EnvSampleID          = "MORPH2D_SAMPLE_ID"
	EnvSaveIntermediates = "MORPH2D_SAVE_INTERMEDIATES"
)

// DefaultOutDirectory is used when EnvOutDirectory is unset.
const DefaultOutDirectory = "./output"

// ErrNoOutDirectory is returned by Validate when the output root is empty.
var ErrNoOutDirectory = errors.New("output directory not set")

// Settings is the configuration shared by every output writer.
type Settings struct {
	// OutDirectory is the root below which all artifacts are written.
	OutDirectory string `json:"out_directory"`

	// SampleID identifies the source image currently being processed. It
	// prefixes intermediate and final image filenames.
	SampleID string `json:"sample_id"`

	// SaveIntermediates controls whether intermediate artifacts are kept.
	// Callers gate SaveIntermediate on it; SaveFinalOverlay reads it to decide
	// whether to duplicate its output into the intermediates directory.
	SaveIntermediates bool `json:"save_intermediates"`
}

// Load builds Settings from the environment, after loading a .env file from
// the working directory if one exists.
func Load() (Settings, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	s := Settings{
		OutDirectory: os.Getenv(EnvOutDirectory),
		SampleID:     os.Getenv(EnvSampleID),
	}
	if s.OutDirectory == "" {
		s.OutDirectory = DefaultOutDirectory
	}

	if v := os.Getenv(EnvSaveIntermediates); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to parse %s: %w", EnvSaveIntermediates, err)
		}
		s.SaveIntermediates = b
	}

	return s, s.Validate()
}

// Validate reports whether s can be used by the writers.
func (s Settings) Validate() error {
	if s.OutDirectory == "" {
		return ErrNoOutDirectory
	}
	return nil
}

// WithSampleID returns a copy of s for a different sample.
func (s Settings) WithSampleID(sampleID string) Settings {
	s.SampleID = sampleID
	return s
}

// Dir returns the path of an output subdirectory, e.g. Dir(OutlinesDir).
func (s Settings) Dir(sub string) string {
	return filepath.Join(s.OutDirectory, sub)
}

// PrepareOutputDirs creates the output root and every subdirectory the
// writers use. The writers themselves never create directories; this is the
// setup step a pipeline runs before processing its first sample.
func PrepareOutputDirs(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for _, sub := range []string{CoordinatesDir, AspectRatioDir, IntermediatesDir, OutlinesDir} {
		if err := os.MkdirAll(s.Dir(sub), 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}
	return nil
}
