package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ironsheep/morph2d-output/internal/monitoring"
	"github.com/ironsheep/morph2d-output/internal/settings"
)

// CoordinatesHeader is the header row of every coordinate file.
var CoordinatesHeader = []string{"SampleID", "ObjectID", "x", "y"}

// CoordinatesPath returns <out>/coordinates/<objectName>_coordinates_<tag>.csv.
func CoordinatesPath(s settings.Settings, objectName, tag string) string {
	return filepath.Join(s.Dir(settings.CoordinatesDir), objectName+"_coordinates_"+tag+".csv")
}

// WriteCoordinates writes one row per point, in order, with the sample and
// object identifiers repeated on every row. An existing file is replaced.
// It returns the path written.
func WriteCoordinates(s settings.Settings, coords []Point, sampleID string, objectID int, objectName, tag string) (string, error) {
	path := CoordinatesPath(s, objectName, tag)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create coordinates file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(CoordinatesHeader); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write coordinates header: %w", err)
	}

	object := strconv.Itoa(objectID)
	for _, p := range coords {
		row := []string{
			sampleID,
			object,
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write coordinates: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to flush coordinates: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close coordinates file: %w", err)
	}

	monitoring.Logf("wrote %d coordinates to %s", len(coords), path)
	return path, nil
}
