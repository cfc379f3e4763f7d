package output

import (
	"image"
	"path/filepath"
	"strings"

	"github.com/ironsheep/morph2d-output/internal/imaging"
	"github.com/ironsheep/morph2d-output/internal/monitoring"
	"github.com/ironsheep/morph2d-output/internal/settings"
)

// IntermediatePath returns <out>/intermediates/<sampleID>_<imageName>_<tag>.
// The tag carries the file extension, which selects the encoder.
func IntermediatePath(s settings.Settings, imageName, tag string) string {
	name := strings.Join([]string{s.SampleID, imageName, tag}, "_")
	return filepath.Join(s.Dir(settings.IntermediatesDir), name)
}

// SaveIntermediate writes one filter stage's image to the intermediates
// directory and returns its path.
//
// A tag without an extension imaging.Save recognises fails with
// imaging.ErrUnsupportedFormat and nothing is written.
//
// The write is unconditional. Callers decide whether intermediates are wanted,
// typically by checking Settings.SaveIntermediates before calling.
func SaveIntermediate(s settings.Settings, img image.Image, imageName, tag string) (string, error) {
	path := IntermediatePath(s, imageName, tag)
	if err := imaging.Save(img, path); err != nil {
		return "", err
	}
	monitoring.Logf("wrote intermediate %s", path)
	return path, nil
}
