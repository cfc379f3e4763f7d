package imaging

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is returned by Save for an unrecognised extension.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Save writes img to path, choosing the encoder from the file extension and
// replacing any existing file. The parent directory must already exist.
func Save(img image.Image, path string) error {
	if isWebP(path) {
		return saveWebP(img, path)
	}
	if !HasImageExt(path) {
		return fmt.Errorf("failed to save %s: %w", path, ErrUnsupportedFormat)
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// HasImageExt reports whether Save can encode a file with path's extension.
func HasImageExt(path string) bool {
	if isWebP(path) {
		return webpSupported
	}
	_, err := imaging.FormatFromFilename(path)
	return err == nil
}

func isWebP(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".webp")
}
