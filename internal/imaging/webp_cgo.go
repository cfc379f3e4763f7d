//go:build cgo

package imaging

import (
	"fmt"
	"image"
	"os"

	"github.com/chai2010/webp"
)

const webpSupported = true

// saveWebP writes a lossless WebP so intermediate pixels survive a round trip.
func saveWebP(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if err := webp.Encode(f, img, &webp.Options{Lossless: true}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode webp: %w", err)
	}
	return f.Close()
}
