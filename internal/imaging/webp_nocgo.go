//go:build !cgo

package imaging

import (
	"fmt"
	"image"
)

const webpSupported = false

func saveWebP(_ image.Image, path string) error {
	return fmt.Errorf("failed to save %s: webp encoding requires cgo: %w", path, ErrUnsupportedFormat)
}
