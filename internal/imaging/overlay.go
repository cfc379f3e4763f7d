package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// EdgeValue marks an edge pixel in a binary edge mask.
const EdgeValue = 255

// ErrShapeMismatch is returned when an edge mask and its background differ
// in bounds.
var ErrShapeMismatch = errors.New("image dimensions do not match")

// BT.601 luma weights scaled by 1<<14, as in OpenCV's RGB2GRAY.
const (
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaShift = 14
)

// luma returns the rounded BT.601 luminance of an 8-bit RGB triple.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*lumaR + uint32(g)*lumaG + uint32(b)*lumaB + 1<<(lumaShift-1)) >> lumaShift)
}

// Overlay composites an edge mask onto a grayscale background: the result is
// white wherever edge equals EdgeValue and equal to bg everywhere else.
// Neither input is modified.
func Overlay(bg *image.Gray, edge image.Image) (*image.Gray, error) {
	bounds := bg.Bounds()
	if eb := edge.Bounds(); eb.Dx() != bounds.Dx() || eb.Dy() != bounds.Dy() {
		return nil, fmt.Errorf("%w: background %dx%d, edge %dx%d",
			ErrShapeMismatch, bounds.Dx(), bounds.Dy(), eb.Dx(), eb.Dy())
	}

	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		copy(out.Pix[out.PixOffset(bounds.Min.X, y):out.PixOffset(bounds.Max.X, y)],
			bg.Pix[bg.PixOffset(bounds.Min.X, y):bg.PixOffset(bounds.Max.X, y)])
	}

	eMin := edge.Bounds().Min
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			if edgeLevel(edge.At(eMin.X+x, eMin.Y+y)) == EdgeValue {
				out.Pix[out.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)] = 255
			}
		}
	}
	return out, nil
}

// edgeLevel reads a mask pixel as an 8-bit level.
func edgeLevel(c color.Color) uint8 {
	if g, ok := c.(color.Gray); ok {
		return g.Y
	}
	return color.GrayModel.Convert(c).(color.Gray).Y
}
