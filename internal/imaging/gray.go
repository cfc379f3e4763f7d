//go:build !gocv

package imaging

import (
	"image"
	"image/color"
)

// Grayscale converts img to a single-channel 8-bit image with the same
// bounds. Alpha is ignored; channels are read unpremultiplied.
func Grayscale(img image.Image) (*image.Gray, error) {
	bounds := img.Bounds()
	out := image.NewGray(bounds)

	if g, ok := img.(*image.Gray); ok {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			copy(out.Pix[out.PixOffset(bounds.Min.X, y):out.PixOffset(bounds.Max.X, y)],
				g.Pix[g.PixOffset(bounds.Min.X, y):g.PixOffset(bounds.Max.X, y)])
		}
		return out, nil
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.Pix[out.PixOffset(x, y)] = luma(c.R, c.G, c.B)
		}
	}
	return out, nil
}
