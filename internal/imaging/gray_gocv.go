//go:build gocv

package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Grayscale converts img to a single-channel 8-bit image with the same
// bounds using OpenCV's cvtColor.
func Grayscale(img image.Image) (*image.Gray, error) {
	bounds := img.Bounds()

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	// ImageToMatRGB stores channels in OpenCV's native BGR order.
	gocv.CvtColor(src, &dst, gocv.ColorBGRToGray)

	converted, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert mat to image: %w", err)
	}
	g, ok := converted.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected grayscale image type %T", converted)
	}

	out := image.NewGray(bounds)
	for y := 0; y < bounds.Dy(); y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+bounds.Dx()], g.Pix[y*g.Stride:y*g.Stride+bounds.Dx()])
	}
	return out, nil
}
