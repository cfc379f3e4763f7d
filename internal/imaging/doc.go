// Package imaging is the image-I/O layer of the output writers.
//
// It loads source images and masks from disk, saves image buffers in the
// format implied by the destination filename, converts color images to
// single-channel grayscale, and composites a binary edge mask over a
// grayscale background.
//
// # Coordinate System
//
// All pixel coordinates are absolute image coordinates as returned by
// image.Image.Bounds(): (Min.X, Min.Y) is the top-left pixel, X increases
// rightward and Y increases downward.
//
// # Grayscale Conversion
//
// Grayscale uses the ITU-R BT.601 luma weights (0.299, 0.587, 0.114) in the
// 14-bit fixed-point form used by OpenCV's RGB-to-gray conversion, so a pixel
// with equal R, G and B keeps its value exactly. Builds with the "gocv" tag
// delegate the conversion to OpenCV itself.
//
// # Output Formats
//
// Save chooses the encoder from the file extension:
//   - ".tif", ".tiff", ".png", ".jpg", ".jpeg", ".gif", ".bmp" via disintegration/imaging
//   - ".webp" via chai2010/webp (lossless), only in cgo builds
//
// Any other extension, or none, fails with ErrUnsupportedFormat.
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use.
package imaging
