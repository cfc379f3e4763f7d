package output

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/ironsheep/morph2d-output/internal/monitoring"
	"github.com/ironsheep/morph2d-output/internal/settings"
)

// Figure canvas size, matching the usual 640x480 diagnostic plot.
const (
	figureWidth  = 6.4 * vg.Inch
	figureHeight = 4.8 * vg.Inch
)

// FigureFormats are written in order by SaveBoundingBoxFigure.
var FigureFormats = []string{"pdf", "jpg"}

var (
	// ErrEmptyContour is returned when the contour has no points.
	ErrEmptyContour = errors.New("empty contour")

	// ErrBoundingBox is returned when the bounding box does not have four corners.
	ErrBoundingBox = errors.New("minimum bounding box must have 4 corners")
)

var (
	contourColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	boxColor     = color.RGBA{R: 255, A: 255}
)

// FigurePaths returns <out>/aspect_ratio/<objectName>_aspect_ratio.<ext> for
// every entry of FigureFormats.
func FigurePaths(s settings.Settings, objectName string) []string {
	base := filepath.Join(s.Dir(settings.AspectRatioDir), objectName+"_aspect_ratio")
	paths := make([]string, len(FigureFormats))
	for i, ext := range FigureFormats {
		paths[i] = base + "." + ext
	}
	return paths
}

// SaveBoundingBoxFigure renders an object's contour with its minimum bounding
// box and aspect ratio, and saves it as PDF and JPEG.
//
// Both outlines are closed by repeating their first point and are drawn with
// y negated so the shape appears as it does in the image. The box is a red
// dashed line; the label reads "Aspect ratio = %.4f". Axis ranges are padded
// so one data unit has the same length on both axes of the drawn data area.
//
// It returns the paths written so far, including on error. Each output file
// is closed before the next format is rendered, and the plot holds no other
// resources once the function returns.
func SaveBoundingBoxFigure(s settings.Settings, mbb []Point, contour Contour, aspectRatio float64, objectName string) ([]string, error) {
	if len(mbb) != 4 {
		return nil, fmt.Errorf("%w: got %d", ErrBoundingBox, len(mbb))
	}
	pts := contour.Flatten()
	if len(pts) == 0 {
		return nil, ErrEmptyContour
	}

	p, err := boundingBoxPlot(closeLoop(mbb), closeLoop(pts), aspectRatio)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, path := range FigurePaths(s, objectName) {
		if err := renderPlot(p, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	monitoring.Logf("wrote aspect ratio figure for %s (%.4f)", objectName, aspectRatio)
	return written, nil
}

// boundingBoxPlot builds the figure from already-closed outlines.
func boundingBoxPlot(box, contour []Point, aspectRatio float64) (*plot.Plot, error) {
	p := plot.New()

	contourXYs := flipY(contour)
	boxXYs := flipY(box)

	contourLine, err := plotter.NewLine(contourXYs)
	if err != nil {
		return nil, fmt.Errorf("failed to create contour line: %w", err)
	}
	contourLine.Color = contourColor
	contourLine.Width = vg.Points(1.5)

	boxLine, err := plotter.NewLine(boxXYs)
	if err != nil {
		return nil, fmt.Errorf("failed to create bounding box line: %w", err)
	}
	boxLine.Color = boxColor
	boxLine.Width = vg.Points(1.5)
	boxLine.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}

	label, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{}},
		Labels: []string{fmt.Sprintf("Aspect ratio = %.4f", aspectRatio)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aspect ratio label: %w", err)
	}

	p.Add(contourLine, boxLine, label)

	// The data area excludes the axes, tick labels and label overhang, whose
	// sizes depend on the ranges, so the ranges are refitted until the data
	// area's ratio settles. Ranges are set after Add, which widens the axes
	// to fit each plotter.
	xys := append(contourXYs, boxXYs...)
	ratio := float64(figureWidth / figureHeight)
	for i := 0; ; i++ {
		xMin, xMax, yMin, yMax := equalAspectRange(xys, ratio)
		p.X.Min, p.X.Max = xMin, xMax
		p.Y.Min, p.Y.Max = yMin, yMax
		label.XYs[0] = plotter.XY{X: xMin + 0.01*(xMax-xMin), Y: yMin + 0.96*(yMax-yMin)}

		next := dataAspect(p)
		if i == aspectPasses || math.Abs(next-ratio) < 1e-9 {
			break
		}
		ratio = next
	}

	return p, nil
}

// aspectPasses bounds the range refits in boundingBoxPlot.
const aspectPasses = 4

// dataAspect returns the width/height ratio of p's data area on the figure
// canvas, for p's current axis ranges.
func dataAspect(p *plot.Plot) float64 {
	c := vgimg.New(figureWidth, figureHeight)
	size := p.DataCanvas(draw.New(c)).Size()
	if size.Y <= 0 {
		return float64(figureWidth / figureHeight)
	}
	return float64(size.X / size.Y)
}

// equalAspectRange returns axis limits enclosing xys with a 5% margin whose
// x span divided by y span equals ratio.
func equalAspectRange(xys plotter.XYs, ratio float64) (xMin, xMax, yMin, yMax float64) {
	xs := make([]float64, len(xys))
	ys := make([]float64, len(xys))
	for i, xy := range xys {
		xs[i], ys[i] = xy.X, xy.Y
	}

	xMin, xMax = floats.Min(xs), floats.Max(xs)
	yMin, yMax = floats.Min(ys), floats.Max(ys)

	spanX, spanY := xMax-xMin, yMax-yMin
	if spanX == 0 && spanY == 0 {
		spanX, spanY = 1, 1
	}
	spanX *= 1.1
	spanY *= 1.1

	if spanX < spanY*ratio {
		spanX = spanY * ratio
	} else {
		spanY = spanX / ratio
	}

	cx, cy := (xMin+xMax)/2, (yMin+yMax)/2
	return cx - spanX/2, cx + spanX/2, cy - spanY/2, cy + spanY/2
}

// renderPlot draws p in the format named by path's extension and writes it
// to path, closing the file on every exit.
func renderPlot(p *plot.Plot, path string) error {
	format := strings.TrimPrefix(filepath.Ext(path), ".")

	wt, err := p.WriterTo(figureWidth, figureHeight, format)
	if err != nil {
		return fmt.Errorf("failed to render %s figure: %w", format, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create figure file: %w", err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s figure: %w", format, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close figure file: %w", err)
	}
	return nil
}
