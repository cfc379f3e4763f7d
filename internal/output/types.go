package output

import "gonum.org/v1/plot/plotter"

// Point is an (x, y) position in image pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Contour is a traced boundary, possibly split into several runs of points
// as produced by contour tracers. Flatten joins the runs in order.
type Contour [][]Point

// Flatten returns all points of c in a single sequence.
func (c Contour) Flatten() []Point {
	n := 0
	for _, run := range c {
		n += len(run)
	}
	pts := make([]Point, 0, n)
	for _, run := range c {
		pts = append(pts, run...)
	}
	return pts
}

// closeLoop returns pts with its first point appended. pts must not be empty.
func closeLoop(pts []Point) []Point {
	closed := make([]Point, len(pts), len(pts)+1)
	copy(closed, pts)
	return append(closed, pts[0])
}

// flipY converts image coordinates (y down) to plot coordinates (y up).
func flipY(pts []Point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i] = plotter.XY{X: p.X, Y: -p.Y}
	}
	return xys
}
