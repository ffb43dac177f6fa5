package vision

import (
	"image"
	"math"
	"sort"
)

const (
	// TopBandFraction is the share of the box height, from the top, whose
	// contour points take part in the deflection measurement.
	TopBandFraction = 0.3
	// BaselineFraction places the calibrated baseline below the box top.
	BaselineFraction = 0.1
	// DefaultMMPerPixel is the linear conversion factor used unless configured.
	DefaultMMPerPixel = 0.3

	minTopPoints = 3
)

// Baseline is the calibrated reference row in frame pixels.
type Baseline struct {
	Y          float64
	Calibrated bool
}

// BaselineFromBBox anchors a baseline just below the top edge of box.
func BaselineFromBBox(box BBox) float64 {
	return float64(box.Y) + BaselineFraction*float64(box.H)
}

// Measurement is the outcome of a curvature estimate.
type Measurement struct {
	// Curvature in millimetres, never negative.
	Curvature float64
	// DeflectionPx is the unscaled maximum deviation from the baseline.
	DeflectionPx float64
	// TopPoints are the contour points used, sorted by X.
	TopPoints []image.Point
}

// TopEdgePoints returns the contour points in the upper band of box, sorted by X.
func TopEdgePoints(c Contour, box BBox) []image.Point {
	limit := float64(box.Y) + TopBandFraction*float64(box.H)
	var pts []image.Point
	for _, p := range c {
		if float64(p.Y) <= limit {
			pts = append(pts, p)
		}
	}
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
	return pts
}

// EstimateCurvature measures the maximum vertical deviation of the contour's
// top edge from the baseline. It reports zero when uncalibrated or when fewer
// than three points fall in the top band.
func EstimateCurvature(c Contour, box BBox, baseline Baseline, mmPerPixel float64) Measurement {
	pts := TopEdgePoints(c, box)
	m := Measurement{TopPoints: pts}
	if len(pts) < minTopPoints || !baseline.Calibrated {
		return m
	}
	for _, p := range pts {
		d := math.Abs(float64(p.Y) - baseline.Y)
		if d > m.DeflectionPx {
			m.DeflectionPx = d
		}
	}
	m.Curvature = m.DeflectionPx * mmPerPixel
	return m
}

// DisplayToFrame maps a point on a scaled preview of size display back to
// frame pixel coordinates, clamped to the frame.
func DisplayToFrame(pt image.Point, display, frame image.Point) image.Point {
	if display.X <= 0 || display.Y <= 0 || frame.X <= 0 || frame.Y <= 0 {
		return image.Point{}
	}
	x := int(math.Floor(float64(pt.X) * float64(frame.X) / float64(display.X)))
	y := int(math.Floor(float64(pt.Y) * float64(frame.Y) / float64(display.Y)))
	return image.Pt(min(max(x, 0), frame.X-1), min(max(y, 0), frame.Y-1))
}

// Level grades a reading for display.
type Level int

const (
	LevelLow Level = iota
	LevelMedium
	LevelHigh
)

func (l Level) String() string {
	switch l {
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return "low"
	}
}

// CurvatureLevel grades a curvature in millimetres.
func CurvatureLevel(mm float64) Level {
	switch {
	case mm > 10:
		return LevelHigh
	case mm > 5:
		return LevelMedium
	default:
		return LevelLow
	}
}

// WeightLevel grades a weight reading.
func WeightLevel(w float64) Level {
	switch {
	case w > 1000:
		return LevelHigh
	case w > 500:
		return LevelMedium
	default:
		return LevelLow
	}
}
