package images

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"

	"github.com/soocke/curvature-go/domain/series"
	"github.com/soocke/curvature-go/domain/vision"
)

var (
	chartBackground = color.RGBA{21, 22, 26, 255}
	chartAxis       = color.RGBA{90, 90, 100, 255}
	chartLabel      = color.RGBA{170, 170, 170, 255}
	CurvatureColor  = color.RGBA{79, 195, 247, 255}
	WeightColor     = color.RGBA{255, 183, 77, 255}
)

const chartPad = 36

// RenderChart plots curvature (left scale) and weight (right scale) against
// time into a w x h image.
func RenderChart(s series.Snapshot, w, h int) *image.RGBA {
	w, h = max(w, 2*chartPad+10), max(h, 2*chartPad+10)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	plot := image.Rect(chartPad, chartPad/2, w-chartPad, h-chartPad)

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	defer mat.Close()
	gocv.Rectangle(&mat, image.Rect(0, 0, w-1, h-1), chartBackground, -1)
	gocv.Line(&mat, image.Pt(plot.Min.X, plot.Max.Y), image.Pt(plot.Max.X, plot.Max.Y), chartAxis, 1)
	gocv.Line(&mat, plot.Min, image.Pt(plot.Min.X, plot.Max.Y), chartAxis, 1)
	gocv.Line(&mat, image.Pt(plot.Max.X, plot.Min.Y), plot.Max, chartAxis, 1)

	n := s.Len()
	var t0, t1, kMax, wMax float64
	if n > 0 {
		t0, t1 = s.Times[0], s.Times[n-1]
		if t1-t0 < 1 {
			t1 = t0 + 1
		}
		kMax = max(floats.Max(s.Curvatures), 1)
		wMax = max(floats.Max(s.Weights), 1)
		plotLine(&mat, plot, s.Times, s.Curvatures, t0, t1, kMax, CurvatureColor)
		plotLine(&mat, plot, s.Times, s.Weights, t0, t1, wMax, WeightColor)
	}
	_ = vision.WriteBGR(mat, img)

	if n == 0 {
		drawText(img, plot.Min.X+8, plot.Min.Y+16, "No data", chartLabel)
		return img
	}
	drawText(img, 2, plot.Min.Y+10, fmt.Sprintf("%.1f", kMax), CurvatureColor)
	drawText(img, plot.Max.X+2, plot.Min.Y+10, fmt.Sprintf("%.0f", wMax), WeightColor)
	drawText(img, plot.Min.X, h-8, fmt.Sprintf("%.1fs", t0), chartLabel)
	drawText(img, plot.Max.X-40, h-8, fmt.Sprintf("%.1fs", t1), chartLabel)
	drawText(img, plot.Min.X+8, plot.Min.Y+14, "Curvature (mm)", CurvatureColor)
	drawText(img, plot.Min.X+130, plot.Min.Y+14, "Weight (kg)", WeightColor)
	return img
}

func plotLine(m *gocv.Mat, plot image.Rectangle, xs, ys []float64, x0, x1, yMax float64, col color.RGBA) {
	pts := make([]image.Point, len(xs))
	for i := range xs {
		px := plot.Min.X + int((xs[i]-x0)/(x1-x0)*float64(plot.Dx()))
		py := plot.Max.Y - int(min(max(ys[i], 0), yMax)/yMax*float64(plot.Dy()))
		pts[i] = image.Pt(px, py)
	}
	if len(pts) == 1 {
		p := pts[0]
		gocv.Rectangle(m, image.Rect(p.X-1, p.Y-1, p.X+1, p.Y+1), col, -1)
		return
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.Polylines(m, pv, false, col, 1)
}
