package view

import (
	"image"

	"github.com/soocke/curvature-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// CapturePreview shows the annotated frame, the object crop and the chart.
// Clicking the frame reports the click with the displayed image size so the
// caller can map it back to frame coordinates.
type CapturePreview interface {
	UpdateCapture(img image.Image)
	UpdateDetection(img image.Image)
	UpdateChart(img image.Image)
	Reset()
}

type capturePreview struct {
	captureLabel       *LabelWidget
	detectionLabel     *LabelWidget
	chartLabel         *LabelWidget
	prevCapturePhoto   *Img
	prevDetectionPhoto *Img
	prevChartPhoto     *Img
	display            image.Point
	onPick             func(pt, display image.Point)
}

const (
	maxPreviewW = 640
	maxPreviewH = 360
	maxDetailW  = 200
	maxDetailH  = 200
)

// Old photos are deleted before replacement so Tk does not retain stale
// pixel data.

// NewCapturePreview creates the preview labels on row (frame and crop) and
// row+1 (chart). onPick may be nil.
func NewCapturePreview(row int, onPick func(pt, display image.Point)) CapturePreview {
	pngBytes := images.EncodePNG(image.NewRGBA(image.Rect(0, 0, 320, 180)))
	capPhoto := NewPhoto(Data(pngBytes))
	detPhoto := NewPhoto(Data(pngBytes))
	chartPhoto := NewPhoto(Data(pngBytes))
	capture := Label(Image(capPhoto), Borderwidth(0), Relief("flat"))
	detection := Label(Image(detPhoto), Borderwidth(1), Relief("sunken"))
	chart := Label(Image(chartPhoto), Borderwidth(1), Relief("sunken"))
	Grid(capture, Row(row), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	Grid(detection, Row(row), Column(4), Columnspan(1), Sticky("n"), Padx("0.4m"), Pady("0.4m"))
	Grid(chart, Row(row+1), Column(0), Columnspan(5), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	v := &capturePreview{
		captureLabel:       capture,
		detectionLabel:     detection,
		chartLabel:         chart,
		prevCapturePhoto:   capPhoto,
		prevDetectionPhoto: detPhoto,
		prevChartPhoto:     chartPhoto,
		onPick:             onPick,
	}
	Bind(capture, "<Button-1>", Command(func(e *Event) {
		if e == nil || v.onPick == nil || v.display == (image.Point{}) {
			return
		}
		v.onPick(image.Pt(e.X, e.Y), v.display)
	}))
	return v
}

func (v *capturePreview) UpdateCapture(img image.Image) {
	if v.captureLabel == nil || img == nil {
		return
	}
	scaled := images.ScaleToFit(img, maxPreviewW, maxPreviewH)
	v.display = scaled.Bounds().Size()
	v.prevCapturePhoto = replacePhoto(v.captureLabel, v.prevCapturePhoto, scaled)
}

func (v *capturePreview) UpdateDetection(img image.Image) {
	if v.detectionLabel == nil || img == nil {
		return
	}
	scaled := images.ScaleToFit(img, maxDetailW, maxDetailH)
	v.prevDetectionPhoto = replacePhoto(v.detectionLabel, v.prevDetectionPhoto, scaled)
}

func (v *capturePreview) UpdateChart(img image.Image) {
	if v.chartLabel == nil || img == nil {
		return
	}
	v.prevChartPhoto = replacePhoto(v.chartLabel, v.prevChartPhoto, img)
}

func (v *capturePreview) Reset() {
	placeholder := image.NewRGBA(image.Rect(0, 0, 320, 180))
	v.display = image.Point{}
	if v.captureLabel != nil {
		v.prevCapturePhoto = replacePhoto(v.captureLabel, v.prevCapturePhoto, placeholder)
	}
	if v.detectionLabel != nil {
		v.prevDetectionPhoto = replacePhoto(v.detectionLabel, v.prevDetectionPhoto, placeholder)
	}
}

func replacePhoto(lbl *LabelWidget, prev *Img, img image.Image) *Img {
	if prev != nil {
		prev.Delete()
	}
	photo := NewPhoto(Data(images.EncodePNG(img)))
	lbl.Configure(Image(photo))
	return photo
}
