package vision

import "image"

// Detection is the result of running the full segment, trace and select chain
// over one frame. Contour coordinates are in frame pixels.
type Detection struct {
	Mask      *Mask
	Contours  []Contour
	Selection Selection
	Found     bool
}

// Detector chains segmentation, contour extraction and dominant selection.
type Detector struct {
	Segmenter *Segmenter
	Approx    ChainApprox
	MinArea   float64
}

// NewDetector builds a detector with the default area threshold.
func NewDetector(seg *Segmenter, approx ChainApprox) *Detector {
	return &Detector{Segmenter: seg, Approx: approx, MinArea: MinContourArea}
}

// Detect segments frame against band and selects the dominant region.
func (d *Detector) Detect(frame *image.RGBA, band HSVRange) Detection {
	mask := d.Segmenter.Segment(frame, band)
	if mask == nil {
		return Detection{}
	}
	contours := FindExternalContours(mask, d.Approx)
	if mask.Scale != 1 {
		for i, c := range contours {
			contours[i] = c.Scaled(mask.Scale)
		}
	}
	sel, ok := SelectDominant(contours, d.MinArea)
	return Detection{Mask: mask, Contours: contours, Selection: sel, Found: ok}
}
