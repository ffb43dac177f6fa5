package vision

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Hue is expressed on a 0..179 scale, saturation and value on 0..255.
const (
	MaxHue        = 179
	MaxSaturation = 255
	MaxValue      = 255

	// MaxHueTolerance bounds the user tolerance control.
	MaxHueTolerance = 90
	// DefaultHueTolerance is used until the user adjusts the control.
	DefaultHueTolerance = 15

	svToleranceCap = 50
)

// ColorSample is the reference color picked by the user. It is replaced
// wholesale on every selection.
type ColorSample struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	H int   `json:"h"`
	S int   `json:"s"`
	V int   `json:"v"`
}

// NewColorSample derives the HSV triple for the given RGB color.
func NewColorSample(r, g, b uint8) ColorSample {
	h, s, v := RGBToHSV(r, g, b)
	return ColorSample{R: r, G: g, B: b, H: h, S: s, V: v}
}

// Hex renders the RGB part as #rrggbb.
func (c ColorSample) Hex() string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

// RGBToHSV converts 8-bit RGB into the scaled HSV triple used for banding.
// Achromatic inputs report hue 0.
func RGBToHSV(r, g, b uint8) (h, s, v int) {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	hd, sf, vf := c.Hsv()
	return roundHalfUp(hd / 360 * MaxHue), roundHalfUp(sf * MaxSaturation), roundHalfUp(vf * MaxValue)
}

func roundHalfUp(f float64) int { return int(math.Floor(f + 0.5)) }

// Tolerance is the user-controlled hue width. Saturation and value widths are
// derived from the reference sample.
type Tolerance struct {
	Hue int
}

// Clamp bounds the hue tolerance to the UI range.
func (t Tolerance) Clamp() Tolerance {
	if t.Hue < 0 {
		t.Hue = 0
	}
	if t.Hue > MaxHueTolerance {
		t.Hue = MaxHueTolerance
	}
	return t
}

// HSVRange is an inclusive band in scaled HSV space.
type HSVRange struct {
	HMin, HMax int
	SMin, SMax int
	VMin, VMax int
}

// BandFor computes the acceptance band around sample. Upper saturation and
// value bounds are always fully open.
func BandFor(sample ColorSample, tol Tolerance) HSVRange {
	tol = tol.Clamp()
	sTol := min(svToleranceCap, sample.S)
	vTol := min(svToleranceCap, sample.V)
	return HSVRange{
		HMin: max(0, sample.H-tol.Hue),
		HMax: min(MaxHue, sample.H+tol.Hue),
		SMin: max(0, sample.S-sTol),
		SMax: MaxSaturation,
		VMin: max(0, sample.V-vTol),
		VMax: MaxValue,
	}
}

// Contains reports whether the scaled HSV triple falls inside the band.
func (r HSVRange) Contains(h, s, v int) bool {
	return h >= r.HMin && h <= r.HMax &&
		s >= r.SMin && s <= r.SMax &&
		v >= r.VMin && v <= r.VMax
}
