package vision

import "testing"

func TestRGBToHSV(t *testing.T) {
	cases := []struct {
		name    string
		r, g, b uint8
		h, s, v int
	}{
		{"red", 255, 0, 0, 0, 255, 255},
		{"green", 0, 255, 0, 60, 255, 255},
		{"blue", 0, 0, 255, 119, 255, 255},
		{"yellow", 255, 255, 0, 30, 255, 255},
		{"magenta", 255, 0, 255, 149, 255, 255},
		{"gray", 128, 128, 128, 0, 0, 128},
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 0, 0, 255},
	}
	for _, tc := range cases {
		h, s, v := RGBToHSV(tc.r, tc.g, tc.b)
		if h != tc.h || s != tc.s || v != tc.v {
			t.Fatalf("%s: expected (%d,%d,%d) got (%d,%d,%d)", tc.name, tc.h, tc.s, tc.v, h, s, v)
		}
	}
}

func TestRGBToHSV_Ranges(t *testing.T) {
	for r := 0; r < 256; r += 17 {
		for g := 0; g < 256; g += 17 {
			for b := 0; b < 256; b += 17 {
				h, s, v := RGBToHSV(uint8(r), uint8(g), uint8(b))
				if h < 0 || h > MaxHue || s < 0 || s > MaxSaturation || v < 0 || v > MaxValue {
					t.Fatalf("out of range for (%d,%d,%d): (%d,%d,%d)", r, g, b, h, s, v)
				}
			}
		}
	}
}

func TestBandFor_SaturatedSample(t *testing.T) {
	band := BandFor(NewColorSample(255, 0, 0), Tolerance{Hue: 10})
	want := HSVRange{HMin: 0, HMax: 10, SMin: 205, SMax: 255, VMin: 205, VMax: 255}
	if band != want {
		t.Fatalf("expected %+v got %+v", want, band)
	}
}

func TestBandFor_LowSaturationOpensFully(t *testing.T) {
	sample := ColorSample{H: 170, S: 30, V: 40}
	band := BandFor(sample, Tolerance{Hue: 15})
	if band.HMin != 155 || band.HMax != MaxHue {
		t.Fatalf("unexpected hue band %d..%d", band.HMin, band.HMax)
	}
	if band.SMin != 0 || band.VMin != 0 {
		t.Fatalf("expected open lower s/v bounds, got s=%d v=%d", band.SMin, band.VMin)
	}
}

func TestTolerance_Clamp(t *testing.T) {
	if got := (Tolerance{Hue: -3}).Clamp().Hue; got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := (Tolerance{Hue: 500}).Clamp().Hue; got != MaxHueTolerance {
		t.Fatalf("expected %d, got %d", MaxHueTolerance, got)
	}
}

func TestHSVRange_Contains(t *testing.T) {
	band := HSVRange{HMin: 10, HMax: 20, SMin: 100, SMax: 255, VMin: 50, VMax: 255}
	if !band.Contains(10, 100, 50) || !band.Contains(20, 255, 255) {
		t.Fatalf("bounds must be inclusive")
	}
	if band.Contains(21, 200, 200) || band.Contains(15, 99, 200) || band.Contains(15, 200, 49) {
		t.Fatalf("outside values accepted")
	}
}

func TestColorSample_Hex(t *testing.T) {
	if got := NewColorSample(255, 128, 0).Hex(); got != "#ff8000" {
		t.Fatalf("unexpected hex %q", got)
	}
}
