package session

import (
	"io"
	"log/slog"
	"sync"

	"github.com/soocke/curvature-go/domain/calibration"
	"github.com/soocke/curvature-go/domain/sensor"
	"github.com/soocke/curvature-go/domain/series"
	"github.com/soocke/curvature-go/domain/vision"
)

// Options tune measurement behaviour.
type Options struct {
	MMPerPixel float64
	// RecordUncalibrated keeps appending (zero curvature) samples before
	// calibration once a color is selected.
	RecordUncalibrated bool
}

// Reading is the outcome of recording one frame.
type Reading struct {
	Recorded    bool
	Detected    bool
	Sample      series.Sample
	Measurement vision.Measurement
	Baseline    vision.Baseline
}

// Session owns all per-run measurement state: the reference color, tolerance,
// calibration, sample history and the latest weight.
type Session struct {
	mu       sync.Mutex
	color    vision.ColorSample
	hasColor bool
	tol      vision.Tolerance
	detected bool
	opts     Options

	calib     *calibration.Machine
	buffer    *series.Buffer
	publisher *series.Publisher
	weight    *sensor.Register
	logger    *slog.Logger

	lmu       sync.Mutex
	listeners []Listener
}

// New assembles a session around the given collaborators.
func New(opts Options, calib *calibration.Machine, buffer *series.Buffer, publisher *series.Publisher, weight *sensor.Register, logger *slog.Logger) *Session {
	if opts.MMPerPixel <= 0 {
		opts.MMPerPixel = vision.DefaultMMPerPixel
	}
	if weight == nil {
		weight = &sensor.Register{}
	}
	s := &Session{
		tol:       vision.Tolerance{Hue: vision.DefaultHueTolerance},
		opts:      opts,
		calib:     calib,
		buffer:    buffer,
		publisher: publisher,
		weight:    weight,
		logger:    logger,
	}
	return s
}

// Subscribe registers l for all future events.
func (s *Session) Subscribe(l Listener) {
	if l == nil {
		return
	}
	s.lmu.Lock()
	s.listeners = append(s.listeners, l)
	s.lmu.Unlock()
}

func (s *Session) emit(e Event) {
	s.lmu.Lock()
	ls := append([]Listener(nil), s.listeners...)
	s.lmu.Unlock()
	for _, l := range ls {
		func() {
			defer func() {
				if r := recover(); r != nil && s.logger != nil {
					s.logger.Error("session listener panic", "event", e.Kind.String(), "error", r)
				}
			}()
			l(e)
		}()
	}
}

// Calibration exposes the calibration machine.
func (s *Session) Calibration() *calibration.Machine { return s.calib }

// Buffer exposes the sample history.
func (s *Session) Buffer() *series.Buffer { return s.buffer }

// Weight exposes the weight register.
func (s *Session) Weight() *sensor.Register { return s.weight }

// SelectColor replaces the reference color.
func (s *Session) SelectColor(r, g, b uint8) vision.ColorSample {
	c := vision.NewColorSample(r, g, b)
	s.mu.Lock()
	s.color, s.hasColor = c, true
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Info("color selected", "rgb", c.Hex(), "h", c.H, "s", c.S, "v", c.V)
	}
	s.emit(Event{Kind: EventColor, Color: c})
	return c
}

// Color returns the reference color and whether one is selected.
func (s *Session) Color() (vision.ColorSample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color, s.hasColor
}

// SetTolerance updates the hue tolerance, clamped to the UI range.
func (s *Session) SetTolerance(hue int) int {
	t := vision.Tolerance{Hue: hue}.Clamp()
	s.mu.Lock()
	s.tol = t
	s.mu.Unlock()
	s.emit(Event{Kind: EventTolerance, Tolerance: t.Hue})
	return t.Hue
}

// Tolerance returns the current hue tolerance.
func (s *Session) Tolerance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tol.Hue
}

// Band returns the HSV acceptance band, or false when no color is selected.
func (s *Session) Band() (vision.HSVRange, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasColor {
		return vision.HSVRange{}, false
	}
	return vision.BandFor(s.color, s.tol), true
}

// SetMMPerPixel changes the linear conversion factor.
func (s *Session) SetMMPerPixel(v float64) {
	if v <= 0 {
		return
	}
	s.mu.Lock()
	s.opts.MMPerPixel = v
	s.mu.Unlock()
}

// ApplyCalibration anchors the baseline to box and clears the history in one
// critical section, so no frame measured against the old baseline survives.
func (s *Session) ApplyCalibration(box vision.BBox) float64 {
	s.mu.Lock()
	y := s.calib.Calibrate(box)
	s.buffer.Clear()
	s.mu.Unlock()
	s.publish()
	s.emit(Event{Kind: EventCalibration, Calibration: calibration.StateCalibrated, Baseline: y})
	return y
}

// ResetCalibration clears the baseline and the history.
func (s *Session) ResetCalibration() {
	s.mu.Lock()
	s.calib.Reset()
	s.buffer.Clear()
	s.mu.Unlock()
	if s.logger != nil {
		s.logger.Info("calibration reset")
	}
	s.publish()
	s.emit(Event{Kind: EventCalibration, Calibration: calibration.StateUncalibrated})
}

// ClearData drops the history and restarts the session clock.
func (s *Session) ClearData() {
	s.mu.Lock()
	s.buffer.Clear()
	s.mu.Unlock()
	s.publish()
	s.emit(Event{Kind: EventCleared})
}

// ResetClock restarts session time, e.g. when the camera starts.
func (s *Session) ResetClock() { s.buffer.ResetClock() }

func (s *Session) publish() {
	if s.publisher != nil {
		s.publisher.PublishNow()
	}
}

// Record measures sel against the current baseline and appends a sample. It
// records nothing when no color is selected, or when uncalibrated and
// RecordUncalibrated is off. A missing detection records zero curvature.
func (s *Session) Record(sel vision.Selection, found bool) Reading {
	s.mu.Lock()
	if !s.hasColor {
		s.mu.Unlock()
		return Reading{}
	}
	baseline := s.calib.Snapshot()
	var r Reading
	r.Detected = found
	r.Baseline = baseline
	if found {
		r.Measurement = vision.EstimateCurvature(sel.Contour, sel.BBox, baseline, s.opts.MMPerPixel)
	}
	if baseline.Calibrated || s.opts.RecordUncalibrated {
		r.Sample = s.buffer.Append(r.Measurement.Curvature, s.weight.Load())
		r.Recorded = true
	}
	changed := s.detected != found
	s.detected = found
	s.mu.Unlock()

	if r.Recorded && s.publisher != nil {
		s.publisher.NotifyAppend()
	}
	if changed {
		s.emit(Event{Kind: EventDetection, Detected: found})
	}
	return r
}

// NotifyWeight publishes a weight update to listeners.
func (s *Session) NotifyWeight(w float64) {
	s.emit(Event{Kind: EventWeight, Weight: w})
}

// NotifySerial publishes a serial link change to listeners.
func (s *Session) NotifySerial(st sensor.Status) {
	s.emit(Event{Kind: EventSerial, Serial: st})
}

// Export writes the history as CSV.
func (s *Session) Export(w io.Writer) error {
	return series.WriteCSV(w, s.buffer.Snapshot())
}

// Status is a point-in-time view of the session.
type Status struct {
	ColorSelected  bool    `json:"color_selected"`
	ColorHex       string  `json:"color_hex,omitempty"`
	Hue            int     `json:"hue"`
	Saturation     int     `json:"saturation"`
	Value          int     `json:"value"`
	Tolerance      int     `json:"tolerance"`
	Calibrated     bool    `json:"calibrated"`
	BaselineY      float64 `json:"baseline_y"`
	Detected       bool    `json:"detected"`
	Weight         float64 `json:"weight"`
	WeightLevel    string  `json:"weight_level"`
	Curvature      float64 `json:"curvature"`
	CurvatureLevel string  `json:"curvature_level"`
	Samples        int     `json:"samples"`
	Elapsed        float64 `json:"elapsed"`
	MMPerPixel     float64 `json:"mm_per_pixel"`
}

// Status snapshots the session for display.
func (s *Session) Status() Status {
	snap := s.buffer.Snapshot()
	s.mu.Lock()
	st := Status{
		ColorSelected: s.hasColor,
		Tolerance:     s.tol.Hue,
		Detected:      s.detected,
		MMPerPixel:    s.opts.MMPerPixel,
	}
	if s.hasColor {
		st.ColorHex = s.color.Hex()
		st.Hue, st.Saturation, st.Value = s.color.H, s.color.S, s.color.V
	}
	s.mu.Unlock()
	st.BaselineY, st.Calibrated = s.calib.Baseline()
	st.Weight = s.weight.Load()
	st.WeightLevel = vision.WeightLevel(st.Weight).String()
	if last, ok := snap.Latest(); ok {
		st.Curvature = last.Curvature
	}
	st.CurvatureLevel = vision.CurvatureLevel(st.Curvature).String()
	st.Samples = snap.Len()
	st.Elapsed = s.buffer.Elapsed()
	return st
}
