// Package pipeline turns captured frames into curvature samples.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/soocke/curvature-go/domain/calibration"
	"github.com/soocke/curvature-go/domain/capture"
	"github.com/soocke/curvature-go/domain/series"
	"github.com/soocke/curvature-go/domain/session"
	"github.com/soocke/curvature-go/domain/vision"
)

// ErrOutsideFrame is returned when a picked point lies outside the frame.
var ErrOutsideFrame = errors.New("pipeline: point outside frame")

// Options configure the detectors.
type Options struct {
	AnalysisScale float64
	Approx        vision.ChainApprox
	MinArea       float64
}

// FrameResult is what the render sink receives for one processed frame.
// Mask aliases the segmenter buffer and is only valid until the next Process.
type FrameResult struct {
	Frame    *image.RGBA
	Sequence uint64
	// Active is false when no target color is selected.
	Active      bool
	Detected    bool
	Selection   vision.Selection
	Measurement vision.Measurement
	Baseline    vision.Baseline
	Mask        *vision.Mask
	Recorded    bool
	Sample      series.Sample
	Err         error
}

// Processor runs detection for the session. Detection state is guarded by a
// mutex so the frame loop and user actions (calibrate, pick) can interleave.
type Processor struct {
	mu       sync.Mutex
	session  *session.Session
	source   capture.FrameSource
	detector *vision.Detector
	sampler  *vision.Detector
	logger   *slog.Logger
	lastSeq  uint64
}

// New builds a processor reading frames from source.
func New(sess *session.Session, source capture.FrameSource, opts Options, logger *slog.Logger) *Processor {
	det := vision.NewDetector(vision.NewSegmenter(opts.AnalysisScale, logger), opts.Approx)
	sampleSeg := vision.NewSegmenter(opts.AnalysisScale, logger)
	sampleSeg.Morphology = false
	sampler := vision.NewDetector(sampleSeg, opts.Approx)
	if opts.MinArea > 0 {
		det.MinArea = opts.MinArea
		sampler.MinArea = opts.MinArea
	}
	return &Processor{session: sess, source: source, detector: det, sampler: sampler, logger: logger}
}

// Session returns the session the processor records into.
func (p *Processor) Session() *session.Session { return p.session }

// SetSource swaps the frame source, e.g. when switching camera and screen.
func (p *Processor) SetSource(src capture.FrameSource) {
	p.mu.Lock()
	p.source = src
	p.lastSeq = 0
	p.mu.Unlock()
}

// ProcessLatest processes the newest frame if it has not been seen yet.
func (p *Processor) ProcessLatest() (FrameResult, bool) {
	p.mu.Lock()
	src := p.source
	last := p.lastSeq
	p.mu.Unlock()
	if src == nil || !src.Running() {
		return FrameResult{}, false
	}
	snap := src.LatestFrame()
	if snap.Image == nil || snap.Sequence == last {
		return FrameResult{}, false
	}
	return p.Process(snap), true
}

// Process runs one iteration. A panic is logged, the working buffers are
// dropped and the error is reported in the result.
func (p *Processor) Process(snap capture.FrameSnapshot) (res FrameResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeq = snap.Sequence
	res = FrameResult{Frame: snap.Image, Sequence: snap.Sequence}

	defer func() {
		if r := recover(); r != nil {
			p.detector.Segmenter.Release()
			err := fmt.Errorf("pipeline: frame %d: %v", snap.Sequence, r)
			if p.logger != nil {
				p.logger.Error("frame processing failed", "sequence", snap.Sequence, "error", err)
			}
			res = FrameResult{Frame: snap.Image, Sequence: snap.Sequence, Err: err}
		}
	}()

	band, ok := p.session.Band()
	if !ok || snap.Image == nil {
		return res
	}
	res.Active = true
	det := p.detector.Detect(snap.Image, band)
	res.Mask = det.Mask
	reading := p.session.Record(det.Selection, det.Found)
	res.Detected = det.Found
	res.Selection = det.Selection
	res.Measurement = reading.Measurement
	res.Baseline = reading.Baseline
	res.Recorded = reading.Recorded
	res.Sample = reading.Sample
	return res
}

// Calibrate detects the object on the latest frame and anchors the baseline
// to it. Morphology is skipped for the sampler.
func (p *Processor) Calibrate() (float64, error) {
	frame, err := p.liveFrame()
	if err != nil {
		return 0, err
	}
	band, ok := p.session.Band()
	if !ok {
		return 0, calibration.ErrNoColorSelected
	}
	p.mu.Lock()
	det := p.sampler.Detect(frame, band)
	p.mu.Unlock()
	if !det.Found {
		if p.logger != nil {
			p.logger.Warn("calibration failed", "error", calibration.ErrObjectNotDetected, "contours", len(det.Contours))
		}
		return 0, calibration.ErrObjectNotDetected
	}
	return p.session.ApplyCalibration(det.Selection.BBox), nil
}

// PickColor selects the reference color from the pixel at pt (frame
// coordinates) of the latest frame.
func (p *Processor) PickColor(pt image.Point) (vision.ColorSample, error) {
	frame, err := p.liveFrame()
	if err != nil {
		return vision.ColorSample{}, err
	}
	if !pt.In(frame.Rect) {
		return vision.ColorSample{}, ErrOutsideFrame
	}
	c := frame.RGBAAt(pt.X, pt.Y)
	return p.session.SelectColor(c.R, c.G, c.B), nil
}

// PickColorDisplay maps a point from a scaled preview of size display back to
// frame coordinates before picking.
func (p *Processor) PickColorDisplay(pt, display image.Point) (vision.ColorSample, error) {
	frame, err := p.liveFrame()
	if err != nil {
		return vision.ColorSample{}, err
	}
	return p.PickColor(frame.Rect.Min.Add(vision.DisplayToFrame(pt, display, frame.Rect.Size())))
}

// Release drops detector working buffers; called when acquisition stops.
func (p *Processor) Release() {
	p.mu.Lock()
	p.detector.Segmenter.Release()
	p.sampler.Segmenter.Release()
	p.lastSeq = 0
	p.mu.Unlock()
}

func (p *Processor) liveFrame() (*image.RGBA, error) {
	p.mu.Lock()
	src := p.source
	p.mu.Unlock()
	if src == nil || !src.Running() {
		return nil, calibration.ErrNoFrameSource
	}
	frame := src.LatestFrame().Image
	if frame == nil {
		return nil, calibration.ErrNoFrameSource
	}
	return frame, nil
}
