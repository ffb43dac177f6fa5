package presenter

import (
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/curvature-go/domain/capture"
	"github.com/soocke/curvature-go/domain/pipeline"
	"github.com/soocke/curvature-go/domain/vision"
	"github.com/soocke/curvature-go/ui/images"
	"github.com/soocke/curvature-go/ui/model"
)

const roiPadding = 12

// FrameProcessor runs detection on the newest unseen frame.
type FrameProcessor interface {
	ProcessLatest() (pipeline.FrameResult, bool)
}

// OverlaySource supplies the reference color and tolerance for the info panel.
type OverlaySource interface {
	Color() (vision.ColorSample, bool)
	Tolerance() int
}

// DetectionView describes the UI surface updated by the presenter.
type DetectionView interface {
	UpdateCapture(img image.Image, frameSize image.Point)
	UpdateDetection(img image.Image)
}

type detectionResult struct {
	sequence  uint64
	err       error
	preview   image.Image
	roi       image.Image
	box       image.Rectangle
	frameSize image.Point
}

// DetectionPresenter schedules frame processing off the UI thread and
// applies rendered previews on the UI tick. Processing happens on a single
// worker goroutine; wake-ups and results are coalesced to the latest.
type DetectionPresenter struct {
	Enabled   func() bool
	ShowMask  func() bool
	Processor FrameProcessor
	Overlay   OverlaySource
	View      DetectionView
	Model     *model.DetectionModel
	PreviewW  int
	PreviewH  int
	logger    *slog.Logger

	workerOnce sync.Once
	stopOnce   sync.Once
	started    atomic.Bool
	wakeCh     chan struct{}
	resultCh   chan detectionResult
	quit       chan struct{}
	done       chan struct{}
}

// NewDetectionPresenter constructs a detection presenter. view may be nil for
// headless runs, in which case nothing is rendered.
func NewDetectionPresenter(enabled func() bool, proc FrameProcessor, overlay OverlaySource, view DetectionView, m *model.DetectionModel, logger *slog.Logger) *DetectionPresenter {
	return &DetectionPresenter{
		Enabled:   enabled,
		Processor: proc,
		Overlay:   overlay,
		View:      view,
		Model:     m,
		PreviewW:  640,
		PreviewH:  480,
		logger:    logger,
		wakeCh:    make(chan struct{}, 1),
		resultCh:  make(chan detectionResult, 1),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// ProcessFrame applies finished results and wakes the worker for the next
// frame. Call once per UI tick.
func (p *DetectionPresenter) ProcessFrame() {
	if p == nil || p.Enabled == nil || p.Processor == nil {
		return
	}
	p.ensureWorker()

	for {
		select {
		case res := <-p.resultCh:
			p.handleResult(res)
			continue
		default:
		}
		break
	}

	if !p.Enabled() {
		return
	}
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

// Stop terminates the worker and waits for it. Safe to call more than once.
func (p *DetectionPresenter) Stop() {
	if p == nil {
		return
	}
	p.stopOnce.Do(func() {
		close(p.quit)
		if p.started.Load() {
			<-p.done
		}
	})
}

func (p *DetectionPresenter) ensureWorker() {
	p.workerOnce.Do(func() {
		select {
		case <-p.quit:
			return
		default:
		}
		p.started.Store(true)
		go p.runWorker()
	})
}

func (p *DetectionPresenter) runWorker() {
	defer close(p.done)
	for {
		select {
		case <-p.quit:
			return
		case <-p.wakeCh:
		}
		res, ok := p.process()
		if !ok {
			continue
		}
		select {
		case p.resultCh <- res:
		default:
			select {
			case <-p.resultCh:
			default:
			}
			select {
			case p.resultCh <- res:
			default:
			}
		}
	}
}

func (p *DetectionPresenter) process() (detectionResult, bool) {
	fr, ok := p.Processor.ProcessLatest()
	if !ok {
		return detectionResult{}, false
	}
	res := detectionResult{sequence: fr.Sequence, err: fr.Err}
	if fr.Frame != nil {
		res.frameSize = fr.Frame.Rect.Size()
	}
	if fr.Detected {
		res.box = fr.Selection.BBox.Rect()
	}
	if p.View != nil && fr.Frame != nil {
		res.preview = p.render(fr)
		if fr.Detected {
			if roi, _, err := images.ExtractROI(fr.Frame, res.box.Add(fr.Frame.Rect.Min), roiPadding); err == nil {
				res.roi = roi
			}
		}
	}
	return res, true
}

func (p *DetectionPresenter) render(fr pipeline.FrameResult) image.Image {
	canvas := capture.CopyFrame(fr.Frame)
	opts := images.OverlayOptions{}
	if p.ShowMask != nil {
		opts.ShowMask = p.ShowMask()
	}
	if p.Overlay != nil {
		opts.Color, opts.HasColor = p.Overlay.Color()
		opts.Tolerance = p.Overlay.Tolerance()
	}
	images.RenderOverlay(canvas, fr, opts)
	preview := images.ScaleToFit(canvas, p.PreviewW, p.PreviewH)
	if preview != image.Image(canvas) {
		capture.RecycleFrame(canvas)
	}
	return preview
}

func (p *DetectionPresenter) handleResult(res detectionResult) {
	if res.err != nil && p.logger != nil {
		p.logger.Error("detection", "sequence", res.sequence, "error", res.err)
	}
	if p.Model != nil {
		p.Model.Update(res.sequence, res.frameSize, res.box, time.Now())
	}
	if p.View == nil {
		return
	}
	if res.preview != nil {
		p.View.UpdateCapture(res.preview, res.frameSize)
	}
	if res.roi != nil {
		p.View.UpdateDetection(res.roi)
	}
}
