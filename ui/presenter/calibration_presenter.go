package presenter

import (
	"fmt"
	"sync"

	"github.com/soocke/curvature-go/domain/calibration"
)

// CalibrationView shows the calibration state.
type CalibrationView interface {
	SetCalibrationLabel(text string, calibrated bool)
}

// CalibrationPresenter queues calibration transitions (which may arrive from
// any goroutine) and applies them to the view on Tick.
type CalibrationPresenter struct {
	mu      sync.Mutex
	src     calibration.StateSource
	view    CalibrationView
	pending []calibration.State
	primed  bool
}

// NewCalibrationPresenter wires the presenter; call OnState from a
// calibration.Listener.
func NewCalibrationPresenter(src calibration.StateSource, view CalibrationView) *CalibrationPresenter {
	return &CalibrationPresenter{src: src, view: view}
}

// OnState records a transition for the next Tick.
func (p *CalibrationPresenter) OnState(_, next calibration.State) {
	if p == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	p.pending = append(p.pending, next)
	p.mu.Unlock()
}

// Tick flushes pending transitions to the view. The label always reflects the
// latest baseline since re-calibration keeps the state unchanged.
func (p *CalibrationPresenter) Tick() {
	if p == nil || p.view == nil || p.src == nil {
		return
	}
	p.mu.Lock()
	n := len(p.pending)
	p.pending = p.pending[:0]
	primed := p.primed
	p.primed = true
	p.mu.Unlock()
	if n == 0 && primed {
		return
	}
	p.view.SetCalibrationLabel(CalibrationLabel(p.src))
}

// CalibrationLabel formats the current state for display.
func CalibrationLabel(src calibration.StateSource) (string, bool) {
	y, ok := src.Baseline()
	if !ok {
		return "Not calibrated", false
	}
	return fmt.Sprintf("Calibrated (baseline y=%.1f)", y), true
}
