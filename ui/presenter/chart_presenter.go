package presenter

import (
	"image"
	"sync"

	"github.com/soocke/curvature-go/domain/series"
	"github.com/soocke/curvature-go/ui/images"
)

// ChartView displays the rendered time-series chart.
type ChartView interface {
	UpdateChart(img image.Image)
}

// ChartPresenter receives snapshots from the series publisher and renders the
// newest one on the UI tick. Intermediate snapshots are dropped.
type ChartPresenter struct {
	mu      sync.Mutex
	pending *series.Snapshot
	view    ChartView
	Width   int
	Height  int
}

func NewChartPresenter(view ChartView, width, height int) *ChartPresenter {
	return &ChartPresenter{view: view, Width: width, Height: height}
}

// PublishSeries implements series.ChartSink.
func (p *ChartPresenter) PublishSeries(s series.Snapshot) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.pending = &s
	p.mu.Unlock()
}

// Tick renders the pending snapshot, if any.
func (p *ChartPresenter) Tick() {
	if p == nil || p.view == nil {
		return
	}
	p.mu.Lock()
	s := p.pending
	p.pending = nil
	p.mu.Unlock()
	if s == nil {
		return
	}
	p.view.UpdateChart(images.RenderChart(*s, p.Width, p.Height))
}

var _ series.ChartSink = (*ChartPresenter)(nil)
