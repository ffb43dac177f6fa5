package series

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultMinInterval throttles append-driven publishes.
	DefaultMinInterval = 100 * time.Millisecond
	// DefaultForceInterval forces a publish while samples exist.
	DefaultForceInterval = 500 * time.Millisecond
)

// ChartSink receives series snapshots for display.
type ChartSink interface {
	PublishSeries(Snapshot)
}

// SinkFunc adapts a function to ChartSink.
type SinkFunc func(Snapshot)

func (f SinkFunc) PublishSeries(s Snapshot) { f(s) }

// Publisher republishes the buffer at a bounded rate: at most once per
// MinInterval on append, plus a forced publish every ForceInterval.
type Publisher struct {
	MinInterval   time.Duration
	ForceInterval time.Duration

	buf    *Buffer
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	sinks       []ChartSink
	lastPublish time.Time
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewPublisher builds a publisher over buf with default intervals.
func NewPublisher(buf *Buffer, logger *slog.Logger, sinks ...ChartSink) *Publisher {
	return &Publisher{
		MinInterval:   DefaultMinInterval,
		ForceInterval: DefaultForceInterval,
		buf:           buf,
		logger:        logger,
		now:           time.Now,
		sinks:         sinks,
	}
}

// AddSink registers an additional consumer.
func (p *Publisher) AddSink(s ChartSink) {
	if s == nil {
		return
	}
	p.mu.Lock()
	p.sinks = append(p.sinks, s)
	p.mu.Unlock()
}

// NotifyAppend publishes if the throttle interval has elapsed.
func (p *Publisher) NotifyAppend() {
	p.mu.Lock()
	now := p.now()
	if !p.lastPublish.IsZero() && now.Sub(p.lastPublish) < p.MinInterval {
		p.mu.Unlock()
		return
	}
	p.lastPublish = now
	sinks := append([]ChartSink(nil), p.sinks...)
	p.mu.Unlock()
	p.publish(sinks)
}

// PublishNow publishes unconditionally, e.g. after a clear.
func (p *Publisher) PublishNow() {
	p.mu.Lock()
	p.lastPublish = p.now()
	sinks := append([]ChartSink(nil), p.sinks...)
	p.mu.Unlock()
	p.publish(sinks)
}

func (p *Publisher) publish(sinks []ChartSink) {
	if len(sinks) == 0 {
		return
	}
	snap := p.buf.Snapshot()
	for _, s := range sinks {
		func() {
			defer func() {
				if r := recover(); r != nil && p.logger != nil {
					p.logger.Error("chart sink panic", "error", r)
				}
			}()
			s.PublishSeries(snap)
		}()
	}
}

// Start launches the forced publish timer. Calling Start twice is a no-op.
func (p *Publisher) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	interval := p.ForceInterval
	p.mu.Unlock()

	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if p.buf.Len() > 0 {
					p.PublishNow()
				}
			}
		}
	}()
}

// Stop cancels the forced publish timer and waits for it to exit.
func (p *Publisher) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
