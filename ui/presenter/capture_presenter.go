package presenter

import (
	"context"
	"log/slog"
	"sync"
)

// CaptureModel provides enabled state access.
type CaptureModel interface {
	Enabled() bool
	SetEnabled(bool)
}

// LifecycleContract narrows what the presenter needs from the capture layer.
type LifecycleContract interface {
	Start() error
	Stop()
}

// ClockResetter restarts session time when acquisition starts.
type ClockResetter interface{ ResetClock() }

// BufferReleaser drops detector working buffers when acquisition stops.
type BufferReleaser interface{ Release() }

// RefreshTimer is the periodic chart refresh that runs only while
// acquisition is active.
type RefreshTimer interface {
	Start(ctx context.Context)
	Stop()
}

// CaptureView updates UI elements affected by capture toggling.
type CaptureView interface {
	PreviewReset()
	ConfigEditable(bool)
	SetCaptureButton(running bool)
}

// CapturePresenter owns presentation logic for toggling acquisition. Enable
// and Disable may be called from any goroutine (Tk command, dashboard
// handler); view changes are applied on the next Tick on the UI thread.
type CapturePresenter struct {
	mu      sync.Mutex
	model   CaptureModel
	service LifecycleContract
	clock   ClockResetter
	buffers BufferReleaser
	view    CaptureView
	logger  *slog.Logger

	// Refresh is started by Enable and stopped by Disable. Optional.
	Refresh RefreshTimer

	dirty bool
	reset bool
}

func NewCapturePresenter(model CaptureModel, service LifecycleContract, clock ClockResetter, buffers BufferReleaser, view CaptureView, logger *slog.Logger) *CapturePresenter {
	return &CapturePresenter{model: model, service: service, clock: clock, buffers: buffers, view: view, logger: logger}
}

// Enabled reports whether acquisition is running.
func (c *CapturePresenter) Enabled() bool {
	if c == nil || c.model == nil {
		return false
	}
	return c.model.Enabled()
}

// Enable starts the capture service, restarts the session clock and starts
// the refresh timer. Idempotent.
func (c *CapturePresenter) Enable() error {
	if c == nil || c.model == nil || c.service == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model.Enabled() {
		return nil
	}
	if err := c.service.Start(); err != nil {
		if c.logger != nil {
			c.logger.Error("acquisition start failed", "error", err)
		}
		return err
	}
	if c.clock != nil {
		c.clock.ResetClock()
	}
	if c.Refresh != nil {
		c.Refresh.Start(context.Background())
	}
	c.model.SetEnabled(true)
	c.dirty = true
	return nil
}

// Disable stops the capture service and the refresh timer and releases
// working buffers. Idempotent.
func (c *CapturePresenter) Disable() {
	if c == nil || c.model == nil || c.service == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.model.Enabled() {
		return
	}
	c.service.Stop()
	if c.Refresh != nil {
		c.Refresh.Stop()
	}
	c.model.SetEnabled(false)
	if c.buffers != nil {
		c.buffers.Release()
	}
	c.dirty = true
	c.reset = true
}

// Toggle flips enabled state delegating to Enable/Disable.
func (c *CapturePresenter) Toggle() error {
	if c == nil || c.model == nil {
		return nil
	}
	if c.model.Enabled() {
		c.Disable()
		return nil
	}
	return c.Enable()
}

// Tick reflects pending state changes in the view.
func (c *CapturePresenter) Tick() {
	if c == nil || c.view == nil {
		return
	}
	c.mu.Lock()
	dirty, reset := c.dirty, c.reset
	c.dirty, c.reset = false, false
	running := c.model != nil && c.model.Enabled()
	c.mu.Unlock()
	if !dirty {
		return
	}
	if reset {
		c.view.PreviewReset()
	}
	c.view.ConfigEditable(!running)
	c.view.SetCaptureButton(running)
}
