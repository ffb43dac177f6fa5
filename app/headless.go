package app

import (
	"context"

	"github.com/soocke/curvature-go/ui/presenter"
)

// RunHeadless serves the dashboard and drives the presenter loop without a
// window until ctx is cancelled. Acquisition starts immediately; a start
// failure is logged and can be retried from the dashboard.
func RunHeadless(ctx context.Context, c *Container) {
	c.Start(ctx)
	if err := c.CapturePresenter.Enable(); err != nil {
		c.Logger.Error("acquisition not started", "error", err)
	}
	c.Logger.Info("running headless", "listen", c.Config.ListenAddr)
	presenter.Drive(ctx, c.Loop, 0)
	c.Shutdown()
}
