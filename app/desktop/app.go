// Package desktop runs the measurement stack inside a Tk window.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	. "modernc.org/tk9.0"

	"github.com/soocke/curvature-go/app"
	"github.com/soocke/curvature-go/config"
	"github.com/soocke/curvature-go/domain/capture"
	"github.com/soocke/curvature-go/domain/sensor"
	"github.com/soocke/curvature-go/domain/series"
	"github.com/soocke/curvature-go/ui/theme"
	"github.com/soocke/curvature-go/ui/view"
)

const tick = 16 * time.Millisecond

type desktopApp struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
	width   int
	height  int
	afterID string

	root      *view.RootView
	region    view.RegionOverlay
	container *app.Container
	cancel    context.CancelFunc
}

// Run builds the window, wires the container and blocks in the Tk event loop
// until the window closes.
func Run(title string, width, height int, cfg *config.Config, cfgPath string, grabber capture.Grabber, logger *slog.Logger) {
	a := &desktopApp{cfg: cfg, cfgPath: cfgPath, logger: logger, width: width, height: height}

	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	theme.InitStyles()

	a.region = view.NewRegionOverlay(cfg, cfgPath, logger)
	if sg, ok := grabber.(*capture.ScreenGrabber); ok {
		sg.Selection = a.region.ActiveRect
	}

	a.root = view.NewRootView(cfg, cfgPath, logger)
	ports, err := sensor.ListPorts()
	if err != nil {
		logger.Warn("serial port enumeration failed", "error", err)
	}
	a.root.Build(ports, a.handlers())
	a.container = app.BuildContainer(cfg, logger, grabber, nil, a.root)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.container.Start(ctx)
	a.container.Loop.Schedule = a.scheduleUpdate

	// Kick off update loop.
	a.scheduleUpdate()
	App.Wait()
}

func (a *desktopApp) handlers() view.Handlers {
	c := func() *app.Container { return a.container }
	return view.Handlers{
		ToggleCapture: func() {
			if err := c().CapturePresenter.Toggle(); err != nil {
				a.root.SetMessage("Camera: " + err.Error())
			}
		},
		Calibrate: func() {
			y, err := c().Processor.Calibrate()
			if err != nil {
				a.root.SetMessage(err.Error())
				return
			}
			a.root.SetMessage(fmt.Sprintf("Baseline set at y=%.1f", y))
		},
		ResetCalibration: func() { c().Session.ResetCalibration() },
		ClearData:        func() { c().Session.ClearData() },
		Export:           a.export,
		ToggleMask:       func() { c().Capture.SetShowMask(!c().Capture.ShowMask()) },
		SelectRegion: func() {
			if a.cfg.Source != config.SourceScreen {
				a.root.SetMessage("Capture region applies to the screen source")
				return
			}
			a.region.OpenOrFocus()
		},
		Pick: func(pt, display image.Point) {
			col, err := c().Processor.PickColorDisplay(pt, display)
			if err != nil {
				a.root.SetMessage(err.Error())
				return
			}
			a.root.SetMessage("Picked " + col.Hex())
		},
		SetTolerance: func(hue int) { c().Session.SetTolerance(hue) },
		ConnectSerial: func(port string) {
			if err := c().Serial.Connect(port); err != nil {
				a.root.SetMessage(err.Error())
			}
		},
		DisconnectSerial: func() { c().Serial.Disconnect() },
		OnConfigApplied:  func(cfg *config.Config) { c().ApplyConfig(cfg) },
		Exit:             a.exitHandler,
	}
}

// export writes the history as CSV next to the config file.
func (a *desktopApp) export() {
	name := filepath.Join(filepath.Dir(a.cfgPath), series.ExportFileName(time.Now()))
	if a.container.Buffer.Len() == 0 {
		a.root.SetMessage(series.ErrNoData.Error())
		return
	}
	f, err := os.Create(name)
	if err != nil {
		a.root.SetMessage(err.Error())
		return
	}
	err = errors.Join(a.container.Session.Export(f), f.Close())
	if err != nil {
		a.logger.Error("export failed", "path", name, "error", err)
		a.root.SetMessage("Export failed: " + err.Error())
		return
	}
	a.logger.Info("exported", "path", name)
	a.root.SetMessage("Saved " + filepath.Base(name))
}

func (a *desktopApp) update() {
	a.container.Loop.Tick()
}

func (a *desktopApp) scheduleUpdate() {
	// TclAfter keeps view updates on Tk's event loop thread.
	a.afterID = TclAfter(tick, a.update)
}

func (a *desktopApp) exitHandler() {
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	if a.container != nil {
		a.container.Shutdown()
	}
	if a.cancel != nil {
		a.cancel()
	}
	Destroy(App)
}
