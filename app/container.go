// Package app assembles the measurement stack and runs it headless or under
// a desktop shell.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/soocke/curvature-go/config"
	"github.com/soocke/curvature-go/domain/calibration"
	"github.com/soocke/curvature-go/domain/capture"
	"github.com/soocke/curvature-go/domain/pipeline"
	"github.com/soocke/curvature-go/domain/sensor"
	"github.com/soocke/curvature-go/domain/series"
	"github.com/soocke/curvature-go/domain/session"
	"github.com/soocke/curvature-go/domain/vision"
	"github.com/soocke/curvature-go/ui/model"
	"github.com/soocke/curvature-go/ui/presenter"
	"github.com/soocke/curvature-go/web"
)

const (
	chartWidth  = 640
	chartHeight = 220
)

// Views is the union of presenter view contracts. A nil Views runs without
// rendering.
type Views interface {
	presenter.CaptureView
	presenter.CalibrationView
	presenter.SessionView
	presenter.ChartView
	presenter.DetectionView
}

// Container assembles models, services, presenters and the dashboard server.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Calibration *calibration.Machine
	Buffer      *series.Buffer
	Publisher   *series.Publisher
	Weight      *sensor.Register
	Session     *session.Session
	Serial      *sensor.Manager
	CaptureSvc  capture.CaptureService
	Processor   *pipeline.Processor
	Server      *web.Server

	// Models
	Capture   *model.CaptureModel
	SessionM  *model.SessionModel
	Detection *model.DetectionModel

	// Presenters
	CapturePresenter     *presenter.CapturePresenter
	CalibrationPresenter *presenter.CalibrationPresenter
	SessionPresenter     *presenter.SessionPresenter
	ChartPresenter       *presenter.ChartPresenter
	DetectionPresenter   *presenter.DetectionPresenter
	Loop                 *presenter.Loop
}

// BuildContainer constructs all components without starting anything.
// opener may be nil to use the system serial ports.
func BuildContainer(cfg *config.Config, logger *slog.Logger, grabber capture.Grabber, opener sensor.Opener, views Views) *Container {
	c := &Container{Config: cfg, Logger: logger}

	c.Calibration = calibration.NewMachine(logger)
	c.Buffer = series.NewBuffer(cfg.MaxSamples, nil)
	c.Publisher = series.NewPublisher(c.Buffer, logger)
	c.Publisher.MinInterval = time.Duration(cfg.ThrottleMS) * time.Millisecond
	c.Publisher.ForceInterval = time.Duration(cfg.ForceMS) * time.Millisecond
	c.Weight = &sensor.Register{}
	c.Session = session.New(session.Options{
		MMPerPixel:         cfg.MMPerPixel,
		RecordUncalibrated: cfg.RecordUncalibrated,
	}, c.Calibration, c.Buffer, c.Publisher, c.Weight, logger)
	c.Session.SetTolerance(cfg.HueTolerance)

	c.Serial = sensor.NewManager(opener, c.Weight, c.Session.NotifyWeight, logger)
	c.Serial.AddListener(c.Session.NotifySerial)

	interval := capture.DefaultInterval
	if cfg.CaptureFPS > 0 {
		interval = time.Second / time.Duration(cfg.CaptureFPS)
	}
	c.CaptureSvc = capture.NewCaptureService(logger, grabber, interval)
	c.Processor = pipeline.New(c.Session, c.CaptureSvc, pipeline.Options{
		AnalysisScale: cfg.AnalysisScale,
		Approx:        vision.ParseChainApprox(cfg.ChainApprox),
		MinArea:       cfg.MinContourArea,
	}, logger)

	c.Capture = &model.CaptureModel{}
	c.Capture.SetShowMask(cfg.ShowMask)
	c.SessionM = model.NewSessionModel()
	c.Detection = model.NewDetectionModel()

	var (
		captureView presenter.CaptureView
		calibView   presenter.CalibrationView
		sessionView presenter.SessionView
		chartView   presenter.ChartView
		detectView  presenter.DetectionView
	)
	if views != nil {
		captureView, calibView, sessionView, chartView, detectView = views, views, views, views, views
	}
	c.CapturePresenter = presenter.NewCapturePresenter(c.Capture, c.CaptureSvc, c.Session, c.Processor, captureView, logger)
	c.CapturePresenter.Refresh = c.Publisher
	c.CalibrationPresenter = presenter.NewCalibrationPresenter(c.Calibration, calibView)
	c.Calibration.AddListener(c.CalibrationPresenter.OnState)
	c.SessionPresenter = presenter.NewSessionPresenter(c.SessionM, c.Capture, c.Session, c.Serial, sessionView)
	if chartView != nil {
		c.ChartPresenter = presenter.NewChartPresenter(chartView, chartWidth, chartHeight)
		c.Publisher.AddSink(c.ChartPresenter)
	}
	c.DetectionPresenter = presenter.NewDetectionPresenter(c.CapturePresenter.Enabled, c.Processor, c.Session, detectView, c.Detection, logger)
	c.DetectionPresenter.ShowMask = c.Capture.ShowMask
	c.Loop = presenter.NewLoop(c.CapturePresenter, c.CalibrationPresenter, c.SessionPresenter, c.ChartPresenter, c.DetectionPresenter, nil)

	if cfg.ListenAddr != "" {
		c.Server = web.NewServer(cfg.ListenAddr, web.Deps{
			Session:     c.Session,
			Measurer:    c.Processor,
			Acquisition: c.CapturePresenter,
			Serial:      c.Serial,
		}, logger)
		c.Publisher.AddSink(c.Server)
	}
	return c
}

// Start launches the background services: the dashboard server and the
// configured serial link. The forced chart refresh follows acquisition and is
// started by the capture presenter. Server failures are logged; a failing
// serial port is logged and left disconnected.
func (c *Container) Start(ctx context.Context) {
	if c.Server != nil {
		go func() {
			if err := c.Server.Start(ctx); err != nil {
				c.Logger.Error("dashboard server stopped", "error", err)
			}
		}()
	}
	if c.Config.SerialPort != "" {
		if err := c.Serial.Connect(c.Config.SerialPort); err != nil {
			c.Logger.Error("serial connect failed", "port", c.Config.SerialPort, "error", err)
		}
	}
}

// ApplyConfig pushes measurement settings that take effect immediately.
func (c *Container) ApplyConfig(cfg *config.Config) {
	c.Session.SetMMPerPixel(cfg.MMPerPixel)
	c.Session.SetTolerance(cfg.HueTolerance)
	c.Capture.SetShowMask(cfg.ShowMask)
}

// Shutdown stops acquisition, the detection worker, the serial link and the
// publisher.
func (c *Container) Shutdown() {
	c.CapturePresenter.Disable()
	c.DetectionPresenter.Stop()
	c.Serial.Disconnect()
	c.Publisher.Stop()
}
