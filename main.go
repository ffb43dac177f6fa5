package main

import (
	"context"
	"flag"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soocke/curvature-go/app"
	"github.com/soocke/curvature-go/app/desktop"
	"github.com/soocke/curvature-go/config"
	"github.com/soocke/curvature-go/debug"
	"github.com/soocke/curvature-go/domain/capture"
	"github.com/soocke/curvature-go/domain/capture/camera"
)

func main() {
	cfgPath := flag.String("config", "curvature.json", "path to the JSON config file")
	headless := flag.Bool("headless", false, "serve the dashboard without a window")
	listen := flag.String("listen", "", `dashboard address (overrides config; "off" disables)`)
	source := flag.String("source", "", "frame source: camera or screen")
	cameraIndex := flag.Int("camera", -1, "camera device index")
	serialPort := flag.String("serial", "", "scale serial port to connect at startup")
	debugFlag := flag.Bool("debug", false, "verbose logging and runtime stats")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	logger := NewLogger(parseLevel(cfg.LogLevel), cfg.LogJSON || *headless)
	if err != nil {
		logger.Warn("config load failed, using defaults", "path", *cfgPath, "error", err)
	}

	if *source != "" {
		cfg.Source = *source
	}
	if *cameraIndex >= 0 {
		cfg.CameraIndex = *cameraIndex
	}
	if *serialPort != "" {
		cfg.SerialPort = *serialPort
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *headless {
		cfg.Headless = true
	}
	if *debugFlag {
		cfg.Debug, cfg.LogLevel = true, "debug"
		logger = NewLogger(slog.LevelDebug, cfg.LogJSON || cfg.Headless)
	}
	_ = cfg.Validate()
	if *listen == "off" {
		cfg.ListenAddr = ""
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Debug {
		debug.StartGoroutineLogger(ctx, 10*time.Second, logger)
		debug.StartMemLogger(ctx, 10*time.Second, logger)
	}

	grabber := newGrabber(cfg)
	logger.Info("starting", "source", cfg.Source, "headless", cfg.Headless, "listen", cfg.ListenAddr)

	if cfg.Headless {
		c := app.BuildContainer(cfg, logger, grabber, nil, nil)
		app.RunHeadless(ctx, c)
		return
	}
	desktop.Run("Curvature Monitor", 1100, 900, cfg, *cfgPath, grabber, logger)
}

func newGrabber(cfg *config.Config) capture.Grabber {
	if cfg.Source == config.SourceScreen {
		region := image.Rect(cfg.ScreenRegionX, cfg.ScreenRegionY, cfg.ScreenRegionX+cfg.ScreenRegionW, cfg.ScreenRegionY+cfg.ScreenRegionH)
		return capture.NewScreenGrabber(region)
	}
	return camera.New(cfg.CameraIndex)
}
