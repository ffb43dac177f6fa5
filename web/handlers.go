package web

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/soocke/curvature-go/domain/calibration"
	"github.com/soocke/curvature-go/domain/pipeline"
	"github.com/soocke/curvature-go/domain/sensor"
	"github.com/soocke/curvature-go/domain/series"
)

// ColorRequest selects the reference color either by hex or by channels.
type ColorRequest struct {
	Hex string `json:"hex"`
	R   *int   `json:"r"`
	G   *int   `json:"g"`
	B   *int   `json:"b"`
}

// PickRequest picks the color under a point. When DisplayW/DisplayH are set
// the point is in preview coordinates and is mapped back to the frame.
type PickRequest struct {
	X        int `json:"x"`
	Y        int `json:"y"`
	DisplayW int `json:"display_w"`
	DisplayH int `json:"display_h"`
}

// ToleranceRequest sets the hue tolerance.
type ToleranceRequest struct {
	Hue int `json:"hue"`
}

// SerialConnectRequest names the port to open.
type SerialConnectRequest struct {
	Port string `json:"port"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

func (s *Server) handleSeries(c *fiber.Ctx) error {
	return c.JSON(s.deps.Session.Buffer().Snapshot())
}

func (s *Server) handleSummary(c *fiber.Ctx) error {
	return c.JSON(series.Summarize(s.deps.Session.Buffer().Snapshot()))
}

func (s *Server) handleExport(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := s.deps.Session.Export(&buf); err != nil {
		if errors.Is(err, series.ErrNoData) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Attachment(series.ExportFileName(time.Now()))
	return c.Send(buf.Bytes())
}

func (s *Server) handleSelectColor(c *fiber.Ctx) error {
	var req ColorRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	var r, g, b uint8
	switch {
	case strings.TrimSpace(req.Hex) != "":
		col, err := colorful.Hex(strings.TrimSpace(req.Hex))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid hex color %q", req.Hex))
		}
		r, g, b = col.RGB255()
	case req.R != nil && req.G != nil && req.B != nil:
		for _, v := range []int{*req.R, *req.G, *req.B} {
			if v < 0 || v > 255 {
				return fiber.NewError(fiber.StatusBadRequest, "channels must be in [0,255]")
			}
		}
		r, g, b = uint8(*req.R), uint8(*req.G), uint8(*req.B)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "hex or r,g,b required")
	}
	return c.JSON(s.deps.Session.SelectColor(r, g, b))
}

func (s *Server) handlePickColor(c *fiber.Ctx) error {
	var req PickRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if s.deps.Measurer == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, calibration.ErrNoFrameSource.Error())
	}
	pt := image.Pt(req.X, req.Y)
	var err error
	if req.DisplayW > 0 && req.DisplayH > 0 {
		col, e := s.deps.Measurer.PickColorDisplay(pt, image.Pt(req.DisplayW, req.DisplayH))
		if e == nil {
			return c.JSON(col)
		}
		err = e
	} else {
		col, e := s.deps.Measurer.PickColor(pt)
		if e == nil {
			return c.JSON(col)
		}
		err = e
	}
	return measureError(err)
}

func (s *Server) handleTolerance(c *fiber.Ctx) error {
	var req ToleranceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	return c.JSON(fiber.Map{"hue": s.deps.Session.SetTolerance(req.Hue)})
}

func (s *Server) handleCalibrate(c *fiber.Ctx) error {
	if s.deps.Measurer == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, calibration.ErrNoFrameSource.Error())
	}
	y, err := s.deps.Measurer.Calibrate()
	if err != nil {
		return measureError(err)
	}
	return c.JSON(fiber.Map{"baseline_y": y, "calibrated": true})
}

func (s *Server) handleResetCalibration(c *fiber.Ctx) error {
	s.deps.Session.ResetCalibration()
	return c.JSON(fiber.Map{"calibrated": false})
}

func (s *Server) handleClearData(c *fiber.Ctx) error {
	s.deps.Session.ClearData()
	return c.JSON(fiber.Map{"samples": 0})
}

func (s *Server) handleCameraStart(c *fiber.Ctx) error {
	if s.deps.Acquisition == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no frame source configured")
	}
	if err := s.deps.Acquisition.Enable(); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(fiber.Map{"running": true})
}

func (s *Server) handleCameraStop(c *fiber.Ctx) error {
	if s.deps.Acquisition != nil {
		s.deps.Acquisition.Disable()
	}
	return c.JSON(fiber.Map{"running": false})
}

func (s *Server) handleSerialPorts(c *fiber.Ctx) error {
	if s.deps.Serial == nil {
		return c.JSON(fiber.Map{"ports": []string{}})
	}
	ports, err := s.deps.Serial.Ports()
	if err != nil {
		return err
	}
	if ports == nil {
		ports = []string{}
	}
	return c.JSON(fiber.Map{"ports": ports})
}

func (s *Server) handleSerialConnect(c *fiber.Ctx) error {
	var req SerialConnectRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Port) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "port required")
	}
	if s.deps.Serial == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "serial unavailable")
	}
	if err := s.deps.Serial.Connect(strings.TrimSpace(req.Port)); err != nil {
		if errors.Is(err, sensor.ErrAlreadyConnected) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return c.JSON(s.deps.Serial.Status())
}

func (s *Server) handleSerialDisconnect(c *fiber.Ctx) error {
	if s.deps.Serial != nil {
		s.deps.Serial.Disconnect()
	}
	return c.JSON(sensor.Status{})
}

// measureError maps detection failures to client errors.
func measureError(err error) error {
	switch {
	case errors.Is(err, calibration.ErrNoFrameSource):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, calibration.ErrNoColorSelected),
		errors.Is(err, calibration.ErrObjectNotDetected):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, pipeline.ErrOutsideFrame):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}
