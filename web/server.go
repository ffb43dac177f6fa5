// Package web serves the measurement dashboard: REST actions plus websocket
// feeds for the chart series and the session status.
package web

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/soocke/curvature-go/assets"
	"github.com/soocke/curvature-go/domain/sensor"
	"github.com/soocke/curvature-go/domain/series"
	"github.com/soocke/curvature-go/domain/session"
	"github.com/soocke/curvature-go/domain/vision"
	"github.com/soocke/curvature-go/web/hub"
)

// Measurer runs detection-backed actions against the live frame.
type Measurer interface {
	Calibrate() (float64, error)
	PickColor(pt image.Point) (vision.ColorSample, error)
	PickColorDisplay(pt, display image.Point) (vision.ColorSample, error)
}

// Acquisition starts and stops the frame source.
type Acquisition interface {
	Enable() error
	Disable()
	Enabled() bool
}

// SerialLink is the scale connection.
type SerialLink interface {
	Connect(name string) error
	Disconnect()
	Ports() ([]string, error)
	Status() sensor.Status
}

// Deps are the collaborators the server drives.
type Deps struct {
	Session     *session.Session
	Measurer    Measurer
	Acquisition Acquisition
	Serial      SerialLink
}

// StatusPayload is the session status plus transport state.
type StatusPayload struct {
	session.Status
	CameraRunning bool          `json:"camera_running"`
	Serial        sensor.Status `json:"serial"`
	SeriesClients int           `json:"series_clients"`
}

// Server is the dashboard HTTP server.
type Server struct {
	app    *fiber.App
	addr   string
	deps   Deps
	logger *slog.Logger

	seriesHub *hub.Hub
	statusHub *hub.Hub
}

// NewServer builds the fiber app and routes. Call Start to serve.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		addr:      addr,
		deps:      deps,
		logger:    logger,
		seriesHub: hub.New("series", logger),
		statusHub: hub.New("status", logger),
	}
	s.seriesHub.OnRegister = func() []hub.Message {
		return s.encode("series", s.deps.Session.Buffer().Snapshot())
	}
	s.statusHub.OnRegister = func() []hub.Message {
		return s.encode("status", s.status())
	}

	app := fiber.New(fiber.Config{
		AppName:               "Curvature Dashboard",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	app.Use(cors.New())

	app.Get("/", s.handleIndex)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/series", s.handleSeries)
	api.Get("/summary", s.handleSummary)
	api.Get("/export", s.handleExport)
	api.Post("/color", s.handleSelectColor)
	api.Post("/color/pick", s.handlePickColor)
	api.Post("/tolerance", s.handleTolerance)
	api.Post("/calibrate", s.handleCalibrate)
	api.Post("/calibration/reset", s.handleResetCalibration)
	api.Post("/data/clear", s.handleClearData)
	api.Post("/camera/start", s.handleCameraStart)
	api.Post("/camera/stop", s.handleCameraStop)
	api.Get("/serial/ports", s.handleSerialPorts)
	api.Post("/serial/connect", s.handleSerialConnect)
	api.Post("/serial/disconnect", s.handleSerialDisconnect)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/series", websocket.New(s.serveHub(s.seriesHub)))
	app.Get("/ws/status", websocket.New(s.serveHub(s.statusHub)))

	deps.Session.Subscribe(s.onSessionEvent)

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Start runs the hubs and serves on the configured address until ctx is
// cancelled or Listen fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.RunHubs(ctx)
	go func() {
		<-ctx.Done()
		_ = s.app.Shutdown()
	}()
	if s.logger != nil {
		s.logger.Info("dashboard listening", "addr", ln.Addr().String())
	}
	err := s.app.Listener(ln)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// RunHubs starts the broadcast loops; they stop with ctx.
func (s *Server) RunHubs(ctx context.Context) {
	go s.seriesHub.Run(ctx)
	go s.statusHub.Run(ctx)
}

// PublishSeries implements series.ChartSink.
func (s *Server) PublishSeries(snap series.Snapshot) {
	if err := s.seriesHub.BroadcastEnvelope("series", snap); err != nil && s.logger != nil {
		s.logger.Warn("series broadcast", "error", err)
	}
	s.broadcastStatus()
}

func (s *Server) onSessionEvent(e session.Event) {
	if e.Kind == session.EventWeight && s.deps.Acquisition != nil && s.deps.Acquisition.Enabled() {
		// While acquiring, weight changes reach clients with the next chart publish.
		return
	}
	s.broadcastStatus()
}

func (s *Server) broadcastStatus() {
	if err := s.statusHub.BroadcastEnvelope("status", s.status()); err != nil && s.logger != nil {
		s.logger.Warn("status broadcast", "error", err)
	}
}

func (s *Server) status() StatusPayload {
	p := StatusPayload{Status: s.deps.Session.Status(), SeriesClients: s.seriesHub.ClientCount()}
	if s.deps.Acquisition != nil {
		p.CameraRunning = s.deps.Acquisition.Enabled()
	}
	if s.deps.Serial != nil {
		p.Serial = s.deps.Serial.Status()
	}
	return p
}

func (s *Server) encode(kind string, payload any) []hub.Message {
	msg, err := hub.EncodeEnvelope(kind, payload)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("encode ws payload", "kind", kind, "error", err)
		}
		return nil
	}
	return []hub.Message{msg}
}

func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		hub.Attach(h, conn)
	}
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(assets.DashboardHTML)
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError && s.logger != nil {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
