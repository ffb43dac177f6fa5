package config

import (
	"encoding/json"
	"os"
	"strings"
)

const (
	SourceCamera = "camera"
	SourceScreen = "screen"
)

// Config holds runtime configuration for acquisition, measurement and the
// app shell. Fields may be loaded from a JSON file and overridden by
// command-line flags.
type Config struct {
	Debug    bool   `json:"debug"`
	LogLevel string `json:"log_level"`
	LogJSON  bool   `json:"log_json"`

	// Frame source
	Source         string  `json:"source"`
	CameraIndex    int     `json:"camera_index"`
	CaptureFPS     int     `json:"capture_fps"`
	ScreenRegionX  int     `json:"screen_region_x"`
	ScreenRegionY  int     `json:"screen_region_y"`
	ScreenRegionW  int     `json:"screen_region_w"`
	ScreenRegionH  int     `json:"screen_region_h"`
	AnalysisScale  float64 `json:"analysis_scale"`
	ChainApprox    string  `json:"chain_approx"`
	MinContourArea float64 `json:"min_contour_area"`

	// Measurement
	MMPerPixel         float64 `json:"mm_per_pixel"`
	HueTolerance       int     `json:"hue_tolerance"`
	MaxSamples         int     `json:"max_samples"`
	RecordUncalibrated bool    `json:"record_uncalibrated"`
	ShowMask           bool    `json:"show_mask"`

	// Chart publishing
	ThrottleMS int `json:"throttle_ms"`
	ForceMS    int `json:"force_ms"`

	// Serial scale
	SerialPort string `json:"serial_port"`

	// Dashboard
	ListenAddr string `json:"listen_addr"`
	Headless   bool   `json:"headless"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:              false,
		LogLevel:           "info",
		Source:             SourceCamera,
		CameraIndex:        0,
		CaptureFPS:         60,
		AnalysisScale:      1,
		ChainApprox:        "simple",
		MinContourArea:     1000,
		MMPerPixel:         0.3,
		HueTolerance:       15,
		MaxSamples:         0,
		RecordUncalibrated: true,
		ShowMask:           false,
		ThrottleMS:         100,
		ForceMS:            500,
		ListenAddr:         ":8080",
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.LogLevel = "info"
	}
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	if c.Source != SourceCamera && c.Source != SourceScreen {
		c.Source = SourceCamera
	}
	if c.CameraIndex < 0 {
		c.CameraIndex = 0
	}
	if c.CaptureFPS <= 0 || c.CaptureFPS > 240 {
		c.CaptureFPS = 60
	}
	if c.ScreenRegionW < 0 || c.ScreenRegionH < 0 {
		c.ScreenRegionW, c.ScreenRegionH = 0, 0
	}
	if c.AnalysisScale <= 0 || c.AnalysisScale > 1 {
		c.AnalysisScale = 1
	}
	if c.ChainApprox != "none" {
		c.ChainApprox = "simple"
	}
	if c.MinContourArea <= 0 {
		c.MinContourArea = 1000
	}
	if c.MMPerPixel <= 0 {
		c.MMPerPixel = 0.3
	}
	if c.HueTolerance < 0 {
		c.HueTolerance = 0
	}
	if c.HueTolerance > 90 {
		c.HueTolerance = 90
	}
	if c.MaxSamples < 0 {
		c.MaxSamples = 0
	}
	if c.ThrottleMS <= 0 {
		c.ThrottleMS = 100
	}
	if c.ForceMS <= 0 {
		c.ForceMS = 500
	}
	if c.ForceMS < c.ThrottleMS {
		c.ForceMS = c.ThrottleMS
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = ":8080"
	}
	return nil
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
