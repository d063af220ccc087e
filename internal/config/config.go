// Package config loads the bot's JSON configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jumpbot/internal/locate"
	"jumpbot/internal/model"

	"github.com/bytedance/sonic"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "jumpbot.json"

// Presser backends.
const (
	PresserADB    = "adb"
	PresserSerial = "serial"
)

// Config is the full run configuration. Fields omitted from the file keep
// their Default values.
type Config struct {
	// Device
	ADBPath      string `json:"adb_path"`
	DeviceSerial string `json:"device_serial,omitempty"`
	Connect      string `json:"connect,omitempty"` // host:port for adb over TCP

	// Press transport
	Presser    string `json:"presser"`
	SerialPort string `json:"serial_port,omitempty"`
	SerialBaud int    `json:"serial_baud,omitempty"`

	// Assets and model
	AssetsDir      string `json:"assets_dir"`
	DatasetPath    string `json:"dataset_path"`
	CalibrationLog string `json:"calibration_log"`
	Model          string `json:"model"`
	Degree         int    `json:"degree"`

	// Matching
	PieceThreshold  float64 `json:"piece_threshold"`
	CenterThreshold float64 `json:"center_threshold"`
	OriginThreshold float64 `json:"origin_threshold"`

	// Run loop
	JumpDelay   float64 `json:"jump_delay"` // Seconds added after each press
	MaxTurns    int     `json:"max_turns"`  // 0 = until the game ends
	AutoRestart bool    `json:"auto_restart"`
	TapStart    bool    `json:"tap_start"`

	// Outputs
	HistoryDB   string `json:"history_db,omitempty"`
	AnnotateDir string `json:"annotate_dir,omitempty"`
	OCR         bool   `json:"ocr"`
	Preview     bool   `json:"preview"`
	LogFile     string `json:"log_file,omitempty"`
	Debug       bool   `json:"debug"`
}

// Default returns the stock configuration.
func Default() *Config {
	p := locate.DefaultParams()
	return &Config{
		ADBPath:         "adb",
		Presser:         PresserADB,
		SerialBaud:      115200,
		AssetsDir:       "assets",
		DatasetPath:     "training.txt",
		CalibrationLog:  "calibration.txt",
		Model:           string(model.KindPoly),
		Degree:          model.DefaultDegree,
		PieceThreshold:  p.PieceThreshold,
		CenterThreshold: p.CenterThreshold,
		OriginThreshold: p.OriginThreshold,
		JumpDelay:       1.1,
		OCR:             false,
		Preview:         false,
	}
}

// Load reads path over the defaults. A missing file is an error wrapping
// fs.ErrNotExist so callers can fall back to Default.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := sonic.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cleanPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return cfg, nil
}

// Save writes the config as indented JSON.
func (c *Config) Save(path string) error {
	data, err := sonic.ConfigStd.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	kind, err := model.ParseKind(c.Model)
	if err != nil {
		return err
	}
	if kind == model.KindPoly && c.Degree < 1 {
		return fmt.Errorf("degree must be >= 1, got %d", c.Degree)
	}
	for name, v := range map[string]float64{
		"piece_threshold":  c.PieceThreshold,
		"center_threshold": c.CenterThreshold,
		"origin_threshold": c.OriginThreshold,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0,1], got %v", name, v)
		}
	}
	if c.JumpDelay < 0 {
		return fmt.Errorf("jump_delay must be >= 0, got %v", c.JumpDelay)
	}
	if c.MaxTurns < 0 {
		return fmt.Errorf("max_turns must be >= 0, got %d", c.MaxTurns)
	}
	switch c.Presser {
	case PresserADB:
	case PresserSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("serial presser needs serial_port")
		}
	default:
		return fmt.Errorf("unknown presser %q", c.Presser)
	}
	return nil
}

// ModelKind returns the parsed model kind. Valid after Validate.
func (c *Config) ModelKind() model.Kind {
	k, _ := model.ParseKind(c.Model)
	return k
}

// LocateParams returns the locate parameters with the configured thresholds.
func (c *Config) LocateParams() locate.Params {
	p := locate.DefaultParams()
	p.PieceThreshold = c.PieceThreshold
	p.CenterThreshold = c.CenterThreshold
	p.OriginThreshold = c.OriginThreshold
	return p
}

// JumpDelayDuration returns JumpDelay as a duration.
func (c *Config) JumpDelayDuration() time.Duration {
	return time.Duration(c.JumpDelay * float64(time.Second))
}
