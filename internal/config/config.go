package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/canvas/internal/snap"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Port int `envconfig:"PORT" default:"8080"`
	// AllowedOrigins are websocket origin host patterns, as accepted by
	// websocket.AcceptOptions.OriginPatterns.
	AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"localhost:5173,localhost:3000"`
	FrameInterval  time.Duration `envconfig:"FRAME_INTERVAL" default:"16ms"`
	HistoryLimit   int           `envconfig:"HISTORY_LIMIT" default:"50"`
	// SessionIdleTimeout closes sessions nobody joins.
	SessionIdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"1m"`
	// AssetDir holds image files uploaded for drops.
	AssetDir string `envconfig:"ASSET_DIR" default:"./data/assets"`

	SnapToGrid    bool    `envconfig:"SNAP_TO_GRID" default:"false"`
	GridSize      float64 `envconfig:"GRID_SIZE" default:"20"`
	SmartGuides   bool    `envconfig:"SMART_GUIDES" default:"false"`
	SnapThreshold float64 `envconfig:"SNAP_THRESHOLD" default:"5"`
	ShowGuides    bool    `envconfig:"SHOW_GUIDES" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("port %d: %w", c.Port, ErrInvalid)
	case c.FrameInterval <= 0:
		return fmt.Errorf("frame interval %v: %w", c.FrameInterval, ErrInvalid)
	case c.SessionIdleTimeout <= 0:
		return fmt.Errorf("session idle timeout %v: %w", c.SessionIdleTimeout, ErrInvalid)
	case c.HistoryLimit <= 0:
		return fmt.Errorf("history limit %d: %w", c.HistoryLimit, ErrInvalid)
	case c.GridSize <= 0:
		return fmt.Errorf("grid size %v: %w", c.GridSize, ErrInvalid)
	case c.AssetDir == "":
		return fmt.Errorf("empty asset dir: %w", ErrInvalid)
	case c.SnapThreshold < 0:
		return fmt.Errorf("snap threshold %v: %w", c.SnapThreshold, ErrInvalid)
	}
	return nil
}

// Snap returns the snapping preferences new sessions start with.
func (c *Config) Snap() snap.Settings {
	return snap.Settings{
		SnapToGrid:  c.SnapToGrid,
		GridSize:    c.GridSize,
		SmartGuides: c.SmartGuides,
		Threshold:   c.SnapThreshold,
		ShowGuides:  c.ShowGuides,
	}
}
