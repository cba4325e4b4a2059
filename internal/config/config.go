// Package config loads the demo configuration from TOML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Engine   EngineConfig   `toml:"engine"`
	Logging  LoggingConfig  `toml:"logging"`
	Scene    SceneConfig    `toml:"scene"`
}

type WindowConfig struct {
	Title     string `toml:"title"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Resizable bool   `toml:"resizable"`
}

type RendererConfig struct {
	VSync                bool       `toml:"vsync"`
	ClearColor           [4]float64 `toml:"clear_color"` // linear RGBA
	ShadowMapSize        uint32     `toml:"shadow_map_size"`
	ShadowHalfExtent     float32    `toml:"shadow_half_extent"` // world units covered around the camera target
	MaxLights            int        `toml:"max_lights"`
	SSAOEnabled          bool       `toml:"ssao_enabled"`
	FXAAEnabled          bool       `toml:"fxaa_enabled"`
	SkyboxEnabled        bool       `toml:"skybox_enabled"`
	FrustumCulling       bool       `toml:"frustum_culling"`
	ValidateShaders      bool       `toml:"validate_shaders"`
	ForceFallbackAdapter bool       `toml:"force_fallback_adapter"`
}

type EngineConfig struct {
	TickRate   float64 `toml:"tick_rate"`   // logic ticks per second
	FrameLimit float64 `toml:"frame_limit"` // 0 = uncapped
	Profiling  bool    `toml:"profiling"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type SceneConfig struct {
	Path string `toml:"path"` // empty uses the built-in scene
}

// Load reads the configuration at path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := Decode(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode decodes data over cfg and validates the result. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return cfg.validate()
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return defaults()
}

func defaults() *Config {
	return &Config{
		Window: WindowConfig{
			Title:     "oxy",
			Width:     1280,
			Height:    720,
			Resizable: true,
		},
		Renderer: RendererConfig{
			VSync:            true,
			ClearColor:       [4]float64{0.02, 0.02, 0.03, 1},
			ShadowMapSize:    2048,
			ShadowHalfExtent: 20,
			MaxLights:        16,
			SSAOEnabled:      true,
			FXAAEnabled:      true,
			SkyboxEnabled:    true,
			FrustumCulling:   true,
			ValidateShaders:  true,
		},
		Engine: EngineConfig{
			TickRate: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window: size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if s := c.Renderer.ShadowMapSize; s == 0 || s&(s-1) != 0 || s > 8192 {
		errs = append(errs, fmt.Errorf("renderer: shadow_map_size %d must be a power of two up to 8192", s))
	}
	if c.Renderer.ShadowHalfExtent <= 0 {
		errs = append(errs, fmt.Errorf("renderer: shadow_half_extent must be positive"))
	}
	if c.Renderer.MaxLights <= 0 {
		errs = append(errs, fmt.Errorf("renderer: max_lights must be positive"))
	}
	for i, v := range c.Renderer.ClearColor {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("renderer: clear_color[%d] = %g is outside [0, 1]", i, v))
		}
	}
	if c.Engine.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("engine: tick_rate must be positive"))
	}
	if c.Engine.FrameLimit < 0 {
		errs = append(errs, fmt.Errorf("engine: frame_limit must not be negative"))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging: unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging: unknown format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
