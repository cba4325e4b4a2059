// Command oxy-demo opens a window and renders a small scene through the deferred pipeline:
// shadow map, geometry buffer, ambient occlusion, lighting, sky, forward geometry and FXAA.
//
// Profiling:
//
//	go build ./cmd/oxy-demo
//	./oxy-demo -profile cpu
//	go tool pprof -http=":8000" ./oxy-demo cpu.pprof
package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine"
	"github.com/Carmen-Shannon/oxy-core/engine/camera"
	"github.com/Carmen-Shannon/oxy-core/engine/ecs"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/gpu/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-core/engine/window"
	"github.com/Carmen-Shannon/oxy-core/internal/config"
	"github.com/Carmen-Shannon/oxy-core/internal/logging"
	"github.com/Carmen-Shannon/oxy-core/internal/scenefile"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

//go:embed scene.yaml
var defaultScene []byte

const (
	skyTexture   = "sky_gradient"
	spinSpeed    = 0.6 // radians per second
	skyTexWidth  = 64
	skyTexHeight = 32
)

func main() {
	os.Exit(demo())
}

// demo runs the program and returns the exit code once every deferred cleanup has run.
func demo() int {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration")
	scenePath := flag.String("scene", "", "path to a YAML scene, overrides the configuration")
	present := flag.String("present", "", `present mode override: "vsync" or "uncapped"`)
	profileMode := flag.String("profile", "", `write a profile to the working directory: "cpu" or "mem"`)
	flag.Parse()

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		fmt.Fprintf(os.Stderr, "unknown profile mode %q\n", *profileMode)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	cfg.Scene.Path = common.Coalesce(*scenePath, cfg.Scene.Path)

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *present, logger); err != nil {
		logger.Error("demo failed", zap.Error(err))
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, present string, logger *zap.Logger) error {
	mode := wgpu_backend.PresentModeVSync
	if !cfg.Renderer.VSync {
		mode = wgpu_backend.PresentModeUncapped
	}
	if present != "" {
		m, err := wgpu_backend.ParsePresentMode(present)
		if err != nil {
			return err
		}
		mode = m
	}

	// ── Window ──────────────────────────────────────────────────────
	win, err := window.NewWindow(
		window.WithTitle(common.Coalesce(cfg.Window.Title, "oxy")),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithResizable(cfg.Window.Resizable),
		window.WithCloseOnEscape(true),
		window.WithLogger(logger.Named("window")),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	// ── GPU ─────────────────────────────────────────────────────────
	backend, err := wgpu_backend.NewBackend(win.SurfaceDescriptor(),
		wgpu_backend.WithPresentMode(mode),
		wgpu_backend.WithForceSoftwareRenderer(cfg.Renderer.ForceFallbackAdapter),
		wgpu_backend.WithLogger(logger.Named("wgpu")),
	)
	if err != nil {
		return err
	}
	defer backend.Release()

	// ── Shaders ─────────────────────────────────────────────────────
	lib := shader.NewLibrary(
		shader.WithLibraryLogger(logger.Named("shader")),
		shader.WithLibraryValidation(cfg.Renderer.ValidateShaders),
	)
	defer lib.Release()
	if err := loadShaders(lib, shaderFiles); err != nil {
		return fmt.Errorf("load shaders: %w", err)
	}

	// ── Renderer ────────────────────────────────────────────────────
	reg := ecs.NewRegistry(ecs.WithLogger(logger.Named("ecs")))
	width, height := win.Size()
	r, err := renderer.NewRenderer(backend.Device(), backend.Surface(), reg,
		renderer.WithSize(width, height),
		renderer.WithLogger(logger.Named("renderer")),
		renderer.WithPasses(buildPasses(cfg.Renderer, lib, logger)...),
	)
	if err != nil {
		return err
	}
	defer r.Release()

	if _, err := r.Textures().LoadPixels(skyTexture, skyTexWidth, skyTexHeight, gpu.TextureFormatRGBA8Unorm, skyGradient(skyTexWidth, skyTexHeight)); err != nil {
		return err
	}

	// ── Scene ───────────────────────────────────────────────────────
	sc, err := loadScene(cfg.Scene.Path)
	if err != nil {
		return err
	}
	entities, err := sc.Spawn(reg, float32(width)/float32(max(height, 1)))
	if err != nil {
		return err
	}
	logger.Info("scene spawned",
		zap.String("path", common.Coalesce(cfg.Scene.Path, "built-in")),
		zap.Int("entities", len(entities)),
	)

	// ── Engine ──────────────────────────────────────────────────────
	eng := engine.NewEngine(reg, r,
		engine.WithWindow(win),
		engine.WithTickRate(cfg.Engine.TickRate),
		engine.WithFrameLimit(cfg.Engine.FrameLimit),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithLogger(logger.Named("engine")),
	)
	orbit := camera.NewOrbitController()
	orbit.Attach(win)
	eng.Runner().Register(orbit)
	eng.Runner().Register(newSpinner(spinSpeed))

	logger.Info("running",
		zap.Strings("passes", r.Passes()),
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return eng.Run(ctx)
}

// loadScene parses the scene at path, or the built-in scene when path is empty.
func loadScene(path string) (*scenefile.Scene, error) {
	if path == "" {
		return scenefile.Parse(defaultScene)
	}
	return scenefile.Load(path)
}

// skyGradient returns RGBA8 pixels of an equirectangular sky: a warm horizon fading to a deep
// blue zenith, darker below the horizon.
func skyGradient(width, height int) []byte {
	horizon := [3]float64{0.85, 0.75, 0.65}
	zenith := [3]float64{0.15, 0.3, 0.65}
	ground := [3]float64{0.2, 0.18, 0.16}

	pixels := make([]byte, 0, width*height*4)
	for y := range height {
		// v runs from the zenith at the top row to the nadir at the bottom row.
		elevation := 1 - 2*(float64(y)+0.5)/float64(height)
		var c [3]float64
		for i := range c {
			if elevation >= 0 {
				t := math.Pow(elevation, 0.6)
				c[i] = horizon[i] + (zenith[i]-horizon[i])*t
			} else {
				t := math.Min(-elevation*4, 1)
				c[i] = horizon[i] + (ground[i]-horizon[i])*t
			}
		}
		for range width {
			pixels = append(pixels, toByte(c[0]), toByte(c[1]), toByte(c[2]), 255)
		}
	}
	return pixels
}

func toByte(v float64) byte {
	return byte(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
