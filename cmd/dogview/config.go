package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/gogpu/dogvision/dichroma"
	"github.com/gogpu/dogvision/scene"
)

// Device backends accepted by -gpu.
const (
	backendHeadless = "headless"
	backendVulkan   = "vulkan"
)

type config struct {
	scene   scene.Scene
	breed   dichroma.Breed
	frames  int
	fps     int
	width   int
	height  int
	rotate  time.Duration
	output  string
	sheet   bool
	backend string
	verbose bool
}

// loadEnv reads .env files into the process environment. Missing files are
// not an error; variables already set are kept.
func loadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// parseConfig reads flags from args. DOGVISION_* variables from getenv
// supply the flag defaults.
func parseConfig(args []string, getenv func(string) string, stderr io.Writer) (config, error) {
	env := func(key, def string) string {
		if v := getenv("DOGVISION_" + key); v != "" {
			return v
		}
		return def
	}
	envInt := func(key string, def int) (int, error) {
		v := env(key, "")
		if v == "" {
			return def, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("DOGVISION_%s: %w", key, err)
		}
		return n, nil
	}

	frames, err := envInt("FRAMES", 48)
	if err != nil {
		return config{}, err
	}
	fps, err := envInt("FPS", 0)
	if err != nil {
		return config{}, err
	}
	width, err := envInt("WIDTH", 640)
	if err != nil {
		return config{}, err
	}
	height, err := envInt("HEIGHT", 360)
	if err != nil {
		return config{}, err
	}
	rotate, err := time.ParseDuration(env("ROTATE", "0s"))
	if err != nil {
		return config{}, fmt.Errorf("DOGVISION_ROTATE: %w", err)
	}

	fset := flag.NewFlagSet("dogview", flag.ContinueOnError)
	fset.SetOutput(stderr)
	var (
		sceneName = fset.String("scene", env("SCENE", "ocean"), "scene to start (ocean, forest, fireflies, rain, zen, squirrel)")
		breedName = fset.String("breed", env("BREED", "standard"), "breed profile (standard, low-light, high-stimulation, brachycephalic, senior)")
		cfg       config
	)
	fset.IntVar(&cfg.frames, "frames", frames, "number of frames to submit")
	fset.IntVar(&cfg.fps, "fps", fps, "frame-rate cap, 20..30 (0 follows the scene)")
	fset.IntVar(&cfg.width, "width", width, "frame width")
	fset.IntVar(&cfg.height, "height", height, "frame height")
	fset.DurationVar(&cfg.rotate, "rotate", rotate, "auto-transition interval (0 disables)")
	fset.StringVar(&cfg.output, "output", env("OUTPUT", "dogview.png"), "PNG preview of the last frame")
	fset.BoolVar(&cfg.sheet, "sheet", false, "write a contact sheet of every scene instead of one frame")
	fset.StringVar(&cfg.backend, "gpu", env("GPU", backendHeadless), "device backend: headless or vulkan")
	fset.BoolVar(&cfg.verbose, "v", false, "debug logging")
	if err := fset.Parse(args); err != nil {
		return config{}, err
	}

	if cfg.scene, err = scene.Parse(*sceneName); err != nil {
		return config{}, err
	}
	if cfg.breed, err = dichroma.ParseBreed(*breedName); err != nil {
		return config{}, err
	}
	switch cfg.backend {
	case backendHeadless, backendVulkan:
	default:
		return config{}, fmt.Errorf("unknown -gpu backend %q", cfg.backend)
	}
	if cfg.width <= 0 || cfg.height <= 0 {
		return config{}, fmt.Errorf("invalid size %dx%d", cfg.width, cfg.height)
	}
	if cfg.frames < 0 {
		return config{}, fmt.Errorf("invalid -frames %d", cfg.frames)
	}
	return cfg, nil
}
