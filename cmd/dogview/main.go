// Command dogview runs the dog-vision scene generator for a fixed number of
// frames and writes a PNG preview.
//
// Settings come from flags, with defaults taken from DOGVISION_* variables
// (optionally loaded from a .env file):
//
//	dogview -scene fireflies -breed senior -frames 120 -output fireflies.png
//	dogview -sheet -output scenes.png
//	DOGVISION_GPU=vulkan dogview -rotate 2s -frames 240
package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/gogpu/dogvision"
	"github.com/gogpu/dogvision/gpu"
	"github.com/gogpu/dogvision/render"
)

func main() {
	if err := loadEnv(".env"); err != nil {
		log.Fatalf("dogview: %v", err)
	}
	cfg, err := parseConfig(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		log.Fatalf("dogview: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		log.Fatalf("dogview: %v", err)
	}
}

func openDevice(backend string) (gpu.Device, error) {
	if backend == backendVulkan {
		return gpu.Open()
	}
	return gpu.OpenHeadless()
}

func run(ctx context.Context, cfg config, stdout io.Writer) error {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	dogvision.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	dev, err := openDevice(cfg.backend)
	if err != nil {
		return fmt.Errorf("open %s device: %w", cfg.backend, err)
	}
	defer dev.Close()

	opts := []dogvision.Option{dogvision.WithBreed(cfg.breed)}
	if cfg.fps != 0 {
		opts = append(opts, dogvision.WithFrameRate(cfg.fps))
	}
	gen, err := dogvision.New(dev, opts...)
	if err != nil {
		return err
	}
	defer gen.Close()

	for _, f := range gen.CompileFailures() {
		fmt.Fprintf(stdout, "fallback: %v\n", &f)
	}

	target, err := render.NewTextureTarget(dev, cfg.width, cfg.height, gen.Format())
	if err != nil {
		return err
	}
	defer target.Destroy()

	gen.StartGeneration(cfg.scene)
	if cfg.rotate > 0 {
		gen.StartAutoTransition(cfg.rotate)
	}

	start := time.Now()
	if err := renderFrames(ctx, gen, target, cfg.frames); err != nil {
		return err
	}
	elapsed := time.Since(start)

	img, err := preview(gen, cfg)
	if err != nil {
		return err
	}
	if err := writePNG(cfg.output, img); err != nil {
		return err
	}

	d := gen.SceneMetadata()
	st := gen.Stats()
	fmt.Fprintf(stdout, "scene:       %s (%s)\n", d.Scene, d.Description)
	fmt.Fprintf(stdout, "breed:       %s\n", d.Breed)
	fmt.Fprintf(stdout, "settings:    intensity %.2f  color temperature %.2f  motion %.2f\n",
		d.Intensity, d.ColorTemperature, d.MotionLevel)
	fmt.Fprintf(stdout, "frame rate:  %d fps target\n", d.FrameRateTarget)
	fmt.Fprintf(stdout, "session:     %s (%s)\n", d.Session, d.Phase)
	fmt.Fprintf(stdout, "frames:      %d submitted, %d dropped in %s\n", st.Frames, st.Dropped, elapsed.Round(time.Millisecond))
	fmt.Fprintf(stdout, "preview:     %s\n", cfg.output)

	gen.StopAutoTransition()
	gen.StopGeneration()
	return nil
}

// renderFrames submits frames until n have been produced or ctx is done.
// Pacing is left to the generator; the loop polls faster than the cap.
func renderFrames(ctx context.Context, gen *dogvision.Generator, target render.Target, n int) error {
	ticker := time.NewTicker(time.Second / (2 * render.MaxFrameRate))
	defer ticker.Stop()

	for gen.Stats().Frames < uint64(n) { //nolint:gosec // n is validated non-negative
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			gen.RenderFrame(target)
			if st := gen.Stats(); st.Dropped > uint64(n) { //nolint:gosec // n is validated non-negative
				return fmt.Errorf("too many dropped frames: %v", st.LastError)
			}
		}
	}
	return nil
}

func preview(gen *dogvision.Generator, cfg config) (image.Image, error) {
	if cfg.sheet {
		return contactSheet(render.NewSoftwareRenderer(), gen.State(), time.Now(), cfg.width, cfg.height)
	}
	target := render.NewPixmapTarget(cfg.width, cfg.height)
	if err := gen.RenderPreview(target); err != nil {
		return nil, err
	}
	return target.Image(), nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
