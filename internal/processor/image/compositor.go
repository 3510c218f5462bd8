// Package image provides an in-process Transformer for still images.
package image

import (
	"context"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/abdul-hamid-achik/mediaswap/internal/processor"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const Name = "compositor"

// Extra keys understood by the compositor.
const (
	ExtraScale   = "scale"
	ExtraAnchor  = "anchor"
	ExtraOpacity = "opacity"
	ExtraQuality = "quality"
)

type Config struct {
	// Scale is the fraction of the target's shorter side the source is fitted into.
	Scale   float64
	Anchor  string
	Opacity float64
	Quality int
}

func DefaultConfig() *Config {
	return &Config{
		Scale:   0.35,
		Anchor:  "center",
		Opacity: 1.0,
		Quality: 90,
	}
}

// Compositor fits the source image into a box of the target and overlays it.
type Compositor struct {
	config *Config
}

var _ processor.Transformer = (*Compositor)(nil)

func NewCompositor(cfg *Config) *Compositor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Compositor{config: cfg}
}

func (c *Compositor) Name() string {
	return Name
}

func (c *Compositor) Transform(ctx context.Context, req *processor.Request) (*processor.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)
	start := time.Now()

	opts, err := c.options(req.Extra)
	if err != nil {
		return nil, engineError(err)
	}

	format, err := imaging.FormatFromFilename(req.OutputPath)
	if err != nil {
		return nil, engineError(fmt.Errorf("%w: output %s: %v", processor.ErrUnsupportedInput, req.OutputPath, err))
	}

	source, err := openImage(req.SourcePath)
	if err != nil {
		return nil, engineError(err)
	}
	target, err := openImage(req.TargetPath)
	if err != nil {
		return nil, engineError(err)
	}

	if err := ctx.Err(); err != nil {
		return nil, engineError(fmt.Errorf("%w: %v", processor.ErrEngineFailed, err))
	}

	out := composite(source, target, opts)

	if err := imaging.Save(out, req.OutputPath, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, engineError(fmt.Errorf("%w: encode %s: %v", processor.ErrEngineFailed, format, err))
	}

	size, err := processor.VerifyOutput(req.OutputPath)
	if err != nil {
		return nil, engineError(err)
	}

	log.Info("composite written", "output", req.OutputPath, "size", size, "duration_ms", time.Since(start).Milliseconds())
	return &processor.Result{OutputPath: req.OutputPath, Size: size}, nil
}

func (c *Compositor) options(extra map[string]string) (Config, error) {
	opts := *c.config

	if v, ok := extra[ExtraScale]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 1 {
			return opts, fmt.Errorf("%w: scale must be in (0, 1], got %q", processor.ErrInvalidConfig, v)
		}
		opts.Scale = f
	}
	if v, ok := extra[ExtraOpacity]; ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return opts, fmt.Errorf("%w: opacity must be in [0, 1], got %q", processor.ErrInvalidConfig, v)
		}
		opts.Opacity = f
	}
	if v, ok := extra[ExtraAnchor]; ok {
		opts.Anchor = v
	}
	if v, ok := extra[ExtraQuality]; ok {
		q, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%w: quality must be an integer, got %q", processor.ErrInvalidConfig, v)
		}
		opts.Quality = getQuality(q, c.config.Quality)
	}
	return opts, nil
}

func composite(source, target image.Image, opts Config) *image.NRGBA {
	tb := target.Bounds()
	side := tb.Dx()
	if tb.Dy() < side {
		side = tb.Dy()
	}
	box := int(float64(side) * opts.Scale)
	if box < 1 {
		box = 1
	}

	fitted := imaging.Fit(source, box, box, imaging.Lanczos)
	pos := anchorPoint(tb.Size(), fitted.Bounds().Size(), opts.Anchor)

	return imaging.Overlay(target, fitted, pos, opts.Opacity)
}

func openImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", processor.ErrUnsupportedInput, err)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", processor.ErrUnsupportedInput, path, err)
	}
	return img, nil
}

func anchorPoint(canvas, overlay image.Point, anchor string) image.Point {
	dx := canvas.X - overlay.X
	dy := canvas.Y - overlay.Y

	x, y := dx/2, dy/2
	a := strings.ToLower(anchor)
	switch {
	case strings.Contains(a, "left"), strings.Contains(a, "west"):
		x = 0
	case strings.Contains(a, "right"), strings.Contains(a, "east"):
		x = dx
	}
	switch {
	case strings.Contains(a, "top"), strings.Contains(a, "north"):
		y = 0
	case strings.Contains(a, "bottom"), strings.Contains(a, "south"):
		y = dy
	}
	return image.Pt(x, y)
}

func getQuality(configQuality, defaultQuality int) int {
	if configQuality > 0 && configQuality <= 100 {
		return configQuality
	}
	return defaultQuality
}

func engineError(err error) error {
	return &processor.EngineError{
		Reason:     err,
		Diagnostic: err.Error(),
	}
}
