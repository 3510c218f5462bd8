// Package video derives short animated previews from video artifacts.
package video

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
)

// videoExtensions is the allow-list used to classify artifacts as video.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".webm": true,
	".mkv":  true,
	".avi":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".ogv":  true,
}

// IsVideo classifies path by extension only.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

type Config struct {
	FFmpegPath string
	Duration   time.Duration
	FPS        int
	Width      int
	// Timeout bounds a single ffmpeg run. Zero means no limit.
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		FFmpegPath: "ffmpeg",
		Duration:   3 * time.Second,
		FPS:        10,
		Width:      320,
		Timeout:    time.Minute,
	}
}

// Previewer renders an animated GIF from the first seconds of a video.
type Previewer struct {
	config *Config
}

func NewPreviewer(cfg *Config) *Previewer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Previewer{config: cfg}
}

// Available reports whether the ffmpeg binary can be found.
func (p *Previewer) Available() bool {
	_, err := exec.LookPath(p.config.FFmpegPath)
	return err == nil
}

// PreviewPath returns the derived path Generate writes for videoPath.
func PreviewPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + "_preview.gif"
}

// Generate never fails loudly: any problem is logged and reported as ok=false.
func (p *Previewer) Generate(ctx context.Context, videoPath string) (string, bool) {
	log := logger.FromContext(ctx).With("video", videoPath)

	ffmpeg, err := exec.LookPath(p.config.FFmpegPath)
	if err != nil {
		log.Warn("preview skipped, ffmpeg not found", "ffmpeg", p.config.FFmpegPath)
		return "", false
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	out := PreviewPath(videoPath)
	cmd := exec.CommandContext(ctx, ffmpeg, p.buildArgs(videoPath, out)...)

	start := time.Now()
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Warn("preview generation failed", "error", err, "output", string(output), "duration_ms", time.Since(start).Milliseconds())
		return "", false
	}

	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		log.Warn("preview generation produced no file", "preview", out)
		return "", false
	}

	log.Info("preview generated", "preview", out, "size", info.Size(), "duration_ms", time.Since(start).Milliseconds())
	return out, true
}

func (p *Previewer) buildArgs(in, out string) []string {
	return []string{
		"-y",
		"-i", in,
		"-t", fmt.Sprintf("%g", p.config.Duration.Seconds()),
		"-vf", fmt.Sprintf("fps=%d,scale=%d:-1:flags=lanczos", p.config.FPS, p.config.Width),
		"-loop", "0",
		out,
	}
}
