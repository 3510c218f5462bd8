package app

import (
	"fmt"
	"log/slog"

	"github.com/abdul-hamid-achik/mediaswap/internal/config"
	"github.com/abdul-hamid-achik/mediaswap/internal/pipeline"
	"github.com/abdul-hamid-achik/mediaswap/internal/processor"
	"github.com/abdul-hamid-achik/mediaswap/internal/processor/command"
	"github.com/abdul-hamid-achik/mediaswap/internal/processor/image"
	"github.com/abdul-hamid-achik/mediaswap/internal/processor/video"
)

// RegisterEngines registers every engine that can run on this host. The
// configured engine must be among them. The returned options come from the
// engine profile and accompany every transform request.
func RegisterEngines(cfg *config.Config, log *slog.Logger) (*processor.Registry, map[string]string, error) {
	registry := processor.NewRegistry()
	registry.Register(image.Name, image.NewCompositor(image.DefaultConfig()))

	cmdCfg := command.DefaultConfig()
	cmdCfg.Command = cfg.EngineCommand
	cmdCfg.Script = cfg.EngineScript
	cmdCfg.Timeout = cfg.EngineTimeout

	var options map[string]string
	if cfg.EngineConfigFile != "" {
		profile, err := command.LoadProfile(cfg.EngineConfigFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load engine profile: %w", err)
		}
		if err := profile.Apply(cmdCfg); err != nil {
			return nil, nil, fmt.Errorf("invalid engine profile: %w", err)
		}
		options = profile.Options
		log.Info("engine profile loaded", "path", cfg.EngineConfigFile, "options", len(options))
	}

	engine, err := command.New(cmdCfg)
	switch {
	case err == nil:
		registry.Register(command.Name, engine)
	case cfg.Engine == command.Name:
		return nil, nil, fmt.Errorf("command engine unavailable: %w", err)
	default:
		log.Warn("command engine unavailable", "error", err)
	}

	return registry, options, nil
}

// newPreviewer returns nil when previews are disabled or ffmpeg is missing.
func newPreviewer(cfg *config.Config, log *slog.Logger) pipeline.Previewer {
	if !cfg.PreviewEnabled {
		return nil
	}

	vcfg := video.DefaultConfig()
	vcfg.FFmpegPath = cfg.FFmpegPath
	previewer := video.NewPreviewer(vcfg)
	if !previewer.Available() {
		log.Warn("ffmpeg not found, video previews disabled", "ffmpeg", cfg.FFmpegPath)
		return nil
	}
	return previewer
}
