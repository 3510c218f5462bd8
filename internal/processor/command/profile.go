package command

import (
	"fmt"
	"os"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/processor"
	"gopkg.in/yaml.v3"
)

// Profile is the on-disk engine description loaded from ENGINE_CONFIG_FILE.
type Profile struct {
	Command   string            `yaml:"command,omitempty"`
	Script    string            `yaml:"script,omitempty"`
	Args      []string          `yaml:"args,omitempty"`
	ExtraArgs []string          `yaml:"extra_args,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
	WorkDir   string            `yaml:"workdir,omitempty"`
	Timeout   string            `yaml:"timeout,omitempty"`
	// Options are sent with every job as processor.Request.Extra, for
	// whichever engine is configured.
	Options map[string]string `yaml:"options,omitempty"`
}

func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read engine profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: parse engine profile %s: %v", processor.ErrInvalidConfig, path, err)
	}
	return &p, nil
}

// Apply overlays the non-empty profile fields onto cfg.
func (p *Profile) Apply(cfg *Config) error {
	if p.Command != "" {
		cfg.Command = p.Command
	}
	if p.Script != "" {
		cfg.Script = p.Script
	}
	if len(p.Args) > 0 {
		cfg.Args = append([]string(nil), p.Args...)
	}
	if len(p.ExtraArgs) > 0 {
		cfg.ExtraArgs = append(cfg.ExtraArgs, p.ExtraArgs...)
	}
	if len(p.Env) > 0 {
		if cfg.Env == nil {
			cfg.Env = make(map[string]string, len(p.Env))
		}
		for k, v := range p.Env {
			cfg.Env[k] = v
		}
	}
	if p.WorkDir != "" {
		cfg.WorkDir = p.WorkDir
	}
	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil || d < 0 {
			return fmt.Errorf("%w: invalid profile timeout %q", processor.ErrInvalidConfig, p.Timeout)
		}
		cfg.Timeout = d
	}
	return nil
}
