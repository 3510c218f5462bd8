package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/mediaswap/internal/config"
	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/abdul-hamid-achik/mediaswap/internal/processor/command"
	"github.com/abdul-hamid-achik/mediaswap/internal/processor/image"
)

func TestRegisterEngines_ProfileOptions(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "swap.py")
	if err := os.WriteFile(script, []byte("print('ok')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	profile := filepath.Join(dir, "engine.yaml")
	content := "command: sh\nscript: " + script + "\noptions:\n  scale: \"0.5\"\n  face-selector-mode: one\n"
	if err := os.WriteFile(profile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		Engine:           command.Name,
		EngineCommand:    "python3",
		EngineScript:     "does-not-exist.py",
		EngineConfigFile: profile,
	}

	registry, options, err := RegisterEngines(cfg, logger.NewTestLogger())
	if err != nil {
		t.Fatalf("RegisterEngines() error = %v", err)
	}
	if _, ok := registry.Get(command.Name); !ok {
		t.Error("command engine should be registered from the profile")
	}
	if _, ok := registry.Get(image.Name); !ok {
		t.Error("compositor should always be registered")
	}
	if options["scale"] != "0.5" || options["face-selector-mode"] != "one" {
		t.Errorf("options = %v", options)
	}
}

func TestRegisterEngines_NoProfile(t *testing.T) {
	cfg := &config.Config{
		Engine:        image.Name,
		EngineCommand: "definitely-not-a-real-binary",
		EngineScript:  "missing.py",
	}

	registry, options, err := RegisterEngines(cfg, logger.NewTestLogger())
	if err != nil {
		t.Fatalf("RegisterEngines() error = %v", err)
	}
	if options != nil {
		t.Errorf("options = %v, want nil", options)
	}
	if _, ok := registry.Get(command.Name); ok {
		t.Error("unavailable command engine should not be registered")
	}

	cfg.Engine = command.Name
	if _, _, err := RegisterEngines(cfg, logger.NewTestLogger()); err == nil {
		t.Error("configured but unavailable command engine should fail")
	}
}
