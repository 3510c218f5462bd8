// Package command runs an external transformation engine as a subprocess.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/abdul-hamid-achik/mediaswap/internal/processor"
)

const Name = "command"

// waitDelay bounds how long output pipes are drained after the engine is killed.
const waitDelay = 5 * time.Second

const (
	PlaceholderSource = "{source}"
	PlaceholderTarget = "{target}"
	PlaceholderOutput = "{output}"
)

// DefaultArgs is the argument template passed after the script.
var DefaultArgs = []string{"headless-run", "-s", PlaceholderSource, "-t", PlaceholderTarget, "-o", PlaceholderOutput}

type Config struct {
	// Command is the executable, resolved through PATH.
	Command string
	// Script is passed as the first argument when set.
	Script    string
	Args      []string
	ExtraArgs []string
	Env       map[string]string
	WorkDir   string
	// Timeout bounds a single run. Zero means no limit.
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Command: "python3",
		Script:  "facefusion.py",
		Args:    append([]string(nil), DefaultArgs...),
	}
}

type Engine struct {
	config  *Config
	command string
}

var _ processor.Transformer = (*Engine)(nil)

// New checks that the command and script are present before returning an Engine.
func New(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if len(cfg.Args) == 0 {
		cfg.Args = append([]string(nil), DefaultArgs...)
	}
	if err := validateArgs(cfg.Args); err != nil {
		return nil, err
	}

	path, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", processor.ErrEngineNotFound, err)
	}

	if cfg.Script != "" {
		info, err := os.Stat(cfg.Script)
		if err != nil {
			return nil, fmt.Errorf("%w: processing script missing: %v", processor.ErrEngineNotFound, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: processing script %s is a directory", processor.ErrEngineNotFound, cfg.Script)
		}
	}

	return &Engine{config: cfg, command: path}, nil
}

func (e *Engine) Name() string {
	return Name
}

func (e *Engine) Transform(ctx context.Context, req *processor.Request) (*processor.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	args := e.buildArgs(req)
	cmd := exec.CommandContext(ctx, e.command, args...)
	cmd.Dir = e.config.WorkDir
	cmd.Env = e.environ()
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Info("engine started", "command", e.command, "args", strings.Join(args, " "))
	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	outText := stdout.String()
	errText := stderr.String()

	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		reason := processor.ErrEngineFailed
		if ctx.Err() != nil {
			reason = fmt.Errorf("%w: %v", processor.ErrEngineFailed, ctx.Err())
		}
		log.Error("engine failed", "exit_code", exitCode, "error", runErr, "stderr", errText, "stdout", outText, "duration_ms", duration.Milliseconds())
		return nil, &processor.EngineError{
			Reason:     reason,
			ExitCode:   exitCode,
			Diagnostic: diagnostic(errText, outText, runErr),
			Stdout:     outText,
			Stderr:     errText,
		}
	}

	size, err := processor.VerifyOutput(req.OutputPath)
	if err != nil {
		log.Error("engine produced no output", "output", req.OutputPath, "stderr", errText, "stdout", outText, "duration_ms", duration.Milliseconds())
		return nil, &processor.EngineError{
			Reason:     err,
			Diagnostic: diagnostic(errText, outText, err),
			Stdout:     outText,
			Stderr:     errText,
		}
	}

	log.Info("engine completed", "output", req.OutputPath, "size", size, "duration_ms", duration.Milliseconds())
	return &processor.Result{
		OutputPath: req.OutputPath,
		Size:       size,
		Stdout:     outText,
		Stderr:     errText,
	}, nil
}

func (e *Engine) buildArgs(req *processor.Request) []string {
	replacer := strings.NewReplacer(
		PlaceholderSource, req.SourcePath,
		PlaceholderTarget, req.TargetPath,
		PlaceholderOutput, req.OutputPath,
	)

	args := make([]string, 0, len(e.config.Args)+len(e.config.ExtraArgs)+2*len(req.Extra)+1)
	if e.config.Script != "" {
		args = append(args, e.config.Script)
	}
	for _, a := range e.config.Args {
		args = append(args, replacer.Replace(a))
	}
	args = append(args, e.config.ExtraArgs...)

	keys := make([]string, 0, len(req.Extra))
	for k := range req.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--"+strings.TrimLeft(k, "-"))
		if v := req.Extra[k]; v != "" {
			args = append(args, v)
		}
	}
	return args
}

func (e *Engine) environ() []string {
	if len(e.config.Env) == 0 {
		return nil
	}
	env := os.Environ()
	for k, v := range e.config.Env {
		env = append(env, k+"="+v)
	}
	return env
}

func validateArgs(args []string) error {
	joined := strings.Join(args, " ")
	for _, p := range []string{PlaceholderSource, PlaceholderTarget, PlaceholderOutput} {
		if !strings.Contains(joined, p) {
			return fmt.Errorf("%w: engine args must reference %s", processor.ErrInvalidConfig, p)
		}
	}
	return nil
}

// diagnostic folds both captured streams, untrimmed, into one labelled text.
func diagnostic(stderr, stdout string, err error) string {
	if stderr == "" && stdout == "" {
		return err.Error()
	}

	var b strings.Builder
	if stderr != "" {
		b.WriteString("stderr:\n")
		b.WriteString(stderr)
	}
	if stdout != "" {
		if b.Len() > 0 && !strings.HasSuffix(stderr, "\n") {
			b.WriteByte('\n')
		}
		b.WriteString("stdout:\n")
		b.WriteString(stdout)
	}
	return b.String()
}
