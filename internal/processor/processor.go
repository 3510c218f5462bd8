package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
)

var (
	ErrEngineFailed     = errors.New("processor: engine reported failure")
	ErrOutputMissing    = errors.New("processor: output artifact missing")
	ErrEngineNotFound   = errors.New("processor: engine not available")
	ErrInvalidConfig    = errors.New("processor: invalid configuration")
	ErrUnsupportedInput = errors.New("processor: unsupported input")
)

// Transformer runs a transformation engine against a staged source and target.
//
// A call succeeds only when the engine reports success and OutputPath exists
// afterwards. Failures are returned as *EngineError.
type Transformer interface {
	Transform(ctx context.Context, req *Request) (*Result, error)
	Name() string
}

type Request struct {
	SourcePath string
	TargetPath string
	OutputPath string
	Extra      map[string]string
}

func (r *Request) Validate() error {
	if r == nil || r.SourcePath == "" || r.TargetPath == "" || r.OutputPath == "" {
		return fmt.Errorf("%w: source, target and output paths are required", ErrInvalidConfig)
	}
	return nil
}

type Result struct {
	OutputPath string
	Size       int64
	Stdout     string
	Stderr     string
}

// EngineError carries the diagnostic of a failed transformation.
type EngineError struct {
	Reason     error
	ExitCode   int
	Diagnostic string
	Stdout     string
	Stderr     string
}

func (e *EngineError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("%v (exit code %d)", e.Reason, e.ExitCode)
	}
	return e.Reason.Error()
}

func (e *EngineError) Unwrap() error {
	return e.Reason
}

// Diagnostic returns the engine diagnostic carried by err, or "".
func Diagnostic(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Diagnostic
	}
	return ""
}

// VerifyOutput applies the success predicate's output check and returns the
// artifact size.
func VerifyOutput(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, ErrOutputMissing
		}
		return 0, fmt.Errorf("%w: %v", ErrOutputMissing, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", ErrOutputMissing, path)
	}
	return info.Size(), nil
}
