// Package staging manages the local working tree used to materialize remote
// assets and hold produced artifacts until they are uploaded.
//
// The directories are shared by every job; individual files are owned by the
// Run that created them and are removed when that Run is cleaned up.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/google/uuid"
)

type Kind string

const (
	KindSource Kind = "source"
	KindTarget Kind = "target"
	KindOutput Kind = "output"
)

var ErrUnknownKind = errors.New("staging: unknown kind")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

type Area struct {
	root string
	dirs map[Kind]string
}

// NewArea creates root/{source,target,output} if missing.
func NewArea(root string) (*Area, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve staging root: %w", err)
	}

	a := &Area{
		root: abs,
		dirs: map[Kind]string{
			KindSource: filepath.Join(abs, string(KindSource)),
			KindTarget: filepath.Join(abs, string(KindTarget)),
			KindOutput: filepath.Join(abs, string(KindOutput)),
		},
	}

	for _, dir := range a.dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create staging dir %s: %w", dir, err)
		}
	}

	return a, nil
}

func (a *Area) Root() string {
	return a.root
}

func (a *Area) Dir(kind Kind) string {
	return a.dirs[kind]
}

// Begin opens a job-scoped run. Callers must defer Cleanup.
func (a *Area) Begin(jobID string) *Run {
	return &Run{
		area:  a,
		jobID: sanitize(jobID),
	}
}

type Run struct {
	area  *Area
	jobID string

	mu    sync.Mutex
	paths []string
}

// Path reserves a unique file name for kind and registers it for cleanup
// before returning, so a failure while writing it still gets cleaned.
func (r *Run) Path(kind Kind, ext string) (string, error) {
	dir, ok := r.area.dirs[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	var name string
	switch kind {
	case KindOutput:
		name = fmt.Sprintf("result_%s_%s%s", r.jobID, token(), ext)
	default:
		name = fmt.Sprintf("%s_%s_%s%s", r.jobID, kind, token(), ext)
	}

	path := filepath.Join(dir, name)
	r.Register(path)
	return path, nil
}

// Register adds a path produced on behalf of this run, such as a derived preview.
func (r *Run) Register(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *Run) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

type CleanupStats struct {
	Removed int
	Missing int
	Failed  int
}

// Cleanup deletes every registered path. Missing files and deletion errors are
// logged as warnings and never returned.
func (r *Run) Cleanup(ctx context.Context) CleanupStats {
	log := logger.FromContext(ctx)

	r.mu.Lock()
	paths := r.paths
	r.paths = nil
	r.mu.Unlock()

	var stats CleanupStats
	for _, path := range paths {
		err := os.Remove(path)
		switch {
		case err == nil:
			stats.Removed++
			log.Debug("staged file deleted", "path", path)
		case errors.Is(err, fs.ErrNotExist):
			stats.Missing++
			log.Warn("staged file already absent", "path", path)
		default:
			stats.Failed++
			log.Warn("failed to delete staged file", "path", path, "error", err)
		}
	}

	return stats
}

func token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func sanitize(jobID string) string {
	s := unsafeChars.ReplaceAllString(jobID, "_")
	s = strings.Trim(s, ".")
	if s == "" {
		return "job"
	}
	return s
}
