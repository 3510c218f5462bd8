package staging

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
)

type SweepStats struct {
	Scanned int
	Removed int
	Failed  int
}

// Sweep removes files in every staging directory last modified before
// now-maxAge. It reclaims files orphaned by a process that died mid-run; files
// owned by live runs are younger than any sensible maxAge.
func (a *Area) Sweep(ctx context.Context, maxAge time.Duration) (SweepStats, error) {
	log := logger.FromContext(ctx)
	cutoff := time.Now().Add(-maxAge)

	var stats SweepStats
	for _, kind := range []Kind{KindSource, KindTarget, KindOutput} {
		dir := a.dirs[kind]
		entries, err := os.ReadDir(dir)
		if err != nil {
			return stats, err
		}

		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if entry.IsDir() {
				continue
			}
			stats.Scanned++

			info, err := entry.Info()
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				stats.Failed++
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				stats.Failed++
				log.Warn("failed to sweep staged file", "path", path, "error", err)
				continue
			}
			stats.Removed++
			log.Debug("stale staged file removed", "path", path, "age", time.Since(info.ModTime()).String())
		}
	}

	return stats, nil
}
