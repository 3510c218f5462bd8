package staging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestArea(t *testing.T) *Area {
	t.Helper()
	a, err := NewArea(t.TempDir())
	if err != nil {
		t.Fatalf("NewArea() error = %v", err)
	}
	return a
}

func TestNewArea_CreatesDirectories(t *testing.T) {
	a := newTestArea(t)

	for _, kind := range []Kind{KindSource, KindTarget, KindOutput} {
		info, err := os.Stat(a.Dir(kind))
		if err != nil {
			t.Fatalf("stat %s: %v", kind, err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", a.Dir(kind))
		}
	}
}

func TestNewArea_Idempotent(t *testing.T) {
	root := t.TempDir()
	if _, err := NewArea(root); err != nil {
		t.Fatalf("first NewArea() error = %v", err)
	}
	if _, err := NewArea(root); err != nil {
		t.Fatalf("second NewArea() error = %v", err)
	}
}

func TestRun_PathNaming(t *testing.T) {
	a := newTestArea(t)
	run := a.Begin("J1")

	tests := []struct {
		kind       Kind
		ext        string
		wantPrefix string
	}{
		{KindSource, ".jpg", "J1_source_"},
		{KindTarget, ".mp4", "J1_target_"},
		{KindOutput, ".mp4", "result_J1_"},
		{KindSource, "", "J1_source_"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+tt.ext, func(t *testing.T) {
			path, err := run.Path(tt.kind, tt.ext)
			if err != nil {
				t.Fatalf("Path() error = %v", err)
			}
			if filepath.Dir(path) != a.Dir(tt.kind) {
				t.Errorf("dir = %s, want %s", filepath.Dir(path), a.Dir(tt.kind))
			}
			base := filepath.Base(path)
			if !strings.HasPrefix(base, tt.wantPrefix) {
				t.Errorf("name %q does not start with %q", base, tt.wantPrefix)
			}
			if filepath.Ext(base) != tt.ext {
				t.Errorf("ext = %q, want %q", filepath.Ext(base), tt.ext)
			}
			tokenPart := strings.TrimSuffix(strings.TrimPrefix(base, tt.wantPrefix), tt.ext)
			if len(tokenPart) != 32 {
				t.Errorf("token %q has length %d, want 32", tokenPart, len(tokenPart))
			}
		})
	}

	if got := len(run.Paths()); got != len(tests) {
		t.Errorf("registered %d paths, want %d", got, len(tests))
	}
}

func TestRun_UnknownKind(t *testing.T) {
	run := newTestArea(t).Begin("J1")
	if _, err := run.Path(Kind("preview"), ".gif"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Path() error = %v, want ErrUnknownKind", err)
	}
	if len(run.Paths()) != 0 {
		t.Error("unknown kind must not register a path")
	}
}

func TestRun_SanitizesJobID(t *testing.T) {
	a := newTestArea(t)

	tests := []struct {
		jobID string
	}{
		{"../../etc/passwd"},
		{"a/b\\c"},
		{".."},
		{""},
	}

	for _, tt := range tests {
		t.Run(tt.jobID, func(t *testing.T) {
			path, err := a.Begin(tt.jobID).Path(KindSource, ".png")
			if err != nil {
				t.Fatalf("Path() error = %v", err)
			}
			if filepath.Dir(path) != a.Dir(KindSource) {
				t.Errorf("path %s escaped %s", path, a.Dir(KindSource))
			}
		})
	}
}

func TestRun_UniqueAcrossConcurrentRuns(t *testing.T) {
	a := newTestArea(t)

	const runs = 50
	const perRun = 4

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup

	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// Half the runs share a job id to exercise the random token.
			run := a.Begin(fmt.Sprintf("job-%d", n%2))
			for j := 0; j < perRun; j++ {
				p, err := run.Path(KindOutput, ".png")
				if err != nil {
					t.Errorf("Path() error = %v", err)
					return
				}
				mu.Lock()
				if seen[p] {
					t.Errorf("duplicate staged path %s", p)
				}
				seen[p] = true
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if len(seen) != runs*perRun {
		t.Errorf("got %d unique paths, want %d", len(seen), runs*perRun)
	}
}

func TestRun_Cleanup(t *testing.T) {
	a := newTestArea(t)
	run := a.Begin("J3")

	written, err := run.Path(KindSource, ".jpg")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(written, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	neverWritten, err := run.Path(KindOutput, ".jpg")
	if err != nil {
		t.Fatal(err)
	}

	derived := filepath.Join(a.Dir(KindOutput), "preview_J3.gif")
	if err := os.WriteFile(derived, []byte("gif"), 0o644); err != nil {
		t.Fatal(err)
	}
	run.Register(derived)

	stats := run.Cleanup(context.Background())

	if stats.Removed != 2 || stats.Missing != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want Removed=2 Missing=1 Failed=0", stats)
	}
	for _, p := range []string{written, neverWritten, derived} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists after cleanup", p)
		}
	}
	if len(run.Paths()) != 0 {
		t.Error("paths should be drained after cleanup")
	}

	again := run.Cleanup(context.Background())
	if again != (CleanupStats{}) {
		t.Errorf("second cleanup stats = %+v, want zero", again)
	}
}

func TestRun_CleanupLeavesOtherRunsAlone(t *testing.T) {
	a := newTestArea(t)
	mine := a.Begin("J1")
	other := a.Begin("J2")

	p1, _ := mine.Path(KindTarget, ".png")
	p2, _ := other.Path(KindTarget, ".png")
	for _, p := range []string{p1, p2} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	mine.Cleanup(context.Background())

	if _, err := os.Stat(p2); err != nil {
		t.Errorf("other run's file was removed: %v", err)
	}
	other.Cleanup(context.Background())
}

func TestArea_Sweep(t *testing.T) {
	a := newTestArea(t)

	old := filepath.Join(a.Dir(KindOutput), "result_J1_old.mp4")
	fresh := filepath.Join(a.Dir(KindSource), "J2_source_new.jpg")
	for _, p := range []string{old, fresh} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	stats, err := a.Sweep(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if stats.Scanned != 2 || stats.Removed != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want Scanned=2 Removed=1", stats)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("stale file should be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh file should remain: %v", err)
	}
}

func TestArea_SweepCancelled(t *testing.T) {
	a := newTestArea(t)
	if err := os.WriteFile(filepath.Join(a.Dir(KindTarget), "t"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Sweep(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Sweep() error = %v, want context.Canceled", err)
	}
}
