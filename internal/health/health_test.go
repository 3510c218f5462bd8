package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abdul-hamid-achik/mediaswap/internal/storage"
)

type failingStorage struct{}

func (failingStorage) HealthCheck(context.Context) error { return errors.New("connection refused") }

func TestChecker_CheckAll(t *testing.T) {
	tests := []struct {
		name       string
		checker    *Checker
		wantStatus Status
		wantCount  int
	}{
		{
			name:       "no components",
			checker:    NewChecker(nil, nil),
			wantStatus: StatusHealthy,
		},
		{
			name:       "healthy storage and engine",
			checker:    NewChecker(nil, nil).WithStorage(storage.NewMemoryStorage()).WithCheck("engine", func(context.Context) error { return nil }),
			wantStatus: StatusHealthy,
			wantCount:  2,
		},
		{
			name:       "unhealthy storage",
			checker:    NewChecker(nil, nil).WithStorage(failingStorage{}),
			wantStatus: StatusUnhealthy,
			wantCount:  1,
		},
		{
			name:       "unhealthy engine",
			checker:    NewChecker(nil, nil).WithCheck("engine", func(context.Context) error { return errors.New("script missing") }),
			wantStatus: StatusUnhealthy,
			wantCount:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.checker.CheckAll(context.Background())
			if resp.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if len(resp.Components) != tt.wantCount {
				t.Errorf("Components = %d, want %d", len(resp.Components), tt.wantCount)
			}
		})
	}
}

func TestHealthHandler(t *testing.T) {
	checker := NewChecker(nil, nil).WithStorage(failingStorage{})

	rec := httptest.NewRecorder()
	HealthHandler(checker)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want 503", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Components) != 1 || resp.Components[0].Name != "storage" || resp.Components[0].Error == "" {
		t.Errorf("components = %+v", resp.Components)
	}
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d, want 200", rec.Code)
	}
}
