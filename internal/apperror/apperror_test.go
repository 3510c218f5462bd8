package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Code:       "test_error",
		Message:    "Test error message",
		StatusCode: http.StatusBadRequest,
	}

	if got := err.Error(); got != "Test error message" {
		t.Errorf("Error() = %q, want %q", got, "Test error message")
	}
}

func TestError_Unwrap(t *testing.T) {
	innerErr := errors.New("inner error")
	err := &Error{
		Code:     "wrapped_error",
		Message:  "Wrapped error",
		Internal: innerErr,
	}

	if got := err.Unwrap(); got != innerErr {
		t.Errorf("Unwrap() = %v, want %v", got, innerErr)
	}
}

func TestWrap(t *testing.T) {
	innerErr := errors.New("connection reset")
	wrapped := Wrap(innerErr, ErrDownloadFailed)

	if wrapped.Code != ErrDownloadFailed.Code {
		t.Errorf("Code = %q, want %q", wrapped.Code, ErrDownloadFailed.Code)
	}
	if wrapped.Internal != innerErr {
		t.Errorf("Internal = %v, want %v", wrapped.Internal, innerErr)
	}
	if !errors.Is(wrapped, innerErr) {
		t.Error("errors.Is should return true for wrapped inner error")
	}
	if ErrDownloadFailed.Internal != nil {
		t.Error("Wrap must not mutate the sentinel")
	}
}

func TestWithDetails(t *testing.T) {
	wrapped := Wrap(errors.New("exit status 1"), ErrTransformation)
	detailed := WithDetails(wrapped, "no face detected")

	if detailed.Details != "no face detected" {
		t.Errorf("Details = %q, want %q", detailed.Details, "no face detected")
	}
	if wrapped.Details != "" {
		t.Error("WithDetails must return a copy")
	}
	if detailed.Internal == nil {
		t.Error("WithDetails should keep the internal cause")
	}
	if got := Code(fmt.Errorf("run: %w", detailed)); got != ErrTransformation.Code {
		t.Errorf("Code() = %q, want %q", got, ErrTransformation.Code)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target *Error
		want   bool
	}{
		{"matching error", ErrJobNotFound, ErrJobNotFound, true},
		{"wrapped matching error", Wrap(errors.New("inner"), ErrJobNotFound), ErrJobNotFound, true},
		{"fmt wrapped", fmt.Errorf("ctx: %w", ErrUnauthorized), ErrUnauthorized, true},
		{"non-matching error", ErrUnauthorized, ErrJobNotFound, false},
		{"non-apperror", errors.New("regular error"), ErrJobNotFound, false},
		{"nil error", nil, ErrJobNotFound, false},
		{"dependency in cause chain", Wrap(fmt.Errorf("%w: %w", ErrDependency, errors.New("dial tcp")), ErrMetadataFailed), ErrDependency, true},
		{"stage code still matches", Wrap(fmt.Errorf("%w: %w", ErrDependency, errors.New("dial tcp")), ErrMetadataFailed), ErrMetadataFailed, true},
		{"transformation is not a dependency failure", Wrap(errors.New("exit status 1"), ErrTransformation), ErrDependency, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.target); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"job not found", ErrJobNotFound, "job_not_found"},
		{"unauthorized", ErrUnauthorized, "unauthorized"},
		{"transformation", ErrTransformation, "transformation_failed"},
		{"wrapped", Wrap(errors.New("inner"), ErrUploadFailed), "upload_failed"},
		{"non-apperror", errors.New("regular"), "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		jobID       string
		wantStatus  int
		wantCode    string
		wantDetails string
	}{
		{
			name:        "transformation error forwards details",
			err:         WithDetails(Wrap(errors.New("exit status 2"), ErrTransformation), "stderr text"),
			jobID:       "J2",
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "transformation_failed",
			wantDetails: "stderr text",
		},
		{
			name:       "plain error hides internals",
			err:        errors.New("pgx: connection refused"),
			jobID:      "J9",
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
		{
			name:       "unauthorized has no job id",
			err:        ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantCode:   "unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/swap-faces", nil)
			rec := httptest.NewRecorder()

			WriteJSON(rec, req, tt.jobID, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != StatusError {
				t.Errorf("body.Status = %q, want %q", body.Status, StatusError)
			}
			if body.JobID != tt.jobID {
				t.Errorf("body.JobID = %q, want %q", body.JobID, tt.jobID)
			}
			if body.Code != tt.wantCode {
				t.Errorf("body.Code = %q, want %q", body.Code, tt.wantCode)
			}
			if body.Details != tt.wantDetails {
				t.Errorf("body.Details = %q, want %q", body.Details, tt.wantDetails)
			}
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantCode   string
		wantStatus int
	}{
		{"ErrInvalidPayload", ErrInvalidPayload, "invalid_payload", http.StatusBadRequest},
		{"ErrMissingJobID", ErrMissingJobID, "missing_job_id", http.StatusBadRequest},
		{"ErrMissingAssets", ErrMissingAssets, "missing_assets", http.StatusBadRequest},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized", http.StatusUnauthorized},
		{"ErrJobNotFound", ErrJobNotFound, "job_not_found", http.StatusNotFound},
		{"ErrRateLimited", ErrRateLimited, "rate_limited", http.StatusTooManyRequests},
		{"ErrDependency", ErrDependency, "dependency_error", http.StatusInternalServerError},
		{"ErrJobFetchFailed", ErrJobFetchFailed, "job_fetch_failed", http.StatusInternalServerError},
		{"ErrMetadataFailed", ErrMetadataFailed, "metadata_failed", http.StatusInternalServerError},
		{"ErrDownloadFailed", ErrDownloadFailed, "download_failed", http.StatusInternalServerError},
		{"ErrStagingFailed", ErrStagingFailed, "staging_failed", http.StatusInternalServerError},
		{"ErrUploadFailed", ErrUploadFailed, "upload_failed", http.StatusInternalServerError},
		{"ErrTransformation", ErrTransformation, "transformation_failed", http.StatusInternalServerError},
		{"ErrInternal", ErrInternal, "internal_error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("%s.Code = %q, want %q", tt.name, tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("%s.StatusCode = %d, want %d", tt.name, tt.err.StatusCode, tt.wantStatus)
			}
			if tt.err.Message == "" {
				t.Errorf("%s.Message should not be empty", tt.name)
			}
		})
	}
}
