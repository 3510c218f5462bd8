package apperror

import (
	"errors"
	"net/http"
)

type Error struct {
	Code       string
	Message    string
	StatusCode int
	// Details is diagnostic text that may be shown to the caller,
	// such as the captured output of a failed engine run.
	Details  string
	Internal error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Internal
}

// Is lets errors.Is compare by code rather than by pointer.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

var (
	ErrInvalidPayload = &Error{
		Code:       "invalid_payload",
		Message:    "Invalid JSON payload",
		StatusCode: http.StatusBadRequest,
	}

	ErrMissingJobID = &Error{
		Code:       "missing_job_id",
		Message:    "Missing 'jobId' parameter",
		StatusCode: http.StatusBadRequest,
	}

	ErrMissingAssets = &Error{
		Code:       "missing_assets",
		Message:    "Missing sourceAssetId or targetAssetId in job record",
		StatusCode: http.StatusBadRequest,
	}

	ErrUnauthorized = &Error{
		Code:       "unauthorized",
		Message:    "Unauthorized",
		StatusCode: http.StatusUnauthorized,
	}

	ErrJobNotFound = &Error{
		Code:       "job_not_found",
		Message:    "Job record not found",
		StatusCode: http.StatusNotFound,
	}

	ErrRateLimited = &Error{
		Code:       "rate_limited",
		Message:    "Too many requests. Please try again later",
		StatusCode: http.StatusTooManyRequests,
	}

	// ErrDependency marks failures of the job store or the blob store. Stage
	// errors carry it in their cause chain; match with Is.
	ErrDependency = &Error{
		Code:       "dependency_error",
		Message:    "A downstream service call failed",
		StatusCode: http.StatusInternalServerError,
	}

	ErrJobFetchFailed = &Error{
		Code:       "job_fetch_failed",
		Message:    "Failed to fetch job details",
		StatusCode: http.StatusInternalServerError,
	}

	ErrMetadataFailed = &Error{
		Code:       "metadata_failed",
		Message:    "Failed to get media file details",
		StatusCode: http.StatusInternalServerError,
	}

	ErrDownloadFailed = &Error{
		Code:       "download_failed",
		Message:    "Failed to download media files",
		StatusCode: http.StatusInternalServerError,
	}

	ErrStagingFailed = &Error{
		Code:       "staging_failed",
		Message:    "Failed to save media files locally",
		StatusCode: http.StatusInternalServerError,
	}

	ErrUploadFailed = &Error{
		Code:       "upload_failed",
		Message:    "Failed to upload result file",
		StatusCode: http.StatusInternalServerError,
	}

	ErrTransformation = &Error{
		Code:       "transformation_failed",
		Message:    "Media transformation failed",
		StatusCode: http.StatusInternalServerError,
	}

	ErrInternal = &Error{
		Code:       "internal_error",
		Message:    "An internal server error occurred during processing",
		StatusCode: http.StatusInternalServerError,
	}
)

func Wrap(err error, appErr *Error) *Error {
	return &Error{
		Code:       appErr.Code,
		Message:    appErr.Message,
		StatusCode: appErr.StatusCode,
		Details:    appErr.Details,
		Internal:   err,
	}
}

// WithDetails returns a copy of appErr carrying caller-visible diagnostic text.
func WithDetails(appErr *Error, details string) *Error {
	e := *appErr
	e.Details = details
	return &e
}

// Is reports whether any *Error in err's chain has target's code.
func Is(err error, target *Error) bool {
	return errors.Is(err, target)
}

func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal.Code
}
