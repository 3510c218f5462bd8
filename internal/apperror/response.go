package apperror

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
)

const StatusError = "error"

type ErrorResponse struct {
	Status  string `json:"status"`
	JobID   string `json:"jobId,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// WriteJSON renders err as a job error response. Internal causes are logged
// and never serialized; only Details reaches the caller.
func WriteJSON(w http.ResponseWriter, r *http.Request, jobID string, err error) {
	log := logger.FromContext(r.Context())

	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Wrap(err, ErrInternal)
	}

	if appErr.Internal != nil {
		log.Error("request error",
			"code", appErr.Code,
			"status", appErr.StatusCode,
			"internal_error", appErr.Internal.Error(),
		)
	} else {
		log.Warn("request error", "code", appErr.Code, "status", appErr.StatusCode)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Status:  StatusError,
		JobID:   jobID,
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}
