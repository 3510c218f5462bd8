package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/mediaswap/internal/apperror"
	"github.com/abdul-hamid-achik/mediaswap/internal/logger"
	"github.com/abdul-hamid-achik/mediaswap/internal/tracing"
)

const maxRequestBody = 64 << 10

type SwapRequest struct {
	Secret string `json:"secret"`
	JobID  string `json:"jobId"`
}

type SwapResponse struct {
	Status         string `json:"status"`
	JobID          string `json:"jobId"`
	ResultAssetID  string `json:"resultAssetId"`
	PreviewAssetID string `json:"previewAssetId,omitempty"`
}

func swapHandler(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SwapRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperror.WriteJSON(w, r, "", apperror.Wrap(err, apperror.ErrInvalidPayload))
			return
		}

		if !validSecret(cfg.EndpointSecret, req.Secret) {
			apperror.WriteJSON(w, r, "", apperror.ErrUnauthorized)
			return
		}

		jobID := strings.TrimSpace(req.JobID)
		if jobID == "" {
			apperror.WriteJSON(w, r, "", apperror.ErrMissingJobID)
			return
		}

		tracing.SetJobID(r.Context(), jobID)
		ctx := logger.WithJobID(r.Context(), jobID)
		log := logger.FromContext(ctx)
		log.Info("job request accepted")

		// The job runs to completion even if the client goes away.
		outcome, err := cfg.Runner.Run(context.WithoutCancel(ctx), jobID)
		if err != nil {
			apperror.WriteJSON(w, r.WithContext(ctx), jobID, err)
			return
		}

		writeJSON(w, http.StatusOK, SwapResponse{
			Status:         "success",
			JobID:          jobID,
			ResultAssetID:  outcome.ResultAssetID,
			PreviewAssetID: outcome.PreviewAssetID,
		})
	}
}

func validSecret(expected, got string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
