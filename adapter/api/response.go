package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	ganttDomain "github.com/felixgeelhaar/layoutrack/internal/gantt/domain"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/pkg/observability"
)

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success            bool   `json:"success"`
	Data               any    `json:"data,omitempty"`
	UpdatedProjectData any    `json:"updatedProjectData,omitempty"`
	Message            string `json:"message,omitempty"`
	Errors             any    `json:"errors,omitempty"`
	RequestID          string `json:"requestId,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

func writeSuccess(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	env.Success = true
	env.RequestID = observability.RequestIDFromContext(r.Context())
	writeJSON(w, status, env)
}

// writeError writes a failed envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string, errs any) {
	writeJSON(w, status, Envelope{
		Success:   false,
		Message:   message,
		Errors:    errs,
		RequestID: observability.RequestIDFromContext(r.Context()),
	})
}

var badRequestErrors = []error{
	domain.ErrInvalidDate,
	domain.ErrInvalidInput,
	domain.ErrMalformedWeight,
	domain.ErrInvalidWeek,
	domain.ErrWeightOutOfRange,
	domain.ErrEmptyProjectID,
	domain.ErrReservedProjectID,
	domain.ErrEmptyIPName,
	domain.ErrInvalidStatus,
	ganttDomain.ErrInvalidMode,
}

// statusFor maps an application error to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, domain.ErrLayoutNotFound) {
		return http.StatusNotFound
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeAppError writes err with its mapped status. Internal errors are
// logged and reported without detail.
func writeAppError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "operation", op, "error", err)
		writeError(w, r, status, "Internal server error", nil)
		return
	}
	writeError(w, r, status, err.Error(), []string{err.Error()})
}
