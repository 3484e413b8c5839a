package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/exam-results/internal/auth"
	"github.com/hongminglow/exam-results/internal/http/respond"
	"github.com/hongminglow/exam-results/internal/middleware"
	"github.com/hongminglow/exam-results/internal/storage"
	"github.com/hongminglow/exam-results/internal/validation"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

// respondFailure maps the error taxonomy onto status codes. Anything unrecognized
// is logged and reported as a generic 500 carrying internalMsg.
func respondFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, internalMsg string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		respond.Error(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, auth.ErrInvalidCredentials):
		respond.Error(w, http.StatusBadRequest, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrDuplicateUsername), errors.Is(err, auth.ErrDuplicateEmail):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, "record already exists")
	default:
		logger.Error(internalMsg, "err", err, "request_id", middleware.RequestIDFromContext(r.Context()))
		respond.Error(w, http.StatusInternalServerError, internalMsg)
	}
}

// respondDenied writes the status for a non-Allow guard decision.
func respondDenied(w http.ResponseWriter, decision auth.Decision) {
	if decision == auth.Unauthenticated {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	respond.Error(w, http.StatusForbidden, "Access forbidden")
}
