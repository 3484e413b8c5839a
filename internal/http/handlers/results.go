package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/exam-results/internal/auth"
	"github.com/hongminglow/exam-results/internal/http/respond"
	"github.com/hongminglow/exam-results/internal/middleware"
	"github.com/hongminglow/exam-results/internal/models/dto"
	"github.com/hongminglow/exam-results/internal/storage"
	"github.com/hongminglow/exam-results/internal/validation"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ResultHandler serves the exam result endpoints.
type ResultHandler struct {
	results storage.ResultStore
	guard   *auth.Guard
	logger  *slog.Logger
}

// NewResultHandler constructs the handler.
func NewResultHandler(results storage.ResultStore, guard *auth.Guard, logger *slog.Logger) *ResultHandler {
	return &ResultHandler{results: results, guard: guard, logger: logger}
}

// Register attaches result routes. Mutations and the paginated list require a
// token; the remaining routes accept anonymous callers and leave the decision
// to the guard.
func (h *ResultHandler) Register(r chi.Router, authn *middleware.Authenticator) {
	r.With(authn.Required).Post("/user/addresult", h.handleAdd)
	r.With(authn.Required).Put("/results/{student_id}", h.handleUpdate)
	r.With(authn.Required).Get("/results", h.handleList)
	r.With(authn.Optional).Delete("/results/{student_id}", h.handleDelete)
	r.With(authn.Optional).Get("/results/{student_id}", h.handleGet)
	r.Get("/student/login", h.handleAll)
}

func (h *ResultHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateResultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validation.Struct(req); err != nil {
		respondFailure(w, r, h.logger, err, "Internal server error")
		return
	}
	if d := h.authorize(r, auth.AddResult, req.StudentID); d != auth.Allow {
		respondDenied(w, d)
		return
	}

	_, err := h.results.CreateResult(r.Context(), req.Result())
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, fmt.Sprintf("Result for student id %d already exists", req.StudentID))
			return
		}
		respondFailure(w, r, h.logger, err, "Internal server error")
		return
	}
	h.logger.Info("result added", "student_id", req.StudentID, "request_id", middleware.RequestIDFromContext(r.Context()))
	respond.JSON(w, http.StatusCreated, "Result added successfully", nil)
}

func (h *ResultHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	studentID, ok := studentIDParam(w, r)
	if !ok {
		return
	}
	var req dto.UpdateResultRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := validation.Struct(req); err != nil {
		respondFailure(w, r, h.logger, err, "Internal server error")
		return
	}
	if d := h.authorize(r, auth.UpdateResult, studentID); d != auth.Allow {
		respondDenied(w, d)
		return
	}

	updated, err := h.results.UpdateResult(r.Context(), req.Result(studentID))
	if err != nil {
		respondFailure(w, r, h.logger, err, "Internal server error")
		return
	}
	if !updated {
		respond.Error(w, http.StatusNotFound, fmt.Sprintf("Result for student id %d not found", studentID))
		return
	}
	respond.JSON(w, http.StatusOK, fmt.Sprintf("Result for student id %d updated", studentID), nil)
}

func (h *ResultHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	studentID, ok := studentIDParam(w, r)
	if !ok {
		return
	}
	if d := h.authorize(r, auth.DeleteResult, studentID); d != auth.Allow {
		respondDenied(w, d)
		return
	}

	deleted, err := h.results.DeleteResult(r.Context(), studentID)
	if err != nil {
		respondFailure(w, r, h.logger, err, "Internal server error")
		return
	}
	if !deleted {
		respond.Error(w, http.StatusNotFound, fmt.Sprintf("Result for student id %d not found", studentID))
		return
	}
	respond.JSON(w, http.StatusOK, fmt.Sprintf("Result for student id %d deleted", studentID), nil)
}

func (h *ResultHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	studentID, ok := studentIDParam(w, r)
	if !ok {
		return
	}
	if d := h.authorize(r, auth.GetResultByID, studentID); d != auth.Allow {
		respondDenied(w, d)
		return
	}

	result, err := h.results.GetResult(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, fmt.Sprintf("No result records found for student with ID: %d", studentID))
			return
		}
		respondFailure(w, r, h.logger, err, "Internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, "Result Table", map[string]any{"result": result})
}

func (h *ResultHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if d := h.authorize(r, auth.ListResults, 0); d != auth.Allow {
		respondDenied(w, d)
		return
	}
	query := r.URL.Query()
	limit, err := positiveQueryInt(query.Get("limit"), defaultPageLimit)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, `"limit" must be a positive integer`)
		return
	}
	page, err := positiveQueryInt(query.Get("page"), 1)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, `"page" must be a positive integer`)
		return
	}
	limit = min(limit, maxPageLimit)

	result, err := h.results.ListResults(r.Context(), limit, (page-1)*limit)
	if err != nil {
		respondFailure(w, r, h.logger, err, "Internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, "Result Table", dto.ResultPage{
		Students:    result.Results,
		TotalCount:  result.Total,
		CurrentPage: page,
	})
}

func (h *ResultHandler) handleAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.results.AllResults(r.Context())
	if err != nil {
		respondFailure(w, r, h.logger, err, "Internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, "Result Table", map[string]any{"students": all})
}

func (h *ResultHandler) authorize(r *http.Request, action auth.Action, target int64) auth.Decision {
	identity, _ := auth.IdentityFromContext(r.Context())
	d := h.guard.Authorize(identity, action, target)
	if d != auth.Allow {
		h.logger.Info("access denied",
			"action", string(action),
			"decision", d.String(),
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
	}
	return d
}

func studentIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "student_id"), 10, 64)
	if err != nil || id < 1 {
		respond.Error(w, http.StatusBadRequest, `"student_id" must be a positive integer`)
		return 0, false
	}
	return id, true
}

func positiveQueryInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < 1 {
		return 0, fmt.Errorf("value %d is below 1", v)
	}
	return v, nil
}
