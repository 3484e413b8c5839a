package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/exam-results/internal/auth"
	"github.com/hongminglow/exam-results/internal/http/respond"
	"github.com/hongminglow/exam-results/internal/models/dto"
	"github.com/hongminglow/exam-results/internal/storage"
)

// AuthHandler owns the registration, login and user listing endpoints.
type AuthHandler struct {
	authn  *auth.Authenticator
	users  storage.UserStore
	logger *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authn *auth.Authenticator, users storage.UserStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authn: authn, users: users, logger: logger}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/user/login", h.handleLogin)
	r.Get("/users", h.handleListUsers)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	created, err := h.authn.Register(r.Context(), req)
	if err != nil {
		respondFailure(w, r, h.logger, err, "Something went wrong")
		return
	}
	h.logger.Info("user registered", "user_id", created.ID, "username", created.Username)
	respond.JSON(w, http.StatusCreated, "Register successful", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	resp, err := h.authn.Login(r.Context(), req.ResolvedIdentifier(), req.Password)
	if err != nil {
		respondFailure(w, r, h.logger, err, "Something went wrong")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", resp)
}

func (h *AuthHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		respondFailure(w, r, h.logger, err, "Internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, "users", map[string]any{"user": users})
}
