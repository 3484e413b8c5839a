package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/exam-results/internal/auth"
	"github.com/hongminglow/exam-results/internal/http/respond"
)

// IdentityResolver maps verified claims to the caller's current identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, claims *auth.Claims) (*auth.Identity, error)
}

// Authenticator verifies bearer tokens and stores the resolved identity on the context.
type Authenticator struct {
	tokens   *auth.TokenManager
	resolver IdentityResolver
	logger   *slog.Logger
}

// NewAuthenticator constructs the bearer token middleware factory.
func NewAuthenticator(tokens *auth.TokenManager, resolver IdentityResolver, logger *slog.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, resolver: resolver, logger: logger}
}

// Required rejects requests without a valid bearer token.
func (a *Authenticator) Required(next http.Handler) http.Handler {
	return a.handler(next, true)
}

// Optional lets anonymous requests through but still rejects invalid tokens.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return a.handler(next, false)
}

func (a *Authenticator) handler(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, present := bearerToken(r.Header.Get("Authorization"))
		if !present {
			if required {
				respond.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.tokens.Parse(token)
		if err != nil {
			a.logger.Debug("rejected token", "err", err, "request_id", RequestIDFromContext(r.Context()))
			respond.Error(w, http.StatusUnauthorized, "invalid token")
			return
		}
		identity, err := a.resolver.Resolve(r.Context(), claims)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			a.logger.Error("resolve identity", "err", err, "request_id", RequestIDFromContext(r.Context()))
			respond.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}
