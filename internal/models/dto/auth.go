package dto

import "github.com/hongminglow/exam-results/internal/models"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Password string `json:"password" validate:"required,password"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// LoginRequest accepts the identifier under any of its historical keys.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// ResolvedIdentifier returns the first non-empty identifier field.
func (r LoginRequest) ResolvedIdentifier() string {
	for _, candidate := range []string{r.Identifier, r.Username, r.Email} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}
