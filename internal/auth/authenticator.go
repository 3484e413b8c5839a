package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/exam-results/internal/models"
	"github.com/hongminglow/exam-results/internal/models/dto"
	"github.com/hongminglow/exam-results/internal/storage"
	"github.com/hongminglow/exam-results/internal/validation"
)

// PasswordCost is the bcrypt work factor used for stored passwords.
const PasswordCost = 10

var (
	// ErrInvalidCredentials covers both unknown identifiers and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUsername  = errors.New("username is already used")
	ErrDuplicateEmail     = errors.New("email is already registered")
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LooksLikeEmail reports whether identifier should be matched against the email column.
func LooksLikeEmail(identifier string) bool {
	return emailShape.MatchString(identifier)
}

// Authenticator registers users and exchanges credentials for identity tokens.
type Authenticator struct {
	users  storage.UserStore
	tokens *TokenManager
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(users storage.UserStore, tokens *TokenManager) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

// Register validates the request, rejects taken usernames and emails, and stores a
// new student account with a bcrypt hash of the password.
func (a *Authenticator) Register(ctx context.Context, req dto.RegisterRequest) (models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return models.User{}, err
	}

	if err := a.ensureAvailable(ctx, req.Username, req.Email); err != nil {
		return models.User{}, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}

	created, err := a.users.CreateUser(ctx, models.User{
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		Role:         models.RoleStudent,
		PasswordHash: hash,
	})
	switch {
	case errors.Is(err, storage.ErrUsernameTaken):
		return models.User{}, ErrDuplicateUsername
	case errors.Is(err, storage.ErrEmailTaken):
		return models.User{}, ErrDuplicateEmail
	case err != nil:
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Login looks the identifier up as an email or a username and, when the password
// matches, returns a signed token for the user.
func (a *Authenticator) Login(ctx context.Context, identifier, password string) (dto.LoginResponse, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return dto.LoginResponse{}, validation.Invalid("username", `"username" or "email" is required`)
	}
	if password == "" {
		return dto.LoginResponse{}, validation.Invalid("password", `"password" is required`)
	}

	var (
		user models.User
		err  error
	)
	if LooksLikeEmail(identifier) {
		user, err = a.users.FindByEmail(ctx, identifier)
	} else {
		user, err = a.users.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	token, err := a.tokens.Generate(user)
	if err != nil {
		return dto.LoginResponse{}, err
	}
	return dto.LoginResponse{Token: token, User: user}, nil
}

// Resolve turns verified token claims into the caller's current identity. The role
// is read from the store so demotions take effect before the token expires.
func (a *Authenticator) Resolve(ctx context.Context, claims *Claims) (*Identity, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return &Identity{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (a *Authenticator) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := a.users.FindByUsername(ctx, username); err == nil {
		return ErrDuplicateUsername
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check username: %w", err)
	}
	if _, err := a.users.FindByEmail(ctx, email); err == nil {
		return ErrDuplicateEmail
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check email: %w", err)
	}
	return nil
}

// HashPassword returns the bcrypt hash of password at PasswordCost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
