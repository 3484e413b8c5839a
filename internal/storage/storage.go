package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/exam-results/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrUsernameTaken and ErrEmailTaken narrow ErrAlreadyExists to the violated column.
var (
	ErrUsernameTaken = conflict("username already exists")
	ErrEmailTaken    = conflict("email already exists")
)

type conflictError struct{ msg string }

func conflict(msg string) error { return &conflictError{msg: msg} }

func (e *conflictError) Error() string { return e.msg }

func (e *conflictError) Is(target error) bool { return target == ErrAlreadyExists }

// UserStore captures persistence operations needed for credentials.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// ResultPage is one page of results plus the total row count.
type ResultPage struct {
	Results []models.Result
	Total   int64
}

// ResultStore captures persistence operations for exam results.
type ResultStore interface {
	CreateResult(ctx context.Context, result models.Result) (models.Result, error)
	UpdateResult(ctx context.Context, result models.Result) (bool, error)
	DeleteResult(ctx context.Context, studentID int64) (bool, error)
	GetResult(ctx context.Context, studentID int64) (models.Result, error)
	ListResults(ctx context.Context, limit, offset int) (ResultPage, error)
	AllResults(ctx context.Context) ([]models.Result, error)
}
