package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/exam-results/internal/models"
	"github.com/hongminglow/exam-results/internal/storage"
)

const userColumns = `id, username, email, name, role, password_hash, created_at`

// CreateUser inserts a new user row. Unique violations map to the taken column.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	const query = `
		INSERT INTO users (username, email, name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, user.Username, user.Email, user.Name, user.Role, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			switch constraint {
			case "users_username_key":
				return models.User{}, storage.ErrUsernameTaken
			case "users_email_key":
				return models.User{}, storage.ErrEmailTaken
			default:
				return models.User{}, storage.ErrAlreadyExists
			}
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// FindByID fetches a user by primary key.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// FindByEmail fetches a user by email address.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *Store) findOne(ctx context.Context, query string, arg any) (models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := scanUser(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Name, &user.Role, &user.PasswordHash, &user.CreatedAt)
	return user, err
}
