package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hongminglow/exam-results/internal/models"
	"github.com/hongminglow/exam-results/internal/storage"
)

// SeedUser is one account entry of the seed file.
type SeedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
}

type seedFile struct {
	Users []SeedUser `yaml:"users"`
}

// LoadSeedFile parses a YAML document of the form `users: [{username, password, ...}]`.
func LoadSeedFile(path string) ([]SeedUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return sf.Users, nil
}

// SeedUsers inserts every seed account whose username is not yet taken and
// returns how many were created. Role defaults to student.
func SeedUsers(ctx context.Context, users storage.UserStore, seeds []SeedUser) (int, error) {
	created := 0
	for _, seed := range seeds {
		seed.Username = strings.TrimSpace(seed.Username)
		seed.Email = strings.TrimSpace(seed.Email)
		if seed.Username == "" || seed.Password == "" || seed.Email == "" {
			return created, fmt.Errorf("seed user %q: username, password and email are required", seed.Username)
		}
		if seed.Role == "" {
			seed.Role = models.RoleStudent
		}
		if !models.KnownRole(seed.Role) {
			return created, fmt.Errorf("seed user %q: unknown role %q", seed.Username, seed.Role)
		}

		if _, err := users.FindByUsername(ctx, seed.Username); err == nil {
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return created, fmt.Errorf("seed user %q: %w", seed.Username, err)
		}

		hash, err := HashPassword(seed.Password)
		if err != nil {
			return created, err
		}
		if _, err := users.CreateUser(ctx, models.User{
			Username:     seed.Username,
			Name:         strings.TrimSpace(seed.Name),
			Email:        seed.Email,
			Role:         seed.Role,
			PasswordHash: hash,
		}); err != nil {
			return created, fmt.Errorf("seed user %q: %w", seed.Username, err)
		}
		created++
	}
	return created, nil
}
