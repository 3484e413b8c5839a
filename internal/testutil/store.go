// Package testutil provides in-memory stand-ins for the storage interfaces.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hongminglow/exam-results/internal/models"
	"github.com/hongminglow/exam-results/internal/storage"
)

var (
	_ storage.UserStore   = (*MemoryStore)(nil)
	_ storage.ResultStore = (*MemoryStore)(nil)
)

// MemoryStore keeps users and results in maps and mirrors the uniqueness rules
// of the Postgres schema.
type MemoryStore struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]models.User
	results map[int64]models.Result

	// Calls counts every store method invocation by name.
	Calls map[string]int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   map[int64]models.User{},
		results: map[int64]models.Result{},
		Calls:   map[string]int{},
	}
}

func (m *MemoryStore) CreateUser(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["CreateUser"]++

	for _, existing := range m.users {
		if existing.Username == user.Username {
			return models.User{}, storage.ErrUsernameTaken
		}
		if existing.Email == user.Email {
			return models.User{}, storage.ErrEmailTaken
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["FindByID"]++

	user, ok := m.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (m *MemoryStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	return m.findUser("FindByUsername", func(u models.User) bool { return u.Username == username })
}

func (m *MemoryStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	return m.findUser("FindByEmail", func(u models.User) bool { return u.Email == email })
}

func (m *MemoryStore) ListUsers(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["ListUsers"]++

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// SetRole changes a stored user's role, as an operator would in the database.
func (m *MemoryStore) SetRole(id int64, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[id]
	u.Role = role
	m.users[id] = u
}

// DeleteUser removes a stored user.
func (m *MemoryStore) DeleteUser(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *MemoryStore) CreateResult(_ context.Context, result models.Result) (models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["CreateResult"]++

	if _, ok := m.results[result.StudentID]; ok {
		return models.Result{}, storage.ErrAlreadyExists
	}
	now := time.Now().UTC()
	result.CreatedAt, result.UpdatedAt = now, now
	m.results[result.StudentID] = result
	return result, nil
}

func (m *MemoryStore) UpdateResult(_ context.Context, result models.Result) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["UpdateResult"]++

	existing, ok := m.results[result.StudentID]
	if !ok {
		return false, nil
	}
	result.CreatedAt = existing.CreatedAt
	result.UpdatedAt = time.Now().UTC()
	m.results[result.StudentID] = result
	return true, nil
}

func (m *MemoryStore) DeleteResult(_ context.Context, studentID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["DeleteResult"]++

	if _, ok := m.results[studentID]; !ok {
		return false, nil
	}
	delete(m.results, studentID)
	return true, nil
}

func (m *MemoryStore) GetResult(_ context.Context, studentID int64) (models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["GetResult"]++

	result, ok := m.results[studentID]
	if !ok {
		return models.Result{}, storage.ErrNotFound
	}
	return result, nil
}

func (m *MemoryStore) ListResults(_ context.Context, limit, offset int) (storage.ResultPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["ListResults"]++

	all := m.sortedResults()
	page := storage.ResultPage{Results: []models.Result{}, Total: int64(len(all))}
	if offset >= len(all) {
		return page, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	page.Results = append(page.Results, all[offset:end]...)
	return page, nil
}

func (m *MemoryStore) AllResults(context.Context) ([]models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["AllResults"]++
	return m.sortedResults(), nil
}

// Mutations returns how many write operations reached the store.
func (m *MemoryStore) Mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls["CreateUser"] + m.Calls["CreateResult"] + m.Calls["UpdateResult"] + m.Calls["DeleteResult"]
}

func (m *MemoryStore) findUser(call string, match func(models.User) bool) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[call]++

	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (m *MemoryStore) sortedResults() []models.Result {
	results := make([]models.Result, 0, len(m.results))
	for _, r := range m.results {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].StudentID < results[j].StudentID })
	return results
}
