package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/exam-results/internal/models"
	"github.com/hongminglow/exam-results/internal/models/dto"
	"github.com/hongminglow/exam-results/internal/storage"
	"github.com/hongminglow/exam-results/internal/testutil"
	"github.com/hongminglow/exam-results/internal/validation"
)

func newTestAuthenticator() (*Authenticator, *testutil.MemoryStore, *TokenManager) {
	store := testutil.NewMemoryStore()
	tokens := NewTokenManager("test-secret", "test-issuer", time.Minute)
	return NewAuthenticator(store, tokens), store, tokens
}

func validRegistration() dto.RegisterRequest {
	return dto.RegisterRequest{
		Username: "alice01",
		Password: "Secr3t!",
		Name:     "Alice",
		Email:    "alice@example.com",
	}
}

func TestRegisterCreatesStudentWithHashedPassword(t *testing.T) {
	a, _, _ := newTestAuthenticator()
	ctx := context.Background()

	user, err := a.Register(ctx, validRegistration())
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice01", user.Username)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.NotEqual(t, "Secr3t!", user.PasswordHash)

	cost, err := bcrypt.Cost([]byte(user.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	a, _, _ := newTestAuthenticator()
	ctx := context.Background()

	_, err := a.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = a.Register(ctx, validRegistration())
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	sameEmail := validRegistration()
	sameEmail.Username = "bob01"
	_, err = a.Register(ctx, sameEmail)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegisterMapsStoreConflictsFromRace(t *testing.T) {
	store := &racingStore{MemoryStore: testutil.NewMemoryStore(), conflict: storage.ErrEmailTaken}
	a := NewAuthenticator(store, NewTokenManager("s", "i", time.Minute))

	_, err := a.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegisterWeakPasswordNeverReachesStore(t *testing.T) {
	for _, password := range []string{"password", "PASSWORD1!", "Pass1", "Abcdefghij1!"} {
		a, store, _ := newTestAuthenticator()
		req := validRegistration()
		req.Password = password

		_, err := a.Register(context.Background(), req)

		var verr *validation.Error
		require.ErrorAsf(t, err, &verr, "password %q", password)
		assert.Equal(t, "password", verr.Field)
		assert.Empty(t, store.Calls, "store must not be touched for %q", password)
	}
}

func TestLoginByUsernameAndEmail(t *testing.T) {
	a, _, tokens := newTestAuthenticator()
	ctx := context.Background()
	user, err := a.Register(ctx, validRegistration())
	require.NoError(t, err)

	for _, identifier := range []string{"alice01", "alice@example.com"} {
		resp, err := a.Login(ctx, identifier, "Secr3t!")
		require.NoError(t, err, identifier)
		assert.Equal(t, user.ID, resp.User.ID)

		claims, err := tokens.Parse(resp.Token)
		require.NoError(t, err)
		id, _ := claims.UserID()
		assert.Equal(t, user.ID, id)
		assert.Equal(t, models.RoleStudent, claims.Role)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	a, _, _ := newTestAuthenticator()
	ctx := context.Background()
	_, err := a.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, wrongPassword := a.Login(ctx, "alice01", "Wr0ng!!")
	_, unknownUser := a.Login(ctx, "mallory", "Secr3t!")
	_, unknownEmail := a.Login(ctx, "mallory@example.com", "Secr3t!")

	for _, err := range []error{wrongPassword, unknownUser, unknownEmail} {
		require.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, ErrInvalidCredentials.Error(), err.Error())
	}
}

func TestLoginRequiresIdentifierAndPassword(t *testing.T) {
	a, _, _ := newTestAuthenticator()
	var verr *validation.Error

	_, err := a.Login(context.Background(), " ", "x")
	require.ErrorAs(t, err, &verr)

	_, err = a.Login(context.Background(), "alice01", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
}

func TestResolveUsesStoredRole(t *testing.T) {
	a, store, tokens := newTestAuthenticator()
	ctx := context.Background()
	user, err := a.Register(ctx, validRegistration())
	require.NoError(t, err)

	signed, err := tokens.Generate(user)
	require.NoError(t, err)
	claims, err := tokens.Parse(signed)
	require.NoError(t, err)

	store.SetRole(user.ID, models.RoleAdmin)
	id, err := a.Resolve(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, id.Role)

	store.DeleteUser(user.ID)
	_, err = a.Resolve(ctx, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLooksLikeEmail(t *testing.T) {
	assert.True(t, LooksLikeEmail("a@b.co"))
	assert.False(t, LooksLikeEmail("alice"))
	assert.False(t, LooksLikeEmail("alice@localhost"))
	assert.False(t, LooksLikeEmail("a b@c.d"))
}

// racingStore reports the lookups as free and then loses the insert race.
type racingStore struct {
	*testutil.MemoryStore
	conflict error
}

func (r *racingStore) CreateUser(context.Context, models.User) (models.User, error) {
	return models.User{}, r.conflict
}

var _ storage.UserStore = (*racingStore)(nil)

func TestConflictErrorsMatchAlreadyExists(t *testing.T) {
	assert.True(t, errors.Is(storage.ErrEmailTaken, storage.ErrAlreadyExists))
	assert.True(t, errors.Is(storage.ErrUsernameTaken, storage.ErrAlreadyExists))
}
