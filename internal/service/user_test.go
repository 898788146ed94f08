package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/auth"
)

func newTestUserService(t *testing.T) (*UserService, *fakeStore, *auth.TokenService) {
	t.Helper()
	store := newFakeStore()
	tokens, err := auth.NewTokenService("service-test-secret-0123456789", 0)
	require.NoError(t, err)
	svc := NewUserService(store, auth.NewPasswordHasherWithCost(bcrypt.MinCost), tokens, discardLogger())
	return svc, store, tokens
}

func register(t *testing.T, svc *UserService, username string) *AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return res
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected *apperror.AppError, got %T: %v", err, err)
	return appErr.Field
}

func TestRegister_IssuesTokenForNewUser(t *testing.T) {
	svc, _, tokens := newTestUserService(t)

	res := register(t, svc, "alice")

	assert.NotZero(t, res.User.ID)
	assert.NotEqual(t, "password123", res.User.PasswordHash)
	claims, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
}

func TestRegister_NormalizesEmail(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	res, err := svc.Register(context.Background(), RegisterInput{
		Username: " bob ", Email: " Bob@Example.COM ", Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob", res.User.Username)
	assert.Equal(t, "bob@example.com", res.User.Email)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	cases := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing username", RegisterInput{Email: "a@b.co", Password: "password123"}, "username"},
		{"username with space", RegisterInput{Username: "a b", Email: "a@b.co", Password: "password123"}, "username"},
		{"bad email", RegisterInput{Username: "a", Email: "not-an-email", Password: "password123"}, "email"},
		{"short password", RegisterInput{Username: "a", Email: "a@b.co", Password: "short"}, "password"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			require.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tc.field, fieldOf(t, err))
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	register(t, svc, "alice")

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "password123",
	})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "username", fieldOf(t, err))
}

func TestLogin(t *testing.T) {
	svc, _, tokens := newTestUserService(t)
	registered := register(t, svc, "alice")
	ctx := context.Background()

	res, err := svc.Login(ctx, LoginInput{Email: "ALICE@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, res.User.ID)
	claims, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.Subject)

	_, err = svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Login(ctx, LoginInput{Email: "alice@example.com"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLogin_StorageFailureIsNotUnauthorized(t *testing.T) {
	svc, store, _ := newTestUserService(t)
	store.failWith = errStorageDown

	_, err := svc.Login(context.Background(), LoginInput{Email: "a@b.co", Password: "password123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStorageDown)
	assert.NotErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestCurrent_DeletedUser(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	_, err := svc.Current(context.Background(), 404)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestUpdate_Partial(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	alice := register(t, svc, "alice")
	ctx := context.Background()

	bio := "gopher"
	updated, err := svc.Update(ctx, alice.User.ID, UpdateUserInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "gopher", updated.Bio)
	assert.Equal(t, "alice", updated.Username, "unset fields are kept")
	assert.Equal(t, alice.User.PasswordHash, updated.PasswordHash)

	pw := "a-new-password"
	_, err = svc.Update(ctx, alice.User.ID, UpdateUserInput{Password: &pw})
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: pw})
	assert.NoError(t, err, "login works with the new password")
}

func TestUpdate_Errors(t *testing.T) {
	svc, _, _ := newTestUserService(t)
	alice := register(t, svc, "alice")
	register(t, svc, "bob")
	ctx := context.Background()

	empty := ""
	_, err := svc.Update(ctx, alice.User.ID, UpdateUserInput{Username: &empty})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	badURL := "not a url"
	_, err = svc.Update(ctx, alice.User.ID, UpdateUserInput{Image: &badURL})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	taken := "bob"
	_, err = svc.Update(ctx, alice.User.ID, UpdateUserInput{Username: &taken})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}
