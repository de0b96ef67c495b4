package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	created *models.User
	updated map[string]interface{}
	// createErr is returned by CreateUser when set.
	createErr error
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (interface{}, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = user
	return user, nil
}

func (f *fakeUserRepo) AuthenticateUser(ctx context.Context, email, password string) (interface{}, error) {
	return nil, assert.AnError
}

func (f *fakeUserRepo) RefreshToken(ctx context.Context, refreshToken string) (interface{}, error) {
	return nil, assert.AnError
}

func (f *fakeUserRepo) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, user map[string]interface{}, userid uuid.UUID, accessToken string) (*models.User, error) {
	f.updated = user
	return &models.User{ID: userid}, nil
}

func (f *fakeUserRepo) DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error {
	return nil
}

func TestCreateUserAssignsCustomerRole(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := NewUserService(repo)

	_, err := svc.CreateUser(context.Background(), &models.User{
		Email:    "  New@Example.com ",
		Password: "Sourdough1!",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", repo.created.Email)
	assert.Equal(t, models.RoleCustomer, repo.created.Role)

	_, err = svc.CreateUser(context.Background(), &models.User{Email: "weak@example.com", Password: "password"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateUserKeepsRepoErrorKind(t *testing.T) {
	newUser := func() *models.User {
		return &models.User{Email: "new@example.com", Password: "Sourdough1!"}
	}

	svc := NewUserService(&fakeUserRepo{createErr: models.Upstream("signup", errors.New("dial tcp: i/o timeout"))})
	_, err := svc.CreateUser(context.Background(), newUser())
	assert.ErrorIs(t, err, models.ErrUpstream)
	assert.NotErrorIs(t, err, models.ErrValidation)

	svc = NewUserService(&fakeUserRepo{createErr: fmt.Errorf("%w: email already in use", models.ErrConflict)})
	_, err = svc.CreateUser(context.Background(), newUser())
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestUpdateUserCannotChangeRole(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := NewUserService(repo)

	_, err := svc.UpdateUser(context.Background(), map[string]interface{}{"role": "admin"}, uuid.New(), "")
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Nil(t, repo.updated)

	_, err = svc.UpdateUser(context.Background(), map[string]interface{}{"fullname": "Dana"}, uuid.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "Dana", repo.updated["fullname"])
}

func TestAuthenticateUserWrapsUnauthorized(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{})
	_, err := svc.AuthenticateUser(context.Background(), "a@example.com", "Sourdough1!")
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = svc.AuthenticateUser(context.Background(), "not-an-email", "Sourdough1!")
	assert.ErrorIs(t, err, models.ErrValidation)
}
