package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/helpers"
	"github.com/malakmiqdad/storefront/internal/models"
)

type UserService struct {
	userRepo models.UserRepo
}

func NewUserService(userRepo models.UserRepo) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

func (us *UserService) CreateUser(ctx context.Context, user *models.User) (interface{}, error) {
	user.Email = strings.TrimSpace(strings.ToLower(user.Email))
	if err := models.Validate.Struct(user); err != nil {
		return nil, models.Validationf("%v", err)
	}

	if !helpers.IsPasswordStrong(user.Password) {
		return nil, models.Validationf("password is not strong enough")
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Role = models.RoleCustomer

	res, err := us.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return res, nil
}

func (us *UserService) AuthenticateUser(ctx context.Context, email, password string) (interface{}, error) {
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, models.Validationf("invalid email format")
	}
	if err := models.Validate.Var(password, "required,min=8"); err != nil {
		return nil, models.Validationf("invalid password format")
	}
	response, err := us.userRepo.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed: %v", models.ErrUnauthorized, err)
	}

	return response, nil
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (interface{}, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", models.ErrUnauthorized)
	}
	response, err := us.userRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: token refresh failed: %v", models.ErrUnauthorized, err)
	}
	return response, nil
}

// GetUser reads a profile. An empty access token reads with the service
// role, which is how other services look up purchasers and booking owners.
func (us *UserService) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	res, err := us.userRepo.GetUser(ctx, id, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return res, nil
}

func (us *UserService) UpdateUser(ctx context.Context, user map[string]interface{}, userid uuid.UUID, accessToken string) (*models.User, error) {
	for field := range user {
		if !models.ProfileFieldUpdatable(field) {
			return nil, models.Validationf("field %q cannot be updated", field)
		}
	}
	if name, ok := user["fullname"].(string); ok {
		if err := models.Validate.Var(name, "max=120"); err != nil {
			return nil, models.Validationf("fullname is too long")
		}
	}

	user["updated_at"] = time.Now()

	updatedUser, err := us.userRepo.UpdateUser(ctx, user, userid, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return updatedUser, nil
}

func (us *UserService) DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error {
	err := us.userRepo.DeleteUser(ctx, id, accessToken)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
