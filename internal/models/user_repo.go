package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

const (
	ProfileTable   = "profiles"
	profileColumns = "id,email,username,fullname,role,is_verified,avatar_url,created_at,updated_at"
)

// updatableProfileFields lists the profile columns a user may change on
// their own record; role is admin-managed.
var updatableProfileFields = map[string]bool{
	"username":   true,
	"fullname":   true,
	"avatar_url": true,
}

// ProfileFieldUpdatable reports whether field may be changed through a
// profile update.
func ProfileFieldUpdatable(field string) bool {
	return updatableProfileFields[field]
}

type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (interface{}, error)
	AuthenticateUser(ctx context.Context, email, password string) (interface{}, error)
	RefreshToken(ctx context.Context, refreshToken string) (interface{}, error)
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error)
	UpdateUser(ctx context.Context, user map[string]interface{}, userid uuid.UUID, accessToken string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error
}

func ConvertToUser(raw map[string]interface{}) (*User, error) {
	userBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw user: %v", err)
	}

	user := &User{}
	if err := json.Unmarshal(userBytes, user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to user struct: %v", err)
	}

	return user, nil
}

func (su *SupabaseRepo) CreateUser(ctx context.Context, user *User) (interface{}, error) {
	signed := types.SignupRequest{
		Email:    user.Email,
		Password: user.Password,
		Data: map[string]interface{}{
			"username": user.Username,
			"fullname": user.FullName,
		},
	}

	res, err := su.supabaseClient.Auth.Signup(signed)
	if err != nil {
		return nil, signupError(err)
	}
	return res, nil
}

// signupError classifies an auth provider failure. Rejections the caller can
// fix are validation or conflict errors; anything else is an upstream failure.
func signupError(err error) error {
	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "already registered"):
		return fmt.Errorf("%w: email already in use", ErrConflict)
	case strings.Contains(errMsg, "unique constraint"):
		return fmt.Errorf("%w: user already exists", ErrConflict)
	case strings.Contains(errMsg, "null value in column"):
		if strings.Contains(errMsg, "username") {
			return Validationf("username is required")
		}
		return Validationf("required field is missing")
	case strings.Contains(errMsg, "invalid input syntax"):
		return Validationf("invalid input format")
	}
	return Upstream("signup", err)
}

func (su *SupabaseRepo) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}

	stringedId := id.String()

	// Use authenticated client if token is provided
	client := su.supabaseClient
	if accessToken != "" {
		authClient, err := su.GetAuthenticatedClient(accessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create authenticated client: %v", err)
		}
		client = authClient
	}

	raw, status, err := execute(ctx, client.From(ProfileTable).
		Select(profileColumns, "", false).
		Eq("id", stringedId))
	if err != nil {
		// include response status and body when available so caller can distinguish
		if status != 0 {
			return nil, fmt.Errorf("postgrest error: status=%d body=%s err=%v", status, string(raw), err)
		}
		return nil, Upstream("get user", err)
	}

	// Supabase returns an array even for single results
	var users []User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user rows: %v", err)
	}

	if len(users) == 0 {
		return nil, NotFoundf("user not found")
	}

	if len(users) > 1 {
		return nil, fmt.Errorf("multiple users found for ID %s", stringedId)
	}

	return &users[0], nil
}

func (su *SupabaseRepo) UpdateUser(ctx context.Context, user map[string]interface{}, userid uuid.UUID, accessToken string) (*User, error) {

	if userid == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}

	changed := 0
	for field := range user {
		if field == "updated_at" {
			continue
		}
		if !updatableProfileFields[field] {
			return nil, Validationf("field %q cannot be updated", field)
		}
		changed++
	}
	if changed == 0 {
		return nil, Validationf("no fields to update")
	}

	client := su.supabaseClient

	if accessToken != "" {
		authClient, err := su.GetAuthenticatedClient(accessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create authenticated client: %v", err)
		}
		client = authClient
	}

	raw, count, err := execute(ctx, client.From(ProfileTable).
		Update(user, "representation", "exact").
		Eq("id", userid.String()))
	if err != nil {
		return nil, Upstream("update user", err)
	}

	if count == 0 {
		return nil, NotFoundf("no user found to update")
	}

	var rawUsers []map[string]interface{}
	if err := json.Unmarshal(raw, &rawUsers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated user: %v", err)
	}

	if len(rawUsers) == 0 {
		return nil, fmt.Errorf("no user data returned after update")
	}

	updatedUser, err := ConvertToUser(rawUsers[0])
	if err != nil {
		return nil, fmt.Errorf("failed to convert updated user data: %v", err)
	}

	return updatedUser, nil
}

func (su *SupabaseRepo) DeleteUser(ctx context.Context, id uuid.UUID, accessToken string) error {
	if id == uuid.Nil {
		return fmt.Errorf("no valid UUID provided")
	}
	client := su.supabaseClient
	if accessToken != "" {
		authClient, err := su.GetAuthenticatedClient(accessToken)
		if err != nil {
			return fmt.Errorf("failed to create authenticated client: %v", err)
		}
		client = authClient
	}

	raw, count, err := execute(ctx, client.From(ProfileTable).Delete("representation", "exact").Eq("id", id.String()))

	if err != nil {
		return Upstream("delete user", err)
	}

	if count == 0 {
		return NotFoundf("no user found to delete")
	}

	var rawUsers []map[string]interface{}
	if err := json.Unmarshal(raw, &rawUsers); err != nil {
		return fmt.Errorf("failed to unmarshal deleted user data: %v", err)
	}

	if len(rawUsers) == 0 {
		return fmt.Errorf("no user data returned after deletion")
	}

	// Optionally, convert and return the deleted user data if needed
	return nil
}

func (su *SupabaseRepo) AuthenticateUser(ctx context.Context, email, password string) (interface{}, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %v", err)
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (interface{}, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %v", err)
	}
	return resp, nil
}
