package helpers

import (
	"github.com/gin-gonic/gin"
	"github.com/malakmiqdad/storefront/internal/models"
)

const (
	ClaimsKey      = "user"
	AccessTokenKey = "access_token"
)

// EnhancedClaims is the verified token joined with the caller's profile.
// Role always comes from the profile, never from the token.
type EnhancedClaims struct {
	*CustomClaims
	Role      string `json:"role"`
	UserID    string `json:"id"`
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	Fullname  string `json:"fullname,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (ec *EnhancedClaims) IsAdmin() bool {
	return ec.Role == models.RoleAdmin
}

func (ec *EnhancedClaims) GetSafeRole() string {
	if ec.Role == "" {
		return "guest"
	}
	return ec.Role
}

// ClaimsFrom returns the claims AuthMiddleware stored on the request.
func ClaimsFrom(c *gin.Context) (*EnhancedClaims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*EnhancedClaims)
	return claims, ok && claims != nil
}
