package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// TokenVerifier checks Supabase access tokens. Asymmetric tokens are
// verified against the project JWKS, legacy HS256 tokens against the
// project JWT secret. Unverified tokens are never accepted.
type TokenVerifier struct {
	jwks   *keyfunc.JWKS
	secret []byte
}

func NewTokenVerifier(ctx context.Context, supabaseURL, jwtSecret string, logger *slog.Logger) (*TokenVerifier, error) {
	v := &TokenVerifier{}
	if jwtSecret != "" {
		v.secret = []byte(jwtSecret)
	}

	if supabaseURL != "" {
		jwksURL := fmt.Sprintf("%s/auth/v1/.well-known/jwks.json", strings.TrimRight(supabaseURL, "/"))
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				logger.Warn("JWKS refresh failed", "error", err)
			},
		})
		if err != nil {
			if v.secret == nil {
				return nil, fmt.Errorf("load JWKS from %s: %w", jwksURL, err)
			}
			logger.Warn("JWKS unavailable, verifying with the JWT secret only", "error", err)
		} else {
			v.jwks = jwks
		}
	}

	if v.jwks == nil && v.secret == nil {
		return nil, errors.New("token verification needs SUPABASE_URL or SUPABASE_JWT_SECRET")
	}
	return v, nil
}

func (v *TokenVerifier) keyFor(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if v.secret == nil {
			return nil, errors.New("HS256 tokens are not accepted")
		}
		return v.secret, nil
	}
	if v.jwks == nil {
		return nil, errors.New("no signing keys loaded")
	}
	return v.jwks.Keyfunc(token)
}

// Verify parses tokenStr and returns its claims when the signature and
// expiry check out.
func (v *TokenVerifier) Verify(tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, v.keyFor,
		jwt.WithValidMethods([]string{"RS256", "ES256", "HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (v *TokenVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
