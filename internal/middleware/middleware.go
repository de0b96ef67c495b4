package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/helpers"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

const RequestIDKey = "request_id"

// RequestID middleware adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// StructuredLogger provides structured logging middleware
func StructuredLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		requestID, _ := c.Get(RequestIDKey)

		logger.Info("HTTP Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// ErrorHandler logs errors attached with c.Error and answers for handlers
// that aborted without writing a body. Server-side details never reach the
// caller.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		requestID, _ := c.Get(RequestIDKey)
		status := helpers.StatusFromError(err)

		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "Request error",
			"request_id", requestID,
			"error", err.Error(),
			"status", status,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		if !c.Writer.Written() {
			c.JSON(status, gin.H{
				"success":    false,
				"error":      helpers.PublicMessage(err),
				"request_id": requestID,
			})
		}
	}
}

// Timeout bounds the request context so slow upstream calls give up.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type TokenVerifier interface {
	Verify(tokenStr string) (*helpers.CustomClaims, error)
}

// SessionStore loads the caller's profile and renews expired sessions.
type SessionStore interface {
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (interface{}, error)
}

func unauthorized(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.ErrorResponse(reason))
}

// bearerToken prefers the Authorization header and falls back to the cookie.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	token, _ := c.Cookie(helpers.AccessTokenCookie)
	return token
}

func AuthMiddleware(verifier TokenVerifier, sessions SessionStore, secureCookies bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)

		var claims *helpers.CustomClaims
		var err error
		if token != "" {
			claims, err = verifier.Verify(token)
		}
		if token == "" || err != nil {
			refreshToken, refreshErr := c.Cookie(helpers.RefreshTokenCookie)
			if refreshErr != nil || refreshToken == "" {
				unauthorized(c, "Unauthorized access")
				return
			}

			refreshResponse, refreshErr := sessions.RefreshToken(c.Request.Context(), refreshToken)
			if refreshErr != nil {
				logger.Info("Token refresh failed", "error", refreshErr)
				unauthorized(c, "Session expired")
				return
			}
			tokenRes, ok := refreshResponse.(*types.TokenResponse)
			if !ok || tokenRes.AccessToken == "" {
				unauthorized(c, "Invalid refresh response")
				return
			}
			helpers.SetAuthCookies(c, tokenRes.AccessToken, tokenRes.ExpiresIn, tokenRes.RefreshToken, secureCookies)
			logger.Info("Token refreshed", "user_id", tokenRes.User.ID, "expires_in", tokenRes.ExpiresIn)

			token = tokenRes.AccessToken
			if claims, err = verifier.Verify(token); err != nil {
				unauthorized(c, "Refreshed token validation failed")
				return
			}
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			logger.Warn("Invalid user ID in token", "subject", claims.Subject)
			unauthorized(c, "Unauthorized access")
			return
		}

		enhanced := &helpers.EnhancedClaims{
			CustomClaims: claims,
			UserID:       userID.String(),
			Email:        claims.Email,
		}
		profile, err := sessions.GetUser(c.Request.Context(), userID, token)
		if err != nil {
			logger.Info("Profile not found, using default role", "user_id", userID, "error", err)
		} else {
			enhanced.Role = profile.Role
			enhanced.Username = profile.Username
			enhanced.Fullname = profile.FullName
			enhanced.AvatarURL = profile.AvatarURL
			enhanced.CreatedAt = profile.CreatedAt.Format(time.RFC3339)
			if profile.Email != "" {
				enhanced.Email = profile.Email
			}
		}

		c.Set(helpers.ClaimsKey, enhanced)
		c.Set(helpers.AccessTokenKey, token)
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := helpers.ClaimsFrom(c)
		if !ok {
			unauthorized(c, "Unauthorized access")
			return
		}
		if !claims.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, helpers.ErrorResponse("Admin access required"))
			return
		}
		c.Next()
	}
}
