package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/malakmiqdad/storefront/internal/helpers"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/services"
	"github.com/supabase-community/gotrue-go/types"
)

func CreateUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := c.ShouldBindJSON(&user); err != nil {
			badRequest(c, err.Error())
			return
		}

		createdUser, err := u.CreateUser(c.Request.Context(), &user)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(createdUser, "Account created"))
	}
}

func AuthenticateUser(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload")
			return
		}

		authResponse, err := u.AuthenticateUser(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.ErrorResponse("invalid email or password"))
			return
		}

		tokenRes, ok := authResponse.(*types.TokenResponse)
		if !ok || tokenRes.AccessToken == "" {
			respondError(c, models.Upstream("login", errInvalidTokenResponse))
			return
		}
		helpers.SetAuthCookies(c, tokenRes.AccessToken, tokenRes.ExpiresIn, tokenRes.RefreshToken, secureCookies)

		// tokens stay in the cookies
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"user": tokenRes.User}, "Logged in"))
	}
}

func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		helpers.ClearAuthCookies(c, secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Logged out successfully"))
	}
}

// Profile returns the caller as seen by the auth middleware.
func Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := helpers.ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{
			"user_id":  claims.UserID,
			"email":    claims.Email,
			"role":     claims.GetSafeRole(),
			"username": claims.Username,
			"fullname": claims.Fullname,
			"is_admin": claims.IsAdmin(),
		}, ""))
	}
}
