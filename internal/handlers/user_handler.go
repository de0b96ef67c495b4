package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/malakmiqdad/storefront/internal/helpers"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/services"
)

var errInvalidTokenResponse = errors.New("invalid token response")

func GetUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		// user can access their own data or admin can access any
		if !actor.CanAccess(userID) {
			respondError(c, models.ErrForbidden)
			return
		}

		user, err := u.GetUser(c.Request.Context(), userID, c.GetString(helpers.AccessTokenKey))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(user, ""))
	}
}

func UpdateUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		var fields map[string]interface{}
		if err := c.ShouldBindJSON(&fields); err != nil {
			badRequest(c, err.Error())
			return
		}
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		if !actor.CanAccess(userID) {
			respondError(c, models.ErrForbidden)
			return
		}

		data, err := u.UpdateUser(c.Request.Context(), fields, userID, c.GetString(helpers.AccessTokenKey))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(data, "Profile updated"))
	}
}

func DeleteUser(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		if !actor.Admin {
			c.AbortWithStatusJSON(http.StatusForbidden, helpers.ErrorResponse("only admins can delete users"))
			return
		}

		if err := u.DeleteUser(c.Request.Context(), userID, c.GetString(helpers.AccessTokenKey)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "user deleted successfully"))
	}
}
