package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/helpers"
	"github.com/malakmiqdad/storefront/internal/services"
)

// respondError writes the mapped status and attaches err for the error
// middleware to log.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(helpers.StatusFromError(err), helpers.ErrorResponse(helpers.PublicMessage(err)))
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, helpers.ErrorResponse(msg))
}

// actorFrom turns the verified claims into a service Actor.
func actorFrom(c *gin.Context) (services.Actor, bool) {
	claims, ok := helpers.ClaimsFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.ErrorResponse("unauthorized"))
		return services.Actor{}, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, helpers.ErrorResponse("invalid user ID in token"))
		return services.Actor{}, false
	}
	return services.Actor{
		UserID: userID,
		Email:  claims.Email,
		Name:   claims.Fullname,
		Admin:  claims.IsAdmin(),
	}, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func Health(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"service": service,
		})
	}
}
