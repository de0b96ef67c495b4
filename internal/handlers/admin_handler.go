package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/malakmiqdad/storefront/internal/helpers"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/services"
)

func AdminStats(as *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		dashboard, err := as.Dashboard(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(dashboard, ""))
	}
}

func SubmitContact(cs *services.ContactService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var contact models.Contact
		if err := c.ShouldBindJSON(&contact); err != nil {
			badRequest(c, "invalid request payload")
			return
		}
		if _, err := cs.Submit(c.Request.Context(), &contact); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(nil, "Message sent"))
	}
}

func ListContacts(cs *services.ContactService) gin.HandlerFunc {
	return func(c *gin.Context) {
		contacts, err := cs.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(contacts, len(contacts)))
	}
}

func MarkContact(cs *services.ContactService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		var body struct {
			IsRead *bool `json:"isRead"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.IsRead == nil {
			badRequest(c, "isRead is required")
			return
		}
		if err := cs.MarkRead(c.Request.Context(), id, *body.IsRead); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Contact updated"))
	}
}

func TrackPageView(as *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Path string `json:"path"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid request payload")
			return
		}
		counter, err := as.TrackPageView(c.Request.Context(), body.Path, "")
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"path": counter.Path, "count": counter.Count}, ""))
	}
}

func TopPages(as *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if err != nil {
			badRequest(c, "invalid limit parameter")
			return
		}
		pages, err := as.TopPages(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(pages, len(pages)))
	}
}
