package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/malakmiqdad/storefront/internal/helpers"
	"github.com/malakmiqdad/storefront/internal/services"
)

func ListMyOrders(o *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		orders, err := o.ListUserOrders(c.Request.Context(), actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(orders, len(orders)))
	}
}

func ListAllOrders(o *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := o.ListAllOrders(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(orders, len(orders)))
	}
}

// Download answers {url} with a short-lived link to the purchased file.
func Download(o *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := uuidParam(c, "orderId")
		if !ok {
			return
		}
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		url, err := o.DownloadURL(c.Request.Context(), actor, orderID)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(helpers.StatusFromError(err), gin.H{"error": helpers.PublicMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}
