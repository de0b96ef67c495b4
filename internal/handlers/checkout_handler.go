package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/helpers"
	"github.com/malakmiqdad/storefront/internal/payments"
	"github.com/malakmiqdad/storefront/internal/services"
)

// maxWebhookBody matches the provider's documented payload ceiling.
const maxWebhookBody = 65536

// checkoutRequest has no price fields; amounts always come from the catalog.
type checkoutRequest struct {
	ProductID uuid.UUID           `json:"productId"`
	UserID    *uuid.UUID          `json:"userId"`
	Items     []services.CartItem `json:"items"`
}

// CreateCheckoutSession starts a hosted checkout for one product or a cart
// and answers {url}.
func CreateCheckoutSession(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request payload")
			return
		}
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		if req.UserID != nil && *req.UserID != actor.UserID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user mismatch"})
			return
		}

		var (
			session *payments.CheckoutSession
			err     error
		)
		switch {
		case len(req.Items) > 0:
			session, err = cs.CreateCartSession(c.Request.Context(), actor.UserID, req.Items)
		case req.ProductID != uuid.Nil:
			session, err = cs.CreateProductSession(c.Request.Context(), actor.UserID, req.ProductID)
		default:
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing product or items"})
			return
		}
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(helpers.StatusFromError(err), gin.H{"error": helpers.PublicMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": session.URL})
	}
}

// PayBooking creates the hosted payment page for the caller's booking.
func PayBooking(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		session, err := cs.CreateBookingPaymentSession(c.Request.Context(), actor.UserID, bookingID)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(helpers.StatusFromError(err), gin.H{"error": helpers.PublicMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": session.URL})
	}
}

// StripeWebhook verifies and applies a provider event. Store outages answer
// 500 so the provider redelivers; every other verified outcome acknowledges,
// since a retry could not change it.
func StripeWebhook(ws *services.WebhookService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil || len(payload) > maxWebhookBody {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		ev, err := ws.Verify(payload, c.GetHeader(payments.SignatureHeader))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Webhook signature verification failed"})
			return
		}

		outcome, err := ws.Handle(c.Request.Context(), ev)
		c.Header("X-Webhook-Outcome", outcome)
		if services.Retryable(err) {
			logger.Error("Webhook failed, asking provider to retry", "event_id", ev.ID, "type", ev.Type, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
			return
		}
		if err != nil {
			logger.Error("Webhook acknowledged after failure", "event_id", ev.ID, "type", ev.Type, "error", err)
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
