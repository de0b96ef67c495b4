package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/helpers"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/services"
)

type createBookingBody struct {
	PackageID     uuid.UUID `json:"packageId"`
	BrandName     string    `json:"brandName"`
	Brief         string    `json:"brief"`
	ReferenceURLs []string  `json:"referenceUrls"`
	Deadline      string    `json:"deadline"`
}

// parseDeadline accepts a calendar date or an RFC 3339 timestamp.
func parseDeadline(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, models.Validationf("deadline must be a date (YYYY-MM-DD)")
}

func CreateBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body createBookingBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid request payload")
			return
		}
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		deadline, err := parseDeadline(body.Deadline)
		if err != nil {
			respondError(c, err)
			return
		}

		booking, err := bs.CreateBooking(c.Request.Context(), actor, &services.CreateBookingRequest{
			PackageID:     body.PackageID,
			BrandName:     body.BrandName,
			Brief:         body.Brief,
			ReferenceURLs: body.ReferenceURLs,
			Deadline:      deadline,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(booking, "Booking request received"))
	}
}

func ListMyBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		bookings, err := bs.ListUserBookings(c.Request.Context(), actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(bookings, len(bookings)))
	}
}

// GetBooking serves both the owner route and the admin route; the service
// decides access.
func GetBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		booking, err := bs.GetBooking(c.Request.Context(), actor, bookingID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(booking, ""))
	}
}

func ListBookingMessages(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		msgs, err := bs.ListMessages(c.Request.Context(), actor, bookingID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(msgs, len(msgs)))
	}
}

func PostBookingMessage(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		var body struct {
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid request payload")
			return
		}
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		msg, err := bs.AddMessage(c.Request.Context(), actor, bookingID, body.Message)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(msg, ""))
	}
}

func ListAllBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := bs.ListAllBookings(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.ListResponse(bookings, len(bookings)))
	}
}

// UpdateBookingStatus is the admin transition endpoint: {status}.
func UpdateBookingStatus(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		var body struct {
			Status models.BookingStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "status is required")
			return
		}
		booking, err := bs.UpdateStatus(c.Request.Context(), bookingID, body.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(booking, "Booking status updated"))
	}
}

func SetBookingDeliverable(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookingID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		var body struct {
			URL string `json:"url"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, "invalid request payload")
			return
		}
		booking, err := bs.SetDeliverable(c.Request.Context(), bookingID, body.URL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(booking, "Deliverable saved"))
	}
}
