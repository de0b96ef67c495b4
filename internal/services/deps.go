package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/payments"
)

const (
	adminListLimit    = 100
	recentLimit       = 5
	emailLinkTTL      = 24 * time.Hour
	downloadLinkTTL   = time.Hour
	maxMessageLength  = 5000
	minBriefLength    = 20
	maxCartQuantity   = 99
	defaultCurrency   = "usd"
	defaultPackageTag = "Design Service"
)

// Deduper claims provider event ids so duplicate deliveries can be skipped.
type Deduper interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

type ProfileReader interface {
	GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error)
}

// PaymentLinker creates the hosted payment page for a booking awaiting payment.
type PaymentLinker interface {
	CreateBookingPaymentSession(ctx context.Context, userID, bookingID uuid.UUID) (*payments.CheckoutSession, error)
}

// Links builds the customer-facing URLs placed in sessions and e-mails.
type Links struct {
	AppURL string
}

func (l Links) base() string {
	return strings.TrimRight(l.AppURL, "/")
}

func (l Links) CheckoutSuccess() string {
	return l.base() + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"
}

func (l Links) CheckoutCancel() string {
	return l.base() + "/checkout/cancel"
}

func (l Links) BookingPayment(id uuid.UUID, outcome string) string {
	return fmt.Sprintf("%s/account/bookings/%s?payment=%s", l.base(), id, outcome)
}

func (l Links) Purchases() string {
	return l.base() + "/account/purchases"
}

func (l Links) AdminBookings() string {
	return l.base() + "/admin/bookings"
}
