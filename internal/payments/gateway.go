// Package payments wraps the hosted checkout provider: session creation and
// verification of its signed webhook events.
package payments

import (
	"context"
	"errors"
)

const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// Session metadata keys and purchase types carried through the provider.
const (
	MetaType       = "type"
	MetaUserID     = "user_id"
	MetaProductID  = "product_id"
	MetaProductIDs = "product_ids"
	MetaBookingID  = "booking_id"

	TypeProduct = "product"
	TypeCart    = "cart"
	TypeBooking = "booking"
)

var ErrInvalidSignature = errors.New("webhook signature verification failed")

type LineItem struct {
	Name        string
	Description string
	Currency    string
	UnitAmount  int64
	Quantity    int64
	ImageURL    string
}

type CheckoutRequest struct {
	CustomerEmail string
	LineItems     []LineItem
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// Total is the amount the provider will charge for the request.
func (r *CheckoutRequest) Total() int64 {
	var total int64
	for _, li := range r.LineItems {
		total += li.UnitAmount * li.Quantity
	}
	return total
}

type CheckoutSession struct {
	ID          string
	URL         string
	AmountTotal int64
}

// SessionEvent is the subset of a checkout session the webhook consumer reads.
type SessionEvent struct {
	SessionID     string
	PaymentIntent string
	Metadata      map[string]string
}

type Event struct {
	ID      string
	Type    string
	Session *SessionEvent
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error)
	// ParseEvent verifies the signature header and decodes the event.
	ParseEvent(payload []byte, signature string) (*Event, error)
}
