package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending        BookingStatus = "pending"
	BookingAccepted       BookingStatus = "accepted"
	BookingPaymentPending BookingStatus = "payment_pending"
	BookingInProgress     BookingStatus = "in_progress"
	BookingRevision       BookingStatus = "revision"
	BookingCompleted      BookingStatus = "completed"
	BookingCancelled      BookingStatus = "cancelled"
)

// bookingTransitions is the complete lifecycle table; a status with no
// entries is terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:        {BookingAccepted, BookingCancelled},
	BookingAccepted:       {BookingPaymentPending, BookingInProgress, BookingCancelled},
	BookingPaymentPending: {BookingInProgress, BookingCancelled},
	BookingInProgress:     {BookingRevision, BookingCompleted, BookingCancelled},
	BookingRevision:       {BookingInProgress, BookingCompleted},
	BookingCompleted:      {},
	BookingCancelled:      {},
}

// ActiveBookingStatuses lists every non-terminal status.
var ActiveBookingStatuses = []BookingStatus{
	BookingPending,
	BookingAccepted,
	BookingPaymentPending,
	BookingInProgress,
	BookingRevision,
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) IsTerminal() bool {
	return s.Valid() && len(bookingTransitions[s]) == 0
}

func AllowedTransitions(from BookingStatus) []BookingStatus {
	next := bookingTransitions[from]
	out := make([]BookingStatus, len(next))
	copy(out, next)
	return out
}

func CanTransition(from, to BookingStatus) bool {
	for _, s := range bookingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a *TransitionError when to is not reachable from from.
func ValidateTransition(from, to BookingStatus) error {
	if !to.Valid() {
		return Validationf("unknown booking status %q", to)
	}
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

type ServiceBooking struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	UserID          uuid.UUID       `db:"user_id" json:"user_id"`
	PackageID       uuid.UUID       `db:"package_id" json:"package_id"`
	Status          BookingStatus   `db:"status" json:"status"`
	BrandName       string          `db:"brand_name" json:"brand_name,omitempty"`
	Brief           string          `db:"brief" json:"brief"`
	ReferenceURLs   []string        `db:"reference_urls" json:"reference_urls"`
	Deadline        *time.Time      `db:"deadline" json:"deadline,omitempty"`
	Amount          int64           `db:"amount" json:"amount"`
	Currency        string          `db:"currency" json:"currency"`
	StripeSessionID string          `db:"stripe_session_id" json:"stripe_session_id,omitempty"`
	DeliverableURL  string          `db:"deliverable_url" json:"deliverable_url,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
	Package         *ServicePackage `json:"service_packages,omitempty"`
	Profile         *User           `json:"profiles,omitempty"`
}

type BookingMessage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BookingID uuid.UUID `db:"booking_id" json:"booking_id"`
	SenderID  uuid.UUID `db:"sender_id" json:"sender_id"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type BookingRepo interface {
	CreateBooking(ctx context.Context, booking *ServiceBooking) (*ServiceBooking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*ServiceBooking, error)
	ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]*ServiceBooking, error)
	ListBookings(ctx context.Context, limit int) ([]*ServiceBooking, error)
	// UpdateBookingStatus only writes when the row is still in from; it
	// returns ErrConflict otherwise.
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus) (*ServiceBooking, error)
	SetBookingSession(ctx context.Context, id uuid.UUID, sessionID string) error
	// MarkBookingPaid moves a payment_pending booking to in_progress. The
	// boolean is false when the booking was not awaiting payment.
	MarkBookingPaid(ctx context.Context, id uuid.UUID, sessionID string) (*ServiceBooking, bool, error)
	SetDeliverable(ctx context.Context, id uuid.UUID, url string) (*ServiceBooking, error)
	CountBookingsByStatus(ctx context.Context, statuses []BookingStatus) (int, error)
	AddMessage(ctx context.Context, msg *BookingMessage) (*BookingMessage, error)
	ListMessages(ctx context.Context, bookingID uuid.UUID) ([]*BookingMessage, error)
}
