package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	OrdersTable          = "orders"
	ServiceBookingsTable = "service_bookings"
	BookingMessagesTable = "booking_messages"
	ContactsTable        = "contacts"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderPaid     OrderStatus = "paid"
	OrderFailed   OrderStatus = "failed"
	OrderRefunded OrderStatus = "refunded"
)

type Order struct {
	ID                  uuid.UUID   `db:"id" json:"id"`
	UserID              uuid.UUID   `db:"user_id" json:"user_id"`
	ProductID           uuid.UUID   `db:"product_id" json:"product_id"`
	Quantity            int         `db:"quantity" json:"quantity"`
	Amount              int64       `db:"amount" json:"amount"`
	Currency            string      `db:"currency" json:"currency"`
	Status              OrderStatus `db:"status" json:"status"`
	StripeSessionID     string      `db:"stripe_session_id" json:"stripe_session_id"`
	StripePaymentIntent string      `db:"stripe_payment_intent" json:"stripe_payment_intent,omitempty"`
	DownloadCount       int         `db:"download_count" json:"download_count"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updated_at"`
	Product             *Product    `json:"products,omitempty"`
	Profile             *User       `json:"profiles,omitempty"`
}

type OrderRepo interface {
	CreateOrders(ctx context.Context, orders []*Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error)
	ListOrders(ctx context.Context, limit int) ([]*Order, error)
	// MarkOrdersPaid flips pending orders of a session to paid and returns
	// only the rows changed by this call.
	MarkOrdersPaid(ctx context.Context, sessionID, paymentIntent string) ([]*Order, error)
	// MarkOrdersFailed flips pending orders of a session to failed.
	MarkOrdersFailed(ctx context.Context, sessionID string) ([]*Order, error)
	IncrementDownloadCount(ctx context.Context, id uuid.UUID, current int) error
	PaidOrderAmounts(ctx context.Context) ([]int64, error)
}

type Contact struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,min=2,max=120"`
	Email     string    `db:"email" json:"email" validate:"required,email"`
	Message   string    `db:"message" json:"message" validate:"required,min=10,max=5000"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ContactRepo interface {
	CreateContact(ctx context.Context, contact *Contact) (*Contact, error)
	ListContacts(ctx context.Context, limit int) ([]*Contact, error)
	SetContactRead(ctx context.Context, id uuid.UUID, read bool) error
	CountUnreadContacts(ctx context.Context) (int, error)
}

// FileStore issues time-limited links to private product files.
type FileStore interface {
	SignedURL(ctx context.Context, path string, expiresIn time.Duration) (string, error)
}
