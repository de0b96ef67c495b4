package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/notify"
	"github.com/malakmiqdad/storefront/internal/payments"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory catalog, order, booking and file store.
type memStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
	packages map[uuid.UUID]*models.ServicePackage
	orders   []*models.Order
	bookings map[uuid.UUID]*models.ServiceBooking
	messages []*models.BookingMessage

	// settleErr fails MarkOrdersPaid without touching any order.
	settleErr error
}

func newMemStore() *memStore {
	return &memStore{
		products: map[uuid.UUID]*models.Product{},
		packages: map[uuid.UUID]*models.ServicePackage{},
		bookings: map[uuid.UUID]*models.ServiceBooking{},
	}
}

func (m *memStore) ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, p := range m.products {
		if !activeOnly || p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) GetActiveProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok && p.IsActive {
		return p, nil
	}
	return nil, models.NotFoundf("product not found")
}

func (m *memStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, models.NotFoundf("product not found")
}

func (m *memStore) GetActiveProducts(ctx context.Context, ids []uuid.UUID) ([]*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[product.ID] = product
	return product, nil
}

func (m *memStore) UpdateProduct(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Product, error) {
	return m.GetProduct(ctx, id)
}

func (m *memStore) ListPackages(ctx context.Context) ([]*models.ServicePackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ServicePackage
	for _, p := range m.packages {
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) GetActivePackage(ctx context.Context, id uuid.UUID) (*models.ServicePackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.packages[id]; ok && p.IsActive {
		return p, nil
	}
	return nil, models.NotFoundf("service package not found")
}

func (m *memStore) CreateOrders(ctx context.Context, orders []*models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, orders...)
	return nil
}

func (m *memStore) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, models.NotFoundf("order not found")
}

func (m *memStore) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memStore) ListOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders, nil
}

func (m *memStore) settle(sessionID string, to models.OrderStatus) []*models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed []*models.Order
	for _, o := range m.orders {
		if o.StripeSessionID == sessionID && o.Status == models.OrderPending {
			o.Status = to
			changed = append(changed, o)
		}
	}
	return changed
}

func (m *memStore) MarkOrdersPaid(ctx context.Context, sessionID, paymentIntent string) ([]*models.Order, error) {
	m.mu.Lock()
	err := m.settleErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.settle(sessionID, models.OrderPaid), nil
}

func (m *memStore) MarkOrdersFailed(ctx context.Context, sessionID string) ([]*models.Order, error) {
	return m.settle(sessionID, models.OrderFailed), nil
}

func (m *memStore) IncrementDownloadCount(ctx context.Context, id uuid.UUID, current int) error {
	return nil
}

func (m *memStore) PaidOrderAmounts(ctx context.Context) ([]int64, error) {
	return nil, nil
}

func (m *memStore) CreateBooking(ctx context.Context, booking *models.ServiceBooking) (*models.ServiceBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
	return booking, nil
}

func (m *memStore) GetBooking(ctx context.Context, id uuid.UUID) (*models.ServiceBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, models.NotFoundf("booking not found")
}

func (m *memStore) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]*models.ServiceBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ServiceBooking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListBookings(ctx context.Context, limit int) ([]*models.ServiceBooking, error) {
	return m.ListBookingsByUser(ctx, uuid.Nil)
}

func (m *memStore) UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (*models.ServiceBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return nil, models.ErrConflict
	}
	b.Status = to
	cp := *b
	return &cp, nil
}

func (m *memStore) SetBookingSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[id].StripeSessionID = sessionID
	return nil
}

func (m *memStore) MarkBookingPaid(ctx context.Context, id uuid.UUID, sessionID string) (*models.ServiceBooking, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || b.Status != models.BookingPaymentPending {
		return nil, false, nil
	}
	b.Status = models.BookingInProgress
	cp := *b
	return &cp, true, nil
}

func (m *memStore) SetDeliverable(ctx context.Context, id uuid.UUID, url string) (*models.ServiceBooking, error) {
	return m.GetBooking(ctx, id)
}

func (m *memStore) CountBookingsByStatus(ctx context.Context, statuses []models.BookingStatus) (int, error) {
	return 0, nil
}

func (m *memStore) AddMessage(ctx context.Context, msg *models.BookingMessage) (*models.BookingMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *memStore) ListMessages(ctx context.Context, bookingID uuid.UUID) ([]*models.BookingMessage, error) {
	return nil, nil
}

func (m *memStore) SignedURL(ctx context.Context, path string, expiresIn time.Duration) (string, error) {
	return "https://files.test/sign/" + path, nil
}

// stubGateway creates sessions locally and delegates event parsing to a
// real gateway so signatures are checked for real.
type stubGateway struct {
	*payments.StripeGateway
	mu       sync.Mutex
	requests []*payments.CheckoutRequest
}

func (g *stubGateway) CreateCheckoutSession(ctx context.Context, req *payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	id := fmt.Sprintf("cs_test_%d", len(g.requests))
	return &payments.CheckoutSession{ID: id, URL: "https://checkout.test/" + id, AmountTotal: req.Total()}, nil
}

type countingNotifier struct {
	mu     sync.Mutex
	orders []notify.OrderConfirmation
}

func (n *countingNotifier) SendOrderConfirmation(ctx context.Context, msg notify.OrderConfirmation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, msg)
}

func (n *countingNotifier) SendBookingCreated(ctx context.Context, msg notify.BookingCreatedAlert) {}

func (n *countingNotifier) SendBookingStatusUpdate(ctx context.Context, msg notify.BookingStatusUpdate) {
}
