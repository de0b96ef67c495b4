package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/payments"
	"github.com/malakmiqdad/storefront/internal/telemetry"
)

// CartItem is one requested cart line. There is no price field: amounts
// always come from the catalog.
type CartItem struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type CheckoutService struct {
	catalogRepo models.CatalogRepo
	orderRepo   models.OrderRepo
	bookingRepo models.BookingRepo
	profiles    ProfileReader
	gateway     payments.Gateway
	links       Links
	metrics     *telemetry.Metrics
	logger      *slog.Logger
}

func NewCheckoutService(
	catalogRepo models.CatalogRepo,
	orderRepo models.OrderRepo,
	bookingRepo models.BookingRepo,
	profiles ProfileReader,
	gateway payments.Gateway,
	links Links,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		catalogRepo: catalogRepo,
		orderRepo:   orderRepo,
		bookingRepo: bookingRepo,
		profiles:    profiles,
		gateway:     gateway,
		links:       links,
		metrics:     metrics,
		logger:      logger,
	}
}

func (cs *CheckoutService) CreateProductSession(ctx context.Context, userID, productID uuid.UUID) (*payments.CheckoutSession, error) {
	if userID == uuid.Nil || productID == uuid.Nil {
		return nil, models.Validationf("missing product or user ID")
	}
	product, err := cs.catalogRepo.GetActiveProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	lines := []cartLine{{product: product, quantity: 1}}
	meta := map[string]string{
		payments.MetaType:      payments.TypeProduct,
		payments.MetaUserID:    userID.String(),
		payments.MetaProductID: productID.String(),
	}
	return cs.checkoutProducts(ctx, userID, payments.TypeProduct, lines, meta)
}

func (cs *CheckoutService) CreateCartSession(ctx context.Context, userID uuid.UUID, items []CartItem) (*payments.CheckoutSession, error) {
	if userID == uuid.Nil {
		return nil, models.Validationf("missing user ID")
	}
	merged, order, err := mergeCart(items)
	if err != nil {
		return nil, err
	}

	products, err := cs.catalogRepo.GetActiveProducts(ctx, order)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]cartLine, 0, len(order))
	ids := make([]string, 0, len(order))
	for _, id := range order {
		p, ok := byID[id]
		if !ok {
			cs.logger.Info("Dropping unavailable product from cart", "product_id", id, "user_id", userID)
			continue
		}
		lines = append(lines, cartLine{product: p, quantity: merged[id]})
		ids = append(ids, id.String())
	}
	if len(lines) == 0 {
		return nil, models.Validationf("no valid products found")
	}

	meta := map[string]string{
		payments.MetaType:       payments.TypeCart,
		payments.MetaUserID:     userID.String(),
		payments.MetaProductIDs: strings.Join(ids, ","),
	}
	return cs.checkoutProducts(ctx, userID, payments.TypeCart, lines, meta)
}

// mergeCart sums quantities of repeated product ids and keeps first-seen order.
func mergeCart(items []CartItem) (map[uuid.UUID]int, []uuid.UUID, error) {
	if len(items) == 0 {
		return nil, nil, models.Validationf("missing items")
	}
	merged := make(map[uuid.UUID]int, len(items))
	order := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it.ProductID == uuid.Nil {
			return nil, nil, models.Validationf("missing product ID")
		}
		if it.Quantity < 1 {
			return nil, nil, models.Validationf("quantity must be at least 1")
		}
		if _, seen := merged[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		merged[it.ProductID] += it.Quantity
		if merged[it.ProductID] > maxCartQuantity {
			return nil, nil, models.Validationf("quantity must be at most %d", maxCartQuantity)
		}
	}
	return merged, order, nil
}

type cartLine struct {
	product  *models.Product
	quantity int
}

func (cs *CheckoutService) checkoutProducts(ctx context.Context, userID uuid.UUID, purchaseType string, lines []cartLine, meta map[string]string) (*payments.CheckoutSession, error) {
	req := &payments.CheckoutRequest{
		CustomerEmail: cs.customerEmail(ctx, userID),
		Metadata:      meta,
		SuccessURL:    cs.links.CheckoutSuccess(),
		CancelURL:     cs.links.CheckoutCancel(),
	}
	for _, l := range lines {
		req.LineItems = append(req.LineItems, payments.LineItem{
			Name:        l.product.Title,
			Description: l.product.Description,
			Currency:    l.product.Currency,
			UnitAmount:  l.product.Price,
			Quantity:    int64(l.quantity),
			ImageURL:    l.product.CoverURL,
		})
	}

	session, err := cs.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, models.Upstream("create checkout session", err)
	}

	now := time.Now().UTC()
	orders := make([]*models.Order, 0, len(lines))
	for _, l := range lines {
		orders = append(orders, &models.Order{
			ID:              uuid.New(),
			UserID:          userID,
			ProductID:       l.product.ID,
			Quantity:        l.quantity,
			Amount:          l.product.Price * int64(l.quantity),
			Currency:        l.product.Currency,
			Status:          models.OrderPending,
			StripeSessionID: session.ID,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	// The session already exists; if the insert fails the customer could pay
	// with nothing to settle, so the caller gets an error and no URL.
	if err := cs.orderRepo.CreateOrders(ctx, orders); err != nil {
		cs.logger.Error("Failed to record pending orders", "session_id", session.ID, "user_id", userID, "error", err)
		return nil, err
	}

	cs.metrics.CheckoutSessionCreated(ctx, purchaseType)
	cs.logger.Info("Checkout session created",
		"session_id", session.ID,
		"type", purchaseType,
		"user_id", userID,
		"orders", len(orders),
	)
	return session, nil
}

func (cs *CheckoutService) CreateBookingPaymentSession(ctx context.Context, userID, bookingID uuid.UUID) (*payments.CheckoutSession, error) {
	if userID == uuid.Nil || bookingID == uuid.Nil {
		return nil, models.Validationf("booking ID required")
	}
	booking, err := cs.bookingRepo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID {
		return nil, models.NotFoundf("booking not found")
	}
	if booking.Status != models.BookingPaymentPending {
		return nil, models.Validationf("this booking is not awaiting payment")
	}

	title := defaultPackageTag
	if booking.Package != nil && booking.Package.Title != "" {
		title = booking.Package.Title
	}
	brand := booking.BrandName
	if brand == "" {
		brand = "your project"
	}
	currency := booking.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	email := ""
	if booking.Profile != nil {
		email = booking.Profile.Email
	}
	if email == "" {
		email = cs.customerEmail(ctx, userID)
	}

	session, err := cs.gateway.CreateCheckoutSession(ctx, &payments.CheckoutRequest{
		CustomerEmail: email,
		LineItems: []payments.LineItem{{
			Name:        title,
			Description: "Booking for " + brand,
			Currency:    currency,
			UnitAmount:  booking.Amount,
			Quantity:    1,
		}},
		Metadata: map[string]string{
			payments.MetaType:      payments.TypeBooking,
			payments.MetaBookingID: booking.ID.String(),
			payments.MetaUserID:    userID.String(),
		},
		SuccessURL: cs.links.BookingPayment(booking.ID, "success"),
		CancelURL:  cs.links.BookingPayment(booking.ID, "cancelled"),
	})
	if err != nil {
		return nil, models.Upstream("create booking payment session", err)
	}

	if err := cs.bookingRepo.SetBookingSession(ctx, booking.ID, session.ID); err != nil {
		cs.logger.Error("Failed to store booking session", "booking_id", booking.ID, "session_id", session.ID, "error", err)
		return nil, err
	}

	cs.metrics.CheckoutSessionCreated(ctx, payments.TypeBooking)
	cs.logger.Info("Booking payment session created", "booking_id", booking.ID, "session_id", session.ID)
	return session, nil
}

func (cs *CheckoutService) customerEmail(ctx context.Context, userID uuid.UUID) string {
	if cs.profiles == nil {
		return ""
	}
	profile, err := cs.profiles.GetUser(ctx, userID, "")
	if err != nil {
		cs.logger.Warn("Could not load customer profile for checkout", "user_id", userID, "error", err)
		return ""
	}
	return profile.Email
}
