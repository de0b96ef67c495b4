package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/events"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/notify"
	"github.com/malakmiqdad/storefront/internal/payments"
	"github.com/malakmiqdad/storefront/internal/telemetry"
)

// Webhook outcomes, also used as the metric label.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeNoop      = "noop"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
)

// BookingPayments settles a paid booking.
type BookingPayments interface {
	MarkPaid(ctx context.Context, bookingID uuid.UUID, sessionID string) (bool, error)
}

type WebhookService struct {
	gateway       payments.Gateway
	orderRepo     models.OrderRepo
	catalogRepo   models.CatalogRepo
	files         models.FileStore
	analyticsRepo models.AnalyticsRepo
	profiles      ProfileReader
	bookings      BookingPayments
	notifier      notify.Notifier
	publisher     events.Publisher
	dedup         Deduper
	links         Links
	metrics       *telemetry.Metrics
	logger        *slog.Logger
}

type WebhookDeps struct {
	Gateway   payments.Gateway
	Orders    models.OrderRepo
	Catalog   models.CatalogRepo
	Files     models.FileStore
	Analytics models.AnalyticsRepo
	Profiles  ProfileReader
	Bookings  BookingPayments
	Notifier  notify.Notifier
	Publisher events.Publisher
	Dedup     Deduper
	Links     Links
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

func NewWebhookService(d WebhookDeps) *WebhookService {
	return &WebhookService{
		gateway:       d.Gateway,
		orderRepo:     d.Orders,
		catalogRepo:   d.Catalog,
		files:         d.Files,
		analyticsRepo: d.Analytics,
		profiles:      d.Profiles,
		bookings:      d.Bookings,
		notifier:      d.Notifier,
		publisher:     d.Publisher,
		dedup:         d.Dedup,
		links:         d.Links,
		metrics:       d.Metrics,
		logger:        d.Logger,
	}
}

// Verify checks the signature and decodes the event. Any error means the
// delivery must be rejected.
func (ws *WebhookService) Verify(payload []byte, signature string) (*payments.Event, error) {
	ev, err := ws.gateway.ParseEvent(payload, signature)
	if err != nil {
		ws.logger.Warn("Webhook verification failed", "error", err)
		return nil, err
	}
	return ev, nil
}

// Handle applies a verified event. Status writes are conditional on the
// current status, so replays flip nothing and trigger no side effects.
func (ws *WebhookService) Handle(ctx context.Context, ev *payments.Event) (string, error) {
	if ev.Session == nil {
		ws.metrics.WebhookEvent(ctx, ev.Type, OutcomeIgnored)
		ws.logger.Debug("Ignoring webhook event", "event_id", ev.ID, "type", ev.Type)
		return OutcomeIgnored, nil
	}

	if ws.dedup != nil && ev.ID != "" {
		first, err := ws.dedup.FirstSeen(ctx, ev.ID)
		switch {
		case err != nil:
			ws.logger.Warn("Webhook dedup unavailable, relying on conditional writes", "event_id", ev.ID, "error", err)
		case !first:
			ws.metrics.WebhookEvent(ctx, ev.Type, OutcomeDuplicate)
			ws.logger.Info("Duplicate webhook delivery", "event_id", ev.ID, "type", ev.Type)
			return OutcomeDuplicate, nil
		}
	}

	outcome, err := ws.dispatch(ctx, ev)
	if err != nil {
		outcome = OutcomeFailed
		ws.release(ctx, ev.ID)
		ws.logger.Error("Webhook processing failed", "event_id", ev.ID, "type", ev.Type, "session_id", ev.Session.SessionID, "error", err)
	}
	ws.metrics.WebhookEvent(ctx, ev.Type, outcome)
	return outcome, err
}

// release drops the dedup claim so a retried delivery is processed again.
func (ws *WebhookService) release(ctx context.Context, eventID string) {
	if ws.dedup == nil || eventID == "" {
		return
	}
	if err := ws.dedup.Forget(ctx, eventID); err != nil {
		ws.logger.Warn("Failed to release webhook dedup key", "event_id", eventID, "error", err)
	}
}

func (ws *WebhookService) dispatch(ctx context.Context, ev *payments.Event) (string, error) {
	s := ev.Session
	switch ev.Type {
	case payments.EventCheckoutCompleted:
		switch s.Metadata[payments.MetaType] {
		case payments.TypeProduct, payments.TypeCart:
			return ws.completeOrders(ctx, s)
		case payments.TypeBooking:
			return ws.completeBooking(ctx, s)
		default:
			ws.logger.Info("Completed session without a known purchase type", "session_id", s.SessionID, "type", s.Metadata[payments.MetaType])
			return OutcomeIgnored, nil
		}
	case payments.EventCheckoutExpired:
		return ws.expireOrders(ctx, s)
	default:
		return OutcomeIgnored, nil
	}
}

func (ws *WebhookService) completeOrders(ctx context.Context, s *payments.SessionEvent) (string, error) {
	paid, err := ws.orderRepo.MarkOrdersPaid(ctx, s.SessionID, s.PaymentIntent)
	if err != nil {
		return "", fmt.Errorf("mark orders paid: %w", err)
	}
	if len(paid) == 0 {
		ws.logger.Info("No pending orders for session", "session_id", s.SessionID)
		return OutcomeNoop, nil
	}
	ws.logger.Info("Orders paid", "session_id", s.SessionID, "count", len(paid))

	email := ws.purchaserEmail(ctx, s.Metadata[payments.MetaUserID], paid[0].UserID)
	for _, order := range paid {
		ws.metrics.OrderPaid(ctx, order.Currency, order.Amount)
		ws.publishOrderPaid(ctx, order, s)

		product := ws.orderProduct(ctx, order)
		msg := notify.OrderConfirmation{
			To:           email,
			PurchasesURL: ws.links.Purchases(),
		}
		if product != nil {
			msg.ProductTitle = product.Title
			if product.HasFile() {
				msg.DownloadURL = ws.downloadLink(ctx, order, product)
			}
		}
		ws.notifier.SendOrderConfirmation(ctx, msg)
	}

	ws.recordSale(ctx, s, paid)
	return OutcomeProcessed, nil
}

func (ws *WebhookService) orderProduct(ctx context.Context, order *models.Order) *models.Product {
	if order.Product != nil {
		return order.Product
	}
	product, err := ws.catalogRepo.GetProduct(ctx, order.ProductID)
	if err != nil {
		ws.logger.Warn("Could not load product for confirmation", "order_id", order.ID, "product_id", order.ProductID, "error", err)
		return nil
	}
	return product
}

// downloadLink falls back to the purchases page when signing fails.
func (ws *WebhookService) downloadLink(ctx context.Context, order *models.Order, product *models.Product) string {
	link, err := ws.files.SignedURL(ctx, product.FileURL, emailLinkTTL)
	if err != nil {
		ws.logger.Warn("Could not sign download link", "order_id", order.ID, "error", err)
		return ""
	}
	return link
}

func (ws *WebhookService) purchaserEmail(ctx context.Context, metaUserID string, fallback uuid.UUID) string {
	userID, err := uuid.Parse(metaUserID)
	if err != nil {
		userID = fallback
	}
	if ws.profiles == nil {
		return ""
	}
	profile, err := ws.profiles.GetUser(ctx, userID, "")
	if err != nil {
		ws.logger.Warn("Could not load purchaser profile", "user_id", userID, "error", err)
		return ""
	}
	return profile.Email
}

func (ws *WebhookService) publishOrderPaid(ctx context.Context, order *models.Order, s *payments.SessionEvent) {
	if ws.publisher == nil {
		return
	}
	env, err := events.NewEnvelope(events.TypeOrderPaid, order.ID.String(), events.OrderPaidPayload{
		OrderID:       order.ID.String(),
		UserID:        order.UserID.String(),
		ProductID:     order.ProductID.String(),
		Quantity:      order.Quantity,
		Amount:        order.Amount,
		Currency:      order.Currency,
		SessionID:     s.SessionID,
		PaymentIntent: s.PaymentIntent,
	})
	if err == nil {
		err = ws.publisher.Publish(ctx, env)
	}
	if err != nil {
		ws.logger.Warn("Failed to publish order event", "order_id", order.ID, "error", err)
	}
}

func (ws *WebhookService) recordSale(ctx context.Context, s *payments.SessionEvent, paid []*models.Order) {
	if ws.analyticsRepo == nil {
		return
	}
	var total int64
	for _, o := range paid {
		total += o.Amount
	}
	err := ws.analyticsRepo.RecordEvent(ctx, &models.AnalyticsEvent{
		Event:  models.EventSale,
		Path:   "/sales",
		UserID: paid[0].UserID.String(),
		Metadata: map[string]string{
			"session_id": s.SessionID,
			"orders":     fmt.Sprint(len(paid)),
			"amount":     fmt.Sprint(total),
		},
	})
	if err != nil {
		ws.logger.Warn("Failed to record sale", "session_id", s.SessionID, "error", err)
	}
}

func (ws *WebhookService) completeBooking(ctx context.Context, s *payments.SessionEvent) (string, error) {
	bookingID, err := uuid.Parse(s.Metadata[payments.MetaBookingID])
	if err != nil {
		ws.logger.Warn("Booking payment without a valid booking id", "session_id", s.SessionID)
		return OutcomeIgnored, nil
	}
	changed, err := ws.bookings.MarkPaid(ctx, bookingID, s.SessionID)
	if err != nil {
		return "", fmt.Errorf("mark booking paid: %w", err)
	}
	if !changed {
		ws.logger.Info("Booking not awaiting payment, skipping", "booking_id", bookingID, "session_id", s.SessionID)
		return OutcomeNoop, nil
	}
	ws.logger.Info("Booking paid", "booking_id", bookingID, "session_id", s.SessionID)
	return OutcomeProcessed, nil
}

func (ws *WebhookService) expireOrders(ctx context.Context, s *payments.SessionEvent) (string, error) {
	failed, err := ws.orderRepo.MarkOrdersFailed(ctx, s.SessionID)
	if err != nil {
		return "", fmt.Errorf("mark orders failed: %w", err)
	}
	if len(failed) == 0 {
		return OutcomeNoop, nil
	}
	ws.logger.Info("Expired checkout orders failed", "session_id", s.SessionID, "count", len(failed))
	return OutcomeProcessed, nil
}
