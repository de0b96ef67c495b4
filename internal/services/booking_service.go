package services

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/events"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/notify"
	"github.com/malakmiqdad/storefront/internal/telemetry"
)

type CreateBookingRequest struct {
	PackageID     uuid.UUID  `json:"packageId" validate:"required"`
	BrandName     string     `json:"brandName" validate:"max=200"`
	Brief         string     `json:"brief" validate:"required"`
	ReferenceURLs []string   `json:"referenceUrls" validate:"max=10"`
	Deadline      *time.Time `json:"deadline"`
}

type BookingService struct {
	bookingRepo   models.BookingRepo
	catalogRepo   models.CatalogRepo
	analyticsRepo models.AnalyticsRepo
	profiles      ProfileReader
	payments      PaymentLinker
	notifier      notify.Notifier
	publisher     events.Publisher
	links         Links
	metrics       *telemetry.Metrics
	logger        *slog.Logger
}

func NewBookingService(
	bookingRepo models.BookingRepo,
	catalogRepo models.CatalogRepo,
	analyticsRepo models.AnalyticsRepo,
	profiles ProfileReader,
	paymentLinker PaymentLinker,
	notifier notify.Notifier,
	publisher events.Publisher,
	links Links,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo:   bookingRepo,
		catalogRepo:   catalogRepo,
		analyticsRepo: analyticsRepo,
		profiles:      profiles,
		payments:      paymentLinker,
		notifier:      notifier,
		publisher:     publisher,
		links:         links,
		metrics:       metrics,
		logger:        logger,
	}
}

func (bs *BookingService) CreateBooking(ctx context.Context, actor Actor, req *CreateBookingRequest) (*models.ServiceBooking, error) {
	if actor.UserID == uuid.Nil {
		return nil, models.ErrUnauthorized
	}
	req.Brief = strings.TrimSpace(req.Brief)
	req.BrandName = strings.TrimSpace(req.BrandName)
	if req.PackageID == uuid.Nil {
		return nil, models.Validationf("package is required")
	}
	if len([]rune(req.Brief)) < minBriefLength {
		return nil, models.Validationf("brief must be at least %d characters", minBriefLength)
	}
	if err := models.Validate.Struct(req); err != nil {
		return nil, models.Validationf("invalid booking: %v", err)
	}
	refs, err := cleanReferenceURLs(req.ReferenceURLs)
	if err != nil {
		return nil, err
	}

	pkg, err := bs.catalogRepo.GetActivePackage(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booking := &models.ServiceBooking{
		ID:            uuid.New(),
		UserID:        actor.UserID,
		PackageID:     pkg.ID,
		Status:        models.BookingPending,
		BrandName:     req.BrandName,
		Brief:         req.Brief,
		ReferenceURLs: refs,
		Deadline:      req.Deadline,
		Amount:        pkg.Price,
		Currency:      pkg.Currency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := bs.bookingRepo.CreateBooking(ctx, booking)
	if err != nil {
		return nil, err
	}
	bs.logger.Info("Booking created", "booking_id", created.ID, "user_id", actor.UserID, "package_id", pkg.ID)

	customer := actor.Name
	if customer == "" {
		customer = actor.Email
	}
	bs.notifier.SendBookingCreated(ctx, notify.BookingCreatedAlert{
		CustomerName: customer,
		PackageTitle: pkg.Title,
		Brief:        created.Brief,
		AdminURL:     bs.links.AdminBookings(),
	})
	if bs.analyticsRepo != nil {
		err := bs.analyticsRepo.RecordEvent(ctx, &models.AnalyticsEvent{
			Event:  models.EventBookingCreated,
			Path:   "/services",
			UserID: actor.UserID.String(),
			Metadata: map[string]string{
				"booking_id": created.ID.String(),
				"package_id": pkg.ID.String(),
			},
		})
		if err != nil {
			bs.logger.Warn("Failed to record booking analytics", "booking_id", created.ID, "error", err)
		}
	}
	return created, nil
}

func cleanReferenceURLs(raw []string) ([]string, error) {
	refs := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		u, err := url.Parse(r)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, models.Validationf("invalid reference URL %q", r)
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// UpdateStatus moves a booking along the lifecycle table. The write only
// lands if the booking is still in the status the check was made against.
func (bs *BookingService) UpdateStatus(ctx context.Context, bookingID uuid.UUID, target models.BookingStatus) (*models.ServiceBooking, error) {
	if !target.Valid() {
		return nil, models.Validationf("invalid status %q", target)
	}
	current, err := bs.bookingRepo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateTransition(current.Status, target); err != nil {
		bs.logger.Info("Rejected booking transition", "booking_id", bookingID, "from", current.Status, "to", target)
		return nil, err
	}

	updated, err := bs.bookingRepo.UpdateBookingStatus(ctx, bookingID, current.Status, target)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			bs.logger.Warn("Booking changed concurrently", "booking_id", bookingID, "expected", current.Status, "to", target)
		}
		return nil, err
	}
	// the status update returns the bare row
	if updated.Package == nil {
		updated.Package = current.Package
	}
	if updated.Profile == nil {
		updated.Profile = current.Profile
	}

	bs.metrics.BookingTransition(ctx, string(current.Status), string(target))
	bs.logger.Info("Booking status changed", "booking_id", bookingID, "from", current.Status, "to", target)
	bs.publishStatusChange(ctx, updated, current.Status)

	paymentURL := ""
	if target == models.BookingPaymentPending && bs.payments != nil {
		session, err := bs.payments.CreateBookingPaymentSession(ctx, updated.UserID, updated.ID)
		if err != nil {
			bs.logger.Error("Failed to create booking payment link", "booking_id", bookingID, "error", err)
		} else {
			paymentURL = session.URL
			updated.StripeSessionID = session.ID
		}
	}

	bs.notifyOwner(ctx, updated, paymentURL)
	return updated, nil
}

// MarkPaid settles a booking payment. It is a no-op unless the booking is
// still awaiting payment.
func (bs *BookingService) MarkPaid(ctx context.Context, bookingID uuid.UUID, sessionID string) (bool, error) {
	updated, changed, err := bs.bookingRepo.MarkBookingPaid(ctx, bookingID, sessionID)
	if err != nil || !changed {
		return false, err
	}

	bs.metrics.BookingTransition(ctx, string(models.BookingPaymentPending), string(models.BookingInProgress))
	bs.publishStatusChange(ctx, updated, models.BookingPaymentPending)

	if full, err := bs.bookingRepo.GetBooking(ctx, bookingID); err == nil {
		updated = full
	}
	bs.notifyOwner(ctx, updated, "")
	return true, nil
}

func (bs *BookingService) notifyOwner(ctx context.Context, booking *models.ServiceBooking, paymentURL string) {
	email := ""
	if booking.Profile != nil {
		email = booking.Profile.Email
	}
	if email == "" && bs.profiles != nil {
		if profile, err := bs.profiles.GetUser(ctx, booking.UserID, ""); err == nil {
			email = profile.Email
		} else {
			bs.logger.Warn("Could not load booking owner", "booking_id", booking.ID, "error", err)
		}
	}
	title := ""
	if booking.Package != nil {
		title = booking.Package.Title
	}
	bs.notifier.SendBookingStatusUpdate(ctx, notify.BookingStatusUpdate{
		To:           email,
		PackageTitle: title,
		Status:       string(booking.Status),
		PaymentURL:   paymentURL,
	})
}

func (bs *BookingService) publishStatusChange(ctx context.Context, booking *models.ServiceBooking, from models.BookingStatus) {
	if bs.publisher == nil {
		return
	}
	env, err := events.NewEnvelope(events.TypeBookingStatusChanged, booking.ID.String(), events.BookingStatusChangedPayload{
		BookingID: booking.ID.String(),
		UserID:    booking.UserID.String(),
		From:      string(from),
		To:        string(booking.Status),
	})
	if err == nil {
		err = bs.publisher.Publish(ctx, env)
	}
	if err != nil {
		bs.logger.Warn("Failed to publish booking event", "booking_id", booking.ID, "error", err)
	}
}

func (bs *BookingService) GetBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*models.ServiceBooking, error) {
	booking, err := bs.bookingRepo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(booking.UserID) {
		return nil, models.NotFoundf("booking not found")
	}
	return booking, nil
}

func (bs *BookingService) ListUserBookings(ctx context.Context, actor Actor) ([]*models.ServiceBooking, error) {
	if actor.UserID == uuid.Nil {
		return nil, models.ErrUnauthorized
	}
	return bs.bookingRepo.ListBookingsByUser(ctx, actor.UserID)
}

func (bs *BookingService) ListAllBookings(ctx context.Context) ([]*models.ServiceBooking, error) {
	return bs.bookingRepo.ListBookings(ctx, adminListLimit)
}

func (bs *BookingService) AddMessage(ctx context.Context, actor Actor, bookingID uuid.UUID, text string) (*models.BookingMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.Validationf("message is required")
	}
	if len([]rune(text)) > maxMessageLength {
		return nil, models.Validationf("message must be at most %d characters", maxMessageLength)
	}

	booking, err := bs.GetBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.IsTerminal() {
		return nil, models.Validationf("booking is %s and no longer accepts messages", booking.Status)
	}

	return bs.bookingRepo.AddMessage(ctx, &models.BookingMessage{
		ID:        uuid.New(),
		BookingID: booking.ID,
		SenderID:  actor.UserID,
		Message:   text,
		CreatedAt: time.Now().UTC(),
	})
}

func (bs *BookingService) ListMessages(ctx context.Context, actor Actor, bookingID uuid.UUID) ([]*models.BookingMessage, error) {
	if _, err := bs.GetBooking(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	return bs.bookingRepo.ListMessages(ctx, bookingID)
}

func (bs *BookingService) SetDeliverable(ctx context.Context, bookingID uuid.UUID, link string) (*models.ServiceBooking, error) {
	link = strings.TrimSpace(link)
	if err := models.Validate.Var(link, "required,url"); err != nil {
		return nil, models.Validationf("deliverable must be a valid URL")
	}
	return bs.bookingRepo.SetDeliverable(ctx, bookingID, link)
}
