package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

const bookingDetailColumns = "*, service_packages(*), profiles(id,email,fullname,username)"

func (su *SupabaseRepo) CreateBooking(ctx context.Context, booking *ServiceBooking) (*ServiceBooking, error) {
	bookingData := map[string]interface{}{
		"id":             booking.ID,
		"user_id":        booking.UserID,
		"package_id":     booking.PackageID,
		"status":         booking.Status,
		"brief":          booking.Brief,
		"reference_urls": booking.ReferenceURLs,
		"amount":         booking.Amount,
		"currency":       booking.Currency,
		"created_at":     booking.CreatedAt,
		"updated_at":     booking.UpdatedAt,
	}
	if booking.BrandName != "" {
		bookingData["brand_name"] = booking.BrandName
	}
	if booking.Deadline != nil {
		bookingData["deadline"] = booking.Deadline
	}

	raw, _, err := execute(ctx, su.supabaseClient.From(ServiceBookingsTable).
		Insert(bookingData, false, "", "representation", ""))
	if err != nil {
		return nil, Upstream("create booking", err)
	}
	return decodeOne[ServiceBooking](raw, "booking")
}

func (su *SupabaseRepo) GetBooking(ctx context.Context, id uuid.UUID) (*ServiceBooking, error) {
	if id == uuid.Nil {
		return nil, Validationf("invalid booking ID")
	}
	raw, _, err := execute(ctx, su.supabaseClient.From(ServiceBookingsTable).
		Select(bookingDetailColumns, "", false).
		Eq("id", id.String()))
	if err != nil {
		return nil, Upstream("get booking", err)
	}
	return decodeOne[ServiceBooking](raw, "booking")
}

func (su *SupabaseRepo) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]*ServiceBooking, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(ServiceBookingsTable).
		Select("*, service_packages(title)", "", false).
		Eq("user_id", userID.String()).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}))
	if err != nil {
		return nil, Upstream("list user bookings", err)
	}
	return decodeRows[ServiceBooking](raw)
}

func (su *SupabaseRepo) ListBookings(ctx context.Context, limit int) ([]*ServiceBooking, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(ServiceBookingsTable).
		Select("*, service_packages(title), profiles(fullname,email)", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, ""))
	if err != nil {
		return nil, Upstream("list bookings", err)
	}
	return decodeRows[ServiceBooking](raw)
}

func (su *SupabaseRepo) UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to BookingStatus) (*ServiceBooking, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(ServiceBookingsTable).
		Update(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		}, "representation", "").
		Eq("id", id.String()).
		Eq("status", string(from)))
	if err != nil {
		return nil, Upstream("update booking status", err)
	}
	rows, err := decodeRows[ServiceBooking](raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrConflict
	}
	return rows[0], nil
}

func (su *SupabaseRepo) SetBookingSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	_, _, err := execute(ctx, su.supabaseClient.From(ServiceBookingsTable).
		Update(map[string]interface{}{
			"stripe_session_id": sessionID,
			"updated_at":        time.Now().UTC(),
		}, "minimal", "").
		Eq("id", id.String()))
	if err != nil {
		return Upstream("set booking session", err)
	}
	return nil
}

func (su *SupabaseRepo) MarkBookingPaid(ctx context.Context, id uuid.UUID, sessionID string) (*ServiceBooking, bool, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(ServiceBookingsTable).
		Update(map[string]interface{}{
			"status":            BookingInProgress,
			"stripe_session_id": sessionID,
			"updated_at":        time.Now().UTC(),
		}, "representation", "").
		Eq("id", id.String()).
		Eq("status", string(BookingPaymentPending)))
	if err != nil {
		return nil, false, Upstream("mark booking paid", err)
	}
	rows, err := decodeRows[ServiceBooking](raw)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

func (su *SupabaseRepo) SetDeliverable(ctx context.Context, id uuid.UUID, url string) (*ServiceBooking, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(ServiceBookingsTable).
		Update(map[string]interface{}{
			"deliverable_url": url,
			"updated_at":      time.Now().UTC(),
		}, "representation", "").
		Eq("id", id.String()))
	if err != nil {
		return nil, Upstream("set deliverable", err)
	}
	return decodeOne[ServiceBooking](raw, "booking")
}

func (su *SupabaseRepo) CountBookingsByStatus(ctx context.Context, statuses []BookingStatus) (int, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	_, count, err := execute(ctx, su.supabaseClient.From(ServiceBookingsTable).
		Select("id", "exact", true).
		In("status", values))
	if err != nil {
		return 0, Upstream("count bookings", err)
	}
	return int(count), nil
}

func (su *SupabaseRepo) AddMessage(ctx context.Context, msg *BookingMessage) (*BookingMessage, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(BookingMessagesTable).
		Insert(map[string]interface{}{
			"id":         msg.ID,
			"booking_id": msg.BookingID,
			"sender_id":  msg.SenderID,
			"message":    msg.Message,
			"created_at": msg.CreatedAt,
		}, false, "", "representation", ""))
	if err != nil {
		return nil, Upstream("add booking message", err)
	}
	return decodeOne[BookingMessage](raw, "booking message")
}

func (su *SupabaseRepo) ListMessages(ctx context.Context, bookingID uuid.UUID) ([]*BookingMessage, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(BookingMessagesTable).
		Select("*", "", false).
		Eq("booking_id", bookingID.String()).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}))
	if err != nil {
		return nil, Upstream("list booking messages", err)
	}
	return decodeRows[BookingMessage](raw)
}
