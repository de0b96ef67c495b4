package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

func (su *SupabaseRepo) CreateOrders(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return Validationf("no orders to create")
	}
	rows := make([]map[string]interface{}, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, map[string]interface{}{
			"id":                o.ID,
			"user_id":           o.UserID,
			"product_id":        o.ProductID,
			"quantity":          o.Quantity,
			"amount":            o.Amount,
			"currency":          o.Currency,
			"status":            o.Status,
			"stripe_session_id": o.StripeSessionID,
			"download_count":    0,
			"created_at":        o.CreatedAt,
			"updated_at":        o.UpdatedAt,
		})
	}

	_, _, err := execute(ctx, su.supabaseClient.From(OrdersTable).
		Insert(rows, false, "", "minimal", ""))
	if err != nil {
		return Upstream("create orders", err)
	}
	return nil
}

func (su *SupabaseRepo) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	if id == uuid.Nil {
		return nil, Validationf("invalid order ID")
	}
	raw, _, err := execute(ctx, su.supabaseClient.From(OrdersTable).
		Select("*, products(*)", "", false).
		Eq("id", id.String()))
	if err != nil {
		return nil, Upstream("get order", err)
	}
	return decodeOne[Order](raw, "order")
}

func (su *SupabaseRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]*Order, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(OrdersTable).
		Select("*, products(id,title,cover_url,product_type)", "", false).
		Eq("user_id", userID.String()).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}))
	if err != nil {
		return nil, Upstream("list user orders", err)
	}
	return decodeRows[Order](raw)
}

func (su *SupabaseRepo) ListOrders(ctx context.Context, limit int) ([]*Order, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(OrdersTable).
		Select("*, products(title), profiles(fullname,email)", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(limit, ""))
	if err != nil {
		return nil, Upstream("list orders", err)
	}
	return decodeRows[Order](raw)
}

func (su *SupabaseRepo) MarkOrdersPaid(ctx context.Context, sessionID, paymentIntent string) ([]*Order, error) {
	update := map[string]interface{}{
		"status":     OrderPaid,
		"updated_at": time.Now().UTC(),
	}
	if paymentIntent != "" {
		update["stripe_payment_intent"] = paymentIntent
	}
	return su.settlePendingOrders(ctx, sessionID, update)
}

func (su *SupabaseRepo) MarkOrdersFailed(ctx context.Context, sessionID string) ([]*Order, error) {
	return su.settlePendingOrders(ctx, sessionID, map[string]interface{}{
		"status":     OrderFailed,
		"updated_at": time.Now().UTC(),
	})
}

// settlePendingOrders is the only write path for webhook-driven order
// status; the status=pending filter keeps replays from touching settled rows.
func (su *SupabaseRepo) settlePendingOrders(ctx context.Context, sessionID string, update map[string]interface{}) ([]*Order, error) {
	if sessionID == "" {
		return nil, Validationf("session ID is required")
	}
	raw, _, err := execute(ctx, su.supabaseClient.From(OrdersTable).
		Update(update, "representation", "").
		Eq("stripe_session_id", sessionID).
		Eq("status", string(OrderPending)))
	if err != nil {
		return nil, Upstream("settle orders", err)
	}
	return decodeRows[Order](raw)
}

func (su *SupabaseRepo) IncrementDownloadCount(ctx context.Context, id uuid.UUID, current int) error {
	_, _, err := execute(ctx, su.supabaseClient.From(OrdersTable).
		Update(map[string]interface{}{"download_count": current + 1}, "minimal", "").
		Eq("id", id.String()))
	if err != nil {
		return Upstream("increment download count", err)
	}
	return nil
}

func (su *SupabaseRepo) PaidOrderAmounts(ctx context.Context) ([]int64, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(OrdersTable).
		Select("amount", "", false).
		Eq("status", string(OrderPaid)))
	if err != nil {
		return nil, Upstream("paid order amounts", err)
	}
	rows, err := decodeRows[struct {
		Amount int64 `json:"amount"`
	}](raw)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Amount)
	}
	return out, nil
}
