package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/malakmiqdad/storefront"

// Metrics holds the domain counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	checkoutSessions   metric.Int64Counter
	webhookEvents      metric.Int64Counter
	ordersPaid         metric.Int64Counter
	revenue            metric.Int64Counter
	bookingTransitions metric.Int64Counter
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	var (
		m   Metrics
		err error
	)
	if m.checkoutSessions, err = meter.Int64Counter("storefront.checkout.sessions",
		metric.WithDescription("Hosted checkout sessions created")); err != nil {
		return nil, err
	}
	if m.webhookEvents, err = meter.Int64Counter("storefront.webhook.events",
		metric.WithDescription("Verified payment webhook events by type and outcome")); err != nil {
		return nil, err
	}
	if m.ordersPaid, err = meter.Int64Counter("storefront.orders.paid",
		metric.WithDescription("Orders moved to paid")); err != nil {
		return nil, err
	}
	if m.revenue, err = meter.Int64Counter("storefront.orders.revenue",
		metric.WithDescription("Paid order amounts in minor currency units")); err != nil {
		return nil, err
	}
	if m.bookingTransitions, err = meter.Int64Counter("storefront.booking.transitions",
		metric.WithDescription("Booking status changes")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) CheckoutSessionCreated(ctx context.Context, purchaseType string) {
	if m == nil {
		return
	}
	m.checkoutSessions.Add(ctx, 1, metric.WithAttributes(attribute.String("type", purchaseType)))
}

func (m *Metrics) WebhookEvent(ctx context.Context, eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) OrderPaid(ctx context.Context, currency string, amount int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("currency", currency))
	m.ordersPaid.Add(ctx, 1, attrs)
	m.revenue.Add(ctx, amount, attrs)
}

func (m *Metrics) BookingTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.bookingTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
