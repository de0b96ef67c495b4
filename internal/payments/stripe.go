package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

const SignatureHeader = "Stripe-Signature"

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	allowUnsigned bool
}

// NewStripeGateway builds a gateway. allowUnsigned only takes effect when no
// webhook secret is configured and must stay false in production.
func NewStripeGateway(secretKey, webhookSecret string, allowUnsigned bool) *StripeGateway {
	return &StripeGateway{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
		allowUnsigned: allowUnsigned,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	if len(req.LineItems) == 0 {
		return nil, fmt.Errorf("checkout session needs at least one line item")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	for _, li := range req.LineItems {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Description != "" {
			productData.Description = stripe.String(truncate(li.Description, 200))
		}
		if li.ImageURL != "" {
			productData.Images = stripe.StringSlice([]string{li.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(strings.ToLower(li.Currency)),
				UnitAmount:  stripe.Int64(li.UnitAmount),
				ProductData: productData,
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL, AmountTotal: s.AmountTotal}, nil
}

func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	var ev stripe.Event
	switch {
	case g.webhookSecret != "":
		if signature == "" {
			return nil, fmt.Errorf("%w: missing %s header", ErrInvalidSignature, SignatureHeader)
		}
		verified, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
			webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		ev = verified
	case g.allowUnsigned:
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode unsigned event: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: no webhook secret configured", ErrInvalidSignature)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Type != EventCheckoutCompleted && ev.Type != EventCheckoutExpired {
		return out, nil
	}
	if ev.Data == nil {
		return nil, fmt.Errorf("event %s has no data", ev.ID)
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	out.Session = &SessionEvent{SessionID: s.ID, Metadata: s.Metadata}
	if s.PaymentIntent != nil {
		out.Session.PaymentIntent = s.PaymentIntent.ID
	}
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
