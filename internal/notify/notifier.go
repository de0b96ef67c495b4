// Package notify renders and dispatches transactional e-mail. Delivery is
// best effort: Notifier methods log failures and never return them.
package notify

import (
	"bytes"
	"context"
	"log/slog"
	"time"
)

type Template string

const (
	TemplateOrderDownload  Template = "order_download"
	TemplateOrderGeneric   Template = "order_generic"
	TemplateBookingCreated Template = "booking_created"
	TemplateBookingStatus  Template = "booking_status"
)

type OrderConfirmation struct {
	To           string
	ProductTitle string
	// DownloadURL is set only when the product ships a file.
	DownloadURL  string
	PurchasesURL string
}

func (o OrderConfirmation) Template() Template {
	if o.DownloadURL != "" {
		return TemplateOrderDownload
	}
	return TemplateOrderGeneric
}

type BookingCreatedAlert struct {
	CustomerName string
	PackageTitle string
	Brief        string
	AdminURL     string
}

type BookingStatusUpdate struct {
	To           string
	PackageTitle string
	Status       string
	PaymentURL   string
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, msg OrderConfirmation)
	SendBookingCreated(ctx context.Context, msg BookingCreatedAlert)
	SendBookingStatusUpdate(ctx context.Context, msg BookingStatusUpdate)
}

type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

type Mailer struct {
	sender     Sender
	from       string
	adminEmail string
	timeout    time.Duration
	logger     *slog.Logger
}

func NewMailer(sender Sender, from, adminEmail string, timeout time.Duration, logger *slog.Logger) *Mailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Mailer{
		sender:     sender,
		from:       from,
		adminEmail: adminEmail,
		timeout:    timeout,
		logger:     logger,
	}
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, msg OrderConfirmation) {
	title := msg.ProductTitle
	if title == "" {
		title = "Your purchase"
	}
	msg.ProductTitle = title
	m.dispatch(ctx, msg.Template(), msg.To, "Your purchase: "+title, msg)
}

func (m *Mailer) SendBookingCreated(ctx context.Context, msg BookingCreatedAlert) {
	if m.adminEmail == "" {
		m.logger.Warn("Admin e-mail not configured, skipping booking alert", "package", msg.PackageTitle)
		return
	}
	m.dispatch(ctx, TemplateBookingCreated, m.adminEmail, "New booking: "+msg.PackageTitle, msg)
}

func (m *Mailer) SendBookingStatusUpdate(ctx context.Context, msg BookingStatusUpdate) {
	if msg.PackageTitle == "" {
		msg.PackageTitle = "Design Service"
	}
	data := struct {
		BookingStatusUpdate
		Message string
	}{msg, StatusMessage(msg.Status)}
	m.dispatch(ctx, TemplateBookingStatus, msg.To, "Booking update: "+msg.PackageTitle, data)
}

func (m *Mailer) dispatch(ctx context.Context, tpl Template, to, subject string, data interface{}) {
	if to == "" {
		m.logger.Warn("No recipient for notification", "template", tpl)
		return
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, string(tpl), data); err != nil {
		m.logger.Error("Failed to render notification", "template", tpl, "error", err)
		return
	}

	// detached from the request so a client disconnect does not drop the mail
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
	defer cancel()

	err := m.sender.Send(sendCtx, &Message{
		From:    m.from,
		To:      to,
		Subject: subject,
		HTML:    body.String(),
	})
	if err != nil {
		m.logger.Error("Failed to send notification", "template", tpl, "to", to, "error", err)
		return
	}
	m.logger.Info("Notification sent", "template", tpl, "to", to)
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg *Message) error {
	s.Logger.Info("E-mail (not delivered)", "to", msg.To, "subject", msg.Subject)
	return nil
}

// NewLogNotifier renders every message but only logs it. Used when no mail
// provider is configured.
func NewLogNotifier(from, adminEmail string, logger *slog.Logger) *Mailer {
	return NewMailer(LogSender{Logger: logger}, from, adminEmail, 0, logger)
}
