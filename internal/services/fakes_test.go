package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/events"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/notify"
	"github.com/malakmiqdad/storefront/internal/payments"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testLinks = Links{AppURL: "https://shop.test/"}

// fakeCatalog

type fakeCatalog struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
	packages map[uuid.UUID]*models.ServicePackage
	err      error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: map[uuid.UUID]*models.Product{},
		packages: map[uuid.UUID]*models.ServicePackage{},
	}
}

func (f *fakeCatalog) addProduct(title string, price int64, active bool, file string) *models.Product {
	p := &models.Product{
		ID:       uuid.New(),
		Title:    title,
		Price:    price,
		Currency: "usd",
		IsActive: active,
		FileURL:  file,
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeCatalog) addPackage(title string, price int64, active bool) *models.ServicePackage {
	p := &models.ServicePackage{ID: uuid.New(), Title: title, Price: price, Currency: "usd", IsActive: active}
	f.packages[p.ID] = p
	return p
}

func (f *fakeCatalog) ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Product
	for _, p := range f.products {
		if !activeOnly || p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetActiveProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok || !p.IsActive {
		return nil, models.NotFoundf("product not found")
	}
	return p, nil
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, models.NotFoundf("product not found")
	}
	return p, nil
}

func (f *fakeCatalog) GetActiveProducts(ctx context.Context, ids []uuid.UUID) ([]*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeCatalog) UpdateProduct(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, models.NotFoundf("product not found")
	}
	if v, ok := fields["title"].(string); ok {
		p.Title = v
	}
	if v, ok := fields["price"].(float64); ok {
		p.Price = int64(v)
	}
	if v, ok := fields["is_active"].(bool); ok {
		p.IsActive = v
	}
	if v, ok := fields["cover_url"].(string); ok {
		p.CoverURL = v
	}
	return p, nil
}

func (f *fakeCatalog) ListPackages(ctx context.Context) ([]*models.ServicePackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.ServicePackage
	for _, p := range f.packages {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetActivePackage(ctx context.Context, id uuid.UUID) (*models.ServicePackage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.packages[id]
	if !ok || !p.IsActive {
		return nil, models.NotFoundf("service package not found")
	}
	return p, nil
}

// fakeOrders mirrors the conditional writes of the real store.

type fakeOrders struct {
	mu        sync.Mutex
	orders    []*models.Order
	createErr error
	listErr   error
	downloads map[uuid.UUID]int
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{downloads: map[uuid.UUID]int{}}
}

func (f *fakeOrders) CreateOrders(ctx context.Context, orders []*models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, o := range orders {
		cp := *o
		f.orders = append(f.orders, &cp)
	}
	return nil
}

func (f *fakeOrders) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, models.NotFoundf("order not found")
}

func (f *fakeOrders) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, f.listErr
}

func (f *fakeOrders) ListOrders(ctx context.Context, limit int) ([]*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.orders
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeOrders) settle(sessionID string, to models.OrderStatus, pi string) []*models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	var changed []*models.Order
	for _, o := range f.orders {
		if o.StripeSessionID == sessionID && o.Status == models.OrderPending {
			o.Status = to
			if pi != "" {
				o.StripePaymentIntent = pi
			}
			cp := *o
			changed = append(changed, &cp)
		}
	}
	return changed
}

func (f *fakeOrders) MarkOrdersPaid(ctx context.Context, sessionID, paymentIntent string) ([]*models.Order, error) {
	return f.settle(sessionID, models.OrderPaid, paymentIntent), nil
}

func (f *fakeOrders) MarkOrdersFailed(ctx context.Context, sessionID string) ([]*models.Order, error) {
	return f.settle(sessionID, models.OrderFailed, ""), nil
}

func (f *fakeOrders) IncrementDownloadCount(ctx context.Context, id uuid.UUID, current int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads[id]++
	for _, o := range f.orders {
		if o.ID == id {
			o.DownloadCount = current + 1
		}
	}
	return nil
}

func (f *fakeOrders) PaidOrderAmounts(ctx context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int64
	for _, o := range f.orders {
		if o.Status == models.OrderPaid {
			out = append(out, o.Amount)
		}
	}
	return out, nil
}

func (f *fakeOrders) bySession(sessionID string) []*models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Order
	for _, o := range f.orders {
		if o.StripeSessionID == sessionID {
			out = append(out, o)
		}
	}
	return out
}

// fakeBookings

type fakeBookings struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.ServiceBooking
	messages []*models.BookingMessage
	// beforeUpdate runs inside UpdateBookingStatus before the conditional
	// check, to simulate a concurrent writer.
	beforeUpdate func(b *models.ServiceBooking)
	updates      int
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{bookings: map[uuid.UUID]*models.ServiceBooking{}}
}

func (f *fakeBookings) add(userID uuid.UUID, status models.BookingStatus, pkg *models.ServicePackage, owner *models.User) *models.ServiceBooking {
	b := &models.ServiceBooking{
		ID:       uuid.New(),
		UserID:   userID,
		Status:   status,
		Amount:   45000,
		Currency: "usd",
		Package:  pkg,
		Profile:  owner,
	}
	if pkg != nil {
		b.PackageID = pkg.ID
	}
	f.bookings[b.ID] = b
	return b
}

func (f *fakeBookings) status(id uuid.UUID) models.BookingStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bookings[id].Status
}

func (f *fakeBookings) CreateBooking(ctx context.Context, booking *models.ServiceBooking) (*models.ServiceBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *booking
	f.bookings[booking.ID] = &cp
	return booking, nil
}

func (f *fakeBookings) GetBooking(ctx context.Context, id uuid.UUID) (*models.ServiceBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, models.NotFoundf("booking not found")
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) ListBookingsByUser(ctx context.Context, userID uuid.UUID) ([]*models.ServiceBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ServiceBooking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookings) ListBookings(ctx context.Context, limit int) ([]*models.ServiceBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ServiceBooking
	for _, b := range f.bookings {
		if len(out) == limit {
			break
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookings) UpdateBookingStatus(ctx context.Context, id uuid.UUID, from, to models.BookingStatus) (*models.ServiceBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, models.ErrConflict
	}
	if f.beforeUpdate != nil {
		f.beforeUpdate(b)
	}
	if b.Status != from {
		return nil, models.ErrConflict
	}
	f.updates++
	b.Status = to
	b.UpdatedAt = time.Now()
	return &models.ServiceBooking{ID: b.ID, UserID: b.UserID, PackageID: b.PackageID, Status: b.Status}, nil
}

func (f *fakeBookings) SetBookingSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[id].StripeSessionID = sessionID
	return nil
}

func (f *fakeBookings) MarkBookingPaid(ctx context.Context, id uuid.UUID, sessionID string) (*models.ServiceBooking, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != models.BookingPaymentPending {
		return nil, false, nil
	}
	b.Status = models.BookingInProgress
	b.StripeSessionID = sessionID
	return &models.ServiceBooking{ID: b.ID, UserID: b.UserID, Status: b.Status}, true, nil
}

func (f *fakeBookings) SetDeliverable(ctx context.Context, id uuid.UUID, url string) (*models.ServiceBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, models.NotFoundf("booking not found")
	}
	b.DeliverableURL = url
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) CountBookingsByStatus(ctx context.Context, statuses []models.BookingStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.bookings {
		for _, s := range statuses {
			if b.Status == s {
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeBookings) AddMessage(ctx context.Context, msg *models.BookingMessage) (*models.BookingMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeBookings) ListMessages(ctx context.Context, bookingID uuid.UUID) ([]*models.BookingMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.BookingMessage
	for _, m := range f.messages {
		if m.BookingID == bookingID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeGateway

type fakeGateway struct {
	mu       sync.Mutex
	requests []*payments.CheckoutRequest
	err      error
	event    *payments.Event
	parseErr error
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, req *payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	id := fmt.Sprintf("cs_test_%d", len(f.requests))
	return &payments.CheckoutSession{ID: id, URL: "https://checkout.test/" + id, AmountTotal: req.Total()}, nil
}

func (f *fakeGateway) ParseEvent(payload []byte, signature string) (*payments.Event, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.event, nil
}

// fakeNotifier

type fakeNotifier struct {
	mu       sync.Mutex
	orders   []notify.OrderConfirmation
	created  []notify.BookingCreatedAlert
	statuses []notify.BookingStatusUpdate
}

func (f *fakeNotifier) SendOrderConfirmation(ctx context.Context, msg notify.OrderConfirmation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, msg)
}

func (f *fakeNotifier) SendBookingCreated(ctx context.Context, msg notify.BookingCreatedAlert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, msg)
}

func (f *fakeNotifier) SendBookingStatusUpdate(ctx context.Context, msg notify.BookingStatusUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, msg)
}

// fakeFiles

type fakeFiles struct {
	mu    sync.Mutex
	calls []string
	ttls  []time.Duration
	err   error
}

func (f *fakeFiles) SignedURL(ctx context.Context, path string, expiresIn time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	f.ttls = append(f.ttls, expiresIn)
	if f.err != nil {
		return "", f.err
	}
	return "https://files.test/sign/" + path, nil
}

// fakeAnalytics

type fakeAnalytics struct {
	mu       sync.Mutex
	events   []*models.AnalyticsEvent
	counters map[string]int64
	err      error
}

func newFakeAnalytics() *fakeAnalytics {
	return &fakeAnalytics{counters: map[string]int64{}}
}

func (f *fakeAnalytics) RecordEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAnalytics) IncrementPageView(ctx context.Context, path string) (*models.PageCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.counters[path]++
	return &models.PageCounter{Path: path, Count: f.counters[path]}, nil
}

func (f *fakeAnalytics) TopPages(ctx context.Context, limit int) ([]*models.PageCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.PageCounter
	for p, c := range f.counters {
		out = append(out, &models.PageCounter{Path: p, Count: c})
	}
	return out, nil
}

func (f *fakeAnalytics) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// fakeProfiles

type fakeProfiles struct {
	users map[uuid.UUID]*models.User
}

func newFakeProfiles(users ...*models.User) *fakeProfiles {
	f := &fakeProfiles{users: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeProfiles) GetUser(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, models.NotFoundf("user not found")
	}
	return u, nil
}

// fakePublisher

type fakePublisher struct {
	mu   sync.Mutex
	envs []*events.Envelope
}

func (f *fakePublisher) Publish(ctx context.Context, env *events.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envs = append(f.envs, env)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.envs {
		out = append(out, e.EventType)
	}
	return out
}

// fakeDedup

type fakeDedup struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{seen: map[string]bool{}}
}

func (f *fakeDedup) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen[eventID] {
		return false, nil
	}
	f.seen[eventID] = true
	return true, nil
}

func (f *fakeDedup) Forget(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, eventID)
	return nil
}

// fakeCache

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

// Get fails on a done context, as the redis client does.
func (f *fakeCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = raw
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

// fakeContacts

type fakeContacts struct {
	mu       sync.Mutex
	contacts []*models.Contact
}

func (f *fakeContacts) CreateContact(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, contact)
	return contact, nil
}

func (f *fakeContacts) ListContacts(ctx context.Context, limit int) ([]*models.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contacts, nil
}

func (f *fakeContacts) SetContactRead(ctx context.Context, id uuid.UUID, read bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.ID == id {
			c.IsRead = read
			return nil
		}
	}
	return models.NotFoundf("contact not found")
}

func (f *fakeContacts) CountUnreadContacts(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.contacts {
		if !c.IsRead {
			n++
		}
	}
	return n, nil
}
