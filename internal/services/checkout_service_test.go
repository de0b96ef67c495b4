package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	svc      *CheckoutService
	catalog  *fakeCatalog
	orders   *fakeOrders
	bookings *fakeBookings
	gateway  *fakeGateway
	user     *models.User
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		catalog:  newFakeCatalog(),
		orders:   newFakeOrders(),
		bookings: newFakeBookings(),
		gateway:  &fakeGateway{},
		user:     &models.User{ID: uuid.New(), Email: "buyer@example.com"},
	}
	f.svc = NewCheckoutService(f.catalog, f.orders, f.bookings, newFakeProfiles(f.user), f.gateway, testLinks, nil, testLogger())
	return f
}

func TestCreateProductSession(t *testing.T) {
	f := newCheckoutFixture()
	book := f.catalog.addProduct("Weeknight Suppers", 1500, true, "books/suppers.pdf")

	session, err := f.svc.CreateProductSession(context.Background(), f.user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, int64(1500), session.AmountTotal)

	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	assert.Equal(t, "buyer@example.com", req.CustomerEmail)
	assert.Equal(t, "https://shop.test/checkout/success?session_id={CHECKOUT_SESSION_ID}", req.SuccessURL)
	assert.Equal(t, "https://shop.test/checkout/cancel", req.CancelURL)
	assert.Equal(t, payments.TypeProduct, req.Metadata[payments.MetaType])
	assert.Equal(t, book.ID.String(), req.Metadata[payments.MetaProductID])
	assert.Equal(t, f.user.ID.String(), req.Metadata[payments.MetaUserID])

	orders := f.orders.bySession("cs_test_1")
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderPending, orders[0].Status)
	assert.Equal(t, int64(1500), orders[0].Amount)
	assert.Equal(t, 1, orders[0].Quantity)
}

func TestCreateProductSessionRejectsInactiveProduct(t *testing.T) {
	f := newCheckoutFixture()
	retired := f.catalog.addProduct("Old Book", 900, false, "")

	_, err := f.svc.CreateProductSession(context.Background(), f.user.ID, retired.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, f.gateway.requests)
	assert.Empty(t, f.orders.orders)
}

func TestCreateProductSessionMissingIDs(t *testing.T) {
	f := newCheckoutFixture()
	_, err := f.svc.CreateProductSession(context.Background(), uuid.Nil, uuid.New())
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = f.svc.CreateProductSession(context.Background(), f.user.ID, uuid.Nil)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCreateCartSessionDropsInactiveProducts(t *testing.T) {
	f := newCheckoutFixture()
	a := f.catalog.addProduct("Bread", 1000, true, "books/bread.pdf")
	b := f.catalog.addProduct("Retired", 700, false, "")

	_, err := f.svc.CreateCartSession(context.Background(), f.user.ID, []CartItem{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	require.Len(t, req.LineItems, 1)
	assert.Equal(t, int64(2), req.LineItems[0].Quantity)
	assert.Equal(t, int64(2000), req.Total())
	assert.Equal(t, a.ID.String(), req.Metadata[payments.MetaProductIDs])

	orders := f.orders.bySession("cs_test_1")
	require.Len(t, orders, 1)
	assert.Equal(t, a.ID, orders[0].ProductID)
	assert.Equal(t, int64(2000), orders[0].Amount)
}

func TestCreateCartSessionNoValidProducts(t *testing.T) {
	f := newCheckoutFixture()
	b := f.catalog.addProduct("Retired", 700, false, "")

	_, err := f.svc.CreateCartSession(context.Background(), f.user.ID, []CartItem{{ProductID: b.ID, Quantity: 1}})
	require.ErrorIs(t, err, models.ErrValidation)
	assert.Contains(t, err.Error(), "no valid products found")
	assert.Empty(t, f.gateway.requests)
}

func TestCreateCartSessionMergesDuplicates(t *testing.T) {
	f := newCheckoutFixture()
	a := f.catalog.addProduct("Bread", 1000, true, "")
	b := f.catalog.addProduct("Cakes", 1200, true, "")

	_, err := f.svc.CreateCartSession(context.Background(), f.user.ID, []CartItem{
		{ProductID: b.ID, Quantity: 1},
		{ProductID: a.ID, Quantity: 1},
		{ProductID: b.ID, Quantity: 2},
	})
	require.NoError(t, err)

	req := f.gateway.requests[0]
	require.Len(t, req.LineItems, 2)
	assert.Equal(t, "Cakes", req.LineItems[0].Name)
	assert.Equal(t, int64(3), req.LineItems[0].Quantity)
	assert.Equal(t, "Bread", req.LineItems[1].Name)
	assert.Equal(t, strings.Join([]string{b.ID.String(), a.ID.String()}, ","), req.Metadata[payments.MetaProductIDs])
}

func TestCreateCartSessionValidation(t *testing.T) {
	f := newCheckoutFixture()
	a := f.catalog.addProduct("Bread", 1000, true, "")

	cases := map[string][]CartItem{
		"empty":        nil,
		"zero qty":     {{ProductID: a.ID, Quantity: 0}},
		"missing id":   {{Quantity: 1}},
		"over maximum": {{ProductID: a.ID, Quantity: 60}, {ProductID: a.ID, Quantity: 40}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateCartSession(context.Background(), f.user.ID, items)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
	assert.Empty(t, f.gateway.requests)
}

func TestGatewayFailureCreatesNoOrders(t *testing.T) {
	f := newCheckoutFixture()
	a := f.catalog.addProduct("Bread", 1000, true, "")
	f.gateway.err = errors.New("stripe down")

	_, err := f.svc.CreateProductSession(context.Background(), f.user.ID, a.ID)
	assert.ErrorIs(t, err, models.ErrUpstream)
	assert.Empty(t, f.orders.orders)
}

func TestOrderInsertFailureReturnsNoSession(t *testing.T) {
	f := newCheckoutFixture()
	a := f.catalog.addProduct("Bread", 1000, true, "")
	f.orders.createErr = models.Upstream("create orders", errors.New("timeout"))

	session, err := f.svc.CreateProductSession(context.Background(), f.user.ID, a.ID)
	assert.Error(t, err)
	assert.Nil(t, session)
}

func TestCreateBookingPaymentSession(t *testing.T) {
	f := newCheckoutFixture()
	pkg := f.catalog.addPackage("Logo Design", 45000, true)
	booking := f.bookings.add(f.user.ID, models.BookingPaymentPending, pkg, f.user)
	booking.BrandName = "Sourdough Co"

	session, err := f.svc.CreateBookingPaymentSession(context.Background(), f.user.ID, booking.ID)
	require.NoError(t, err)

	req := f.gateway.requests[0]
	assert.Equal(t, "Logo Design", req.LineItems[0].Name)
	assert.Equal(t, "Booking for Sourdough Co", req.LineItems[0].Description)
	assert.Equal(t, int64(45000), req.Total())
	assert.Equal(t, payments.TypeBooking, req.Metadata[payments.MetaType])
	assert.Equal(t, booking.ID.String(), req.Metadata[payments.MetaBookingID])
	assert.Equal(t, "https://shop.test/account/bookings/"+booking.ID.String()+"?payment=success", req.SuccessURL)
	assert.Equal(t, "https://shop.test/account/bookings/"+booking.ID.String()+"?payment=cancelled", req.CancelURL)
	assert.Equal(t, session.ID, f.bookings.bookings[booking.ID].StripeSessionID)
}

func TestCreateBookingPaymentSessionRejections(t *testing.T) {
	f := newCheckoutFixture()
	pkg := f.catalog.addPackage("Logo Design", 45000, true)
	accepted := f.bookings.add(f.user.ID, models.BookingAccepted, pkg, f.user)
	someoneElses := f.bookings.add(uuid.New(), models.BookingPaymentPending, pkg, nil)

	_, err := f.svc.CreateBookingPaymentSession(context.Background(), f.user.ID, accepted.ID)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.svc.CreateBookingPaymentSession(context.Background(), f.user.ID, someoneElses.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Empty(t, f.gateway.requests)
}

func TestLinks(t *testing.T) {
	id := uuid.MustParse("7b0c2f36-3d0c-4a5a-9d65-58d1f1b3b2a1")
	l := Links{AppURL: "https://shop.test///"}
	assert.Equal(t, "https://shop.test/account/purchases", l.Purchases())
	assert.Equal(t, "https://shop.test/admin/bookings", l.AdminBookings())
	assert.Equal(t, "https://shop.test/account/bookings/7b0c2f36-3d0c-4a5a-9d65-58d1f1b3b2a1?payment=success", l.BookingPayment(id, "success"))
}
