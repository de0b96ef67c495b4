package services

import (
	"context"
	"log/slog"

	"github.com/malakmiqdad/storefront/internal/models"
)

type Stats struct {
	TotalRevenue   int64 `json:"totalRevenue"`
	TotalOrders    int   `json:"totalOrders"`
	ActiveBookings int   `json:"activeBookings"`
	UnreadContacts int   `json:"unreadContacts"`
}

type Dashboard struct {
	Stats          Stats                    `json:"stats"`
	RecentOrders   []*models.Order          `json:"recentOrders"`
	RecentBookings []*models.ServiceBooking `json:"recentBookings"`
	TopPages       []*models.PageCounter    `json:"topPages,omitempty"`
}

type AdminService struct {
	orderRepo     models.OrderRepo
	bookingRepo   models.BookingRepo
	contactRepo   models.ContactRepo
	analyticsRepo models.AnalyticsRepo
	logger        *slog.Logger
}

func NewAdminService(orderRepo models.OrderRepo, bookingRepo models.BookingRepo, contactRepo models.ContactRepo, analyticsRepo models.AnalyticsRepo, logger *slog.Logger) *AdminService {
	return &AdminService{
		orderRepo:     orderRepo,
		bookingRepo:   bookingRepo,
		contactRepo:   contactRepo,
		analyticsRepo: analyticsRepo,
		logger:        logger,
	}
}

func (as *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	amounts, err := as.orderRepo.PaidOrderAmounts(ctx)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{}
	for _, a := range amounts {
		d.Stats.TotalRevenue += a
	}
	d.Stats.TotalOrders = len(amounts)

	if d.Stats.ActiveBookings, err = as.bookingRepo.CountBookingsByStatus(ctx, models.ActiveBookingStatuses); err != nil {
		return nil, err
	}
	if d.Stats.UnreadContacts, err = as.contactRepo.CountUnreadContacts(ctx); err != nil {
		return nil, err
	}
	if d.RecentOrders, err = as.orderRepo.ListOrders(ctx, recentLimit); err != nil {
		return nil, err
	}
	if d.RecentBookings, err = as.bookingRepo.ListBookings(ctx, recentLimit); err != nil {
		return nil, err
	}

	// page counters live in a separate store; the dashboard works without them
	if as.analyticsRepo != nil {
		if d.TopPages, err = as.analyticsRepo.TopPages(ctx, recentLimit); err != nil {
			as.logger.Warn("Top pages unavailable", "error", err)
			d.TopPages = nil
		}
	}
	return d, nil
}
