package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/models"
)

type OrderService struct {
	orderRepo   models.OrderRepo
	catalogRepo models.CatalogRepo
	files       models.FileStore
	logger      *slog.Logger
}

func NewOrderService(orderRepo models.OrderRepo, catalogRepo models.CatalogRepo, files models.FileStore, logger *slog.Logger) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		catalogRepo: catalogRepo,
		files:       files,
		logger:      logger,
	}
}

// DownloadURL issues a short-lived link to the purchased file. Orders that
// are not the caller's, not paid, or have no file all read as not found.
func (o *OrderService) DownloadURL(ctx context.Context, actor Actor, orderID uuid.UUID) (string, error) {
	if actor.UserID == uuid.Nil {
		return "", models.ErrUnauthorized
	}
	order, err := o.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	if !actor.Owns(order.UserID) || order.Status != models.OrderPaid {
		return "", models.NotFoundf("order not found")
	}

	product := order.Product
	if product == nil {
		if product, err = o.catalogRepo.GetProduct(ctx, order.ProductID); err != nil {
			return "", err
		}
	}
	if !product.HasFile() {
		return "", models.NotFoundf("no file available for this product")
	}

	link, err := o.files.SignedURL(ctx, product.FileURL, downloadLinkTTL)
	if err != nil {
		return "", err
	}

	if err := o.orderRepo.IncrementDownloadCount(ctx, order.ID, order.DownloadCount); err != nil {
		o.logger.Warn("Failed to count download", "order_id", order.ID, "error", err)
	}
	o.logger.Info("Download link issued", "order_id", order.ID, "user_id", actor.UserID)
	return link, nil
}

func (o *OrderService) ListUserOrders(ctx context.Context, actor Actor) ([]*models.Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, models.ErrUnauthorized
	}
	return o.orderRepo.ListOrdersByUser(ctx, actor.UserID)
}

func (o *OrderService) ListAllOrders(ctx context.Context) ([]*models.Order, error) {
	return o.orderRepo.ListOrders(ctx, adminListLimit)
}
