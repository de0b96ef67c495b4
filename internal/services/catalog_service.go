package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/malakmiqdad/storefront/internal/models"
	"github.com/malakmiqdad/storefront/internal/redisx"
)

const ProductCoverFolder = "product-covers"

// cacheFallbackTimeout bounds the fallback read, which may run after the
// request context has already expired.
const cacheFallbackTimeout = 2 * time.Second

// ImageUploader hosts cover images and returns their public URLs.
type ImageUploader interface {
	UploadImages(ctx context.Context, images []string, folder string) ([]string, error)
}

// CatalogService serves the public catalog from the store, keeping a copy in
// the cache that is served when the store is unreachable.
type CatalogService struct {
	catalogRepo models.CatalogRepo
	cache       Cache
	uploader    ImageUploader
	logger      *slog.Logger
}

func NewCatalogService(catalogRepo models.CatalogRepo, cache Cache, uploader ImageUploader, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		cache:       cache,
		uploader:    uploader,
		logger:      logger,
	}
}

func (cs *CatalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return cached(ctx, cs, redisx.CatalogProductsKey, func() ([]*models.Product, error) {
		return cs.catalogRepo.ListProducts(ctx, true)
	})
}

func (cs *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return cached(ctx, cs, redisx.CatalogProductKey(id.String()), func() (*models.Product, error) {
		return cs.catalogRepo.GetActiveProduct(ctx, id)
	})
}

func (cs *CatalogService) ListPackages(ctx context.Context) ([]*models.ServicePackage, error) {
	return cached(ctx, cs, redisx.CatalogPackagesKey, func() ([]*models.ServicePackage, error) {
		return cs.catalogRepo.ListPackages(ctx)
	})
}

// cached reads through to the store and refreshes the cache. A store failure
// falls back to the last cached copy; not-found and validation errors do not.
func cached[T any](ctx context.Context, cs *CatalogService, key string, load func() (T, error)) (T, error) {
	val, err := load()
	if err == nil {
		if cs.cache != nil {
			if setErr := cs.cache.Set(ctx, key, val); setErr != nil {
				cs.logger.Warn("Failed to refresh catalog cache", "key", key, "error", setErr)
			}
		}
		return val, nil
	}
	if cs.cache == nil || !isUpstream(err) {
		return val, err
	}

	readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheFallbackTimeout)
	defer cancel()
	var fallback T
	hit, cacheErr := cs.cache.Get(readCtx, key, &fallback)
	if cacheErr != nil || !hit {
		cs.logger.Error("Catalog unavailable and no cached copy", "key", key, "error", err, "cache_error", cacheErr)
		return val, err
	}
	cs.logger.Warn("Serving cached catalog", "key", key, "error", err)
	return fallback, nil
}

func (cs *CatalogService) ListAllProducts(ctx context.Context) ([]*models.Product, error) {
	return cs.catalogRepo.ListProducts(ctx, false)
}

// CreateProduct stores a new product. coverImage is an optional local path or
// data URI uploaded to image hosting.
func (cs *CatalogService) CreateProduct(ctx context.Context, product *models.Product, coverImage string) (*models.Product, error) {
	product.Title = strings.TrimSpace(product.Title)
	product.Currency = strings.ToLower(strings.TrimSpace(product.Currency))
	if product.Currency == "" {
		product.Currency = defaultCurrency
	}
	if product.ProductType == "" {
		product.ProductType = models.ProductDigital
	}
	if err := models.Validate.Struct(product); err != nil {
		return nil, models.Validationf("invalid product: %v", err)
	}

	if coverImage != "" {
		url, err := cs.uploadCover(ctx, coverImage)
		if err != nil {
			return nil, err
		}
		product.CoverURL = url
	}

	product.ID = uuid.New()
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	created, err := cs.catalogRepo.CreateProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	cs.invalidate(ctx, created.ID)
	return created, nil
}

var updatableProductFields = map[string]bool{
	"title":        true,
	"description":  true,
	"price":        true,
	"currency":     true,
	"cover_url":    true,
	"file_url":     true,
	"product_type": true,
	"accent_color": true,
	"is_active":    true,
	"sort_order":   true,
}

func (cs *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, fields map[string]interface{}, coverImage string) (*models.Product, error) {
	for field := range fields {
		if !updatableProductFields[field] {
			return nil, models.Validationf("field %q cannot be updated", field)
		}
	}
	if price, ok := fields["price"]; ok {
		if p, ok := price.(float64); !ok || p <= 0 || p != float64(int64(p)) {
			return nil, models.Validationf("price must be a positive integer in minor units")
		}
	}
	if pt, ok := fields["product_type"]; ok {
		if s, _ := pt.(string); s != string(models.ProductBook) && s != string(models.ProductDigital) {
			return nil, models.Validationf("product_type must be book or digital")
		}
	}
	if coverImage != "" {
		url, err := cs.uploadCover(ctx, coverImage)
		if err != nil {
			return nil, err
		}
		fields["cover_url"] = url
	}
	if len(fields) == 0 {
		return nil, models.Validationf("no fields to update")
	}
	fields["updated_at"] = time.Now().UTC()

	updated, err := cs.catalogRepo.UpdateProduct(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	cs.invalidate(ctx, id)
	return updated, nil
}

func (cs *CatalogService) uploadCover(ctx context.Context, image string) (string, error) {
	if cs.uploader == nil {
		return "", models.Validationf("image uploads are not configured")
	}
	urls, err := cs.uploader.UploadImages(ctx, []string{image}, ProductCoverFolder)
	if err != nil {
		return "", models.Upstream("upload cover", err)
	}
	if len(urls) == 0 {
		return "", models.Upstream("upload cover", fmt.Errorf("no url returned"))
	}
	return urls[0], nil
}

func (cs *CatalogService) invalidate(ctx context.Context, productID uuid.UUID) {
	if cs.cache == nil {
		return
	}
	if err := cs.cache.Delete(ctx, redisx.CatalogProductsKey, redisx.CatalogProductKey(productID.String())); err != nil {
		cs.logger.Warn("Failed to invalidate catalog cache", "product_id", productID, "error", err)
	}
}
