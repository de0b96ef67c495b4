package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
)

const productColumns = "id,title,description,price,currency,cover_url,file_url,product_type,accent_color,is_active,sort_order,created_at,updated_at"

func (su *SupabaseRepo) ListProducts(ctx context.Context, activeOnly bool) ([]*Product, error) {
	q := su.supabaseClient.From(ProductsTable).Select(productColumns, "", false)
	if activeOnly {
		q = q.Eq("is_active", "true")
	}
	raw, _, err := execute(ctx, q.Order("sort_order", &postgrest.OrderOpts{Ascending: true}))
	if err != nil {
		return nil, Upstream("list products", err)
	}
	return decodeRows[Product](raw)
}

func (su *SupabaseRepo) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	if id == uuid.Nil {
		return nil, Validationf("invalid product ID")
	}
	raw, _, err := execute(ctx, su.supabaseClient.From(ProductsTable).
		Select(productColumns, "", false).
		Eq("id", id.String()))
	if err != nil {
		return nil, Upstream("get product", err)
	}
	return decodeOne[Product](raw, "product")
}

func (su *SupabaseRepo) GetActiveProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	if id == uuid.Nil {
		return nil, Validationf("invalid product ID")
	}
	raw, _, err := execute(ctx, su.supabaseClient.From(ProductsTable).
		Select(productColumns, "", false).
		Eq("id", id.String()).
		Eq("is_active", "true"))
	if err != nil {
		return nil, Upstream("get product", err)
	}
	return decodeOne[Product](raw, "product")
}

func (su *SupabaseRepo) GetActiveProducts(ctx context.Context, ids []uuid.UUID) ([]*Product, error) {
	if len(ids) == 0 {
		return []*Product{}, nil
	}
	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, id.String())
	}
	raw, _, err := execute(ctx, su.supabaseClient.From(ProductsTable).
		Select(productColumns, "", false).
		In("id", strIDs).
		Eq("is_active", "true"))
	if err != nil {
		return nil, Upstream("get products", err)
	}
	return decodeRows[Product](raw)
}

func (su *SupabaseRepo) CreateProduct(ctx context.Context, product *Product) (*Product, error) {
	productData := map[string]interface{}{
		"id":           product.ID,
		"title":        product.Title,
		"description":  product.Description,
		"price":        product.Price,
		"currency":     product.Currency,
		"cover_url":    product.CoverURL,
		"file_url":     product.FileURL,
		"product_type": product.ProductType,
		"accent_color": product.AccentColor,
		"is_active":    product.IsActive,
		"sort_order":   product.SortOrder,
		"created_at":   product.CreatedAt,
		"updated_at":   product.UpdatedAt,
	}

	raw, _, err := execute(ctx, su.supabaseClient.From(ProductsTable).
		Insert(productData, false, "", "representation", "exact"))
	if err != nil {
		return nil, Upstream("create product", err)
	}
	return decodeOne[Product](raw, "product")
}

func (su *SupabaseRepo) UpdateProduct(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Product, error) {
	if id == uuid.Nil {
		return nil, Validationf("invalid product ID")
	}
	if len(fields) == 0 {
		return nil, Validationf("no fields to update")
	}
	raw, _, err := execute(ctx, su.supabaseClient.From(ProductsTable).
		Update(fields, "representation", "exact").
		Eq("id", id.String()))
	if err != nil {
		return nil, Upstream("update product", err)
	}
	return decodeOne[Product](raw, "product")
}

func (su *SupabaseRepo) ListPackages(ctx context.Context) ([]*ServicePackage, error) {
	raw, _, err := execute(ctx, su.supabaseClient.From(ServicePackagesTable).
		Select("*", "", false).
		Eq("is_active", "true").
		Order("sort_order", &postgrest.OrderOpts{Ascending: true}))
	if err != nil {
		return nil, Upstream("list packages", err)
	}
	return decodeRows[ServicePackage](raw)
}

func (su *SupabaseRepo) GetActivePackage(ctx context.Context, id uuid.UUID) (*ServicePackage, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: invalid package ID", ErrValidation)
	}
	raw, _, err := execute(ctx, su.supabaseClient.From(ServicePackagesTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Eq("is_active", "true"))
	if err != nil {
		return nil, Upstream("get package", err)
	}
	return decodeOne[ServicePackage](raw, "service package")
}
