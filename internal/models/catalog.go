package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	ProductsTable        = "products"
	ServicePackagesTable = "service_packages"
)

// ProductType is display-only; book and digital products check out identically.
type ProductType string

const (
	ProductBook    ProductType = "book"
	ProductDigital ProductType = "digital"
)

type Product struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	Title       string      `db:"title" json:"title" validate:"required,max=200"`
	Description string      `db:"description" json:"description"`
	Price       int64       `db:"price" json:"price" validate:"gt=0"` // minor currency units
	Currency    string      `db:"currency" json:"currency" validate:"required,len=3"`
	CoverURL    string      `db:"cover_url" json:"cover_url,omitempty"`
	FileURL     string      `db:"file_url" json:"file_url,omitempty"`
	ProductType ProductType `db:"product_type" json:"product_type,omitempty" validate:"omitempty,oneof=book digital"`
	AccentColor string      `db:"accent_color" json:"accent_color,omitempty"`
	IsActive    bool        `db:"is_active" json:"is_active"`
	SortOrder   int         `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// HasFile reports whether a purchase of p comes with a downloadable file.
func (p *Product) HasFile() bool {
	return p != nil && p.FileURL != ""
}

type ServicePackage struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Price        int64     `db:"price" json:"price"`
	Currency     string    `db:"currency" json:"currency"`
	DeliveryDays int       `db:"delivery_days" json:"delivery_days"`
	Revisions    int       `db:"revisions" json:"revisions"`
	Features     []string  `db:"features" json:"features"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	SortOrder    int       `db:"sort_order" json:"sort_order"`
}

type CatalogRepo interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]*Product, error)
	// GetActiveProduct returns ErrNotFound for unknown or inactive products.
	GetActiveProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	// GetActiveProducts silently drops unknown and inactive ids.
	GetActiveProducts(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	CreateProduct(ctx context.Context, product *Product) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Product, error)
	ListPackages(ctx context.Context) ([]*ServicePackage, error)
	GetActivePackage(ctx context.Context, id uuid.UUID) (*ServicePackage, error)
}
