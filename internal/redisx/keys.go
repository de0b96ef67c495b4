package redisx

import "time"

const (
	WebhookDedupTTL = 48 * time.Hour
	CatalogTTL      = 5 * time.Minute
)

const (
	CatalogProductsKey = "catalog:products"
	CatalogPackagesKey = "catalog:packages"
)

func WebhookEventKey(eventID string) string {
	return "webhook:stripe:" + eventID
}

func CatalogProductKey(id string) string {
	return "catalog:product:" + id
}
