package models

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"time"
)

type StockStatus string

const (
	StockOut StockStatus = "out_of_stock"
	StockLow StockStatus = "low_stock"
	StockIn  StockStatus = "in_stock"
)

// LowStockThreshold is a fixed policy constant: quantities below it (but
// above zero) are reported as low_stock.
const LowStockThreshold = 10

// StockStatusFor maps an on-hand quantity to the derived status enum.
// Negative quantities are treated as zero.
func StockStatusFor(quantity int) StockStatus {
	if quantity <= 0 {
		return StockOut
	}
	if quantity < LowStockThreshold {
		return StockLow
	}
	return StockIn
}

// NormalizedProduct is the canonical product representation every connector
// targets. Missing upstream fields are substituted with sentinel defaults
// ("N/A", nil, 0) so normalizing a single record never fails.
type NormalizedProduct struct {
	SKU           string                 `json:"sku"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Category      string                 `json:"category,omitempty"`
	Brand         string                 `json:"brand,omitempty"`
	Price         *float64               `json:"price"`
	Currency      string                 `json:"currency"`
	StockQuantity int                    `json:"stock_quantity"`
	StockStatus   StockStatus            `json:"stock_status"`
	EtaDays       *int                   `json:"eta_days"`
	ImageURL      string                 `json:"image_url,omitempty"`
	ProductURL    string                 `json:"product_url,omitempty"`
	Specs         map[string]interface{} `json:"specs,omitempty"`
}

// SupplierProduct is a NormalizedProduct tagged with supplier identity by the
// aggregator.
type SupplierProduct struct {
	ID           string `json:"id"`
	SupplierID   int    `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
	SupplierSlug string `json:"supplier_slug"`
	NormalizedProduct
}

// ProductID derives a stable opaque id from the supplier slug and SKU, so the
// same product keeps the same identity across fetches.
func ProductID(supplierSlug, sku string) string {
	sum := sha256.Sum256([]byte(supplierSlug + "\x00" + sku))
	return hex.EncodeToString(sum[:8])
}

// EtaDaysUntil converts a promised arrival date into a day count relative to
// now, rounding up. Past or same-day dates yield nil.
func EtaDaysUntil(eta, now time.Time) *int {
	if eta.IsZero() {
		return nil
	}
	days := int(math.Ceil(eta.Sub(now).Hours() / 24))
	if days <= 0 {
		return nil
	}
	return &days
}

const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

// HealthStatus is what a connector reports about its upstream feed.
type HealthStatus struct {
	Status        string    `json:"status"`
	ProductsCount int       `json:"productsCount,omitempty"`
	Error         string    `json:"error,omitempty"`
	LastChecked   time.Time `json:"lastChecked"`
}
