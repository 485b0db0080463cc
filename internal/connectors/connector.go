package connectors

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"distributorsearch_api/internal/core/models"
)

var ErrNotImplemented = errors.New("connector not implemented for supplier")

// Connector is the contract every supplier integration implements. Fetching
// returns the supplier's current catalog already normalized; failure policy
// differs per connector (fail-loud, fail-open, fail-empty) and is documented
// on each implementation.
type Connector interface {
	Name() string
	Slug() string
	FetchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error)
	SearchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error)
	HealthStatus(ctx context.Context) models.HealthStatus
}

// BaseConnector backs unregistered supplier slugs. Every fetch fails with
// ErrNotImplemented so a misconfigured supplier is visible instead of
// silently empty.
type BaseConnector struct {
	cfg models.SupplierConfig
}

func NewBaseConnector(cfg models.SupplierConfig) *BaseConnector {
	return &BaseConnector{cfg: cfg}
}

func (c *BaseConnector) Name() string { return c.cfg.Name }
func (c *BaseConnector) Slug() string { return c.cfg.Slug }

func (c *BaseConnector) FetchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error) {
	return nil, fmt.Errorf("%w: %s", ErrNotImplemented, c.cfg.Slug)
}

func (c *BaseConnector) SearchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error) {
	return c.FetchProducts(ctx, query)
}

func (c *BaseConnector) HealthStatus(ctx context.Context) models.HealthStatus {
	return healthFromFetch(ctx, c)
}

// healthFromFetch implements the shared health probe: one fetch, report
// count or error.
func healthFromFetch(ctx context.Context, c Connector) models.HealthStatus {
	products, err := c.FetchProducts(ctx, "")
	if err != nil {
		return models.HealthStatus{
			Status:      models.HealthUnhealthy,
			Error:       err.Error(),
			LastChecked: time.Now(),
		}
	}
	return models.HealthStatus{
		Status:        models.HealthHealthy,
		ProductsCount: len(products),
		LastChecked:   time.Now(),
	}
}

// filterByQuery is the local search backstop: case-insensitive substring
// match over sku, name, description and brand (plus category when the feed
// carries one). It is applied even when the upstream API accepted the query,
// because upstream filter semantics (e.g. prefix-only matching) are not
// trusted.
func filterByQuery(products []models.NormalizedProduct, query string, withCategory bool) []models.NormalizedProduct {
	query = strings.TrimSpace(query)
	if query == "" {
		return products
	}
	q := strings.ToLower(query)
	filtered := make([]models.NormalizedProduct, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.SKU), q) ||
			strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Brand), q) ||
			(withCategory && strings.Contains(strings.ToLower(p.Category), q)) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func parseFloatOrNil(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntOrZero(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

// stringField returns the first non-empty string value among keys.
func stringField(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// floatField returns the first numeric value among keys, accepting both JSON
// numbers and numeric strings.
func floatField(raw map[string]interface{}, keys ...string) *float64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			f := n
			return &f
		case string:
			if f := parseFloatOrNil(n); f != nil {
				return f
			}
		}
	}
	return nil
}

// intField is floatField truncated to int, zero when absent.
func intField(raw map[string]interface{}, keys ...string) int {
	if f := floatField(raw, keys...); f != nil {
		return int(*f)
	}
	return 0
}
