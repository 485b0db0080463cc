package search

import (
	"strings"

	"distributorsearch_api/internal/core/models"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Query is the full set of catalog search parameters. All filters combine
// with AND; zero values mean "not filtered".
type Query struct {
	Q           string
	Supplier    string
	Category    string
	MinPrice    *float64
	MaxPrice    *float64
	StockStatus string
	Limit       int
	Offset      int
}

// Result is one page of the filtered catalog. Total counts the filtered set,
// not the page, so clients can paginate.
type Result struct {
	Products []models.SupplierProduct `json:"products"`
	Total    int                      `json:"total"`
	Limit    int                      `json:"limit"`
	Offset   int                      `json:"offset"`
}

// Apply filters, sorts and paginates the catalog. The input slice is not
// modified.
func (q Query) Apply(products []models.SupplierProduct) Result {
	filtered := make([]models.SupplierProduct, 0, len(products))
	for _, p := range products {
		if q.matches(p) {
			filtered = append(filtered, p)
		}
	}
	SortProducts(filtered)

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	page := []models.SupplierProduct{}
	if offset < len(filtered) {
		end := offset + limit
		if end > len(filtered) {
			end = len(filtered)
		}
		page = filtered[offset:end]
	}

	return Result{Products: page, Total: len(filtered), Limit: limit, Offset: offset}
}

func (q Query) matches(p models.SupplierProduct) bool {
	if q.Q != "" && !textMatches(p, q.Q) {
		return false
	}
	if q.Supplier != "" && p.SupplierSlug != q.Supplier {
		return false
	}
	if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
		return false
	}
	// Price bounds exclude products with no price at all.
	if q.MinPrice != nil && (p.Price == nil || *p.Price < *q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && (p.Price == nil || *p.Price > *q.MaxPrice) {
		return false
	}
	if q.StockStatus != "" && string(p.StockStatus) != q.StockStatus {
		return false
	}
	return true
}

func textMatches(p models.SupplierProduct, query string) bool {
	needle := strings.ToLower(query)
	for _, field := range []string{p.SKU, p.Name, p.Description, p.Brand} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
