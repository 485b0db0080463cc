package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"distributorsearch_api/internal/core/models"
	"distributorsearch_api/internal/search"
	"distributorsearch_api/pkg/logger"
)

// PriceHistorySource is the slice of the product repository the HTTP layer
// needs.
type PriceHistorySource interface {
	PriceHistory(ctx context.Context, productID int) ([]models.PriceHistory, error)
}

type ProductHandler struct {
	cache   *search.CatalogCache
	history PriceHistorySource
	log     logger.Logger
}

func NewProductHandler(cache *search.CatalogCache, history PriceHistorySource, writer io.Writer) *ProductHandler {
	return &ProductHandler{
		cache:   cache,
		history: history,
		log:     logger.NewLogger(writer, "[ProductHandler]"),
	}
}

// SearchHandler serves GET /api/products/search.
func (h *ProductHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	query, err := parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := h.cache.Search(r.Context(), query)
	writeJSON(w, http.StatusOK, result)
}

// RefreshHandler serves POST /api/products/refresh: drop and re-fetch the
// merged catalog.
func (h *ProductHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	count := h.cache.Refresh(r.Context())
	h.log.Log("Catalog refreshed, %d products", count)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "catalog refreshed",
		"products": count,
	})
}

// PriceHistoryHandler serves GET /api/products/{productId}/price-history.
func (h *ProductHandler) PriceHistoryHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(r.PathValue("productId"))
	if err != nil {
		http.Error(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	history, err := h.history.PriceHistory(r.Context(), productID)
	if err != nil {
		h.log.Log("Failed to load price history for %d: %s", productID, err)
		http.Error(w, "Failed to load price history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []models.PriceHistory{}
	}
	writeJSON(w, http.StatusOK, history)
}

func parseQuery(r *http.Request) (search.Query, error) {
	values := r.URL.Query()
	query := search.Query{
		Q:           values.Get("q"),
		Supplier:    values.Get("supplier"),
		Category:    values.Get("category"),
		StockStatus: values.Get("stockStatus"),
	}

	var err error
	if query.MinPrice, err = parseFloatParam(values.Get("minPrice")); err != nil {
		return query, err
	}
	if query.MaxPrice, err = parseFloatParam(values.Get("maxPrice")); err != nil {
		return query, err
	}
	if query.Limit, err = parseIntParam(values.Get("limit")); err != nil {
		return query, err
	}
	if query.Offset, err = parseIntParam(values.Get("offset")); err != nil {
		return query, err
	}
	return query, nil
}

func parseFloatParam(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseIntParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
