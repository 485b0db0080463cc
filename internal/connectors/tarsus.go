package connectors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"distributorsearch_api/internal/core/models"
	"distributorsearch_api/pkg/logger"
)

var ErrRateLimited = errors.New("rate limited by upstream")

const (
	tarsusTimeout = 60 * time.Second

	// Up to 3 attempts total, waiting attempts_used * backoff between them
	// (10s, 20s with the default backoff).
	tarsusMaxAttempts  = 3
	tarsusRetryBackoff = 10 * time.Second

	// 15% VAT; the feed quotes prices ex VAT.
	tarsusVatMultiplier = 1.15
)

// TarsusConnector fetches a bearer-token JSON product feed that rate-limits
// aggressively, sometimes inside a 200-status body.
//
// Failure policy: a missing token means the feed is disabled and yields an
// empty result without error. Rate limiting is retried with escalating
// backoff and propagates on exhaustion; other errors propagate immediately.
// An unrecognizable body shape yields an empty result with a warning.
type TarsusConnector struct {
	cfg          models.SupplierConfig
	apiURL       string
	token        string
	client       *http.Client
	limiter      *rate.Limiter
	maxAttempts  int
	retryBackoff time.Duration
	log          logger.Logger
}

func NewTarsusConnector(cfg models.SupplierConfig, writer io.Writer) *TarsusConnector {
	return &TarsusConnector{
		cfg:          cfg,
		apiURL:       cfg.APIEndpoint,
		token:        cfg.Credentials.Token,
		client:       &http.Client{Timeout: tarsusTimeout},
		limiter:      rate.NewLimiter(rate.Every(time.Second), 1),
		maxAttempts:  tarsusMaxAttempts,
		retryBackoff: tarsusRetryBackoff,
		log:          logger.NewLogger(writer, "[TarsusConnector]"),
	}
}

// SetRetrySchedule overrides the retry count and backoff base, mainly for
// tests and for deployments with a negotiated rate plan.
func (c *TarsusConnector) SetRetrySchedule(backoff time.Duration, attempts int) *TarsusConnector {
	if backoff > 0 {
		c.retryBackoff = backoff
	}
	if attempts > 0 {
		c.maxAttempts = attempts
	}
	return c
}

func (c *TarsusConnector) Name() string { return c.cfg.Name }
func (c *TarsusConnector) Slug() string { return c.cfg.Slug }

func (c *TarsusConnector) FetchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error) {
	if c.token == "" {
		c.log.Log("No API token configured, feed disabled")
		return []models.NormalizedProduct{}, nil
	}

	raw, err := c.fetchWithRetry(ctx)
	if err != nil {
		return nil, err
	}

	products := make([]models.NormalizedProduct, 0, len(raw))
	now := time.Now()
	for _, item := range raw {
		products = append(products, c.normalizeProduct(item, now))
	}
	c.log.Log("Fetched %d products from feed", len(products))

	return filterByQuery(products, query, true), nil
}

// fetchWithRetry retries only the rate-limit condition. The backoff blocks
// this connector's call path only; concurrent sibling connectors are not
// held up.
func (c *TarsusConnector) fetchWithRetry(ctx context.Context) ([]map[string]interface{}, error) {
	attempts := 0
	for {
		attempts++
		raw, err := c.fetchOnce(ctx)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		if attempts >= c.maxAttempts {
			return nil, fmt.Errorf("rate limit retries exhausted after %d attempts: %w", attempts, err)
		}

		wait := time.Duration(attempts) * c.retryBackoff
		c.log.Log("Rate limited, waiting %s before retry (%d of %d attempts used)", wait, attempts, c.maxAttempts)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *TarsusConnector) fetchOnce(ctx context.Context) ([]map[string]interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "DistributorSearch/2.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tarsus feed request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tarsus feed read: %w", err)
	}

	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: status 403: %s", ErrRateLimited, rateLimitMessage(body))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tarsus feed: unexpected status code %d", resp.StatusCode)
	}

	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("tarsus feed decode: %w", err)
	}

	// The upstream sometimes embeds the rate-limit message in a 200 body.
	if obj, ok := payload.(map[string]interface{}); ok {
		if msg, ok := obj["Message"].(string); ok && strings.Contains(strings.ToLower(msg), "too many requests") {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, msg)
		}
	}

	return c.extractProductArray(payload), nil
}

func rateLimitMessage(body []byte) string {
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, key := range []string{"Message", "message"} {
			if msg, ok := obj[key].(string); ok {
				return msg
			}
		}
	}
	return "forbidden"
}

// extractProductArray copes with the feed's varying envelope: a bare array,
// an object keyed Products/products/items, or as a last resort the first
// top-level value that is an array.
func (c *TarsusConnector) extractProductArray(payload interface{}) []map[string]interface{} {
	var items []interface{}

	switch v := payload.(type) {
	case []interface{}:
		items = v
	case map[string]interface{}:
		for _, key := range []string{"Products", "products", "items"} {
			if arr, ok := v[key].([]interface{}); ok {
				items = arr
				break
			}
		}
		if items == nil {
			for _, value := range v {
				if arr, ok := value.([]interface{}); ok {
					c.log.Log("No known product key in response, using first array value")
					items = arr
					break
				}
			}
		}
		if items == nil {
			c.log.Log("No array found in response object, returning empty")
			return nil
		}
	default:
		c.log.Log("Unexpected response structure %T, returning empty", payload)
		return nil
	}

	products := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			products = append(products, obj)
		}
	}
	return products
}

func (c *TarsusConnector) normalizeProduct(raw map[string]interface{}, now time.Time) models.NormalizedProduct {
	sku := stringField(raw, "Product_Number", "Manufacturing_Part_Number")
	if sku == "" {
		sku = "N/A"
	}

	name := stringField(raw, "Short_Advertising_Description", "Product_Description")
	if name == "" {
		name = "N/A"
	}

	// The quoted price is ex VAT; the canonical price is tax-inclusive.
	var price *float64
	if exVat := floatField(raw, "Price_ex_Vat"); exVat != nil {
		withVat := *exVat * tarsusVatMultiplier
		price = &withVat
	}

	var etaDays *int
	if etaStr := stringField(raw, "ETA_Date"); etaStr != "" {
		if eta, err := parseUpstreamDate(etaStr); err == nil {
			etaDays = models.EtaDaysUntil(eta, now)
		}
	}

	stockQty := intField(raw, "Available_Stock")

	discount := 0.0
	if stringField(raw, "Product_Discounted") == "Yes" {
		if d := floatField(raw, "Discount_Quantity"); d != nil {
			discount = *d
		}
	}

	serialized := stringField(raw, "Serialized")
	if serialized == "" {
		serialized = "No"
	}

	return models.NormalizedProduct{
		SKU:           sku,
		Name:          name,
		Description:   stringField(raw, "Product_Description", "Short_Advertising_Description"),
		Category:      stringField(raw, "Category", "Product_Type"),
		Brand:         stringField(raw, "Manufacturer"),
		Price:         price,
		Currency:      "ZAR",
		StockQuantity: stockQty,
		StockStatus:   models.StockStatusFor(stockQty),
		EtaDays:       etaDays,
		ImageURL:      stringField(raw, "Image_URL"),
		Specs: map[string]interface{}{
			"productType": stringField(raw, "Product_Type"),
			"barcode":     stringField(raw, "BarCode"),
			"serialized":  serialized,
			"discount":    discount,
			"dimensions": map[string]interface{}{
				"width":  floatField(raw, "Each_Width"),
				"height": floatField(raw, "Each_Height"),
				"length": floatField(raw, "Each_Length"),
				"weight": floatField(raw, "Each_Weight"),
			},
			"exportDate": stringField(raw, "Export_Date"),
		},
	}
}

func (c *TarsusConnector) SearchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error) {
	return c.FetchProducts(ctx, query)
}

func (c *TarsusConnector) HealthStatus(ctx context.Context) models.HealthStatus {
	return healthFromFetch(ctx, c)
}
