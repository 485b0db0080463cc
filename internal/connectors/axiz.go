package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"distributorsearch_api/internal/core/models"
	"distributorsearch_api/pkg/logger"
)

const (
	axizTimeout = 30 * time.Second

	// Token cache lifetime is fixed at 50 minutes regardless of the
	// server-declared expiry, a conservative undershoot of the usual hour.
	axizTokenTTL = 50 * time.Minute

	axizMockToken    = "mock-axiz-token"
	axizSentinelHost = "demo.com"
	axizMaxPageSize  = 1000
	axizDefaultScope = "axiz-api.customers axiz-api.erppricelist axiz-api.internalpricelist axiz-api.markets axiz-api.salesordertracking"
)

// AxizConnector talks to an OAuth2 client-credentials JSON search API.
//
// Failure policy: fail-open. Token failure, missing endpoint configuration or
// any fetch error degrades to the built-in demo catalog instead of surfacing
// an error. This asymmetry with the CSV feed connector is deliberate.
type AxizConnector struct {
	cfg           models.SupplierConfig
	apiBaseURL    string
	clientID      string
	clientSecret  string
	tokenEndpoint string
	scope         string
	client        *http.Client
	log           logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewAxizConnector(cfg models.SupplierConfig, writer io.Writer) *AxizConnector {
	scope := cfg.Credentials.Scope
	if scope == "" {
		scope = axizDefaultScope
	}
	return &AxizConnector{
		cfg:           cfg,
		apiBaseURL:    cfg.APIEndpoint,
		clientID:      cfg.Credentials.ClientID,
		clientSecret:  cfg.Credentials.ClientSecret,
		tokenEndpoint: cfg.Credentials.TokenEndpoint,
		scope:         scope,
		client:        &http.Client{Timeout: axizTimeout},
		log:           logger.NewLogger(writer, "[AxizConnector]"),
	}
}

func (c *AxizConnector) Name() string { return c.cfg.Name }
func (c *AxizConnector) Slug() string { return c.cfg.Slug }

// getAccessToken returns the cached bearer token, refreshing it when expired.
// Token issuance is idempotent, so a duplicate refresh under contention would
// only be wasteful, not wrong; the expiry check under the lock avoids it.
func (c *AxizConnector) getAccessToken(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken
	}

	if c.tokenEndpoint == "" || strings.Contains(c.tokenEndpoint, axizSentinelHost) {
		c.cacheToken(axizMockToken)
		return c.accessToken
	}

	token, err := c.requestToken(ctx)
	if err != nil {
		c.log.Log("Token request failed, falling back to mock token: %s", err)
		c.cacheToken(axizMockToken)
		return c.accessToken
	}

	c.cacheToken(token)
	return c.accessToken
}

func (c *AxizConnector) cacheToken(token string) {
	c.accessToken = token
	c.tokenExpiry = time.Now().Add(axizTokenTTL)
}

func (c *AxizConnector) requestToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"scope":         {c.scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("no access token in response")
	}
	return body.AccessToken, nil
}

type axizSearchRequest struct {
	SearchText     string            `json:"searchText"`
	PageIndex      int               `json:"pageIndex"`
	MaxResultCount int               `json:"maxResultCount"`
	Market         string            `json:"market"`
	Filters        axizSearchFilters `json:"filters"`
	ViewID         string            `json:"viewId"`
	SortOptions    axizSortOptions   `json:"sortOptions"`
}

type axizSearchFilters struct {
	Availability                    []int    `json:"availability"`
	Brands                          []string `json:"brands"`
	Categories                      []string `json:"categories"`
	Tags                            []string `json:"tags"`
	HasRichDataFilter               bool     `json:"hasRichDataFilter"`
	SkipCaching                     bool     `json:"skipCaching"`
	UseFuzzySearch                  bool     `json:"useFuzzySearch"`
	ShouldApplyGlobalSettingsFilter bool     `json:"shouldApplyGlobalSettingsFilter"`
}

type axizSortOptions struct {
	SortColumn *string `json:"sortColumn"`
	SortOrder  int     `json:"sortOrder"`
}

type axizSearchResponse struct {
	Result struct {
		Items      []map[string]interface{} `json:"items"`
		TotalCount int                      `json:"totalCount"`
	} `json:"result"`
}

func (c *AxizConnector) FetchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error) {
	token := c.getAccessToken(ctx)

	if c.apiBaseURL == "" || strings.Contains(c.apiBaseURL, axizSentinelHost) || token == axizMockToken {
		c.log.Log("Using demo catalog (no real API configured)")
		return c.demoCatalog(), nil
	}

	products, err := c.searchUpstream(ctx, token, query)
	if err != nil {
		c.log.Log("Fetch error, falling back to demo catalog: %s", err)
		return c.demoCatalog(), nil
	}
	return products, nil
}

func (c *AxizConnector) searchUpstream(ctx context.Context, token, query string) ([]models.NormalizedProduct, error) {
	reqBody := axizSearchRequest{
		SearchText:     query,
		PageIndex:      0,
		MaxResultCount: axizMaxPageSize,
		Market:         "14",
		Filters: axizSearchFilters{
			Availability:                    []int{},
			Brands:                          []string{},
			Categories:                      []string{},
			Tags:                            []string{},
			HasRichDataFilter:               true,
			UseFuzzySearch:                  true,
			ShouldApplyGlobalSettingsFilter: true,
		},
		ViewID:      "0",
		SortOptions: axizSortOptions{SortOrder: 1},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	endpoint := c.apiBaseURL + "/api/services/app/Products/SearchProducts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint status %d", resp.StatusCode)
	}

	var body axizSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	// A response without the expected items array means zero results, not
	// an error.
	if body.Result.Items == nil {
		c.log.Log("Response carried no items array, treating as zero results")
		return []models.NormalizedProduct{}, nil
	}

	products := make([]models.NormalizedProduct, 0, len(body.Result.Items))
	for _, item := range body.Result.Items {
		products = append(products, c.normalizeProduct(item, time.Now()))
	}
	c.log.Log("Fetched %d products (total available: %d)", len(products), body.Result.TotalCount)
	return products, nil
}

// normalizeProduct reconciles the two upstream field dialects (Search
// Products vs Search Price List) into the canonical schema. Precedence is
// first-present-wins in the order listed.
func (c *AxizConnector) normalizeProduct(raw map[string]interface{}, now time.Time) models.NormalizedProduct {
	sku := stringField(raw, "productIdentifier", "productCode", "itemId", "vendorId")
	if sku == "" {
		sku = "N/A"
	}

	name := stringField(raw, "name")
	if name == "" {
		name = extractProductName(stringField(raw, "productDescription"))
	}

	description := stringField(raw, "description", "productDescription")
	currency := stringField(raw, "currencyCode", "salesCurrency", "currency")
	if currency == "" {
		currency = "ZAR"
	}

	stockQty := intField(raw, "availableToSell", "onHand")

	var etaDays *int
	if etaStr := stringField(raw, "estimatedTimeOfArrival"); etaStr != "" {
		if eta, err := parseUpstreamDate(etaStr); err == nil {
			etaDays = models.EtaDaysUntil(eta, now)
		}
	}

	return models.NormalizedProduct{
		SKU:           sku,
		Name:          name,
		Description:   description,
		Category:      stringField(raw, "category", "productCategory"),
		Brand:         nestedBrandName(raw),
		Price:         floatField(raw, "price"),
		Currency:      currency,
		StockQuantity: stockQty,
		StockStatus:   models.StockStatusFor(stockQty),
		EtaDays:       etaDays,
		ImageURL:      axizImageURL(raw),
		Specs: map[string]interface{}{
			"productType": stringField(raw, "itemType", "productType"),
			"vendorId":    stringField(raw, "vendorId"),
			"discount":    intField(raw, "discount", "discountPercentage"),
		},
	}
}

func nestedBrandName(raw map[string]interface{}) string {
	for _, key := range []string{"brandInfo", "brand"} {
		if nested, ok := raw[key].(map[string]interface{}); ok {
			if name := stringField(nested, "brandName"); name != "" {
				return name
			}
		}
	}
	return ""
}

func axizImageURL(raw map[string]interface{}) string {
	if u := stringField(raw, "imageUrl", "defaultImageUrl"); u != "" {
		return u
	}
	if gallery, ok := raw["imageGallery"].([]interface{}); ok && len(gallery) > 0 {
		if u, ok := gallery[0].(string); ok {
			return u
		}
	}
	return ""
}

// extractProductName derives a short display name from a long description:
// the segment before the first " - ", or an 80-character truncation.
func extractProductName(description string) string {
	if description == "" {
		return "N/A"
	}
	if idx := strings.Index(description, " - "); idx > 0 {
		return strings.TrimSpace(description[:idx])
	}
	if len(description) > 80 {
		return description[:80] + "..."
	}
	return description
}

func parseUpstreamDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// SearchProducts passes the query upstream (the API filters server-side) and
// still applies the local filter as a correctness backstop, since the
// upstream filter matches prefixes only.
func (c *AxizConnector) SearchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error) {
	products, err := c.FetchProducts(ctx, query)
	if err != nil {
		return nil, err
	}
	return filterByQuery(products, query, true), nil
}

func (c *AxizConnector) HealthStatus(ctx context.Context) models.HealthStatus {
	return healthFromFetch(ctx, c)
}
