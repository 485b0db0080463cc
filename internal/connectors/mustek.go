package connectors

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"distributorsearch_api/internal/core/models"
	"distributorsearch_api/pkg/logger"
)

const mustekTimeout = 10 * time.Second

// mustekColumns is the positional fallback when the feed arrives without a
// recognizable header row.
type mustekColumns struct {
	itemID         int
	description    int
	qtyAvailable   int
	price          int
	supplierItemID int
	productLine    int
}

var defaultMustekColumns = mustekColumns{
	itemID:         0,
	description:    1,
	qtyAvailable:   2,
	price:          3,
	supplierItemID: 4,
	productLine:    5,
}

// MustekConnector fetches a CSV-over-HTTP stock feed authenticated by a
// static customer token in the URL.
//
// Failure policy: fail-loud. A top-level network or parse failure propagates
// to the caller; total failure of this feed is meaningful to orchestration.
type MustekConnector struct {
	cfg      models.SupplierConfig
	apiURL   string
	token    string
	encoding string
	client   *http.Client
	log      logger.Logger
}

func NewMustekConnector(cfg models.SupplierConfig, writer io.Writer) *MustekConnector {
	return &MustekConnector{
		cfg:    cfg,
		apiURL: cfg.APIEndpoint,
		token:  cfg.Credentials.Token,
		client: &http.Client{Timeout: mustekTimeout},
		log:    logger.NewLogger(writer, "[MustekConnector]"),
	}
}

// SetEncoding selects a legacy charset for feeds that are not UTF-8
// (e.g. "windows-1251").
func (c *MustekConnector) SetEncoding(enc string) *MustekConnector {
	c.encoding = enc
	return c
}

func (c *MustekConnector) Name() string { return c.cfg.Name }
func (c *MustekConnector) Slug() string { return c.cfg.Slug }

func (c *MustekConnector) FetchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error) {
	url := fmt.Sprintf("%s?CustomerToken=%s", c.apiURL, c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "DistributorSearch/2.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mustek feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mustek feed: unexpected status code %d", resp.StatusCode)
	}

	products, err := c.parseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mustek feed parse: %w", err)
	}

	c.log.Log("Fetched %d products from feed", len(products))
	return filterByQuery(products, query, false), nil
}

func (c *MustekConnector) parseCSV(body io.Reader) ([]models.NormalizedProduct, error) {
	if c.encoding == "windows-1251" {
		body = transform.NewReader(body, charmap.Windows1251.NewDecoder())
	}

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv read error: %w", err)
	}

	cols := defaultMustekColumns
	headerSeen := false
	products := make([]models.NormalizedProduct, 0, len(rows))

	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		if !headerSeen && looksLikeHeader(row) {
			headerSeen = true
			cols = mapHeaderColumns(row)
			continue
		}
		if len(row) < 4 {
			continue
		}

		partNumber := cell(row, cols.itemID, cell(row, 0, "N/A"))
		if partNumber == "" || partNumber == "N/A" {
			continue
		}
		description := cell(row, cols.description, cell(row, 1, "N/A"))
		stockQty := parseIntOrZero(cell(row, cols.qtyAvailable, cell(row, 2, "0")))
		price := parseFloatOrNil(cell(row, cols.price, cell(row, 3, "")))
		brand := cell(row, cols.productLine, cell(row, 5, cell(row, 4, "Mustek")))

		name := description
		if name == "" || name == "N/A" || name == partNumber {
			if brand != "Mustek" {
				name = fmt.Sprintf("%s %s", brand, partNumber)
			} else {
				name = partNumber
			}
		}

		products = append(products, models.NormalizedProduct{
			SKU:           partNumber,
			Name:          name,
			Description:   description,
			Brand:         brand,
			Price:         price,
			Currency:      "ZAR",
			StockQuantity: stockQty,
			StockStatus:   models.StockStatusFor(stockQty),
		})
	}

	return products, nil
}

func (c *MustekConnector) SearchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error) {
	return c.FetchProducts(ctx, query)
}

func (c *MustekConnector) HealthStatus(ctx context.Context) models.HealthStatus {
	return healthFromFetch(ctx, c)
}

func isEmptyRow(row []string) bool {
	for _, col := range row {
		if strings.TrimSpace(col) != "" {
			return false
		}
	}
	return true
}

// looksLikeHeader reports whether a row is the feed's header. The feed does
// not reliably include one.
func looksLikeHeader(row []string) bool {
	joined := strings.ToLower(strings.Join(row, ","))
	return strings.Contains(joined, "itemid") || strings.Contains(joined, "description")
}

// mapHeaderColumns rebuilds the column index map from whatever header tokens
// are present, keeping the positional default for any token that is absent.
func mapHeaderColumns(header []string) mustekColumns {
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cols := defaultMustekColumns
	if i := indexWhere(lower, func(s string) bool { return s == "itemid" }); i >= 0 {
		cols.itemID = i
	}
	if i := indexWhere(lower, func(s string) bool { return s == "description" }); i >= 0 {
		cols.description = i
	}
	if i := indexWhere(lower, func(s string) bool {
		return strings.Contains(s, "qty") || strings.Contains(s, "available")
	}); i >= 0 {
		cols.qtyAvailable = i
	}
	if i := indexWhere(lower, func(s string) bool { return s == "price" }); i >= 0 {
		cols.price = i
	}
	if i := indexWhere(lower, func(s string) bool {
		return strings.Contains(s, "supplier")
	}); i >= 0 {
		cols.supplierItemID = i
	}
	if i := indexWhere(lower, func(s string) bool {
		return strings.Contains(s, "productline") || strings.Contains(s, "brand") || strings.Contains(s, "line")
	}); i >= 0 {
		cols.productLine = i
	}
	return cols
}

func indexWhere(slice []string, match func(string) bool) int {
	for i, s := range slice {
		if match(s) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int, fallback string) string {
	if idx >= 0 && idx < len(row) {
		if v := strings.TrimSpace(row[idx]); v != "" {
			return v
		}
	}
	return strings.TrimSpace(fallback)
}
