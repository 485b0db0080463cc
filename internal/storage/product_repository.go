package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"distributorsearch_api/internal/core/models"
)

var productColumns = []string{
	"external_id", "sku", "supplier_id", "name", "description",
	"category", "brand", "price", "currency", "stock_quantity",
	"stock_status", "eta_days", "image_url", "product_url", "specs",
}

// StoredPrice is the persisted price of one product, loaded before an upsert
// so price changes can be detected against the pre-upsert state.
type StoredPrice struct {
	ProductID int
	Price     *float64
}

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// UpsertBatch merges one supplier's fetched catalog into catalog.products.
// Rows are bulk-loaded into a temp table via COPY and merged in a single
// statement keyed on (sku, supplier_id), so re-running a sync with unchanged
// data is a no-op apart from updated_at.
func (r *ProductRepository) UpsertBatch(ctx context.Context, supplierID int, products []models.SupplierProduct) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	createTempTableQuery := `
        CREATE TEMP TABLE temp_products
        ON COMMIT DROP
        AS SELECT ` + strings.Join(productColumns, ", ") + `
        FROM catalog.products WHERE 1=0
    `
	if _, err := tx.ExecContext(ctx, createTempTableQuery); err != nil {
		return fmt.Errorf("create temp table error: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("temp_products", productColumns...))
	if err != nil {
		return fmt.Errorf("prepare copyin error: %w", err)
	}

	for i, p := range products {
		var specs interface{}
		if len(p.Specs) > 0 {
			raw, err := json.Marshal(p.Specs)
			if err != nil {
				return fmt.Errorf("marshal specs for %s: %w", p.SKU, err)
			}
			specs = string(raw)
		}
		_, err := stmt.ExecContext(ctx,
			p.ID, p.SKU, supplierID, p.Name, p.Description,
			p.Category, p.Brand, nullFloat(p.Price), p.Currency, p.StockQuantity,
			string(p.StockStatus), nullInt(p.EtaDays), p.ImageURL, p.ProductURL, specs,
		)
		if err != nil {
			return fmt.Errorf("exec copyin error at row %d: %w", i, err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("final exec copyin error: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return fmt.Errorf("close stmt error: %w", err)
	}

	mergeQuery := `
        INSERT INTO catalog.products (` + strings.Join(productColumns, ", ") + `)
        SELECT ` + strings.Join(productColumns, ", ") + ` FROM temp_products
        ON CONFLICT (sku, supplier_id) DO UPDATE SET
            external_id = EXCLUDED.external_id,
            name = EXCLUDED.name,
            description = EXCLUDED.description,
            category = EXCLUDED.category,
            brand = EXCLUDED.brand,
            price = EXCLUDED.price,
            currency = EXCLUDED.currency,
            stock_quantity = EXCLUDED.stock_quantity,
            stock_status = EXCLUDED.stock_status,
            eta_days = EXCLUDED.eta_days,
            image_url = EXCLUDED.image_url,
            product_url = EXCLUDED.product_url,
            specs = EXCLUDED.specs,
            updated_at = CURRENT_TIMESTAMP
    `
	if _, err = tx.ExecContext(ctx, mergeQuery); err != nil {
		return fmt.Errorf("merge execution error: %w", err)
	}

	return tx.Commit()
}

// ExistingPrices loads the persisted prices of one supplier's products keyed
// by SKU. Callers read this before UpsertBatch to detect price changes.
func (r *ProductRepository) ExistingPrices(ctx context.Context, supplierID int) (map[string]StoredPrice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sku, price FROM catalog.products WHERE supplier_id = $1`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]StoredPrice)
	for rows.Next() {
		var (
			id    int
			sku   string
			price sql.NullFloat64
		)
		if err := rows.Scan(&id, &sku, &price); err != nil {
			return nil, err
		}
		stored := StoredPrice{ProductID: id}
		if price.Valid {
			v := price.Float64
			stored.Price = &v
		}
		prices[sku] = stored
	}
	return prices, rows.Err()
}

// ProductIDsBySKU maps one supplier's SKUs to their row ids.
func (r *ProductRepository) ProductIDsBySKU(ctx context.Context, supplierID int) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sku FROM catalog.products WHERE supplier_id = $1`, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int)
	for rows.Next() {
		var (
			id  int
			sku string
		)
		if err := rows.Scan(&id, &sku); err != nil {
			return nil, err
		}
		ids[sku] = id
	}
	return ids, rows.Err()
}

// RecordPriceChange appends one price history row.
func (r *ProductRepository) RecordPriceChange(ctx context.Context, productID int, price *float64, currency string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO catalog.price_history (product_id, price, currency) VALUES ($1, $2, $3)`,
		productID, nullFloat(price), currency)
	if err != nil {
		return fmt.Errorf("failed to record price change: %w", err)
	}
	return nil
}

// PriceHistory returns the recorded price changes for one product, newest
// first.
func (r *ProductRepository) PriceHistory(ctx context.Context, productID int) ([]models.PriceHistory, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, product_id, price, currency, recorded_at
        FROM catalog.price_history
        WHERE product_id = $1
        ORDER BY recorded_at DESC
    `, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	defer rows.Close()

	var history []models.PriceHistory
	for rows.Next() {
		var (
			h     models.PriceHistory
			price sql.NullFloat64
		)
		if err := rows.Scan(&h.ID, &h.ProductID, &price, &h.Currency, &h.RecordedAt); err != nil {
			return nil, err
		}
		if price.Valid {
			v := price.Float64
			h.Price = &v
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
