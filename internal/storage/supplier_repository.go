package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"distributorsearch_api/internal/core/models"
)

type SupplierRepository struct {
	db *sql.DB
}

func NewSupplierRepository(db *sql.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// EnsureSuppliers registers every configured supplier, keyed on slug. Already
// known suppliers keep their status and last_sync_at; name, type and endpoint
// follow the config.
func (r *SupplierRepository) EnsureSuppliers(ctx context.Context, configs []models.SupplierConfig) error {
	for _, cfg := range configs {
		_, err := r.db.ExecContext(ctx, `
            INSERT INTO catalog.suppliers (name, slug, type, api_endpoint)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (slug) DO UPDATE SET
                name = EXCLUDED.name,
                type = EXCLUDED.type,
                api_endpoint = EXCLUDED.api_endpoint
        `, cfg.Name, cfg.Slug, cfg.Type, cfg.APIEndpoint)
		if err != nil {
			return fmt.Errorf("failed to register supplier %s: %w", cfg.Slug, err)
		}
	}
	return nil
}

func (r *SupplierRepository) GetAll(ctx context.Context) ([]models.Supplier, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, slug, type, api_endpoint, status, last_sync_at
        FROM catalog.suppliers
        ORDER BY name
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []models.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (r *SupplierRepository) GetByID(ctx context.Context, id int) (*models.Supplier, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, slug, type, api_endpoint, status, last_sync_at
        FROM catalog.suppliers
        WHERE id = $1
    `, id)
	return scanSupplierRow(row)
}

func (r *SupplierRepository) GetBySlug(ctx context.Context, slug string) (*models.Supplier, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, slug, type, api_endpoint, status, last_sync_at
        FROM catalog.suppliers
        WHERE slug = $1
    `, slug)
	return scanSupplierRow(row)
}

// UpdateLastSync stamps a successful sync completion time.
func (r *SupplierRepository) UpdateLastSync(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE catalog.suppliers SET last_sync_at = CURRENT_TIMESTAMP WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to update last_sync_at: %w", err)
	}
	return nil
}

func (r *SupplierRepository) SetStatus(ctx context.Context, id int, status string) error {
	if status != models.SupplierActive && status != models.SupplierInactive {
		return fmt.Errorf("unknown supplier status %q", status)
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE catalog.suppliers SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update supplier status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSupplier(row rowScanner) (models.Supplier, error) {
	var (
		s        models.Supplier
		lastSync sql.NullTime
	)
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Type, &s.APIEndpoint, &s.Status, &lastSync)
	if err != nil {
		return s, err
	}
	if lastSync.Valid {
		t := lastSync.Time
		s.LastSyncAt = &t
	}
	return s, nil
}

func scanSupplierRow(row *sql.Row) (*models.Supplier, error) {
	s, err := scanSupplier(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	return &s, nil
}
