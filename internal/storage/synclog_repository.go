package storage

import (
	"context"
	"database/sql"
	"fmt"

	"distributorsearch_api/internal/core/models"
)

type SyncLogRepository struct {
	db *sql.DB
}

func NewSyncLogRepository(db *sql.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Start inserts an in_progress row and returns its id.
func (r *SyncLogRepository) Start(ctx context.Context, supplierID int) (int, error) {
	var id int
	err := r.db.QueryRowContext(ctx, `
        INSERT INTO catalog.sync_logs (supplier_id, status, started_at)
        VALUES ($1, $2, CURRENT_TIMESTAMP)
        RETURNING id
    `, supplierID, models.SyncInProgress).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to start sync log: %w", err)
	}
	return id, nil
}

// Finish finalizes a sync log row with its terminal status.
func (r *SyncLogRepository) Finish(ctx context.Context, id int, status string, productsSynced int, errs string) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE catalog.sync_logs SET
            status = $1,
            products_synced = $2,
            errors = $3,
            completed_at = CURRENT_TIMESTAMP,
            duration_ms = (EXTRACT(EPOCH FROM (CURRENT_TIMESTAMP - started_at)) * 1000)::BIGINT
        WHERE id = $4
    `, status, productsSynced, errs, id)
	if err != nil {
		return fmt.Errorf("failed to finish sync log: %w", err)
	}
	return nil
}

// HasInProgress reports whether a sync is currently recorded as running for
// the supplier.
func (r *SyncLogRepository) HasInProgress(ctx context.Context, supplierID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM catalog.sync_logs
            WHERE supplier_id = $1 AND status = $2
        )
    `, supplierID, models.SyncInProgress).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check in-progress sync: %w", err)
	}
	return exists, nil
}

// Recent returns the latest sync log rows for one supplier, newest first.
func (r *SyncLogRepository) Recent(ctx context.Context, supplierID, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, supplier_id, status, products_synced, errors,
               started_at, completed_at, duration_ms
        FROM catalog.sync_logs
        WHERE supplier_id = $1
        ORDER BY started_at DESC
        LIMIT $2
    `, supplierID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync logs: %w", err)
	}
	defer rows.Close()

	var logs []models.SyncLog
	for rows.Next() {
		var (
			l         models.SyncLog
			completed sql.NullTime
		)
		err := rows.Scan(&l.ID, &l.SupplierID, &l.Status, &l.ProductsSynced,
			&l.Errors, &l.StartedAt, &completed, &l.DurationMs)
		if err != nil {
			return nil, err
		}
		if completed.Valid {
			t := completed.Time
			l.CompletedAt = &t
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
