package models

import "time"

const (
	SyncInProgress = "in_progress"
	SyncSuccess    = "success"
	SyncError      = "error"
)

// SyncLog is one row per sync attempt. Rows are created when a sync starts,
// finalized when it ends, and never deleted.
type SyncLog struct {
	ID             int        `json:"id"`
	SupplierID     int        `json:"supplier_id"`
	Status         string     `json:"status"`
	ProductsSynced int        `json:"products_synced"`
	Errors         string     `json:"errors"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	DurationMs     int64      `json:"duration_ms"`
}

// PriceHistory is one row per detected price change per product.
type PriceHistory struct {
	ID         int       `json:"id"`
	ProductID  int       `json:"product_id"`
	Price      *float64  `json:"price"`
	Currency   string    `json:"currency"`
	RecordedAt time.Time `json:"recorded_at"`
}
