package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"distributorsearch_api/internal/connectors"
	"distributorsearch_api/internal/core/models"
	"distributorsearch_api/internal/storage"
	"distributorsearch_api/metrics"
	"distributorsearch_api/pkg/logger"
)

// ErrSyncInProgress is returned when a sync is requested for a supplier whose
// previous sync has not finished.
var ErrSyncInProgress = errors.New("sync already in progress for supplier")

// ProductStore is the slice of the product repository the sync job needs.
type ProductStore interface {
	UpsertBatch(ctx context.Context, supplierID int, products []models.SupplierProduct) error
	ExistingPrices(ctx context.Context, supplierID int) (map[string]storage.StoredPrice, error)
	ProductIDsBySKU(ctx context.Context, supplierID int) (map[string]int, error)
	RecordPriceChange(ctx context.Context, productID int, price *float64, currency string) error
}

type SupplierStore interface {
	GetAll(ctx context.Context) ([]models.Supplier, error)
	GetByID(ctx context.Context, id int) (*models.Supplier, error)
	UpdateLastSync(ctx context.Context, id int) error
}

type SyncLogStore interface {
	Start(ctx context.Context, supplierID int) (int, error)
	Finish(ctx context.Context, id int, status string, productsSynced int, errs string) error
	HasInProgress(ctx context.Context, supplierID int) (bool, error)
}

// ConnectorSource resolves the connector for a supplier.
type ConnectorSource interface {
	ConnectorFor(supplier models.Supplier) connectors.Connector
}

// Service runs supplier syncs: fetch, normalize, merge into Postgres, track
// price changes, and leave an audit row per attempt.
type Service struct {
	products  ProductStore
	suppliers SupplierStore
	syncLogs  SyncLogStore
	source    ConnectorSource
	log       logger.Logger

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewService(products ProductStore, suppliers SupplierStore, syncLogs SyncLogStore, source ConnectorSource, writer io.Writer) *Service {
	return &Service{
		products:  products,
		suppliers: suppliers,
		syncLogs:  syncLogs,
		source:    source,
		log:       logger.NewLogger(writer, "[Syncer]"),
		locks:     make(map[int]*sync.Mutex),
	}
}

// SyncAll syncs every active supplier sequentially. A failed supplier is
// logged and the run moves on to the next one.
func (s *Service) SyncAll(ctx context.Context) error {
	suppliers, err := s.suppliers.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("loading suppliers: %w", err)
	}

	for _, supplier := range suppliers {
		if supplier.Status != models.SupplierActive {
			continue
		}
		if _, err := s.SyncSupplier(ctx, supplier); err != nil {
			s.log.Log("Sync of %s failed: %s", supplier.Slug, err)
		}
	}
	return nil
}

// SyncSupplier runs one supplier's sync end to end and returns the number of
// products merged. Two syncs of the same supplier never run concurrently.
func (s *Service) SyncSupplier(ctx context.Context, supplier models.Supplier) (int, error) {
	lock := s.supplierLock(supplier.ID)
	if !lock.TryLock() {
		return 0, ErrSyncInProgress
	}
	defer lock.Unlock()

	// A stale in_progress row (crashed run, another instance) also blocks.
	inProgress, err := s.syncLogs.HasInProgress(ctx, supplier.ID)
	if err != nil {
		return 0, err
	}
	if inProgress {
		return 0, ErrSyncInProgress
	}

	logID, err := s.syncLogs.Start(ctx, supplier.ID)
	if err != nil {
		return 0, err
	}

	count, rowErrs, runErr := s.run(ctx, supplier)
	status := models.SyncSuccess
	errText := rowErrs
	if runErr != nil {
		status = models.SyncError
		errText = runErr.Error()
	}
	metrics.RecordSyncRun(supplier.Slug, status)

	if err := s.syncLogs.Finish(ctx, logID, status, count, errText); err != nil {
		s.log.Log("Failed to finalize sync log %d: %s", logID, err)
	}
	return count, runErr
}

// run performs the fetch and merge. Row-level problems never abort the run;
// they come back joined in the second return value. Only fetch and merge
// failures are fatal.
func (s *Service) run(ctx context.Context, supplier models.Supplier) (int, string, error) {
	connector := s.source.ConnectorFor(supplier)

	start := time.Now()
	fetched, err := connector.FetchProducts(ctx, "")
	metrics.RecordSupplierFetch(supplier.Slug, len(fetched), time.Since(start), err)
	if err != nil {
		return 0, "", fmt.Errorf("fetching %s: %w", supplier.Slug, err)
	}

	var rowErrors []string
	products := make([]models.SupplierProduct, 0, len(fetched))
	seen := make(map[string]bool)
	for _, p := range fetched {
		if p.SKU == "" || p.SKU == "N/A" {
			rowErrors = append(rowErrors, "dropped product without usable SKU")
			continue
		}
		if seen[p.SKU] {
			rowErrors = append(rowErrors, fmt.Sprintf("duplicate SKU %s in feed", p.SKU))
			continue
		}
		seen[p.SKU] = true
		products = append(products, models.SupplierProduct{
			ID:                models.ProductID(supplier.Slug, p.SKU),
			SupplierID:        supplier.ID,
			SupplierName:      supplier.Name,
			SupplierSlug:      supplier.Slug,
			NormalizedProduct: p,
		})
	}

	// Pre-upsert prices are the baseline for change detection. Reading them
	// after the merge would compare the new price with itself.
	existing, err := s.products.ExistingPrices(ctx, supplier.ID)
	if err != nil {
		return 0, "", fmt.Errorf("loading existing prices for %s: %w", supplier.Slug, err)
	}

	if err := s.products.UpsertBatch(ctx, supplier.ID, products); err != nil {
		return 0, "", fmt.Errorf("upserting %s: %w", supplier.Slug, err)
	}

	ids, err := s.products.ProductIDsBySKU(ctx, supplier.ID)
	if err != nil {
		return len(products), "", fmt.Errorf("loading product ids for %s: %w", supplier.Slug, err)
	}

	for _, p := range products {
		productID, ok := ids[p.SKU]
		if !ok {
			rowErrors = append(rowErrors, fmt.Sprintf("no row id for SKU %s after merge", p.SKU))
			continue
		}
		prev, existed := existing[p.SKU]
		if existed && priceEqual(prev.Price, p.Price) {
			continue
		}
		if err := s.products.RecordPriceChange(ctx, productID, p.Price, p.Currency); err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("price history for SKU %s: %s", p.SKU, err))
		}
	}

	if err := s.suppliers.UpdateLastSync(ctx, supplier.ID); err != nil {
		rowErrors = append(rowErrors, fmt.Sprintf("last_sync_at update: %s", err))
	}

	if len(rowErrors) > 0 {
		s.log.Log("Sync of %s merged %d products with %d row errors", supplier.Slug, len(products), len(rowErrors))
		return len(products), strings.Join(rowErrors, "; "), nil
	}

	s.log.Log("Sync of %s merged %d products", supplier.Slug, len(products))
	return len(products), "", nil
}

func (s *Service) supplierLock(supplierID int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[supplierID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[supplierID] = lock
	}
	return lock
}

func priceEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
