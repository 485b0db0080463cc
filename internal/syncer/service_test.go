package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"distributorsearch_api/internal/connectors"
	"distributorsearch_api/internal/core/models"
	"distributorsearch_api/internal/storage"
)

var _ ProductStore = (*mockProductStore)(nil)

type storedProduct struct {
	id      int
	product models.SupplierProduct
}

type mockProductStore struct {
	mu           sync.Mutex
	nextID       int
	rows         map[string]*storedProduct
	priceHistory []models.PriceHistory
	upsertErr    error
}

func newMockProductStore() *mockProductStore {
	return &mockProductStore{nextID: 1, rows: make(map[string]*storedProduct)}
}

func (m *mockProductStore) key(supplierID int, sku string) string {
	return fmt.Sprintf("%d/%s", supplierID, sku)
}

func (m *mockProductStore) UpsertBatch(ctx context.Context, supplierID int, products []models.SupplierProduct) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		k := m.key(supplierID, p.SKU)
		if row, ok := m.rows[k]; ok {
			row.product = p
			continue
		}
		m.rows[k] = &storedProduct{id: m.nextID, product: p}
		m.nextID++
	}
	return nil
}

func (m *mockProductStore) ExistingPrices(ctx context.Context, supplierID int) (map[string]storage.StoredPrice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prices := make(map[string]storage.StoredPrice)
	for _, row := range m.rows {
		if row.product.SupplierID != supplierID {
			continue
		}
		prices[row.product.SKU] = storage.StoredPrice{ProductID: row.id, Price: row.product.Price}
	}
	return prices, nil
}

func (m *mockProductStore) ProductIDsBySKU(ctx context.Context, supplierID int) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make(map[string]int)
	for _, row := range m.rows {
		if row.product.SupplierID == supplierID {
			ids[row.product.SKU] = row.id
		}
	}
	return ids, nil
}

func (m *mockProductStore) RecordPriceChange(ctx context.Context, productID int, price *float64, currency string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priceHistory = append(m.priceHistory, models.PriceHistory{
		ID:         len(m.priceHistory) + 1,
		ProductID:  productID,
		Price:      price,
		Currency:   currency,
		RecordedAt: time.Now(),
	})
	return nil
}

var _ SupplierStore = (*mockSupplierStore)(nil)

type mockSupplierStore struct {
	mu        sync.Mutex
	suppliers map[int]models.Supplier
	lastSync  map[int]time.Time
}

func newMockSupplierStore(suppliers ...models.Supplier) *mockSupplierStore {
	m := &mockSupplierStore{suppliers: make(map[int]models.Supplier), lastSync: make(map[int]time.Time)}
	for _, s := range suppliers {
		m.suppliers[s.ID] = s
	}
	return m
}

func (m *mockSupplierStore) GetAll(ctx context.Context) ([]models.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Supplier
	for _, s := range m.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockSupplierStore) GetByID(ctx context.Context, id int) (*models.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *mockSupplierStore) UpdateLastSync(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSync[id] = time.Now()
	return nil
}

var _ SyncLogStore = (*mockSyncLogStore)(nil)

type mockSyncLogStore struct {
	mu   sync.Mutex
	logs []*models.SyncLog
}

func (m *mockSyncLogStore) Start(ctx context.Context, supplierID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := &models.SyncLog{
		ID:         len(m.logs) + 1,
		SupplierID: supplierID,
		Status:     models.SyncInProgress,
		StartedAt:  time.Now(),
	}
	m.logs = append(m.logs, log)
	return log.ID, nil
}

func (m *mockSyncLogStore) Finish(ctx context.Context, id int, status string, productsSynced int, errs string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, log := range m.logs {
		if log.ID == id {
			now := time.Now()
			log.Status = status
			log.ProductsSynced = productsSynced
			log.Errors = errs
			log.CompletedAt = &now
			return nil
		}
	}
	return errors.New("log not found")
}

func (m *mockSyncLogStore) HasInProgress(ctx context.Context, supplierID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, log := range m.logs {
		if log.SupplierID == supplierID && log.Status == models.SyncInProgress {
			return true, nil
		}
	}
	return false, nil
}

var _ ConnectorSource = (*mockConnectorSource)(nil)

type mockConnectorSource struct {
	connector connectors.Connector
}

func (m *mockConnectorSource) ConnectorFor(supplier models.Supplier) connectors.Connector {
	return m.connector
}

var _ connectors.Connector = (*feedConnector)(nil)

// feedConnector serves a fixed normalized catalog, optionally blocking until
// released.
type feedConnector struct {
	products  []models.NormalizedProduct
	err       error
	block     chan struct{}
	fetchOnce sync.Once
	started   chan struct{}
}

func (f *feedConnector) Name() string { return "Feed" }
func (f *feedConnector) Slug() string { return "feed" }

func (f *feedConnector) FetchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error) {
	if f.started != nil {
		f.fetchOnce.Do(func() { close(f.started) })
	}
	if f.block != nil {
		<-f.block
	}
	return f.products, f.err
}

func (f *feedConnector) SearchProducts(ctx context.Context, query string) ([]models.NormalizedProduct, error) {
	return f.FetchProducts(ctx, query)
}

func (f *feedConnector) HealthStatus(ctx context.Context) models.HealthStatus {
	return models.HealthStatus{Status: models.HealthHealthy, LastChecked: time.Now()}
}

func feedProduct(sku string, price float64, qty int) models.NormalizedProduct {
	return models.NormalizedProduct{
		SKU:           sku,
		Name:          "Product " + sku,
		Price:         &price,
		Currency:      "ZAR",
		StockQuantity: qty,
		StockStatus:   models.StockStatusFor(qty),
	}
}

func testSupplier() models.Supplier {
	return models.Supplier{ID: 1, Name: "Mustek", Slug: "mustek", Status: models.SupplierActive}
}

func newTestService(feed *feedConnector) (*Service, *mockProductStore, *mockSupplierStore, *mockSyncLogStore) {
	products := newMockProductStore()
	suppliers := newMockSupplierStore(testSupplier())
	logs := &mockSyncLogStore{}
	svc := NewService(products, suppliers, logs, &mockConnectorSource{connector: feed}, io.Discard)
	return svc, products, suppliers, logs
}

func TestSyncService(t *testing.T) {
	t.Run("FirstSyncInsertsProductsAndInitialPriceHistory", func(t *testing.T) {
		feed := &feedConnector{products: []models.NormalizedProduct{
			feedProduct("M-1", 100, 10),
			feedProduct("M-2", 200, 0),
		}}
		svc, products, suppliers, logs := newTestService(feed)

		count, err := svc.SyncSupplier(context.Background(), testSupplier())
		require.NoError(t, err)
		require.Equal(t, 2, count)
		require.Len(t, products.rows, 2)
		require.Len(t, products.priceHistory, 2)
		require.NotZero(t, suppliers.lastSync[1])

		require.Len(t, logs.logs, 1)
		require.Equal(t, models.SyncSuccess, logs.logs[0].Status)
		require.Equal(t, 2, logs.logs[0].ProductsSynced)
		require.Empty(t, logs.logs[0].Errors)
		require.NotNil(t, logs.logs[0].CompletedAt)
	})

	t.Run("IdenticalRerunAddsNoPriceHistory", func(t *testing.T) {
		feed := &feedConnector{products: []models.NormalizedProduct{
			feedProduct("M-1", 100, 10),
		}}
		svc, products, _, _ := newTestService(feed)

		_, err := svc.SyncSupplier(context.Background(), testSupplier())
		require.NoError(t, err)
		_, err = svc.SyncSupplier(context.Background(), testSupplier())
		require.NoError(t, err)

		require.Len(t, products.rows, 1)
		require.Len(t, products.priceHistory, 1)
	})

	t.Run("PriceChangeAppendsHistoryRow", func(t *testing.T) {
		feed := &feedConnector{products: []models.NormalizedProduct{
			feedProduct("M-1", 100, 10),
		}}
		svc, products, _, _ := newTestService(feed)

		_, err := svc.SyncSupplier(context.Background(), testSupplier())
		require.NoError(t, err)

		feed.products = []models.NormalizedProduct{feedProduct("M-1", 120, 10)}
		_, err = svc.SyncSupplier(context.Background(), testSupplier())
		require.NoError(t, err)

		require.Len(t, products.priceHistory, 2)
		require.InDelta(t, 120, *products.priceHistory[1].Price, 0.001)
	})

	t.Run("StockOnlyChangeAddsNoHistory", func(t *testing.T) {
		feed := &feedConnector{products: []models.NormalizedProduct{
			feedProduct("M-1", 100, 10),
		}}
		svc, products, _, _ := newTestService(feed)

		_, err := svc.SyncSupplier(context.Background(), testSupplier())
		require.NoError(t, err)

		feed.products = []models.NormalizedProduct{feedProduct("M-1", 100, 3)}
		_, err = svc.SyncSupplier(context.Background(), testSupplier())
		require.NoError(t, err)

		require.Len(t, products.priceHistory, 1)
		require.Equal(t, 3, products.rows["1/M-1"].product.StockQuantity)
	})

	t.Run("RowErrorsAreCollectedNotFatal", func(t *testing.T) {
		feed := &feedConnector{products: []models.NormalizedProduct{
			feedProduct("M-1", 100, 10),
			feedProduct("", 50, 1),
			feedProduct("M-1", 999, 1),
		}}
		svc, products, _, logs := newTestService(feed)

		count, err := svc.SyncSupplier(context.Background(), testSupplier())
		require.NoError(t, err)
		require.Equal(t, 1, count)
		require.Len(t, products.rows, 1)

		require.Equal(t, models.SyncSuccess, logs.logs[0].Status)
		require.Contains(t, logs.logs[0].Errors, "SKU")
	})

	t.Run("FetchFailureClosesLogAsError", func(t *testing.T) {
		feed := &feedConnector{err: errors.New("feed unreachable")}
		svc, products, suppliers, logs := newTestService(feed)

		_, err := svc.SyncSupplier(context.Background(), testSupplier())
		require.Error(t, err)
		require.Empty(t, products.rows)
		require.Zero(t, suppliers.lastSync[1])

		require.Len(t, logs.logs, 1)
		require.Equal(t, models.SyncError, logs.logs[0].Status)
		require.Contains(t, logs.logs[0].Errors, "feed unreachable")
	})

	t.Run("ConcurrentSyncOfSameSupplierIsRejected", func(t *testing.T) {
		release := make(chan struct{})
		feed := &feedConnector{
			products: []models.NormalizedProduct{feedProduct("M-1", 100, 10)},
			block:    release,
			started:  make(chan struct{}),
		}
		svc, _, _, _ := newTestService(feed)

		done := make(chan error, 1)
		go func() {
			_, err := svc.SyncSupplier(context.Background(), testSupplier())
			done <- err
		}()

		// The first sync holds the supplier lock inside its fetch.
		<-feed.started
		_, err := svc.SyncSupplier(context.Background(), testSupplier())
		require.ErrorIs(t, err, ErrSyncInProgress)

		close(release)
		require.NoError(t, <-done)
	})

	t.Run("StaleInProgressRowBlocksNewSync", func(t *testing.T) {
		feed := &feedConnector{products: []models.NormalizedProduct{feedProduct("M-1", 100, 10)}}
		svc, _, _, logs := newTestService(feed)

		_, err := logs.Start(context.Background(), 1)
		require.NoError(t, err)

		_, err = svc.SyncSupplier(context.Background(), testSupplier())
		require.ErrorIs(t, err, ErrSyncInProgress)
	})

	t.Run("SyncAllSkipsInactiveSuppliers", func(t *testing.T) {
		feed := &feedConnector{products: []models.NormalizedProduct{feedProduct("M-1", 100, 10)}}
		products := newMockProductStore()
		suppliers := newMockSupplierStore(
			models.Supplier{ID: 1, Name: "Mustek", Slug: "mustek", Status: models.SupplierActive},
			models.Supplier{ID: 2, Name: "Axiz", Slug: "axiz", Status: models.SupplierInactive},
		)
		logs := &mockSyncLogStore{}
		svc := NewService(products, suppliers, logs, &mockConnectorSource{connector: feed}, io.Discard)

		require.NoError(t, svc.SyncAll(context.Background()))
		require.Len(t, logs.logs, 1)
		require.Equal(t, 1, logs.logs[0].SupplierID)
	})
}
