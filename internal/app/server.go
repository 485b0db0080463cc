package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"time"

	"distributorsearch_api/config"
	"distributorsearch_api/internal/app/web/handlers"
	"distributorsearch_api/internal/auth"
	"distributorsearch_api/internal/connectors"
	"distributorsearch_api/internal/core/models"
	"distributorsearch_api/internal/search"
	"distributorsearch_api/internal/storage"
	"distributorsearch_api/internal/syncer"
	"distributorsearch_api/metrics"
	"distributorsearch_api/migrations"
	"distributorsearch_api/pkg/dbconnect"
	"distributorsearch_api/pkg/dbconnect/migration"
	"distributorsearch_api/pkg/logger"
	"distributorsearch_api/pkg/middleware"
)

// Per-connector fetch budgets for the aggregator bulkhead. The rate-limited
// feed needs room for its retry schedule.
var fetchTimeouts = map[string]time.Duration{
	"mustek": 15 * time.Second,
	"axiz":   45 * time.Second,
	"tarsus": 2 * time.Minute,
}

// Server wires configuration, storage, connectors, the search cache and the
// sync scheduler into one HTTP service.
type Server struct {
	cfg      *config.AppConfig
	database dbconnect.Database
	registry *connectors.Registry
	writer   io.Writer
	log      logger.Logger

	db        *sql.DB
	conns     map[string]connectors.Connector
	cache     *search.CatalogCache
	scheduler *syncer.Scheduler
	suppliers *storage.SupplierRepository
	products  *storage.ProductRepository
}

func NewServer(cfg *config.AppConfig, database dbconnect.Database, registry *connectors.Registry, writer io.Writer) *Server {
	return &Server{
		cfg:      cfg,
		database: database,
		registry: registry,
		writer:   writer,
		log:      logger.NewLogger(writer, "[Server]"),
	}
}

// Run sets up storage and background sync, then serves HTTP until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	db, err := s.database.Connect()
	if err != nil {
		return fmt.Errorf("connecting to Postgres: %w", err)
	}
	s.db = db

	if err := s.applyMigrations(db); err != nil {
		return err
	}

	s.suppliers = storage.NewSupplierRepository(db)
	s.products = storage.NewProductRepository(db)
	syncLogs := storage.NewSyncLogRepository(db)

	if err := s.suppliers.EnsureSuppliers(ctx, s.cfg.Suppliers); err != nil {
		return fmt.Errorf("registering suppliers: %w", err)
	}

	suppliers, err := s.suppliers.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("loading suppliers: %w", err)
	}
	s.conns = s.buildConnectors(suppliers)

	entries := s.buildEntries(suppliers)
	aggregator := search.NewAggregator(entries, s.writer)
	s.cache = search.NewCatalogCache(aggregator)

	syncService := syncer.NewService(s.products, s.suppliers, syncLogs, s, s.writer)
	s.scheduler = syncer.NewScheduler(syncService, s.cfg.Sync.Interval, s.writer)
	go s.scheduler.Run(ctx)

	server := &http.Server{
		Addr:    s.cfg.Server.Addr,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Log("Shutdown error: %s", err)
		}
	}()

	s.log.Log("Listening on %s with connectors %v", s.cfg.Server.Addr, s.registry.Slugs())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) applyMigrations(db *sql.DB) error {
	migrationApply := []migration.MigrationInterface{
		&migrations.MigrationsSchema{},
		&migrations.CatalogSchema{},
		&migrations.SuppliersTable{},
		&migrations.ProductsTable{},
		&migrations.PriceHistoryTable{},
		&migrations.SyncLogsTable{},
	}
	for _, m := range migrationApply {
		if err := m.UpMigration(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	s.log.Log("Migrations applied successfully")
	return nil
}

// buildConnectors instantiates one connector per configured supplier, keyed
// by slug.
func (s *Server) buildConnectors(suppliers []models.Supplier) map[string]connectors.Connector {
	conns := make(map[string]connectors.Connector, len(suppliers))
	for _, supplier := range suppliers {
		cfg := s.supplierConfig(supplier)
		conns[supplier.Slug] = s.registry.Get(cfg, s.writer)
	}
	return conns
}

func (s *Server) buildEntries(suppliers []models.Supplier) []search.Entry {
	entries := make([]search.Entry, 0, len(suppliers))
	for _, supplier := range suppliers {
		entries = append(entries, search.Entry{
			Supplier:  supplier,
			Connector: s.conns[supplier.Slug],
			Timeout:   fetchTimeouts[supplier.Slug],
		})
	}
	return entries
}

// supplierConfig rejoins the persisted supplier row with the credentials from
// config, which never touch the database.
func (s *Server) supplierConfig(supplier models.Supplier) models.SupplierConfig {
	for _, cfg := range s.cfg.Suppliers {
		if cfg.Slug == supplier.Slug {
			return cfg
		}
	}
	return models.SupplierConfig{
		Name:        supplier.Name,
		Slug:        supplier.Slug,
		Type:        supplier.Type,
		APIEndpoint: supplier.APIEndpoint,
	}
}

// ConnectorFor lets the sync service resolve connectors through the server's
// instances, so syncs and searches share token caches and rate limiters.
func (s *Server) ConnectorFor(supplier models.Supplier) connectors.Connector {
	if conn, ok := s.conns[supplier.Slug]; ok {
		return conn
	}
	return connectors.NewBaseConnector(s.supplierConfig(supplier))
}

func (s *Server) routes() http.Handler {
	productHandler := handlers.NewProductHandler(s.cache, s.products, s.writer)
	supplierHandler := handlers.NewSupplierHandler(s.suppliers, s.scheduler, s.writer)
	healthHandler := handlers.NewHealthHandler(s.conns)

	authenticate := auth.Middleware(s.cfg.Auth.JWTSecret)
	adminOnly := auth.RequireRole("admin")
	protect := func(h http.HandlerFunc) http.Handler {
		return authenticate(adminOnly(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products/search", productHandler.SearchHandler)
	mux.HandleFunc("GET /api/products/{productId}/price-history", productHandler.PriceHistoryHandler)
	mux.Handle("POST /api/products/refresh", protect(productHandler.RefreshHandler))
	mux.HandleFunc("GET /api/suppliers", supplierHandler.ListHandler)
	mux.Handle("POST /api/suppliers/{id}/sync", protect(supplierHandler.TriggerSyncHandler))
	mux.HandleFunc("GET /api/sync/jobs/{jobId}", supplierHandler.JobStatusHandler)
	mux.HandleFunc("GET /api/health", healthHandler.Handler)
	mux.Handle("GET /metrics", metrics.MetricsHandler())

	return middleware.PrometheusMiddleware(mux)
}
