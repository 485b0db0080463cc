package migrations

import (
	"database/sql"
	"fmt"
	"log"
)

const (
	CatalogSchemaMigration = "catalog.schema"
	SuppliersMigration     = "catalog.suppliers"
	ProductsMigration      = "catalog.products"
	PriceHistoryMigration  = "catalog.price_history"
	SyncLogsMigration      = "catalog.sync_logs"
)

type MigrationsSchema struct{}

func (m *MigrationsSchema) UpMigration(db *sql.DB) error {
	_, err := db.Exec(`CREATE SCHEMA IF NOT EXISTS migrations;`)
	if err != nil {
		return fmt.Errorf("failed to create migrations schema: %w", err)
	}
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS migrations.migrations (
            id SERIAL PRIMARY KEY,
            time TIMESTAMP NOT NULL,
            name VARCHAR(255) UNIQUE NOT NULL
        );
    `)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

type CatalogSchema struct{}

func (m *CatalogSchema) UpMigration(db *sql.DB) error {
	done, err := migrationDone(db, CatalogSchemaMigration)
	if err != nil || done {
		return err
	}

	_, err = db.Exec(`CREATE SCHEMA IF NOT EXISTS catalog;`)
	if err != nil {
		return fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return markDone(db, CatalogSchemaMigration)
}

type SuppliersTable struct{}

func (m *SuppliersTable) UpMigration(db *sql.DB) error {
	done, err := migrationDone(db, SuppliersMigration)
	if err != nil || done {
		return err
	}

	query := `
        CREATE TABLE IF NOT EXISTS catalog.suppliers (
            id SERIAL PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            slug VARCHAR(100) NOT NULL UNIQUE,
            type VARCHAR(50) NOT NULL DEFAULT 'rest_api',
            api_endpoint TEXT NOT NULL DEFAULT '',
            status VARCHAR(20) NOT NULL DEFAULT 'active',
            last_sync_at TIMESTAMP WITH TIME ZONE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
    `
	if _, err = db.Exec(query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", SuppliersMigration, err)
	}
	return markDone(db, SuppliersMigration)
}

type ProductsTable struct{}

func (m *ProductsTable) UpMigration(db *sql.DB) error {
	done, err := migrationDone(db, ProductsMigration)
	if err != nil || done {
		return err
	}

	query := `
        CREATE TABLE IF NOT EXISTS catalog.products (
            id SERIAL PRIMARY KEY,
            external_id VARCHAR(32) NOT NULL,
            sku VARCHAR(255) NOT NULL,
            supplier_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            category VARCHAR(255) NOT NULL DEFAULT '',
            brand VARCHAR(255) NOT NULL DEFAULT '',
            price NUMERIC(12, 2),
            currency VARCHAR(10) NOT NULL DEFAULT 'ZAR',
            stock_quantity INTEGER NOT NULL DEFAULT 0,
            stock_status VARCHAR(20) NOT NULL DEFAULT 'out_of_stock',
            eta_days INTEGER,
            image_url TEXT NOT NULL DEFAULT '',
            product_url TEXT NOT NULL DEFAULT '',
            specs JSONB,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT fk_supplier
                FOREIGN KEY(supplier_id)
                    REFERENCES catalog.suppliers(id)
                    ON DELETE CASCADE,
            CONSTRAINT unique_sku_supplier UNIQUE(sku, supplier_id)
        );
    `
	if _, err = db.Exec(query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", ProductsMigration, err)
	}
	return markDone(db, ProductsMigration)
}

type PriceHistoryTable struct{}

func (m *PriceHistoryTable) UpMigration(db *sql.DB) error {
	done, err := migrationDone(db, PriceHistoryMigration)
	if err != nil || done {
		return err
	}

	query := `
        CREATE TABLE IF NOT EXISTS catalog.price_history (
            id SERIAL PRIMARY KEY,
            product_id INTEGER NOT NULL,
            price NUMERIC(12, 2),
            currency VARCHAR(10) NOT NULL DEFAULT 'ZAR',
            recorded_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            CONSTRAINT fk_product
                FOREIGN KEY(product_id)
                    REFERENCES catalog.products(id)
                    ON DELETE CASCADE
        );
        CREATE INDEX IF NOT EXISTS price_history_product_idx
            ON catalog.price_history(product_id, recorded_at);
    `
	if _, err = db.Exec(query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", PriceHistoryMigration, err)
	}
	return markDone(db, PriceHistoryMigration)
}

type SyncLogsTable struct{}

func (m *SyncLogsTable) UpMigration(db *sql.DB) error {
	done, err := migrationDone(db, SyncLogsMigration)
	if err != nil || done {
		return err
	}

	query := `
        CREATE TABLE IF NOT EXISTS catalog.sync_logs (
            id SERIAL PRIMARY KEY,
            supplier_id INTEGER NOT NULL,
            status VARCHAR(20) NOT NULL,
            products_synced INTEGER NOT NULL DEFAULT 0,
            errors TEXT NOT NULL DEFAULT '',
            started_at TIMESTAMP WITH TIME ZONE NOT NULL,
            completed_at TIMESTAMP WITH TIME ZONE,
            duration_ms BIGINT NOT NULL DEFAULT 0,
            CONSTRAINT fk_supplier
                FOREIGN KEY(supplier_id)
                    REFERENCES catalog.suppliers(id)
                    ON DELETE CASCADE
        );
        CREATE INDEX IF NOT EXISTS sync_logs_supplier_idx
            ON catalog.sync_logs(supplier_id, started_at);
    `
	if _, err = db.Exec(query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", SyncLogsMigration, err)
	}
	return markDone(db, SyncLogsMigration)
}

func migrationDone(db *sql.DB, name string) (bool, error) {
	var migrationExists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)", name).Scan(&migrationExists)
	if err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	if migrationExists {
		log.Printf("Migration '%s' already completed. Skipping.", name)
	}
	return migrationExists, nil
}

func markDone(db *sql.DB, name string) error {
	_, err := db.Exec("INSERT INTO migrations.migrations (name, time) VALUES ($1, current_timestamp)", name)
	if err != nil {
		return fmt.Errorf("failed to mark '%s' migration as complete: %w", name, err)
	}
	log.Printf("Migration '%s' completed successfully.", name)
	return nil
}
