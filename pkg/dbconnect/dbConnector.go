package dbconnect

import "database/sql"

// Database is anything that can hand out a live *sql.DB.
type Database interface {
	Connect() (*sql.DB, error)
	Ping() error
}
