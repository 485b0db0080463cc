package models

import "time"

const (
	SupplierActive   = "active"
	SupplierInactive = "inactive"
)

// Supplier is a configured upstream distributor. Stored in the suppliers
// table; status is toggled by an admin and last_sync_at is maintained by the
// sync job.
type Supplier struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Type        string     `json:"type"`
	APIEndpoint string     `json:"api_endpoint"`
	Credentials Credentials `json:"-"`
	Status      string     `json:"status"`
	LastSyncAt  *time.Time `json:"last_sync_at"`
}

// Credentials carries whichever secret material a connector type needs:
// a static token, or an OAuth2 client-credentials triple.
type Credentials struct {
	Token         string `json:"token,omitempty" yaml:"token"`
	ClientID      string `json:"client_id,omitempty" yaml:"client_id"`
	ClientSecret  string `json:"client_secret,omitempty" yaml:"client_secret"`
	TokenEndpoint string `json:"token_endpoint,omitempty" yaml:"token_endpoint"`
	Scope         string `json:"scope,omitempty" yaml:"scope"`
}

// SupplierConfig is the construction contract for connectors.
type SupplierConfig struct {
	Name        string      `yaml:"name"`
	Slug        string      `yaml:"slug"`
	Type        string      `yaml:"type"`
	APIEndpoint string      `yaml:"api_endpoint"`
	Credentials Credentials `yaml:"credentials"`
}
