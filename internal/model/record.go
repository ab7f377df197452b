package model

import "time"

// Provenance marks which source contributed a field's final value.
type Provenance string

const (
	ProvenancePrimary     Provenance = "primary"
	ProvenanceSecondary   Provenance = "secondary"
	ProvenanceUnavailable Provenance = "unavailable"
)

// DataSource describes which sources contributed to a canonical record.
type DataSource string

const (
	DataSourcePrimary DataSource = "primary"
	DataSourceDual    DataSource = "dual"
)

// BaseRecord is a company row as returned by the registry API. It is
// transient: built per fetch, consumed by reconciliation, then discarded.
type BaseRecord struct {
	TaxID          string         `json:"tax_id"`
	Name           string         `json:"name"`
	Address        string         `json:"address"`
	Representative string         `json:"representative"`
	Phone          string         `json:"phone"`
	LicenseNumber  string         `json:"license_number"`
	LicenseDate    string         `json:"license_date"`
	Province       string         `json:"province"`
	Status         string         `json:"status,omitempty"`
	Industry       string         `json:"industry,omitempty"`
	Raw            map[string]any `json:"raw"` // source payload, kept verbatim for audit
}

// SupplementaryRecord holds the fields scraped from a company profile page.
// Any field except TaxID may be empty; a partial extraction is still valid.
type SupplementaryRecord struct {
	TaxID          string            `json:"tax_id"`
	Representative string            `json:"representative"`
	Phone          string            `json:"phone"`
	Address        string            `json:"address"`
	Email          string            `json:"email,omitempty"`
	Status         string            `json:"status,omitempty"`
	Raw            map[string]string `json:"raw"`
}

// CanonicalRecord is the merged, persisted representation of one company.
// Exactly one row per TaxID exists in the store.
type CanonicalRecord struct {
	TaxID          string `json:"tax_id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	Representative string `json:"representative"`
	Phone          string `json:"phone"`
	LicenseNumber  string `json:"license_number"`
	LicenseDate    string `json:"license_date"`
	Province       string `json:"province"`

	// SecondaryAddress is the scraped tax address, kept as an auxiliary
	// attribute. It never replaces Address: the registry's registration
	// address is the field of record.
	SecondaryAddress string `json:"secondary_address,omitempty"`
	Email            string `json:"email,omitempty"`
	Status           string `json:"status,omitempty"`
	Industry         string `json:"industry,omitempty"`

	RepresentativeSource Provenance `json:"representative_source"`
	PhoneSource          Provenance `json:"phone_source"`
	DataSource           DataSource `json:"data_source"`

	RawPrimary   string `json:"raw_primary,omitempty"`
	RawSecondary string `json:"raw_secondary,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
