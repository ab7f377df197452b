package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"

	"github.com/vnbizdata/collector-cli/internal/model"
)

// RecordFilter specifies criteria for listing canonical records.
type RecordFilter struct {
	Province string           `json:"province,omitempty"`
	Source   model.DataSource `json:"source,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for the collection pipeline.
// GetRecord returns (nil, nil) when no row exists for the tax id.
type Store interface {
	// Records
	UpsertRecord(ctx context.Context, rec model.CanonicalRecord) error
	GetRecord(ctx context.Context, taxID string) (*model.CanonicalRecord, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.CanonicalRecord, error)

	// Run audit
	CreateRun(ctx context.Context, industry, location string) (*model.CollectionRun, error)
	FinishRun(ctx context.Context, runID string, report *model.RunReport) error
	GetRun(ctx context.Context, runID string) (*model.CollectionRun, error)

	// Aggregates
	Stats(ctx context.Context) (*model.StoreStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
