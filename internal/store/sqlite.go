package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vnbizdata/collector-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	tax_id                TEXT PRIMARY KEY,
	name                  TEXT NOT NULL DEFAULT '',
	address               TEXT NOT NULL DEFAULT '',
	representative        TEXT NOT NULL DEFAULT '',
	phone                 TEXT NOT NULL DEFAULT '',
	license_number        TEXT NOT NULL DEFAULT '',
	license_date          TEXT NOT NULL DEFAULT '',
	province              TEXT NOT NULL DEFAULT '',
	status                TEXT NOT NULL DEFAULT '',
	industry              TEXT NOT NULL DEFAULT '',
	secondary_address     TEXT NOT NULL DEFAULT '',
	email                 TEXT NOT NULL DEFAULT '',
	representative_source TEXT NOT NULL DEFAULT 'unavailable',
	phone_source          TEXT NOT NULL DEFAULT 'unavailable',
	data_source           TEXT NOT NULL DEFAULT 'primary',
	raw_primary           TEXT,
	raw_secondary         TEXT,
	created_at            DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS collection_runs (
	id          TEXT PRIMARY KEY,
	industry    TEXT NOT NULL,
	location    TEXT NOT NULL,
	report      TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_companies_province ON companies(province);
CREATE INDEX IF NOT EXISTS idx_companies_data_source ON companies(data_source);
CREATE INDEX IF NOT EXISTS idx_collection_runs_started_at ON collection_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertRecord writes a canonical record, keeping at most one row per
// tax identifier. A second write for the same id wins field-by-field
// but preserves the original created_at.
func (s *SQLiteStore) UpsertRecord(ctx context.Context, rec model.CanonicalRecord) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (
			tax_id, name, address, representative, phone,
			license_number, license_date, province, status, industry,
			secondary_address, email, representative_source, phone_source,
			data_source, raw_primary, raw_secondary, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tax_id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			representative = excluded.representative,
			phone = excluded.phone,
			license_number = excluded.license_number,
			license_date = excluded.license_date,
			province = excluded.province,
			status = excluded.status,
			industry = excluded.industry,
			secondary_address = excluded.secondary_address,
			email = excluded.email,
			representative_source = excluded.representative_source,
			phone_source = excluded.phone_source,
			data_source = excluded.data_source,
			raw_primary = excluded.raw_primary,
			raw_secondary = excluded.raw_secondary,
			updated_at = excluded.updated_at`,
		rec.TaxID, rec.Name, rec.Address, rec.Representative, rec.Phone,
		rec.LicenseNumber, rec.LicenseDate, rec.Province, rec.Status, rec.Industry,
		rec.SecondaryAddress, rec.Email, string(rec.RepresentativeSource), string(rec.PhoneSource),
		string(rec.DataSource), rec.RawPrimary, rec.RawSecondary, now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert record %s", rec.TaxID)
}

const recordColumns = `tax_id, name, address, representative, phone, license_number, license_date, province, status, industry, secondary_address, email, representative_source, phone_source, data_source, raw_primary, raw_secondary, created_at, updated_at`

func (s *SQLiteStore) GetRecord(ctx context.Context, taxID string) (*model.CanonicalRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM companies WHERE tax_id = ?`, taxID)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", taxID)
	}
	return rec, nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.CanonicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM companies WHERE 1=1`
	var args []any

	if filter.Province != "" {
		query += ` AND province = ?`
		args = append(args, filter.Province)
	}
	if filter.Source != "" {
		query += ` AND data_source = ?`
		args = append(args, string(filter.Source))
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()

	var recs []model.CanonicalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, industry, location string) (*model.CollectionRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collection_runs (id, industry, location, started_at) VALUES (?, ?, ?, ?)`,
		id, industry, location, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.CollectionRun{
		ID:        id,
		Industry:  industry,
		Location:  location,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE collection_runs SET report = ?, finished_at = ? WHERE id = ?`,
		string(reportJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.CollectionRun, error) {
	var r model.CollectionRun
	var reportJSON sql.NullString
	var finishedAt sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, industry, location, report, started_at, finished_at FROM collection_runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &r.Industry, &r.Location, &reportJSON, &r.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}

	if reportJSON.Valid {
		var report model.RunReport
		if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal report for run %s", runID)
		}
		r.Report = &report
	}
	if finishedAt.Valid {
		r.FinishedAt = &finishedAt.Time
	}
	return &r, nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*model.StoreStats, error) {
	stats := &model.StoreStats{
		BySource:     map[string]int{},
		TopProvinces: map[string]int{},
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM companies`).Scan(&stats.TotalRecords); err != nil {
		return nil, eris.Wrap(err, "sqlite: count companies")
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collection_runs`).Scan(&stats.TotalRuns); err != nil {
		return nil, eris.Wrap(err, "sqlite: count runs")
	}

	if err := scanCounts(ctx, s.db,
		`SELECT data_source, COUNT(*) FROM companies GROUP BY data_source`,
		stats.BySource); err != nil {
		return nil, eris.Wrap(err, "sqlite: count by source")
	}
	if err := scanCounts(ctx, s.db,
		`SELECT province, COUNT(*) FROM companies WHERE province != '' GROUP BY province ORDER BY COUNT(*) DESC LIMIT 10`,
		stats.TopProvinces); err != nil {
		return nil, eris.Wrap(err, "sqlite: count by province")
	}

	return stats, nil
}

func scanCounts(ctx context.Context, db *sql.DB, query string, dest map[string]int) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		dest[key] = n
	}
	return rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*model.CanonicalRecord, error) {
	var rec model.CanonicalRecord
	var repSource, phoneSource, dataSource string
	var rawPrimary, rawSecondary sql.NullString

	err := row.Scan(
		&rec.TaxID, &rec.Name, &rec.Address, &rec.Representative, &rec.Phone,
		&rec.LicenseNumber, &rec.LicenseDate, &rec.Province, &rec.Status, &rec.Industry,
		&rec.SecondaryAddress, &rec.Email, &repSource, &phoneSource,
		&dataSource, &rawPrimary, &rawSecondary, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.RepresentativeSource = model.Provenance(repSource)
	rec.PhoneSource = model.Provenance(phoneSource)
	rec.DataSource = model.DataSource(dataSource)
	rec.RawPrimary = rawPrimary.String
	rec.RawSecondary = rawSecondary.String
	return &rec, nil
}
