package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/vnbizdata/collector-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"upsert_company": pgUpsertCompany,
	"get_company":    `SELECT ` + recordColumns + ` FROM companies WHERE tax_id = $1`,
	"insert_run":     `INSERT INTO collection_runs (id, industry, location, started_at) VALUES ($1, $2, $3, $4)`,
	"finish_run":     `UPDATE collection_runs SET report = $1, finished_at = $2 WHERE id = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
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
	raw_primary           JSONB,
	raw_secondary         JSONB,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS collection_runs (
	id          TEXT PRIMARY KEY,
	industry    TEXT NOT NULL,
	location    TEXT NOT NULL,
	report      JSONB,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_companies_province ON companies(province);
CREATE INDEX IF NOT EXISTS idx_companies_data_source ON companies(data_source);
CREATE INDEX IF NOT EXISTS idx_collection_runs_started_at ON collection_runs(started_at);
`

const pgUpsertCompany = `
INSERT INTO companies (
	tax_id, name, address, representative, phone,
	license_number, license_date, province, status, industry,
	secondary_address, email, representative_source, phone_source,
	data_source, raw_primary, raw_secondary, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
ON CONFLICT (tax_id) DO UPDATE SET
	name = EXCLUDED.name,
	address = EXCLUDED.address,
	representative = EXCLUDED.representative,
	phone = EXCLUDED.phone,
	license_number = EXCLUDED.license_number,
	license_date = EXCLUDED.license_date,
	province = EXCLUDED.province,
	status = EXCLUDED.status,
	industry = EXCLUDED.industry,
	secondary_address = EXCLUDED.secondary_address,
	email = EXCLUDED.email,
	representative_source = EXCLUDED.representative_source,
	phone_source = EXCLUDED.phone_source,
	data_source = EXCLUDED.data_source,
	raw_primary = EXCLUDED.raw_primary,
	raw_secondary = EXCLUDED.raw_secondary,
	updated_at = EXCLUDED.updated_at`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertRecord(ctx context.Context, rec model.CanonicalRecord) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, pgUpsertCompany,
		rec.TaxID, rec.Name, rec.Address, rec.Representative, rec.Phone,
		rec.LicenseNumber, rec.LicenseDate, rec.Province, rec.Status, rec.Industry,
		rec.SecondaryAddress, rec.Email, string(rec.RepresentativeSource), string(rec.PhoneSource),
		string(rec.DataSource), nullIfEmpty(rec.RawPrimary), nullIfEmpty(rec.RawSecondary), now, now,
	)
	return eris.Wrapf(err, "postgres: upsert record %s", rec.TaxID)
}

func (s *PostgresStore) GetRecord(ctx context.Context, taxID string) (*model.CanonicalRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM companies WHERE tax_id = $1`, taxID)
	rec, err := scanPgRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", taxID)
	}
	return rec, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.CanonicalRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM companies WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.Province != "" {
		query += ` AND province = ` + arg(filter.Province)
	}
	if filter.Source != "" {
		query += ` AND data_source = ` + arg(string(filter.Source))
	}
	query += ` ORDER BY updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)

	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var recs []model.CanonicalRecord
	for rows.Next() {
		rec, err := scanPgRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list records iterate")
}

func (s *PostgresStore) CreateRun(ctx context.Context, industry, location string) (*model.CollectionRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO collection_runs (id, industry, location, started_at) VALUES ($1, $2, $3, $4)`,
		id, industry, location, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.CollectionRun{
		ID:        id,
		Industry:  industry,
		Location:  location,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE collection_runs SET report = $1, finished_at = $2 WHERE id = $3`,
		string(reportJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.CollectionRun, error) {
	var r model.CollectionRun
	var reportJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, industry, location, report, started_at, finished_at FROM collection_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Industry, &r.Location, &reportJSON, &r.StartedAt, &r.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if len(reportJSON) > 0 {
		var report model.RunReport
		if err := json.Unmarshal(reportJSON, &report); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal report for run %s", runID)
		}
		r.Report = &report
	}
	return &r, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*model.StoreStats, error) {
	stats := &model.StoreStats{
		BySource:     map[string]int{},
		TopProvinces: map[string]int{},
	}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM companies`).Scan(&stats.TotalRecords); err != nil {
		return nil, eris.Wrap(err, "postgres: count companies")
	}
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM collection_runs`).Scan(&stats.TotalRuns); err != nil {
		return nil, eris.Wrap(err, "postgres: count runs")
	}

	if err := s.scanCounts(ctx,
		`SELECT data_source, COUNT(*) FROM companies GROUP BY data_source`,
		stats.BySource); err != nil {
		return nil, eris.Wrap(err, "postgres: count by source")
	}
	if err := s.scanCounts(ctx,
		`SELECT province, COUNT(*) FROM companies WHERE province != '' GROUP BY province ORDER BY COUNT(*) DESC LIMIT 10`,
		stats.TopProvinces); err != nil {
		return nil, eris.Wrap(err, "postgres: count by province")
	}

	return stats, nil
}

func (s *PostgresStore) scanCounts(ctx context.Context, query string, dest map[string]int) error {
	rows, err := s.pool.Query(ctx, query)
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

func scanPgRecord(row pgx.Row) (*model.CanonicalRecord, error) {
	var rec model.CanonicalRecord
	var repSource, phoneSource, dataSource string
	var rawPrimary, rawSecondary []byte

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
	rec.RawPrimary = string(rawPrimary)
	rec.RawSecondary = string(rawSecondary)
	return &rec, nil
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
