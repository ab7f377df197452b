package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnbizdata/collector-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_UpsertRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO companies`).
		WithArgs(
			"0101234567", "Công ty TNHH Alpha", "12 Lý Thường Kiệt, Hoàn Kiếm", "Nguyễn Văn A", "0912345678",
			"0101234567", "2015-06-01", "Hà Nội", "", "",
			"", "", "secondary", "secondary",
			"dual", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertRecord(context.Background(), sampleRecord("0101234567"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecord_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM companies WHERE tax_id = \$1`).
		WithArgs("9999999999").
		WillReturnError(pgx.ErrNoRows)

	rec, err := s.GetRecord(context.Background(), "9999999999")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"tax_id", "name", "address", "representative", "phone",
		"license_number", "license_date", "province", "status", "industry",
		"secondary_address", "email", "representative_source", "phone_source",
		"data_source", "raw_primary", "raw_secondary", "created_at", "updated_at",
	}).AddRow(
		"0101234567", "Công ty TNHH Alpha", "12 Lý Thường Kiệt", "Nguyễn Văn A", "0912345678",
		"0101234567", "2015-06-01", "Hà Nội", "", "",
		"", "", "secondary", "secondary",
		"dual", []byte(`{"MaSoThue":"0101234567"}`), []byte(nil), now, now,
	)

	mock.ExpectQuery(`SELECT .* FROM companies WHERE tax_id = \$1`).
		WithArgs("0101234567").
		WillReturnRows(rows)

	rec, err := s.GetRecord(context.Background(), "0101234567")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Nguyễn Văn A", rec.Representative)
	assert.Equal(t, model.ProvenanceSecondary, rec.RepresentativeSource)
	assert.JSONEq(t, `{"MaSoThue":"0101234567"}`, rec.RawPrimary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO collection_runs`).
		WithArgs(pgxmock.AnyArg(), "xây dựng", "Hà Nội", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "xây dựng", "Hà Nội")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "xây dựng", run.Industry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinishRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE collection_runs SET report`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FinishRun(context.Background(), "missing", &model.RunReport{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Stats(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM companies`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM collection_runs`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT data_source, COUNT\(\*\) FROM companies GROUP BY data_source`).
		WillReturnRows(pgxmock.NewRows([]string{"data_source", "count"}).
			AddRow("dual", 3).
			AddRow("primary", 2))
	mock.ExpectQuery(`SELECT province, COUNT\(\*\) FROM companies`).
		WillReturnRows(pgxmock.NewRows([]string{"province", "count"}).
			AddRow("Hà Nội", 4).
			AddRow("Hồ Chí Minh", 1))

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalRecords)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 3, stats.BySource["dual"])
	assert.Equal(t, 4, stats.TopProvinces["Hà Nội"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
