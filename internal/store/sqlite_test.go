package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnbizdata/collector-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRecord(taxID string) model.CanonicalRecord {
	return model.CanonicalRecord{
		TaxID:                taxID,
		Name:                 "Công ty TNHH Alpha",
		Address:              "12 Lý Thường Kiệt, Hoàn Kiếm",
		Representative:       "Nguyễn Văn A",
		Phone:                "0912345678",
		LicenseNumber:        taxID,
		LicenseDate:          "2015-06-01",
		Province:             "Hà Nội",
		RepresentativeSource: model.ProvenanceSecondary,
		PhoneSource:          model.ProvenanceSecondary,
		DataSource:           model.DataSourceDual,
		RawPrimary:           `{"MaSoThue":"` + taxID + `"}`,
		RawSecondary:         `{"phone":"Điện thoại: 0912345678"}`,
	}
}

func TestSQLite_UpsertAndGet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rec := sampleRecord("0101234567")
	require.NoError(t, s.UpsertRecord(ctx, rec))

	got, err := s.GetRecord(ctx, "0101234567")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.Representative, got.Representative)
	assert.Equal(t, model.ProvenanceSecondary, got.RepresentativeSource)
	assert.Equal(t, model.DataSourceDual, got.DataSource)
	assert.JSONEq(t, rec.RawPrimary, got.RawPrimary)
}

func TestSQLite_GetMissingRecord(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetRecord(context.Background(), "9999999999")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_UpsertTwiceKeepsOneRow(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	first := sampleRecord("0101234567")
	require.NoError(t, s.UpsertRecord(ctx, first))

	second := first
	second.Representative = "Trần Thị B"
	second.Phone = "0987654321"
	require.NoError(t, s.UpsertRecord(ctx, second))

	records, err := s.ListRecords(ctx, RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)

	// The second write wins.
	assert.Equal(t, "Trần Thị B", records[0].Representative)
	assert.Equal(t, "0987654321", records[0].Phone)
}

func TestSQLite_ListRecordsFilters(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	hanoi := sampleRecord("0101234567")
	require.NoError(t, s.UpsertRecord(ctx, hanoi))

	hcmc := sampleRecord("0301234567")
	hcmc.Province = "Hồ Chí Minh"
	hcmc.DataSource = model.DataSourcePrimary
	require.NoError(t, s.UpsertRecord(ctx, hcmc))

	byProvince, err := s.ListRecords(ctx, RecordFilter{Province: "Hà Nội"})
	require.NoError(t, err)
	require.Len(t, byProvince, 1)
	assert.Equal(t, "0101234567", byProvince[0].TaxID)

	bySource, err := s.ListRecords(ctx, RecordFilter{Source: model.DataSourcePrimary})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, "0301234567", bySource[0].TaxID)

	limited, err := s.ListRecords(ctx, RecordFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_RunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, "xây dựng", "Hà Nội")
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	report := &model.RunReport{Requested: 10, Collected: 8, Skipped: 1, Failed: 1}
	require.NoError(t, s.FinishRun(ctx, run.ID, report))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "xây dựng", got.Industry)
	require.NotNil(t, got.Report)
	assert.Equal(t, 8, got.Report.Collected)
	assert.NotNil(t, got.FinishedAt)
}

func TestSQLite_FinishUnknownRun(t *testing.T) {
	s := newTestSQLite(t)
	err := s.FinishRun(context.Background(), "missing", &model.RunReport{})
	require.Error(t, err)
}

func TestSQLite_Stats(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRecord(ctx, sampleRecord("0101234567")))
	primaryOnly := sampleRecord("0301234567")
	primaryOnly.Province = "Hồ Chí Minh"
	primaryOnly.DataSource = model.DataSourcePrimary
	require.NoError(t, s.UpsertRecord(ctx, primaryOnly))

	_, err := s.CreateRun(ctx, "xây dựng", "Hà Nội")
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRecords)
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.BySource["dual"])
	assert.Equal(t, 1, stats.BySource["primary"])
	assert.Equal(t, 1, stats.TopProvinces["Hà Nội"])
}
