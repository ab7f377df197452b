package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/vnbizdata/collector-cli/internal/model"
)

func TestWriteRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.xlsx")

	records := []model.CanonicalRecord{
		{
			TaxID:                "0109742955",
			Name:                 "Công ty CP Xây dựng Thành Đạt",
			Address:              "Số 5 Trần Hưng Đạo, Hoàn Kiếm",
			Representative:       "Hoàng Anh Quyết",
			Phone:                "0938588768",
			Province:             "Hà Nội",
			RepresentativeSource: model.ProvenanceSecondary,
			PhoneSource:          model.ProvenanceSecondary,
			DataSource:           model.DataSourceDual,
		},
		{
			TaxID:                "0101234567",
			Name:                 "Công ty TNHH Alpha",
			RepresentativeSource: model.ProvenanceUnavailable,
			PhoneSource:          model.ProvenanceUnavailable,
			DataSource:           model.DataSourcePrimary,
		},
	}

	require.NoError(t, WriteRecords(path, records))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3) // header + 2 records

	assert.Equal(t, "Mã số thuế", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "0109742955", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "Hoàng Anh Quyết", sheet.Rows[1].Cells[3].String())
	assert.Equal(t, "secondary", sheet.Rows[1].Cells[12].String())
	assert.Equal(t, "dual", sheet.Rows[1].Cells[14].String())
	assert.Equal(t, "primary", sheet.Rows[2].Cells[14].String())
}

func TestWriteRecords_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteRecords(path, nil))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets[0].Rows, 1) // header only
}
