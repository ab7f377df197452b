package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/vnbizdata/collector-cli/internal/model"
)

var headers = []string{
	"Mã số thuế",
	"Tên công ty",
	"Địa chỉ",
	"Người đại diện",
	"Điện thoại",
	"Giấy phép kinh doanh",
	"Ngày cấp",
	"Tỉnh/Thành phố",
	"Trạng thái",
	"Ngành nghề",
	"Địa chỉ thuế",
	"Email",
	"Nguồn người đại diện",
	"Nguồn điện thoại",
	"Nguồn dữ liệu",
}

// WriteRecords writes canonical records to an XLSX workbook: one header
// row, one row per record, no styling.
func WriteRecords(path string, records []model.CanonicalRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Companies")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range headers {
		header.AddCell().SetString(h)
	}

	for _, rec := range records {
		row := sheet.AddRow()
		for _, v := range []string{
			rec.TaxID,
			rec.Name,
			rec.Address,
			rec.Representative,
			rec.Phone,
			rec.LicenseNumber,
			rec.LicenseDate,
			rec.Province,
			rec.Status,
			rec.Industry,
			rec.SecondaryAddress,
			rec.Email,
			string(rec.RepresentativeSource),
			string(rec.PhoneSource),
			string(rec.DataSource),
		} {
			row.AddCell().SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
