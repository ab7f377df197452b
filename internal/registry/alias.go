package registry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vnbizdata/collector-cli/internal/model"
)

// The registry API returns company objects under several field spellings
// depending on the endpoint generation: Vietnamese PascalCase keys
// (MaSoThue), snake_case keys (ma_so_thue), and occasional English
// aliases (TaxCode). Each canonical field carries an ordered alias list;
// the first alias present with a non-empty value wins.
var fieldAliases = map[string][]string{
	"tax_id":         {"MaSoThue", "ma_so_thue", "TaxCode", "tax_code"},
	"name":           {"Title", "title", "TenDoanhNghiep", "ten_doanh_nghiep", "Name", "name"},
	"address":        {"DiaChiCongTy", "dia_chi_cong_ty", "Address", "address", "DiaChi", "dia_chi"},
	"representative": {"ChuSoHuu", "chu_so_huu", "NguoiDaiDien", "nguoi_dai_dien"},
	"phone":          {"DienThoai", "dien_thoai", "Phone", "phone"},
	"license_number": {"GiayPhepKinhDoanh", "giay_phep_kinh_doanh"},
	"license_date":   {"NgayCap", "ngay_cap"},
	"province":       {"TinhThanhTitle", "tinh_thanh_title", "TinhThanh", "tinh_thanh"},
	"status":         {"TrangThaiHoatDong", "trang_thai_hoat_dong", "Status", "status"},
	"industry":       {"NganhNgheTitle", "nganh_nghe_title", "NganhNghe", "nganh_nghe"},
}

// The company list itself also moves around between payload shapes.
var listAliases = []string{"LtsItems", "LtsDoanhNghiep", "lts_items", "lts_doanh_nghiep"}

var totalAliases = []string{"TotalRow", "total_row", "Total", "total"}

// Page is one decoded page of registry search results.
type Page struct {
	Companies []model.BaseRecord
	Total     int
	Number    int
}

// decodePage decodes a raw registry payload into a Page. The list of
// companies may sit under any of the known list keys; a payload with
// none of them is malformed.
func decodePage(body []byte, pageNum int) (*Page, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &MalformedResponseError{Page: pageNum, Err: err}
	}

	page := &Page{Number: pageNum}

	for _, key := range totalAliases {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var total int
		if err := json.Unmarshal(raw, &total); err == nil {
			page.Total = total
			break
		}
	}

	var items []map[string]any
	found := false
	for _, key := range listAliases {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, &MalformedResponseError{Page: pageNum, Err: fmt.Errorf("decode %s: %w", key, err)}
		}
		found = true
		break
	}
	if !found {
		return nil, &MalformedResponseError{Page: pageNum, Err: fmt.Errorf("no company list key in payload")}
	}

	page.Companies = make([]model.BaseRecord, 0, len(items))
	for _, item := range items {
		page.Companies = append(page.Companies, mapRecord(item))
	}

	return page, nil
}

// mapRecord resolves a raw company object into a BaseRecord via the
// alias table. The raw object is retained for provenance.
func mapRecord(item map[string]any) model.BaseRecord {
	rec := model.BaseRecord{Raw: item}
	rec.TaxID = firstAlias(item, fieldAliases["tax_id"])
	rec.Name = firstAlias(item, fieldAliases["name"])
	rec.Address = firstAlias(item, fieldAliases["address"])
	rec.Representative = firstAlias(item, fieldAliases["representative"])
	rec.Phone = firstAlias(item, fieldAliases["phone"])
	rec.LicenseNumber = firstAlias(item, fieldAliases["license_number"])
	rec.LicenseDate = firstAlias(item, fieldAliases["license_date"])
	rec.Province = firstAlias(item, fieldAliases["province"])
	rec.Status = firstAlias(item, fieldAliases["status"])
	rec.Industry = firstAlias(item, fieldAliases["industry"])
	return rec
}

func firstAlias(item map[string]any, aliases []string) string {
	for _, alias := range aliases {
		val, ok := item[alias]
		if !ok || val == nil {
			continue
		}
		switch v := val.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
		}
	}
	return ""
}
