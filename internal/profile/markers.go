package profile

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Markers are the labels that precede each field of interest on a
// company profile page. The page is rendered by a CMS the operators of
// the source site occasionally restyle, so the labels are configurable
// rather than baked in.
type Markers struct {
	Representative []string `yaml:"representative"`
	Phone          []string `yaml:"phone"`
	Address        []string `yaml:"address"`
	Email          []string `yaml:"email"`
	Status         []string `yaml:"status"`
}

// DefaultMarkers returns the labels observed on the source site today.
func DefaultMarkers() Markers {
	return Markers{
		Representative: []string{"Đại diện pháp luật:", "Người đại diện:", "Giám đốc:"},
		Phone:          []string{"Điện thoại:", "Điện thoại liên hệ:", "SĐT:"},
		Address:        []string{"Địa chỉ thuế:", "Địa chỉ:", "Địa chỉ trụ sở:"},
		Email:          []string{"Email:"},
		Status:         []string{"Tình trạng hoạt động:", "Trạng thái:"},
	}
}

// LoadMarkers reads a marker table from a YAML file. Empty lists fall
// back to the defaults so a partial file only overrides what it names.
func LoadMarkers(path string) (Markers, error) {
	defaults := DefaultMarkers()

	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, eris.Wrapf(err, "profile: read markers %s", path)
	}

	var m Markers
	if err := yaml.Unmarshal(data, &m); err != nil {
		return defaults, eris.Wrapf(err, "profile: parse markers %s", path)
	}

	if len(m.Representative) == 0 {
		m.Representative = defaults.Representative
	}
	if len(m.Phone) == 0 {
		m.Phone = defaults.Phone
	}
	if len(m.Address) == 0 {
		m.Address = defaults.Address
	}
	if len(m.Email) == 0 {
		m.Email = defaults.Email
	}
	if len(m.Status) == 0 {
		m.Status = defaults.Status
	}

	return m, nil
}
