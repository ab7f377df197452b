package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hà Nội", "ha-noi"},
		{"Hồ Chí Minh", "ho-chi-minh"},
		{"Đà Nẵng", "da-nang"},
		{"xây dựng", "xay-dung"},
		{"Bà Rịa - Vũng Tàu", "ba-ria-vung-tau"},
		{"Thừa Thiên Huế", "thua-thien-hue"},
		{"  spaced  out  ", "spaced-out"},
		{"already-slugged", "already-slugged"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "Slugify(%q)", tt.in)
	}
}
