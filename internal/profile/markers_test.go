package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMarkers_AllFieldsPopulated(t *testing.T) {
	m := DefaultMarkers()

	assert.Contains(t, m.Representative, "Đại diện pháp luật:")
	assert.Contains(t, m.Phone, "Điện thoại:")
	assert.Contains(t, m.Address, "Địa chỉ thuế:")
	assert.Contains(t, m.Email, "Email:")
	assert.Contains(t, m.Status, "Tình trạng hoạt động:")
}

func TestLoadMarkers_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "markers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("phone:\n  - \"Hotline:\"\n"), 0o644))

	m, err := LoadMarkers(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Hotline:"}, m.Phone)
	// Unspecified fields keep their defaults.
	assert.Equal(t, DefaultMarkers().Representative, m.Representative)
	assert.Equal(t, DefaultMarkers().Address, m.Address)
}

func TestLoadMarkers_MissingFile(t *testing.T) {
	m, err := LoadMarkers(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	// Defaults are still usable on error.
	assert.Equal(t, DefaultMarkers(), m)
}

func TestLoadMarkers_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{unclosed"), 0o644))

	_, err := LoadMarkers(path)
	require.Error(t, err)
}
