package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupNormalizesCountryCode(t *testing.T) {
	table := Default()

	for _, code := range []string{"DE", "de", " de ", "De"} {
		r, ok := table.Lookup(code)
		require.True(t, ok, "code %q", code)
		assert.Equal(t, "Germany", r.Name)
		assert.Equal(t, 24, r.MinDays)
	}
}

func TestLookupUnknownCountry(t *testing.T) {
	_, ok := Default().Lookup("ZZ")
	assert.False(t, ok)
}

func TestDefaultTableSanity(t *testing.T) {
	table := Default()

	us, ok := table.Lookup("US")
	require.True(t, ok)
	assert.Zero(t, us.MinDays)

	for code, r := range table {
		if code == "US" {
			continue
		}
		assert.Positive(t, r.MinDays, "country %s", code)
		assert.Positive(t, r.DenialLimitHint, "country %s", code)
	}
}

func TestLoadFileMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
DE:
  name: Germany (site policy)
  min_days: 30
  denial_limit_hint: 2
nz:
  name: New Zealand
  min_days: 20
  denial_limit_hint: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table := Default()
	require.NoError(t, table.LoadFile(path))

	de, ok := table.Lookup("DE")
	require.True(t, ok)
	assert.Equal(t, 30, de.MinDays)
	assert.Equal(t, 2, de.DenialLimitHint)

	nz, ok := table.Lookup("NZ")
	require.True(t, ok)
	assert.Equal(t, "New Zealand", nz.Name)

	// untouched entries survive the merge
	fr, ok := table.Lookup("FR")
	require.True(t, ok)
	assert.Equal(t, 25, fr.MinDays)
}

func TestLoadFileMissingPath(t *testing.T) {
	table := Default()
	assert.Error(t, table.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}
