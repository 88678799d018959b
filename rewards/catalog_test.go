package rewards

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	cost, ok := c.Cost("MUG")
	require.True(t, ok)
	assert.Equal(t, int64(5), cost)

	_, ok = c.Cost("PONY")
	assert.False(t, ok)

	assert.Equal(t, []string{"CAP", "GIFTCARD", "MUG", "TOTE"}, c.Codes())
}

func writeCatalogFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rewards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalogFile(t, "MUG: 3\nPLUSH: 8\n")

	c, err := Load(path)
	require.NoError(t, err)

	cost, ok := c.Cost("PLUSH")
	require.True(t, ok)
	assert.Equal(t, int64(8), cost)

	// The file replaces the default catalog entirely.
	_, ok = c.Cost("TOTE")
	assert.False(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"zero cost", "MUG: 0\n"},
		{"negative cost", "MUG: -5\n"},
		{"not a mapping", "- MUG\n- TOTE\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeCatalogFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
