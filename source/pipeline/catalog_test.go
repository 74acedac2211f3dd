package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipelines.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipelines:
  internship:
    prefix: INT
    stages:
      - name: " Applied "
        color: "#111111"
      - name: Hired
  workshop:
    stages:
      - name: Registered
`), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"course", "internship", "it-project", "workshop"}, catalog.Types())
	assert.Equal(t, "INT", catalog.Prefix("internship"))
	assert.Equal(t, "Applied", catalog["internship"].Stages[0].Name)
	assert.Len(t, catalog["course"].Stages, 12)
	assert.Equal(t, "W", catalog.Prefix("workshop"))
}

func TestLoadCatalogRejectsNamelessStage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipelines.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipelines:\n  course:\n    stages:\n      - color: red\n"), 0o600))

	_, err := LoadCatalog(path)
	assert.Error(t, err)
}

func TestCatalogPrefix(t *testing.T) {
	catalog := DefaultCatalog()

	assert.Equal(t, "CC", catalog.Prefix("course"))
	assert.Equal(t, "IC", catalog.Prefix("internship"))
	assert.Equal(t, "ITP", catalog.Prefix("it-project"))
	assert.Equal(t, "SC", catalog.Prefix("summer_camp"))
	assert.Equal(t, "LD", catalog.Prefix(""))

	prefix := catalog.Prefix("évènement-öffentlich")
	assert.True(t, utf8.ValidString(prefix))
	assert.Equal(t, "ÉÖ", prefix)
}

func TestWithOwner(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, withOwner([]string{"a", " a ", ""}, "b"))
	assert.Equal(t, []string{"b", "a"}, withOwner([]string{"b", "a"}, "a"))
	assert.Equal(t, []string{}, withOwner(nil, ""))
}

func TestIsValidDate(t *testing.T) {
	assert.True(t, isValidDate("2025-04-01"))
	assert.True(t, isValidDate("2025-04-01T10:00:00+05:30"))
	assert.False(t, isValidDate("01/04/2025"))
	assert.False(t, isValidDate(""))
}
