package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryShape(t *testing.T) {
	reg := Default()
	require.NotEmpty(t, reg.Sources)

	seen := map[string]bool{}
	for _, s := range reg.Sources {
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.URL)
		assert.Positive(t, s.Priority)
		assert.False(t, seen[s.Name], "duplicate source name %s", s.Name)
		seen[s.Name] = true
	}
}

func TestTemplate(t *testing.T) {
	reg := Default()
	tmpl := reg.Template()
	require.NotNil(t, tmpl)
	assert.Contains(t, tmpl.URL, "{query}")

	none := &Registry{Sources: []Source{{Name: "Static", URL: "https://example.com/rss"}}}
	assert.Nil(t, none.Template())
}

func TestStaticExcludesTemplate(t *testing.T) {
	reg := Default()
	for _, s := range reg.Static() {
		assert.False(t, s.IsDynamic)
	}
	assert.Len(t, reg.Static(), len(reg.Sources)-1)
}

func TestCuratedNamesExcludesSpecializedAndDynamic(t *testing.T) {
	reg := Default()
	names := reg.CuratedNames()
	assert.Contains(t, names, "Waymo Blog")
	assert.NotContains(t, names, "Google News")
	assert.NotContains(t, names, "F1 Official News")
	assert.NotContains(t, names, "Variety Film")
}

func TestPriorityFor(t *testing.T) {
	reg := Default()
	assert.Equal(t, 10, reg.PriorityFor("Waymo Blog"))
	assert.Equal(t, 5, reg.PriorityFor("Long Gone Feed"))
}

func TestIsDefaultSearchTopic(t *testing.T) {
	reg := Default()
	assert.True(t, reg.IsDefaultSearchTopic("tesla"))
	assert.False(t, reg.IsDefaultSearchTopic("formula-1"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`sources:
  - name: Custom Feed
    url: https://example.com/rss.xml
    priority: 7
    default_topics: [tech, automotive]
`), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, reg.Sources, 1)
	assert.Equal(t, "Custom Feed", reg.Sources[0].Name)
	assert.Equal(t, 7, reg.Sources[0].Priority)
	assert.Equal(t, []string{"tech", "automotive"}, reg.Sources[0].DefaultTopics)

	// Overriding the feed list keeps the built-in taxonomy.
	assert.NotEmpty(t, reg.TopicKeywords)
	assert.NotEmpty(t, reg.KnownCompanies)
}

func TestLoadRejectsEmptyAndMissing(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("sources: []\n"), 0o644))

	_, err := Load(empty)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}
