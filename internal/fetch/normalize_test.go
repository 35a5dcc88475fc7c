package fetch

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidoptation/news/internal/scraper"
	"github.com/aidoptation/news/internal/sources"
	"github.com/aidoptation/news/internal/topics"
)

func newTestFetcher(opts ...Option) *Fetcher {
	hunter := scraper.NewHunter(time.Second, nil)
	opts = append([]Option{WithHuntsPerSource(0)}, opts...)
	return New(sources.Default(), hunter, opts...)
}

func TestCleanTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Waymo expands robotaxi service", "Waymo expands robotaxi service"},
		{"Waymo   expands\trobotaxi\nservice", "Waymo expands robotaxi service"},
		{"[Breaking] Waymo expands robotaxi service", "Waymo expands robotaxi service"},
		{"Waymo expands robotaxi service (Update)", "Waymo expands robotaxi service"},
		{"Waymo expands robotaxi service - The Verge", "Waymo expands robotaxi service"},
		{"[Exclusive] Waymo expands (again) - TechCrunch", "Waymo expands"},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanTitle(tc.in), tc.in)
	}
}

func TestClassifyTopics(t *testing.T) {
	f := newTestFetcher()

	got := f.classifyTopics("Waymo expands robotaxi service in Austin", "", nil)
	assert.Contains(t, got, "waymo")
	assert.Contains(t, got, "autonomous-driving")
	assert.NotContains(t, got, "general")

	// Dynamic topics match their name literally, hyphens read as spaces.
	dynamic := []topics.Topic{{Name: "solid-state-batteries", Active: true}}
	got = f.classifyTopics("New solid state batteries promise longer range", "", dynamic)
	assert.Contains(t, got, "solid-state-batteries")

	// Keywords also match in the description.
	got = f.classifyTopics("Quarterly results", "Cybertruck deliveries slipped again", nil)
	assert.Contains(t, got, "tesla")

	got = f.classifyTopics("Weekly weather update", "", nil)
	assert.Equal(t, []string{"general"}, got)
}

func TestClassifyTopicsDeterministic(t *testing.T) {
	f := newTestFetcher()
	first := f.classifyTopics("Waymo robotaxi software update", "", nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, f.classifyTopics("Waymo robotaxi software update", "", nil))
	}
}

func TestDescription(t *testing.T) {
	long := strings.Repeat("ä", 600)
	got := description(&gofeed.Item{Description: long})
	assert.Equal(t, maxDescriptionRunes, len([]rune(got)))

	assert.Equal(t, "from content", description(&gofeed.Item{Content: "from content"}))
	assert.Equal(t, "from description", description(&gofeed.Item{Description: "from description", Content: "from content"}))
	assert.Empty(t, description(&gofeed.Item{}))
}

func mediaExt(name, url string) ext.Extensions {
	return ext.Extensions{
		"media": {name: {{Name: name, Attrs: map[string]string{"url": url}}}},
	}
}

func TestFeedImageTiers(t *testing.T) {
	f := newTestFetcher()

	item := &gofeed.Item{
		Link:       "https://example.com/post",
		Enclosures: []*gofeed.Enclosure{{URL: "https://cdn.example.com/enclosure.jpg"}},
		Extensions: mediaExt("content", "https://cdn.example.com/media.jpg"),
	}
	assert.Equal(t, "https://cdn.example.com/enclosure.jpg", f.feedImage(item), "enclosure wins over media:content")

	item = &gofeed.Item{
		Link:       "https://example.com/post",
		Enclosures: []*gofeed.Enclosure{{URL: "https://cdn.example.com/og-banner-google-news-logo.png"}},
		Extensions: mediaExt("content", "https://cdn.example.com/media.jpg"),
	}
	assert.Equal(t, "https://cdn.example.com/media.jpg", f.feedImage(item), "junk enclosure falls through to media:content")

	item = &gofeed.Item{
		Link:       "https://example.com/post",
		Extensions: mediaExt("thumbnail", "https://cdn.example.com/thumb.jpg"),
	}
	assert.Equal(t, "https://cdn.example.com/thumb.jpg", f.feedImage(item))

	item = &gofeed.Item{
		Link:    "https://example.com/post",
		Content: `<p>x</p><img src="/images/inline.jpg">`,
	}
	assert.Equal(t, "https://example.com/images/inline.jpg", f.feedImage(item), "inline image resolves against the article URL")

	item = &gofeed.Item{
		Link:        "https://example.com/post",
		Description: `<img src="https://cdn.example.com/desc.jpg">`,
	}
	assert.Equal(t, "https://cdn.example.com/desc.jpg", f.feedImage(item))

	assert.Empty(t, f.feedImage(&gofeed.Item{Link: "https://example.com/post"}))
}

func TestNormalizeItemSkipsUnusable(t *testing.T) {
	f := newTestFetcher()
	src := sources.Source{Name: "Test", Priority: 7}

	assert.Nil(t, f.normalizeItem(&gofeed.Item{Link: "https://example.com/a"}, src, nil))
	assert.Nil(t, f.normalizeItem(&gofeed.Item{Title: "no link"}, src, nil))
}

func TestNormalizeItemRecencyWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	f := newTestFetcher(WithClock(func() time.Time { return now }), WithMaxAge(14*24*time.Hour))
	src := sources.Source{Name: "Test", Priority: 7}

	old := now.Add(-15 * 24 * time.Hour)
	assert.Nil(t, f.normalizeItem(&gofeed.Item{Title: "old", Link: "https://example.com/old", PublishedParsed: &old}, src, nil))

	recent := now.Add(-13 * 24 * time.Hour)
	a := f.normalizeItem(&gofeed.Item{Title: "recent", Link: "https://example.com/recent", PublishedParsed: &recent}, src, nil)
	require.NotNil(t, a)
	assert.Equal(t, recent, a.PublishedAt)

	// Missing publish dates default to now, which always passes the window.
	a = f.normalizeItem(&gofeed.Item{Title: "undated", Link: "https://example.com/undated"}, src, nil)
	require.NotNil(t, a)
	assert.Equal(t, now, a.PublishedAt)
}

func TestNormalizeItemMergesTopics(t *testing.T) {
	f := newTestFetcher()
	src := sources.Source{Name: "Waymo Blog", Priority: 10, DefaultTopics: []string{"waymo", "autonomous-driving"}}

	a := f.normalizeItem(&gofeed.Item{
		Title: "Waymo opens rider-only service",
		Link:  "https://example.com/a",
	}, src, nil)
	require.NotNil(t, a)

	seen := map[string]int{}
	for _, topic := range a.Topics {
		seen[topic]++
	}
	assert.Equal(t, 1, seen["waymo"], "source defaults and classified topics deduplicate")
	assert.Equal(t, 1, seen["autonomous-driving"])
	assert.Equal(t, 10, a.Priority)
	assert.Equal(t, "Waymo Blog", a.Source)
}
