package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidoptation/news/internal/fetch"
	"github.com/aidoptation/news/internal/sources"
)

func testArticle(source string, age time.Duration, now time.Time, tags ...string) fetch.Article {
	return fetch.Article{
		Title:       "t",
		URL:         "https://example.com/" + source,
		Source:      source,
		PublishedAt: now.Add(-age),
		Topics:      tags,
	}
}

func TestFreshness(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 24.0, Freshness(now, now), "brand new article contributes 24")
	assert.Equal(t, 0.0, Freshness(now.Add(-60*time.Hour), now), "60h old article contributes exactly 0")
	assert.Equal(t, 0.0, Freshness(now.Add(-48*time.Hour), now))
	assert.InDelta(t, 12.0, Freshness(now.Add(-24*time.Hour), now), 1e-9)
}

func TestScoreMonotonicInVisits(t *testing.T) {
	now := time.Now()
	reg := sources.Default()
	a := testArticle("Waymo Blog", time.Hour, now, "waymo")

	prev := Score(a, 0, reg, nil, now)
	for visits := 1; visits <= 5; visits++ {
		cur := Score(a, visits, reg, nil, now)
		assert.Greater(t, cur, prev, "score must strictly increase with visit count")
		prev = cur
	}
}

func TestScoreUnknownSourceDefaultPriority(t *testing.T) {
	now := time.Now()
	reg := sources.Default()
	a := testArticle("Removed Feed", 48*time.Hour, now)
	// 10*5 default priority, no freshness, no visits, no boost.
	assert.Equal(t, 50.0, Score(a, 0, reg, nil, now))
}

func TestScoreCompanyBoost(t *testing.T) {
	now := time.Now()
	reg := sources.Default()
	companies := map[string]struct{}{"waymo": {}}

	boosted := testArticle("Removed Feed", 48*time.Hour, now, "Waymo", "tech")
	plain := testArticle("Removed Feed", 48*time.Hour, now, "tech")

	assert.Equal(t, 25.0, Score(boosted, 0, reg, companies, now)-Score(plain, 0, reg, companies, now))

	// Boost applies once even with several matching tags.
	double := testArticle("Removed Feed", 48*time.Hour, now, "waymo", "waymo")
	assert.Equal(t, Score(boosted, 0, reg, companies, now), Score(double, 0, reg, companies, now))
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	now := time.Now()
	reg := sources.Default()

	low := testArticle("Automotive News", 47*time.Hour, now)   // priority 6, stale
	high := testArticle("Waymo Blog", time.Hour, now, "waymo") // priority 10, fresh

	scored := Rank([]fetch.Article{low, high}, nil, reg, nil, now)
	require.Len(t, scored, 2)
	assert.Equal(t, high.URL, scored[0].URL)
	assert.GreaterOrEqual(t, scored[0].Score, scored[1].Score)
}

func TestRankStableOnTies(t *testing.T) {
	now := time.Now()
	reg := sources.Default()

	first := testArticle("Removed Feed", 48*time.Hour, now)
	second := testArticle("Another Removed Feed", 48*time.Hour, now)

	scored := Rank([]fetch.Article{first, second}, nil, reg, nil, now)
	require.Len(t, scored, 2)
	assert.Equal(t, first.URL, scored[0].URL, "equal scores keep input order")
}

func TestRankReadsVisitsByURL(t *testing.T) {
	now := time.Now()
	reg := sources.Default()

	popular := testArticle("Automotive News", time.Hour, now)
	fresh := testArticle("Another Automotive News", time.Hour, now)
	visits := map[string]int{popular.URL: 30}

	scored := Rank([]fetch.Article{fresh, popular}, visits, reg, nil, now)
	require.Len(t, scored, 2)
	assert.Equal(t, popular.URL, scored[0].URL)
	assert.Equal(t, 30, scored[0].VisitCount)
	assert.Equal(t, 0, scored[1].VisitCount)
}
