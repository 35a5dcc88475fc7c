// Package rank orders deduplicated articles for presentation by combining
// source trust, popularity, freshness and company affinity into one score.
package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/aidoptation/news/internal/fetch"
	"github.com/aidoptation/news/internal/sources"
)

// Scoring weights. Tuned against the existing feed; changing them changes
// the product, not just the code.
const (
	priorityWeight  = 10
	visitWeight     = 5
	freshnessWindow = 48.0 // hours
	companyBoost    = 25.0
)

// Scored pairs an article with its composite score and current popularity.
type Scored struct {
	fetch.Article
	VisitCount int
	Score      float64
}

// Freshness is a linear decay to zero over the freshness window, never
// negative.
func Freshness(publishedAt, now time.Time) float64 {
	ageHours := now.Sub(publishedAt).Hours()
	if ageHours >= freshnessWindow {
		return 0
	}
	return (freshnessWindow - ageHours) / 2
}

// Score computes the composite score for one article. companyTopics holds
// the lowercase names of actively tracked company topics.
func Score(a fetch.Article, visitCount int, registry *sources.Registry, companyTopics map[string]struct{}, now time.Time) float64 {
	score := float64(priorityWeight*registry.PriorityFor(a.Source)) +
		float64(visitWeight*visitCount) +
		Freshness(a.PublishedAt, now)

	for _, topic := range a.Topics {
		if _, ok := companyTopics[strings.ToLower(topic)]; ok {
			score += companyBoost
			break
		}
	}
	return score
}

// Rank scores and orders articles by descending score. The sort is stable:
// ties keep input order. visits supplies the current popularity count per
// article URL; missing entries count as zero.
func Rank(articles []fetch.Article, visits map[string]int, registry *sources.Registry, companyTopics map[string]struct{}, now time.Time) []Scored {
	scored := make([]Scored, len(articles))
	for i, a := range articles {
		scored[i] = Scored{
			Article:    a,
			VisitCount: visits[a.URL],
			Score:      Score(a, visits[a.URL], registry, companyTopics, now),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
