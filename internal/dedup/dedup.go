// Package dedup collapses near-duplicate articles reported by multiple
// outlets into one canonical item per story. Matching is fuzzy: same story,
// different outlet, different URL, slightly reworded title.
package dedup

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/aidoptation/news/internal/fetch"
)

// Titles at or above this similarity are treated as the same story.
const similarityThreshold = 0.75

// Group is one cluster of near-duplicates: the chosen canonical plus the
// articles it displaced.
type Group struct {
	Canonical  fetch.Article
	Duplicates []fetch.Article
}

// Stats summarizes one dedup pass. UniqueOutput + DuplicatesRemoved always
// equals TotalInput.
type Stats struct {
	TotalInput        int
	UniqueOutput      int
	DuplicatesRemoved int
}

// Result is the output of Deduplicate.
type Result struct {
	Unique []fetch.Article
	Groups []Group
	Stats  Stats
}

var dice = func() *metrics.SorensenDice {
	m := metrics.NewSorensenDice()
	m.CaseSensitive = false
	return m
}()

// Similarity scores two titles on bigram overlap after the standard title
// cleanup. Symmetric, 1.0 for identical strings.
func Similarity(a, b string) float64 {
	return strutil.Similarity(normalize(a), normalize(b), dice)
}

func normalize(title string) string {
	return strings.ToLower(fetch.CleanTitle(title))
}

func areDuplicates(a, b fetch.Article) bool {
	return Similarity(a.Title, b.Title) >= similarityThreshold
}

// better decides between the current canonical and a challenger: higher
// trust priority wins, then having a description, then the more recent
// publication. Applied as a left-to-right reduction over a cluster.
func better(best, current fetch.Article) fetch.Article {
	if current.Priority != best.Priority {
		if current.Priority > best.Priority {
			return current
		}
		return best
	}
	if (current.Description != "") != (best.Description != "") {
		if current.Description != "" {
			return current
		}
		return best
	}
	if current.PublishedAt.After(best.PublishedAt) {
		return current
	}
	return best
}

// SelectCanonical reduces a non-empty cluster to its canonical member.
func SelectCanonical(cluster []fetch.Article) fetch.Article {
	best := cluster[0]
	for _, a := range cluster[1:] {
		best = better(best, a)
	}
	return best
}

// Deduplicate clusters the input greedily in order: each unclaimed article
// seeds a cluster and claims every later article similar to that seed.
// Pairwise against the seed only; no transitive chaining, so loosely
// related titles cannot merge whole chains of stories. The clustering
// partitions the input.
func Deduplicate(articles []fetch.Article) Result {
	claimed := make([]bool, len(articles))
	result := Result{Stats: Stats{TotalInput: len(articles)}}

	for i := range articles {
		if claimed[i] {
			continue
		}
		cluster := []fetch.Article{articles[i]}
		claimed[i] = true

		for j := i + 1; j < len(articles); j++ {
			if claimed[j] {
				continue
			}
			if areDuplicates(articles[i], articles[j]) {
				cluster = append(cluster, articles[j])
				claimed[j] = true
			}
		}

		canonical := SelectCanonical(cluster)
		result.Unique = append(result.Unique, canonical)

		// Singleton clusters are not duplicate groups.
		if len(cluster) > 1 {
			var displaced []fetch.Article
			for _, a := range cluster {
				if a.URL != canonical.URL {
					displaced = append(displaced, a)
				}
			}
			result.Groups = append(result.Groups, Group{Canonical: canonical, Duplicates: displaced})
		}
	}

	result.Stats.UniqueOutput = len(result.Unique)
	result.Stats.DuplicatesRemoved = result.Stats.TotalInput - result.Stats.UniqueOutput
	return result
}
