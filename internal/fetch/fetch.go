// Package fetch expands the source registry into the run's full feed list,
// downloads every feed concurrently, and normalizes the raw items into
// Articles. One failing source contributes nothing; it never takes the run
// down with it.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"

	"github.com/aidoptation/news/internal/metrics"
	"github.com/aidoptation/news/internal/scraper"
	"github.com/aidoptation/news/internal/sources"
	"github.com/aidoptation/news/internal/topics"
)

const (
	defaultFeedTimeout = 10 * time.Second
	defaultMaxAge      = 14 * 24 * time.Hour

	// Cap on secondary page fetches per source, so a feed full of
	// image-less items does not turn into an unbounded crawl.
	defaultHuntsPerSource = 10

	feedUserAgent = "Aidoptation-News/1.0"
)

// Fetcher downloads and normalizes all configured feeds.
type Fetcher struct {
	registry *sources.Registry
	hunter   *scraper.Hunter

	feedTimeout    time.Duration
	maxAge         time.Duration
	huntsPerSource int

	// Injected clock, tests pin it.
	now func() time.Time
}

// Option tweaks a Fetcher.
type Option func(*Fetcher)

// WithMaxAge overrides the recency window.
func WithMaxAge(d time.Duration) Option {
	return func(f *Fetcher) { f.maxAge = d }
}

// WithFeedTimeout overrides the per-feed fetch timeout.
func WithFeedTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.feedTimeout = d }
}

// WithHuntsPerSource overrides the secondary image-fetch cap.
func WithHuntsPerSource(n int) Option {
	return func(f *Fetcher) { f.huntsPerSource = n }
}

// WithClock injects a deterministic clock.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// New builds a Fetcher over the given registry and image hunter.
func New(registry *sources.Registry, hunter *scraper.Hunter, opts ...Option) *Fetcher {
	f := &Fetcher{
		registry:       registry,
		hunter:         hunter,
		feedTimeout:    defaultFeedTimeout,
		maxAge:         defaultMaxAge,
		huntsPerSource: defaultHuntsPerSource,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ExpandSources returns the static sources plus one synthesized search
// source per dynamic topic. Topics already covered by the fixed feeds are
// skipped unless they are companies, which always get a dedicated search.
func (f *Fetcher) ExpandSources(dynamic []topics.Topic) []sources.Source {
	expanded := f.registry.Static()

	template := f.registry.Template()
	if template == nil {
		return expanded
	}

	for _, t := range dynamic {
		if f.registry.IsDefaultSearchTopic(t.Name) && !t.IsCompany {
			continue
		}
		expanded = append(expanded, sources.Source{
			Name:          fmt.Sprintf("%s (%s)", template.Name, t.Name),
			URL:           strings.Replace(template.URL, "{query}", url.QueryEscape(f.searchQuery(t)), 1),
			Priority:      template.Priority,
			DefaultTopics: []string{t.Name},
			IsDynamic:     true,
		})
	}
	return expanded
}

// searchQuery builds the search string for a dynamic topic. Companies get a
// disjunctive query biased toward official coverage; the synonym table
// widens topics whose common wording is an abbreviation.
func (f *Fetcher) searchQuery(t topics.Topic) string {
	if syn, ok := f.registry.QuerySynonyms[t.Name]; ok {
		return syn
	}
	if t.IsCompany {
		return fmt.Sprintf("%q news OR %q official", t.Name, t.Name)
	}
	return t.Name
}

// FetchAll downloads every source concurrently and returns the flattened
// article list. All fetches are joined all-settled: a timeout or parse error
// on one source logs, yields an empty slice for that slot, and leaves the
// others alone.
func (f *Fetcher) FetchAll(ctx context.Context, dynamic []topics.Topic) []Article {
	srcs := f.ExpandSources(dynamic)
	log.WithFields(log.Fields{"sources": len(srcs)}).Info("Fetching feeds")

	results := make([][]Article, len(srcs))
	var wg sync.WaitGroup
	for i, src := range srcs {
		wg.Add(1)
		go func(i int, src sources.Source) {
			defer wg.Done()
			articles, err := f.fetchSource(ctx, src, dynamic)
			if err != nil {
				metrics.Global.IncrementFeedErrors()
				log.WithFields(log.Fields{"source": src.Name, "error": err}).Warn("Feed fetch failed")
				return
			}
			metrics.Global.IncrementFeedsFetched()
			results[i] = articles
		}(i, src)
	}
	wg.Wait()

	var all []Article
	for _, batch := range results {
		all = append(all, batch...)
	}
	log.WithFields(log.Fields{"articles": len(all)}).Info("Fetch complete")
	return all
}

// fetchSource downloads one feed, with a single retry for transient errors,
// and normalizes its items.
func (f *Fetcher) fetchSource(ctx context.Context, src sources.Source, dynamic []topics.Topic) ([]Article, error) {
	feedCtx, cancel := context.WithTimeout(ctx, f.feedTimeout)
	defer cancel()

	parser := gofeed.NewParser()
	parser.UserAgent = feedUserAgent

	var feed *gofeed.Feed
	operation := func() error {
		parsed, err := parser.ParseURLWithContext(src.URL, feedCtx)
		if err != nil {
			return err
		}
		feed = parsed
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 1), feedCtx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	var articles []Article
	for _, item := range feed.Items {
		if a := f.normalizeItem(item, src, dynamic); a != nil {
			articles = append(articles, *a)
		}
	}

	f.huntMissingImages(ctx, src, articles)
	return articles, nil
}

// huntMissingImages runs the tier-three page fetch for the first few
// image-less articles of a source. Hunts run concurrently but share the
// hunter's rate limiter.
func (f *Fetcher) huntMissingImages(ctx context.Context, src sources.Source, articles []Article) {
	var wg sync.WaitGroup
	hunted := 0
	for i := range articles {
		if articles[i].ImageURL != "" {
			continue
		}
		if hunted >= f.huntsPerSource {
			break
		}
		hunted++
		wg.Add(1)
		go func(a *Article) {
			defer wg.Done()
			metrics.Global.IncrementImageHunts()
			a.ImageURL = f.hunter.HuntPage(ctx, a.URL)
		}(&articles[i])
	}
	wg.Wait()
	if hunted > 0 {
		log.WithFields(log.Fields{"source": src.Name, "hunts": hunted}).Debug("Image hunt finished")
	}
}
