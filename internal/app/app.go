// Package app wires the pipeline stages together: topic resolution, feed
// fetching, deduplication, persistence and the ranked read path.
package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/aidoptation/news/internal/dedup"
	"github.com/aidoptation/news/internal/fetch"
	"github.com/aidoptation/news/internal/metrics"
	"github.com/aidoptation/news/internal/rank"
	"github.com/aidoptation/news/internal/sources"
	"github.com/aidoptation/news/internal/storage"
	"github.com/aidoptation/news/internal/topics"
)

// Store is the slice of the persistence layer the pipeline needs.
type Store interface {
	ColleagueTopicLists(ctx context.Context) ([]string, error)
	GlobalTopicList(ctx context.Context) (string, error)
	UpsertArticle(ctx context.Context, a fetch.Article) error
	SaveGroup(ctx context.Context, canonicalURL string, duplicateURLs []string) error
	ListArticles(ctx context.Context, filterTopics, curatedSources []string, limit int) ([]storage.StoredArticle, error)
}

// RunSummary reports what one ingestion run did.
type RunSummary struct {
	Fetched         int           `json:"fetched"`
	Unique          int           `json:"unique"`
	DuplicateGroups int           `json:"duplicateGroups"`
	Saved           int           `json:"saved"`
	Skipped         int           `json:"skipped"`
	Elapsed         time.Duration `json:"elapsedMs"`
}

// Pipeline is the ingestion core. Stateless between runs: every Run reads
// the tracked topics fresh from the store.
type Pipeline struct {
	registry *sources.Registry
	fetcher  *fetch.Fetcher
	store    Store
}

// New builds a Pipeline.
func New(registry *sources.Registry, fetcher *fetch.Fetcher, store Store) *Pipeline {
	return &Pipeline{registry: registry, fetcher: fetcher, store: store}
}

// ResolveTopics reads every colleague's topic list plus the global list and
// merges them into the run's tracked-topic set. A store failure here fails
// the run; malformed individual lists are skipped inside ParseList.
func (p *Pipeline) ResolveTopics(ctx context.Context) ([]topics.Topic, error) {
	colleagueLists, err := p.store.ColleagueTopicLists(ctx)
	if err != nil {
		return nil, fmt.Errorf("read colleague preferences: %w", err)
	}
	globalList, err := p.store.GlobalTopicList(ctx)
	if err != nil {
		return nil, fmt.Errorf("read global preferences: %w", err)
	}

	lists := make([][]topics.Topic, 0, len(colleagueLists)+1)
	for _, raw := range colleagueLists {
		lists = append(lists, topics.ParseList(raw, p.registry.KnownCompanies))
	}
	if globalList != "" {
		lists = append(lists, topics.ParseList(globalList, p.registry.KnownCompanies))
	}
	return topics.Resolve(lists...), nil
}

// Run executes one full ingestion pass: fetch, dedup, persist. Idempotent;
// re-running updates stored articles in place. Per-article save failures
// are skipped and counted, they never abort the batch.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	start := time.Now()

	tracked, err := p.ResolveTopics(ctx)
	if err != nil {
		metrics.Global.SetError(err.Error())
		return nil, err
	}

	articles := p.fetcher.FetchAll(ctx, tracked)
	metrics.Global.AddArticlesFetched(int64(len(articles)))

	result := dedup.Deduplicate(articles)
	metrics.Global.AddDuplicatesRemoved(int64(result.Stats.DuplicatesRemoved))
	log.WithFields(log.Fields{
		"input":   result.Stats.TotalInput,
		"unique":  result.Stats.UniqueOutput,
		"removed": result.Stats.DuplicatesRemoved,
	}).Info("Deduplication complete")

	saved, skipped := 0, 0
	for _, a := range result.Unique {
		if err := p.store.UpsertArticle(ctx, a); err != nil {
			metrics.Global.IncrementSaveErrors()
			log.WithFields(log.Fields{"url": a.URL, "error": err}).Warn("Skipping article save")
			skipped++
			continue
		}
		saved++
	}

	for _, g := range result.Groups {
		urls := make([]string, 0, len(g.Duplicates))
		for _, d := range g.Duplicates {
			urls = append(urls, d.URL)
		}
		if err := p.store.SaveGroup(ctx, g.Canonical.URL, urls); err != nil {
			log.WithFields(log.Fields{"url": g.Canonical.URL, "error": err}).Warn("Skipping group save")
		}
	}

	elapsed := time.Since(start)
	metrics.Global.RecordRun(elapsed)

	summary := &RunSummary{
		Fetched:         result.Stats.TotalInput,
		Unique:          result.Stats.UniqueOutput,
		DuplicateGroups: len(result.Groups),
		Saved:           saved,
		Skipped:         skipped,
		Elapsed:         elapsed,
	}
	log.WithFields(log.Fields{
		"fetched": summary.Fetched,
		"unique":  summary.Unique,
		"groups":  summary.DuplicateGroups,
		"saved":   summary.Saved,
		"skipped": summary.Skipped,
		"elapsed": elapsed,
	}).Info("Run complete")
	return summary, nil
}

// RankedArticles serves the read path: load recent articles for the
// requested topics (default: the active global topics, falling back to the
// curated sources) and order them by composite score.
func (p *Pipeline) RankedArticles(ctx context.Context, requested []string, limit int) ([]rank.Scored, error) {
	if limit <= 0 {
		limit = 100
	}

	globalRaw, err := p.store.GlobalTopicList(ctx)
	if err != nil {
		return nil, fmt.Errorf("read global preferences: %w", err)
	}
	globalTopics := topics.ParseList(globalRaw, p.registry.KnownCompanies)

	filter := requested
	if len(filter) == 0 {
		for _, t := range globalTopics {
			if t.Active {
				filter = append(filter, t.Name)
			}
		}
	}

	var curated []string
	if len(filter) == 0 {
		curated = p.registry.CuratedNames()
	}

	// Over-fetch so ranking has room to reorder before the cut.
	stored, err := p.store.ListArticles(ctx, filter, curated, limit*2)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	articles := make([]fetch.Article, len(stored))
	visits := make(map[string]int, len(stored))
	for i, sa := range stored {
		articles[i] = sa.Article
		visits[sa.URL] = sa.VisitCount
	}

	scored := rank.Rank(articles, visits, p.registry, topics.ActiveCompanies(globalTopics), time.Now())
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
