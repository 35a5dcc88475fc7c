// Package metrics keeps in-process counters for the ingestion pipeline,
// exposed through the monitoring endpoints.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsFetched      int64
	FeedErrors        int64
	ArticlesFetched   int64
	DuplicatesRemoved int64
	ImageHunts        int64
	SaveErrors        int64

	// Timings
	LastRunDuration    time.Duration
	TotalRunDuration   time.Duration
	RunCount           int64
	AverageRunDuration time.Duration

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementFeedsFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedsFetched++
}

func (m *Metrics) IncrementFeedErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedErrors++
}

func (m *Metrics) AddArticlesFetched(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFetched += n
}

func (m *Metrics) AddDuplicatesRemoved(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesRemoved += n
}

func (m *Metrics) IncrementImageHunts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ImageHunts++
}

func (m *Metrics) IncrementSaveErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveErrors++
}

func (m *Metrics) RecordRun(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastRunDuration = duration
	m.TotalRunDuration += duration
	m.RunCount++
	m.AverageRunDuration = m.TotalRunDuration / time.Duration(m.RunCount)
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"feeds_fetched":           m.FeedsFetched,
		"feed_errors":             m.FeedErrors,
		"articles_fetched":        m.ArticlesFetched,
		"duplicates_removed":      m.DuplicatesRemoved,
		"image_hunts":             m.ImageHunts,
		"save_errors":             m.SaveErrors,
		"last_run_duration_ms":    m.LastRunDuration.Milliseconds(),
		"average_run_duration_ms": m.AverageRunDuration.Milliseconds(),
		"run_count":               m.RunCount,
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error_time":         m.LastErrorTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
