package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountersAreConcurrencySafe(t *testing.T) {
	m := &Metrics{IsHealthy: true}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementFeedsFetched()
			m.IncrementFeedErrors()
			m.AddArticlesFetched(2)
			m.IncrementImageHunts()
			m.IncrementSaveErrors()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.FeedsFetched)
	assert.Equal(t, int64(50), m.FeedErrors)
	assert.Equal(t, int64(100), m.ArticlesFetched)
	assert.Equal(t, int64(50), m.ImageHunts)
	assert.Equal(t, int64(50), m.SaveErrors)
}

func TestRecordRunRestoresHealth(t *testing.T) {
	m := &Metrics{IsHealthy: true}

	m.SetError("feed exploded")
	assert.False(t, m.IsHealthy)
	assert.Equal(t, "feed exploded", m.LastError)

	m.RecordRun(120 * time.Millisecond)
	assert.True(t, m.IsHealthy)
	assert.Equal(t, int64(1), m.RunCount)
	assert.Equal(t, 120*time.Millisecond, m.AverageRunDuration)

	m.RecordRun(240 * time.Millisecond)
	assert.Equal(t, 180*time.Millisecond, m.AverageRunDuration)
}

func TestGetStatsKeys(t *testing.T) {
	m := &Metrics{IsHealthy: true}
	m.AddDuplicatesRemoved(3)

	stats := m.GetStats()
	assert.Equal(t, int64(3), stats["duplicates_removed"])
	assert.Equal(t, true, stats["is_healthy"])
	assert.Contains(t, stats, "last_run_duration_ms")
	assert.Contains(t, stats, "run_count")
}
