// Package storage persists articles, duplicate groups, colleague
// preferences and global settings in PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"github.com/aidoptation/news/internal/fetch"
)

// Store wraps the database connection.
type Store struct {
	db *sql.DB
}

// StoredArticle is an article read back from the store, carrying the
// current popularity counter for ranking.
type StoredArticle struct {
	fetch.Article
	VisitCount int
}

// Colleague is one tracked team member with their raw topic list.
type Colleague struct {
	Name      string
	TopicsRaw string
	CreatedAt time.Time
}

// GlobalTopicsKey is the well-known settings key holding the general feed's
// topic list.
const GlobalTopicsKey = "core_topics"

// New connects to PostgreSQL and initializes the schema.
func New(connectionString string) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	log.Info("PostgreSQL store connected")
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id SERIAL PRIMARY KEY,
		url TEXT UNIQUE NOT NULL,
		title TEXT NOT NULL,
		source VARCHAR(100) NOT NULL,
		published_at TIMESTAMP NOT NULL,
		description TEXT,
		image_url TEXT,
		topics TEXT NOT NULL DEFAULT '[]',
		visit_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);
	CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);

	CREATE TABLE IF NOT EXISTS article_groups (
		id SERIAL PRIMARY KEY,
		canonical_url TEXT NOT NULL,
		duplicate_urls TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS colleagues (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) UNIQUE NOT NULL,
		topics TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS global_settings (
		key VARCHAR(100) PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// UpsertArticle inserts or refreshes an article keyed by URL, so re-ingestion
// updates in place. The visit counter is owned by the read side and never
// touched here.
func (s *Store) UpsertArticle(ctx context.Context, a fetch.Article) error {
	topicsJSON, err := json.Marshal(a.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}

	query := `
		INSERT INTO articles (url, title, source, published_at, description, image_url, topics)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			published_at = EXCLUDED.published_at,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			topics = EXCLUDED.topics,
			updated_at = NOW()
	`
	if _, err := s.db.ExecContext(ctx, query, a.URL, a.Title, a.Source, a.PublishedAt, a.Description, a.ImageURL, string(topicsJSON)); err != nil {
		return fmt.Errorf("upsert article %s: %w", a.URL, err)
	}
	return nil
}

// SaveGroup records one duplicate cluster for downstream bookkeeping.
func (s *Store) SaveGroup(ctx context.Context, canonicalURL string, duplicateURLs []string) error {
	urlsJSON, err := json.Marshal(duplicateURLs)
	if err != nil {
		return fmt.Errorf("marshal duplicate urls: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO article_groups (canonical_url, duplicate_urls) VALUES ($1, $2)`,
		canonicalURL, string(urlsJSON))
	if err != nil {
		return fmt.Errorf("save group for %s: %w", canonicalURL, err)
	}
	return nil
}

// ColleagueTopicLists returns the raw JSON topic list of every colleague.
func (s *Store) ColleagueTopicLists(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT topics FROM colleagues`)
	if err != nil {
		return nil, fmt.Errorf("query colleague topics: %w", err)
	}
	defer rows.Close()

	var lists []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan colleague topics: %w", err)
		}
		lists = append(lists, raw)
	}
	return lists, rows.Err()
}

// GlobalTopicList returns the raw JSON topic list stored under the
// well-known key, or "" when unset.
func (s *Store) GlobalTopicList(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM global_settings WHERE key = $1`, GlobalTopicsKey).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query global topics: %w", err)
	}
	return value, nil
}

// SetGlobalSetting stores a raw JSON value under a key.
func (s *Store) SetGlobalSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO global_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// UpsertColleague creates or updates a colleague's topic list.
func (s *Store) UpsertColleague(ctx context.Context, name, topicsRaw string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("colleague name is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO colleagues (name, topics) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET topics = EXCLUDED.topics
	`, name, topicsRaw)
	if err != nil {
		return fmt.Errorf("upsert colleague %s: %w", name, err)
	}
	return nil
}

// ListColleagues returns all tracked colleagues ordered by name.
func (s *Store) ListColleagues(ctx context.Context) ([]Colleague, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, topics, created_at FROM colleagues ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query colleagues: %w", err)
	}
	defer rows.Close()

	var out []Colleague
	for rows.Next() {
		var c Colleague
		if err := rows.Scan(&c.Name, &c.TopicsRaw, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan colleague: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListArticles reads recent articles for ranking. With topic filters it
// matches any of the given topics; otherwise it restricts to the curated
// source names. Results come back newest first.
func (s *Store) ListArticles(ctx context.Context, filterTopics, curatedSources []string, limit int) ([]StoredArticle, error) {
	var (
		where string
		args  []interface{}
	)
	if len(filterTopics) > 0 {
		var clauses []string
		for i, topic := range filterTopics {
			clauses = append(clauses, fmt.Sprintf("topics LIKE $%d", i+1))
			args = append(args, "%"+topic+"%")
		}
		where = "WHERE " + strings.Join(clauses, " OR ")
	} else if len(curatedSources) > 0 {
		where = "WHERE source = ANY($1)"
		args = append(args, pq.Array(curatedSources))
	}

	query := fmt.Sprintf(`
		SELECT url, title, source, published_at, COALESCE(description, ''), COALESCE(image_url, ''), topics, visit_count
		FROM articles %s
		ORDER BY published_at DESC
		LIMIT $%d
	`, where, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var out []StoredArticle
	for rows.Next() {
		var (
			a         StoredArticle
			topicsRaw string
		)
		if err := rows.Scan(&a.URL, &a.Title, &a.Source, &a.PublishedAt, &a.Description, &a.ImageURL, &topicsRaw, &a.VisitCount); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if err := json.Unmarshal([]byte(topicsRaw), &a.Topics); err != nil {
			log.WithFields(log.Fields{"url": a.URL, "error": err}).Warn("Skipping article with malformed topics")
			continue
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// IncrementVisit bumps the popularity counter for one article.
func (s *Store) IncrementVisit(ctx context.Context, url string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET visit_count = visit_count + 1 WHERE url = $1`, url)
	if err != nil {
		return fmt.Errorf("increment visit for %s: %w", url, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no article with url %s", url)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
