package fetch

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"

	"github.com/aidoptation/news/internal/scraper"
	"github.com/aidoptation/news/internal/sources"
	"github.com/aidoptation/news/internal/topics"
)

// Article is one normalized feed item. The URL is the unique key across the
// whole pipeline; the source trust priority rides along for dedup and
// ranking.
type Article struct {
	Title       string
	URL         string
	Source      string
	PublishedAt time.Time
	Description string
	ImageURL    string
	Topics      []string
	Priority    int
}

const maxDescriptionRunes = 500

var (
	collapseSpace = regexp.MustCompile(`\s+`)
	bracketed     = regexp.MustCompile(`\[.*?\]`)
	parenthesized = regexp.MustCompile(`\(.*?\)`)
	trailingDash  = regexp.MustCompile(` - .*$`)
)

// CleanTitle strips publisher annotations: bracketed and parenthesized
// segments and the trailing " - Source Name" pattern Google News appends.
func CleanTitle(title string) string {
	title = collapseSpace.ReplaceAllString(title, " ")
	title = bracketed.ReplaceAllString(title, "")
	title = parenthesized.ReplaceAllString(title, "")
	title = trailingDash.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// classifyTopics assigns topics by keyword substring match over the
// lowercased title and description, then tests each tracked dynamic topic
// name literally (hyphens read as spaces). Articles nothing matched get the
// "general" fallback so the topic set is never empty.
func (f *Fetcher) classifyTopics(title, description string, dynamic []topics.Topic) []string {
	text := strings.ToLower(title + " " + description)
	var matched []string

	names := make([]string, 0, len(f.registry.TopicKeywords))
	for name := range f.registry.TopicKeywords {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, keyword := range f.registry.TopicKeywords[name] {
			if strings.Contains(text, strings.ToLower(keyword)) {
				matched = append(matched, name)
				break
			}
		}
	}

	for _, t := range dynamic {
		phrase := strings.ReplaceAll(t.Name, "-", " ")
		if strings.Contains(text, phrase) {
			matched = append(matched, t.Name)
		}
	}

	if len(matched) == 0 {
		matched = append(matched, "general")
	}
	return matched
}

func description(item *gofeed.Item) string {
	desc := item.Description
	if desc == "" {
		desc = item.Content
	}
	if desc == "" {
		return ""
	}
	runes := []rune(desc)
	if len(runes) > maxDescriptionRunes {
		return string(runes[:maxDescriptionRunes])
	}
	return desc
}

// feedImage runs tiers one and two of the image cascade: feed-native media
// fields first, then the first inline <img> of the richest available HTML
// field. Junk candidates fall through to the next tier.
func (f *Fetcher) feedImage(item *gofeed.Item) string {
	candidates := []string{
		enclosureURL(item),
		mediaAttr(item, "content"),
		mediaAttr(item, "thumbnail"),
	}
	for _, c := range candidates {
		if c != "" && !f.hunter.IsJunk(c) {
			return scraper.ResolveURL(c, item.Link)
		}
	}

	for _, raw := range []string{item.Content, item.Description} {
		if raw == "" {
			continue
		}
		if img := f.hunter.FirstInlineImage(raw); img != "" {
			return scraper.ResolveURL(img, item.Link)
		}
		break
	}
	return ""
}

func enclosureURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

func mediaAttr(item *gofeed.Item, name string) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, ext := range media[name] {
		if url := ext.Attrs["url"]; url != "" {
			return url
		}
	}
	return ""
}

// normalizeItem turns one raw feed item into an Article, or nil when the
// item is unusable (missing title or link) or too old to be news.
func (f *Fetcher) normalizeItem(item *gofeed.Item, src sources.Source, dynamic []topics.Topic) *Article {
	if item.Title == "" || item.Link == "" {
		return nil
	}

	published := f.now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	}
	if f.now().Sub(published) > f.maxAge {
		return nil
	}

	title := CleanTitle(item.Title)
	desc := description(item)
	classified := f.classifyTopics(title, desc, dynamic)

	return &Article{
		Title:       title,
		URL:         item.Link,
		Source:      src.Name,
		PublishedAt: published,
		Description: desc,
		ImageURL:    f.feedImage(item),
		Topics:      lo.Uniq(append(append([]string{}, src.DefaultTopics...), classified...)),
		Priority:    src.Priority,
	}
}
