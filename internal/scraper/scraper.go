// Package scraper resolves a representative image for an article. The feed
// rarely carries a usable picture, so this walks a cascade of heuristics:
// feed-native media fields, inline <img> tags in the item HTML, and as a
// last resort a fetch of the article page itself.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Page fetches use a real browser UA; several publishers serve bot UAs a
// stripped page without meta tags.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"

// DefaultJunkPatterns rejects tracking pixels, favicons, platform badges,
// share buttons and ad-network assets. Substring match on the lowercased URL.
// The exact contents are tuning data, not contract.
var DefaultJunkPatterns = []string{
	"google.com/logos", "google.com/news/badges", "googleusercontent.com",
	"follow_on_google_news", "add_to_google", "google-news-logo",
	"facebook.com/tr", "pixel", "favicon", "logo", "button", "badge",
	"social-share", "newsletter-signup", "banner-ad", "doubleclick",
	"ads-by-google", "wp-content/themes", "placeholder", "avatar",
	"1x1", "transparent", "spacer", "icon",
}

var inlineImg = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"'>]+)["']`)

// Meta tags checked in priority order before falling back to the body scan.
var metaSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:image"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`meta[itemprop="image"]`, "content"},
	{`link[rel="image_src"]`, "href"},
	{`link[rel="preload"][as="image"]`, "href"},
}

// Hunter performs the secondary per-article page fetches. All page fetches
// share one rate limiter so a large run stays polite to third-party sites.
type Hunter struct {
	client  *http.Client
	limiter *rate.Limiter
	junk    []string
}

// NewHunter builds a Hunter with the given per-request timeout. A nil
// limiter disables throttling.
func NewHunter(timeout time.Duration, limiter *rate.Limiter) *Hunter {
	return &Hunter{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		junk:    DefaultJunkPatterns,
	}
}

// IsJunk reports whether an image URL matches the denylist. Empty URLs are
// junk by definition.
func (h *Hunter) IsJunk(imageURL string) bool {
	if imageURL == "" {
		return true
	}
	low := strings.ToLower(imageURL)
	for _, pattern := range h.junk {
		if strings.Contains(low, pattern) {
			return true
		}
	}
	return false
}

// FirstInlineImage returns the first non-junk <img src> found in raw item
// HTML, or "" if there is none.
func (h *Hunter) FirstInlineImage(rawHTML string) string {
	for _, m := range inlineImg.FindAllStringSubmatch(rawHTML, -1) {
		if !h.IsJunk(m[1]) {
			return m[1]
		}
	}
	return ""
}

// HuntPage fetches the article page and searches it for a hero image.
// Best effort: any failure returns "".
func (h *Hunter) HuntPage(ctx context.Context, articleURL string) string {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return ""
		}
	}

	doc, err := h.fetchDocument(ctx, articleURL)
	if err != nil {
		log.WithFields(log.Fields{"url": articleURL, "error": err}).Debug("Image hunt fetch failed")
		return ""
	}
	return h.FindInDocument(doc, articleURL)
}

// FindInDocument searches a parsed page for a hero image: head meta tags
// first, then a body scan.
func (h *Hunter) FindInDocument(doc *goquery.Document, articleURL string) string {
	// Head first: publishers that care about sharing set og:image.
	for _, ms := range metaSelectors {
		content := doc.Find(ms.selector).First().AttrOr(ms.attr, "")
		if content != "" && !h.IsJunk(content) {
			return ResolveURL(content, articleURL)
		}
	}

	// Body scan. The container selectors are a search-order hint, the bare
	// img at the end still matches everything.
	var found string
	doc.Find("article img, main img, .content img, #content img, img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src := sel.AttrOr("src", sel.AttrOr("data-src", ""))
		if src == "" || h.IsJunk(src) {
			return true
		}
		// Skip declared icon-sized images.
		width, _ := strconv.Atoi(sel.AttrOr("width", "0"))
		height, _ := strconv.Atoi(sel.AttrOr("height", "0"))
		if (width > 0 && width < 100) || (height > 0 && height < 100) {
			return true
		}
		found = ResolveURL(src, articleURL)
		return false
	})
	return found
}

func (h *Hunter) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

// ResolveURL makes an image URL absolute. Protocol-relative URLs are
// promoted to https; relative paths resolve against the article URL.
func ResolveURL(raw, base string) string {
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	b, err := url.Parse(base)
	if err != nil {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return b.ResolveReference(ref).String()
}
