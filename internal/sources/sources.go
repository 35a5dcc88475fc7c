// Package sources holds the static feed registry and the keyword taxonomy
// used to classify articles. The registry is plain data: the fetch stage
// decides what to do with it.
package sources

// Source describes one configured feed endpoint.
type Source struct {
	Name          string   `yaml:"name"`
	URL           string   `yaml:"url"`
	Priority      int      `yaml:"priority"`
	DefaultTopics []string `yaml:"default_topics"`

	// IsDynamic marks a templated source whose URL contains a {query}
	// placeholder filled in per tracked topic at fetch time.
	IsDynamic bool `yaml:"is_dynamic"`

	// IsSpecialized sources are excluded from the curated general feed.
	IsSpecialized bool `yaml:"is_specialized"`
}

// Registry bundles the feed list with the classification taxonomy so a
// pipeline run carries one explicit configuration value instead of reading
// package globals.
type Registry struct {
	Sources []Source

	// TopicKeywords maps topic name to keyword substrings that assign it.
	TopicKeywords map[string][]string

	// KnownCompanies is used to infer the company flag on tracked topics.
	KnownCompanies []string

	// CoreTopics is the preset offered for the global feed settings.
	CoreTopics []string

	// DefaultSearchTopics are already covered by the fixed feeds, so they
	// get no dedicated search source unless flagged as a company.
	DefaultSearchTopics []string

	// QuerySynonyms expands a tracked topic into a richer search query,
	// mostly for names with well-known abbreviations.
	QuerySynonyms map[string]string
}

// Default returns the built-in registry.
func Default() *Registry {
	return &Registry{
		Sources: []Source{
			// Official company blogs, high trust
			{Name: "Waymo Blog", URL: "https://waymo.com/blog/rss.xml", Priority: 10, DefaultTopics: []string{"waymo", "autonomous-driving"}},
			{Name: "Cruise Generator", URL: "https://medium.com/feed/cruise", Priority: 9, DefaultTopics: []string{"cruise", "autonomous-driving"}},
			{Name: "NVIDIA Blog (Auto)", URL: "https://blogs.nvidia.com/blog/category/auto/feed/", Priority: 9, DefaultTopics: []string{"nvidia", "autonomous-driving", "ai"}},
			{Name: "Mobileye News", URL: "https://news.mobileye.com/news-releases?format=rss", Priority: 9, DefaultTopics: []string{"mobileye", "autonomous-driving", "adas"}},

			// Major tech press
			{Name: "TechCrunch", URL: "https://techcrunch.com/tag/autonomous-vehicles/feed/", Priority: 8, DefaultTopics: []string{"autonomous-driving", "tech", "startups"}},
			{Name: "The Verge", URL: "https://www.theverge.com/rss/transportation/index.xml", Priority: 8, DefaultTopics: []string{"autonomous-driving", "transportation", "tech"}},
			{Name: "Electrek", URL: "https://electrek.co/feed/", Priority: 7, DefaultTopics: []string{"electric-vehicles", "autonomous-driving", "tesla"}},
			{Name: "Ars Technica", URL: "https://feeds.arstechnica.com/arstechnica/cars", Priority: 7, DefaultTopics: []string{"autonomous-driving", "tech", "automotive"}},
			{Name: "Reuters Technology", URL: "https://www.reutersagency.com/feed/?taxonomy=best-topics&post_type=best", Priority: 8, DefaultTopics: []string{"tech", "business", "autonomous-driving"}},

			// Industry and suppliers
			{Name: "Automotive News", URL: "https://www.autonews.com/rss/homepage", Priority: 6, DefaultTopics: []string{"automotive", "suppliers", "industry"}},

			// Templated search fallback
			{Name: "Google News", URL: "https://news.google.com/rss/search?q={query}&hl=en-US&gl=US&ceid=US:en", Priority: 5, IsDynamic: true},

			// Specialized verticals, hidden from the general feed
			{Name: "F1 Official News", URL: "https://www.formula1.com/en/latest/all.xml", Priority: 9, DefaultTopics: []string{"formula-1"}, IsSpecialized: true},
			{Name: "Autosport F1", URL: "https://www.autosport.com/rss/f1news.xml", Priority: 8, DefaultTopics: []string{"formula-1"}, IsSpecialized: true},
			{Name: "Motorsport F1", URL: "https://www.motorsport.com/rss/f1/news/", Priority: 8, DefaultTopics: []string{"formula-1"}, IsSpecialized: true},
			{Name: "Variety Film", URL: "https://variety.com/v/film/feed/", Priority: 8, DefaultTopics: []string{"cinema"}, IsSpecialized: true},
			{Name: "Hollywood Reporter", URL: "https://www.hollywoodreporter.com/feed/", Priority: 9, DefaultTopics: []string{"cinema"}, IsSpecialized: true},
			{Name: "Deadline Entertainment", URL: "https://deadline.com/feed/", Priority: 8, DefaultTopics: []string{"cinema"}, IsSpecialized: true},
		},

		TopicKeywords: map[string][]string{
			"autonomous-driving": {"autonomous", "self-driving", "driverless", "waymo", "cruise", "robotaxi", "adas"},
			"tesla":              {"tesla", "elon musk", "model 3", "model y", "cybertruck", "fsd"},
			// Generic "ev" is deliberately absent, it matches too much prose.
			"electric-vehicles": {"electric vehicle", "battery", "charging station", "bev", "evs"},
			"waymo":             {"waymo", "alphabet", "google car"},
			"suppliers":         {"supplier", "bosch", "continental", "denso", "tier 1", "tier 2"},
			"tech":              {"technology", "software", "ai", "artificial intelligence", "machine learning"},
			"automotive":        {"automotive", "car", "vehicle", "oem"},
			"formula-1":         {"formula 1", "f1", "grand prix", "fia", "max verstappen", "lewis hamilton", "ferrari", "mercedes f1", "red bull racing"},
			"cinema":            {"cinema", "movie", "film", "hollywood", "box office", "director", "casting news", "oscars", "academy awards"},
		},

		KnownCompanies: []string{
			"waymo", "cruise", "tesla", "nvidia", "mobileye",
			"apollo", "wayve", "rivian", "zoox", "pony.ai",
			"nuro", "aurora", "lucid", "byd", "nio", "xpeng",
		},

		CoreTopics: []string{
			"autonomous-driving", "electric-vehicles", "waymo", "suppliers",
			"tech", "automotive", "industry", "transportation",
			"cruise", "nvidia", "mobileye", "adas",
		},

		DefaultSearchTopics: []string{
			"autonomous-driving", "tesla", "waymo", "tech",
			"automotive", "suppliers", "electric-vehicles",
		},

		QuerySynonyms: map[string]string{
			"formula-1": `"formula 1" OR f1`,
			"f1":        `"formula 1" OR f1`,
		},
	}
}

// CuratedNames returns the names of sources shown on the general feed.
func (r *Registry) CuratedNames() []string {
	var names []string
	for _, s := range r.Sources {
		if !s.IsDynamic && !s.IsSpecialized {
			names = append(names, s.Name)
		}
	}
	return names
}

// Template returns the dynamic search source, or nil if none is configured.
func (r *Registry) Template() *Source {
	for i := range r.Sources {
		if r.Sources[i].IsDynamic {
			return &r.Sources[i]
		}
	}
	return nil
}

// Static returns all non-templated sources.
func (r *Registry) Static() []Source {
	var out []Source
	for _, s := range r.Sources {
		if !s.IsDynamic {
			out = append(out, s)
		}
	}
	return out
}

// PriorityFor looks up a source priority by name. Unknown sources (removed
// or renamed feeds still present in the store) get a middle-of-the-road 5.
func (r *Registry) PriorityFor(name string) int {
	for _, s := range r.Sources {
		if s.Name == name {
			return s.Priority
		}
	}
	return 5
}

// IsDefaultSearchTopic reports whether the fixed feeds already cover a topic.
func (r *Registry) IsDefaultSearchTopic(name string) bool {
	for _, t := range r.DefaultSearchTopics {
		if t == name {
			return true
		}
	}
	return false
}
