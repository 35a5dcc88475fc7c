// Package topics normalizes and merges the tracked-topic lists coming from
// the preference store into one resolved set for a pipeline run.
package topics

import (
	"encoding/json"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Topic is a normalized tracked interest.
type Topic struct {
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	IsCompany bool   `json:"isCompany"`
}

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeName lowercases, trims and collapses internal whitespace to a
// single hyphen. Idempotent: already-normalized names pass through unchanged.
func NormalizeName(name string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(strings.ToLower(name)), "-")
}

// Normalize turns a raw topic name into a Topic, inferring the company flag
// from the known-company list.
func Normalize(name string, knownCompanies []string) Topic {
	n := NormalizeName(name)
	return Topic{
		Name:      n,
		Active:    true,
		IsCompany: isKnownCompany(n, knownCompanies),
	}
}

func isKnownCompany(name string, knownCompanies []string) bool {
	for _, c := range knownCompanies {
		if c == name {
			return true
		}
	}
	return false
}

// entry decodes one stored topic entry, which may be a bare string or a
// structured object with explicit flags.
type entry struct {
	Name      string `json:"name"`
	Active    *bool  `json:"active"`
	IsCompany *bool  `json:"isCompany"`
}

func (e *entry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Name = s
		return nil
	}
	type plain entry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = entry(p)
	return nil
}

// ParseList decodes a stored JSON topic list into normalized Topics.
// Malformed entries are skipped, a broken preference row must not take the
// whole run down.
func ParseList(raw string, knownCompanies []string) []Topic {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var entries []entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Skipping malformed topic list")
		return nil
	}

	var out []Topic
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		t := Normalize(e.Name, knownCompanies)
		if e.Active != nil {
			t.Active = *e.Active
		}
		if e.IsCompany != nil {
			t.IsCompany = *e.IsCompany
		}
		out = append(out, t)
	}
	return out
}

// Resolve merges the per-colleague lists and the global list into a single
// deduplicated set, in first-seen order. When the same name shows up more
// than once the company and active flags are OR-ed: one colleague marking a
// topic inactive does not suppress it for everyone else.
func Resolve(lists ...[]Topic) []Topic {
	index := map[string]int{}
	var merged []Topic

	for _, list := range lists {
		for _, t := range list {
			if i, ok := index[t.Name]; ok {
				if t.IsCompany {
					merged[i].IsCompany = true
				}
				if t.Active {
					merged[i].Active = true
				}
				continue
			}
			index[t.Name] = len(merged)
			merged = append(merged, t)
		}
	}
	return merged
}

// ActiveCompanies returns the lowercase names of active company topics,
// as a set, for the ranking boost.
func ActiveCompanies(resolved []Topic) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range resolved {
		if t.Active && t.IsCompany {
			set[strings.ToLower(t.Name)] = struct{}{}
		}
	}
	return set
}
