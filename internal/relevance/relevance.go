// Package relevance gates classification on whether a text mentions the
// monitored entity or one of its products.
package relevance

import (
	"errors"
	"sort"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Entity is the monitored organisation. Keywords maps a product or brand alias
// to the line of business it belongs to.
type Entity struct {
	Name     string
	Keywords map[string]string
}

// DefaultEntity is used when no entity is configured.
var DefaultEntity = Entity{
	Name: "Merck",
	Keywords: map[string]string{
		"Keytruda":     "oncology",
		"Lynparza":     "oncology",
		"Lenvima":      "oncology",
		"Welireg":      "oncology",
		"Gardasil":     "vaccines",
		"ProQuad":      "vaccines",
		"RotaTeq":      "vaccines",
		"Pneumovax":    "vaccines",
		"Vaxneuvance":  "vaccines",
		"Zostavax":     "vaccines",
		"Januvia":      "diabetes",
		"Janumet":      "diabetes",
		"Nasonex":      "respiratory",
		"Singulair":    "respiratory",
		"Zetia":        "cardiovascular",
		"Zocor":        "cardiovascular",
		"Cozaar":       "cardiovascular",
		"Isentress":    "virology",
		"Lagevrio":     "virology",
		"Molnupiravir": "virology",
		"Prevymis":     "virology",
		"Bridion":      "hospital",
		"Fosamax":      "bone health",
		"Propecia":     "dermatology",
	},
}

// Filter matches texts against the entity name and its keywords in a single
// pass. It is safe for concurrent use.
type Filter struct {
	mu      sync.Mutex
	entity  Entity
	terms   []string
	matcher *ahocorasick.Matcher
}

// Hit is a single matched term.
type Hit struct {
	Term     string
	Category string
}

// New builds a Filter for the entity.
func New(entity Entity) (*Filter, error) {
	name := strings.TrimSpace(entity.Name)
	if name == "" {
		return nil, errors.New("relevance: entity name is required")
	}

	seen := make(map[string]struct{}, len(entity.Keywords)+1)
	terms := make([]string, 0, len(entity.Keywords)+1)
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return
		}
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	add(name)
	aliases := make([]string, 0, len(entity.Keywords))
	for kw := range entity.Keywords {
		aliases = append(aliases, kw)
	}
	sort.Strings(aliases)
	for _, kw := range aliases {
		add(kw)
	}

	return &Filter{
		entity:  entity,
		terms:   terms,
		matcher: ahocorasick.NewStringMatcher(terms),
	}, nil
}

// EntityName is the display name of the monitored entity.
func (f *Filter) EntityName() string {
	return f.entity.Name
}

// Related reports whether text mentions the entity or any keyword,
// case-insensitively.
func (f *Filter) Related(text string) bool {
	return len(f.Match(text)) > 0
}

// Match returns every distinct term found in text.
func (f *Filter) Match(text string) []Hit {
	if text == "" {
		return nil
	}
	// Matcher keeps per-call state, so calls are serialized.
	f.mu.Lock()
	idx := f.matcher.Match([]byte(strings.ToLower(text)))
	f.mu.Unlock()
	if len(idx) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(idx))
	for _, i := range idx {
		term := f.terms[i]
		hits = append(hits, Hit{Term: term, Category: f.category(term)})
	}
	sort.Slice(hits, func(a, b int) bool { return hits[a].Term < hits[b].Term })
	return hits
}

func (f *Filter) category(term string) string {
	if term == strings.ToLower(f.entity.Name) {
		return "entity"
	}
	for kw, cat := range f.entity.Keywords {
		if strings.EqualFold(kw, term) {
			return cat
		}
	}
	return ""
}
