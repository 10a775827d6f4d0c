package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultContextRadius is how many bytes either side of a match are kept as
// context for sentiment scoring.
const DefaultContextRadius = 100

// Match is the first occurrence of one lexicon term in a text.
type Match struct {
	Keyword string
	Context string
}

type term struct {
	keyword string
	pattern *regexp.Regexp
}

// Matcher finds lexicon terms as whole words, case-insensitively.
type Matcher struct {
	terms  []term
	radius int
}

// NewMatcher compiles the lexicon. A radius <= 0 uses DefaultContextRadius.
func NewMatcher(lexicon []string, radius int) *Matcher {
	if radius <= 0 {
		radius = DefaultContextRadius
	}
	m := &Matcher{terms: make([]term, 0, len(lexicon)), radius: radius}
	for _, k := range lexicon {
		m.terms = append(m.terms, term{
			keyword: k,
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k) + `\b`),
		})
	}
	return m
}

// FindAll returns one Match per lexicon term present in text, in lexicon
// order, using each term's first occurrence.
func (m *Matcher) FindAll(text string) []Match {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var matches []Match
	for _, t := range m.terms {
		loc := t.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		matches = append(matches, Match{
			Keyword: t.keyword,
			Context: contextWindow(text, loc[0], loc[1], m.radius),
		})
	}
	return matches
}

// contextWindow returns text[start-radius : end+radius], clipped to the text
// and moved inward onto rune boundaries.
func contextWindow(text string, start, end, radius int) string {
	from := start - radius
	if from < 0 {
		from = 0
	}
	to := end + radius
	if to > len(text) {
		to = len(text)
	}
	for from < start && !utf8.RuneStart(text[from]) {
		from++
	}
	for to > end && to < len(text) && !utf8.RuneStart(text[to]) {
		to--
	}
	return strings.TrimSpace(text[from:to])
}
