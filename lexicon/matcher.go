package lexicon

import (
	"sort"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Span is a keyword occurrence expressed in rune offsets of the searched text.
type Span struct {
	Start int
	End   int
	Word  string
}

// Matcher finds every configured keyword in a text in a single pass.
// Matching is case-insensitive; lowering is rune for rune so offsets
// returned on the lowered text are valid on the original one.
type Matcher struct {
	machine *goahocorasick.Machine
	words   []string
}

// NewMatcher builds the Aho-Corasick automaton over the lowered, de-duplicated keywords.
// An empty keyword list yields a matcher that never matches.
func NewMatcher(keywords []string) (*Matcher, error) {
	unique := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		lowered := string(lower([]rune(k)))
		if lowered == "" {
			continue
		}
		unique[lowered] = struct{}{}
	}
	if len(unique) == 0 {
		return &Matcher{}, nil
	}

	words := make([]string, 0, len(unique))
	for w := range unique {
		words = append(words, w)
	}
	sort.Strings(words)

	patterns := make([][]rune, len(words))
	for i, w := range words {
		patterns[i] = []rune(w)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Matcher{machine: m, words: words}, nil
}

// Find returns all keyword occurrences, overlapping ones included, ordered by position.
func (m *Matcher) Find(text string) []Span {
	if m == nil || m.machine == nil || text == "" {
		return nil
	}
	runes := lower([]rune(text))
	terms := m.machine.MultiPatternSearch(runes, false)
	spans := make([]Span, 0, len(terms))
	for _, term := range terms {
		start := term.Pos
		end := start + len(term.Word)
		if start < 0 || end > len(runes) {
			continue
		}
		spans = append(spans, Span{Start: start, End: end, Word: string(term.Word)})
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start == spans[j].Start {
			return spans[i].End > spans[j].End
		}
		return spans[i].Start < spans[j].Start
	})
	return spans
}

// FindWords is Find restricted to occurrences delimited by non-letters,
// so that "mal" is not found inside "normal".
func (m *Matcher) FindWords(text string) []Span {
	spans := m.Find(text)
	if len(spans) == 0 {
		return nil
	}
	runes := []rune(text)
	out := spans[:0]
	for _, s := range spans {
		if isWordRune(runes, s.Start-1) || isWordRune(runes, s.End) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Contains reports whether any keyword occurs in text as a substring.
func (m *Matcher) Contains(text string) bool {
	return len(m.Find(text)) > 0
}

// Words returns the keywords the matcher was built with, lowered and sorted.
func (m *Matcher) Words() []string {
	if m == nil {
		return nil
	}
	return m.words
}

func isWordRune(runes []rune, i int) bool {
	if i < 0 || i >= len(runes) {
		return false
	}
	r := runes[i]
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lower(in []rune) []rune {
	out := make([]rune, len(in))
	for i, r := range in {
		out[i] = unicode.ToLower(r)
	}
	return out
}
