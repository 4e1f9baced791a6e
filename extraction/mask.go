package extraction

import (
	"remind-lab/lexicon"
	"unicode/utf8"
)

// mask tracks which bytes of a text were consumed by a recognised pattern.
// Offsets are byte offsets; spans always fall on rune boundaries.
type mask struct {
	text    string
	removed []bool
}

func newMask(text string) *mask {
	return &mask{text: text, removed: make([]bool, len(text))}
}

func (m *mask) blank(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(m.removed) {
		end = len(m.removed)
	}
	for i := start; i < end; i++ {
		m.removed[i] = true
	}
}

func (m *mask) blankAll(locs [][]int) {
	for _, loc := range locs {
		m.blank(loc[0], loc[1])
	}
}

// blankWords removes whole-word keyword occurrences. Matcher spans are in
// runes and are converted to byte offsets here.
func (m *mask) blankWords(matcher *lexicon.Matcher, text string) {
	spans := matcher.FindWords(text)
	if len(spans) == 0 {
		return
	}
	offsets := runeOffsets(text)
	for _, s := range spans {
		m.blank(offsets[s.Start], offsets[s.End])
	}
}

// Blanked returns the text with consumed bytes replaced by spaces, keeping
// every offset valid.
func (m *mask) Blanked() string {
	out := []byte(m.text)
	for i, r := range m.removed {
		if r {
			out[i] = ' '
		}
	}
	return string(out)
}

// String returns the text with consumed bytes replaced by a single space each run.
func (m *mask) String() string {
	out := make([]byte, 0, len(m.text))
	gap := false
	for i := 0; i < len(m.text); i++ {
		if m.removed[i] {
			if !gap {
				out = append(out, ' ')
				gap = true
			}
			continue
		}
		gap = false
		out = append(out, m.text[i])
	}
	return string(out)
}

// runeOffsets maps a rune index to its byte offset; the extra last entry is len(text).
func runeOffsets(text string) []int {
	offsets := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	return append(offsets, len(text))
}
