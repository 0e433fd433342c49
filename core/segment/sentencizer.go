// Package segment provides a rule-based sentence splitter for scientific
// prose.
package segment

import (
	"strings"
	"unicode"
)

// defaultAbbreviations are lower-cased tokens that end in a period without
// ending a sentence.
var defaultAbbreviations = []string{
	"e.g.", "i.e.", "al.", "etc.", "vs.", "cf.", "approx.", "ca.",
	"fig.", "figs.", "eq.", "eqs.", "ref.", "refs.", "tab.", "no.", "vol.",
	"dr.", "mr.", "mrs.", "ms.", "prof.", "st.", "sp.", "spp.", "resp.",
	"min.", "max.", "jan.", "feb.", "mar.", "apr.", "jun.", "jul.", "aug.",
	"sep.", "sept.", "oct.", "nov.", "dec.",
}

// Sentencizer splits text on terminal punctuation followed by whitespace.
// It is stateless after construction and safe for concurrent use.
type Sentencizer struct {
	abbrev map[string]struct{}
}

// New creates a Sentencizer. Extra abbreviations are matched
// case-insensitively and must include their trailing period.
func New(extra ...string) *Sentencizer {
	s := &Sentencizer{abbrev: make(map[string]struct{}, len(defaultAbbreviations)+len(extra))}
	for _, a := range defaultAbbreviations {
		s.abbrev[a] = struct{}{}
	}
	for _, a := range extra {
		s.abbrev[strings.ToLower(a)] = struct{}{}
	}
	return s
}

// Segment returns the sentences of text in order, trimmed, with empty
// sentences dropped.
func (s *Sentencizer) Segment(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0

	emit := func(end int) {
		if sent := strings.TrimSpace(string(runes[start:end])); sent != "" {
			out = append(out, sent)
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		first := i
		j := i
		for j < len(runes) && isTerminal(runes[j]) {
			j++
		}
		for j < len(runes) && isClosing(runes[j]) {
			j++
		}
		if j < len(runes) && !unicode.IsSpace(runes[j]) {
			i = j - 1
			continue
		}
		if j-first == 1 && runes[first] == '.' && s.protected(runes[start:first+1]) {
			i = j - 1
			continue
		}
		emit(j)
		i = j - 1
	}
	emit(len(runes))
	return out
}

// protected reports whether the period ending span belongs to an
// abbreviation or an initial.
func (s *Sentencizer) protected(span []rune) bool {
	k := len(span) - 1
	for k > 0 && !unicode.IsSpace(span[k-1]) {
		k--
	}
	word := span[k:]
	// strip opening punctuation such as "(e.g."
	for len(word) > 0 && strings.ContainsRune(`("'[“‘`, word[0]) {
		word = word[1:]
	}
	if len(word) == 2 && unicode.IsUpper(word[0]) {
		return true
	}
	_, ok := s.abbrev[strings.ToLower(string(word))]
	return ok
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func isClosing(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '»':
		return true
	}
	return false
}
