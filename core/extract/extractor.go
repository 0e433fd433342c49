// Package extract collects the section text of a BioC document.
// It walks the passages of a document in order and:
//  1. Drops reference passages and passages from ignored sections
//  2. Keeps only allowed sections when an allow list is configured
//  3. Groups the remaining paragraph text under its section label
package extract

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/biocpipe/core"
)

// Filter controls which passages contribute section text.
type Filter struct {
	// Allow lists the section labels to keep. Empty keeps every section.
	Allow []string
	// Ignore lists section labels that are always dropped.
	Ignore []string
	// StripMarkup removes inline HTML/XML tags from passage text.
	StripMarkup bool
}

// Extractor turns BioC documents into SectionText.
type Extractor struct {
	allow       map[string]struct{}
	ignore      map[string]struct{}
	stripMarkup bool
	logger      zerolog.Logger
}

// New creates an Extractor for the given filter.
func New(f Filter, logger zerolog.Logger) *Extractor {
	return &Extractor{
		allow:       toSet(f.Allow),
		ignore:      toSet(f.Ignore),
		stripMarkup: f.StripMarkup,
		logger:      logger,
	}
}

// Sections returns the section text of doc. Passages missing required
// metadata are skipped with a warning. The result is empty when nothing
// survives filtering.
func (e *Extractor) Sections(doc core.Document) core.SectionText {
	var out core.SectionText
	index := make(map[string]int)

	for i, p := range doc.Passages {
		label, keep, err := e.classify(p)
		if err != nil {
			e.logger.Warn().Err(err).Str("doc", docID(doc)).Int("passage", i).Msg("skipping malformed passage")
			continue
		}
		if !keep {
			continue
		}
		if p.Text == nil {
			e.logger.Warn().Str("doc", docID(doc)).Int("passage", i).Msg("skipping passage without text")
			continue
		}

		text := *p.Text
		if e.stripMarkup {
			text = StripMarkup(text)
		}

		pos, seen := index[label]
		if !seen {
			pos = len(out)
			index[label] = pos
			out = append(out, core.Section{Label: label})
		}
		out[pos].Paragraphs = append(out[pos].Paragraphs, text)
	}
	return out
}

// classify applies the passage filters and returns the section label
// and whether the passage contributes text.
func (e *Extractor) classify(p core.Passage) (string, bool, error) {
	if p.Offset == nil {
		return "", false, fmt.Errorf("%w: missing offset", core.ErrMalformedPayload)
	}
	if p.Infons == nil {
		return "", false, fmt.Errorf("%w: missing infons", core.ErrMalformedPayload)
	}
	typ, ok := p.Infon("type")
	if !ok {
		return "", false, fmt.Errorf("%w: missing infons.type", core.ErrMalformedPayload)
	}
	section, ok := p.Infon("section_type")
	if !ok {
		return "", false, fmt.Errorf("%w: missing infons.section_type", core.ErrMalformedPayload)
	}

	if typ == "ref" {
		return section, false, nil
	}
	if _, ignored := e.ignore[section]; ignored {
		return section, false, nil
	}
	if len(e.allow) > 0 {
		if _, allowed := e.allow[section]; !allowed {
			return section, false, nil
		}
	}
	// Titles are recognized but never part of the section text.
	if strings.HasPrefix(typ, "title") {
		return section, false, nil
	}
	return section, true, nil
}

func docID(doc core.Document) string {
	if doc.ID == nil {
		return core.Unknown
	}
	return *doc.ID
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
