// Package normalize turns raw BioC documents into NormalizedRecords, the
// canonical form written to shards.
package normalize

import (
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/biocpipe/core"
	"github.com/gaurav-prasanna/biocpipe/core/extract"
)

// Transformer converts a RawDocument into a NormalizedRecord. It holds no
// mutable state and is safe for concurrent use.
type Transformer struct {
	segmenter core.Segmenter
	extractor *extract.Extractor
	mode      core.Mode
	logger    zerolog.Logger
}

// New creates a Transformer. The segmenter is only used in sentences mode.
func New(seg core.Segmenter, filter extract.Filter, mode core.Mode, logger zerolog.Logger) *Transformer {
	return &Transformer{
		segmenter: seg,
		extractor: extract.New(filter, logger),
		mode:      mode,
		logger:    logger,
	}
}

// Transform returns the normalized record for raw, or nil when raw has no
// documents or no section text survives filtering. Only the first
// document of a collection is used.
func (t *Transformer) Transform(raw *core.RawDocument) *core.NormalizedRecord {
	if raw == nil || raw.Documents == nil {
		return nil
	}
	if len(raw.Documents) == 0 {
		return nil
	}
	doc := raw.Documents[0]

	sections := t.extractor.Sections(doc)
	if len(sections) == 0 {
		return nil
	}

	var sentences []core.Sentence
	for _, sec := range sections {
		for _, para := range sec.Paragraphs {
			if t.mode == core.ModeParagraphs {
				sentences = append(sentences, core.Sentence{Text: para})
				continue
			}
			for _, s := range t.segmenter.Segment(para) {
				sentences = append(sentences, core.Sentence{Text: s})
			}
		}
	}
	if len(sentences) == 0 {
		// Every paragraph segmented to nothing.
		return nil
	}

	return &core.NormalizedRecord{
		ID:        recordID(doc),
		Title:     title(doc),
		Sentences: sentences,
	}
}

func recordID(doc core.Document) string {
	if doc.ID == nil || *doc.ID == "" {
		return core.Unknown
	}
	return *doc.ID
}

// title is the text of the first passage, whatever its type.
func title(doc core.Document) string {
	if len(doc.Passages) == 0 || doc.Passages[0].Text == nil {
		return core.Unknown
	}
	return *doc.Passages[0].Text
}
