// Package core defines the shared types and stage interfaces for biocpipe.
// Each stage of the pipeline (fetch, extract, normalize, render, write) is a
// small interface so the concurrent orchestration in core/bulk and
// core/shard can be tested against fakes.
package core

import (
	"context"
	"encoding/json"
	"fmt"
)

// Unknown is reported for a document id or title that cannot be extracted.
const Unknown = "unknown"

// RawDocument is a BioC collection as served by the remote service or
// stored in an extracted archive. Only the fields the pipeline reads are
// modelled; everything else in the payload is ignored.
type RawDocument struct {
	Documents []Document `json:"documents"`
}

// Document is one BioC document: an identifier and its ordered passages.
type Document struct {
	ID       *string   `json:"id"`
	Passages []Passage `json:"passages"`
}

// Passage is a contiguous span of text tagged with type and section metadata.
// Fields are pointers so a missing key can be told apart from an empty value.
type Passage struct {
	Offset *int           `json:"offset"`
	Text   *string        `json:"text"`
	Infons map[string]any `json:"infons"`
}

// Infon returns the string value of an infons key.
func (p Passage) Infon(key string) (string, bool) {
	if p.Infons == nil {
		return "", false
	}
	v, ok := p.Infons[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// DecodeRawDocument parses a BioC payload. The REST service wraps the
// collection in a one-element array, archives store the bare object; both
// are accepted. A payload without a "documents" key decodes to a
// RawDocument with nil Documents.
func DecodeRawDocument(data []byte) (*RawDocument, error) {
	var probe json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	first := firstNonSpace(probe)
	if first == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(probe, &list); err != nil {
			return nil, fmt.Errorf("decoding collection list: %w", err)
		}
		if len(list) == 0 {
			return &RawDocument{}, nil
		}
		probe = list[0]
		first = firstNonSpace(probe)
	}
	if first != '{' {
		return nil, fmt.Errorf("decoding document: %w: top level is not an object", ErrMalformedPayload)
	}
	var doc RawDocument
	if err := json.Unmarshal(probe, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &doc, nil
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c
	}
	return 0
}

// Section holds the paragraphs collected under one section label.
type Section struct {
	Label      string
	Paragraphs []string
}

// SectionText is the ordered list of sections of one document. Sections
// appear in the order their label was first seen.
type SectionText []Section

// Sentence is one unit of normalized text.
type Sentence struct {
	Text string `json:"text"`
}

// NormalizedRecord is the normalized form of one document.
type NormalizedRecord struct {
	ID        string     `json:"-"`
	Title     string     `json:"title"`
	Sentences []Sentence `json:"sentences"`
}

// Mode selects how section paragraphs become records.
type Mode string

const (
	ModeSentences  Mode = "sentences"
	ModeParagraphs Mode = "paragraphs"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSentences, ModeParagraphs:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown split mode %q (want sentences or paragraphs)", ErrInvalidConfig, s)
}

// WriteMode selects how bulk fetch results are persisted.
type WriteMode string

const (
	// WriteModeFile appends every document to one {"fulltexts": [...]} file.
	WriteModeFile WriteMode = "file"
	// WriteModeDir writes one {identifier}.json file per document.
	WriteModeDir WriteMode = "dir"
)

// ParseWriteMode validates a write mode name.
func ParseWriteMode(s string) (WriteMode, error) {
	switch WriteMode(s) {
	case WriteModeFile, WriteModeDir:
		return WriteMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown write mode %q (want file or dir)", ErrInvalidConfig, s)
}

// FetchJob is one unit of work for the bulk fetcher. Ordinal counts down
// from the number of identifiers and is only used in progress logs.
type FetchJob struct {
	Identifier string
	Ordinal    int
}

// FetchResult is the outcome of one FetchJob. Exactly one of Payload and
// Err is meaningful.
type FetchResult struct {
	Job     FetchJob
	Payload []byte
	Err     error
}

// Segmenter splits a block of text into ordered sentences. Implementations
// must be safe for concurrent use and return the same output for the same
// input.
type Segmenter interface {
	Segment(text string) []string
}

// DocumentFetcher retrieves one raw document by identifier.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, id string) ([]byte, error)
}

// ResultSink receives fetched documents. Write is only ever called from a
// single goroutine; Close finalizes the artifact and must be safe to call
// more than once.
type ResultSink interface {
	Write(id string, payload []byte) error
	Close() error
}

// Renderer converts a batch of records into an output format.
type Renderer interface {
	Render(records []NormalizedRecord) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".json", ".md").
	Extension() string
}
