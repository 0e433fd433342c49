package normalize

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/biocpipe/core"
	"github.com/gaurav-prasanna/biocpipe/core/extract"
	"github.com/gaurav-prasanna/biocpipe/core/segment"
)

const studyDoc = `{
  "documents": [{
    "id": "PMC4242",
    "passages": [
      {"offset": 0, "infons": {"type": "title_1", "section_type": "TITLE"}, "text": "A Study"},
      {"offset": 8, "infons": {"type": "paragraph", "section_type": "INTRO"}, "text": "Sentence one. Sentence two."}
    ]
  }]
}`

func decode(t *testing.T, s string) *core.RawDocument {
	t.Helper()
	raw, err := core.DecodeRawDocument([]byte(s))
	require.NoError(t, err)
	return raw
}

func newTransformer(filter extract.Filter, mode core.Mode) *Transformer {
	return New(segment.New(), filter, mode, zerolog.Nop())
}

func TestTransform_Sentences(t *testing.T) {
	got := newTransformer(extract.Filter{}, core.ModeSentences).Transform(decode(t, studyDoc))

	require.NotNil(t, got)
	assert.Equal(t, &core.NormalizedRecord{
		ID:    "PMC4242",
		Title: "A Study",
		Sentences: []core.Sentence{
			{Text: "Sentence one."},
			{Text: "Sentence two."},
		},
	}, got)
}

func TestTransform_Paragraphs(t *testing.T) {
	got := newTransformer(extract.Filter{}, core.ModeParagraphs).Transform(decode(t, studyDoc))

	require.NotNil(t, got)
	assert.Equal(t, []core.Sentence{{Text: "Sentence one. Sentence two."}}, got.Sentences)
}

func TestTransform_IgnoredSectionYieldsNil(t *testing.T) {
	raw := decode(t, `{"documents": [{"id": "PMC1", "passages": [
		{"offset": 0, "infons": {"type": "title_1", "section_type": "TITLE"}, "text": "A Study"},
		{"offset": 8, "infons": {"type": "paragraph", "section_type": "REF"}, "text": "Sentence one. Sentence two."}
	]}]}`)

	got := newTransformer(extract.Filter{Ignore: []string{"REF"}}, core.ModeSentences).Transform(raw)
	assert.Nil(t, got)
}

func TestTransform_NilCases(t *testing.T) {
	tr := newTransformer(extract.Filter{}, core.ModeSentences)

	tests := []struct {
		name string
		raw  *core.RawDocument
	}{
		{"nil raw", nil},
		{"missing documents key", decode(t, `{"source": "PMC"}`)},
		{"empty documents", decode(t, `{"documents": []}`)},
		{"only refs", decode(t, `{"documents": [{"id": "x", "passages": [
			{"offset": 0, "infons": {"type": "ref", "section_type": "REF"}, "text": "Cited."}]}]}`)},
		{"whitespace paragraph", decode(t, `{"documents": [{"id": "x", "passages": [
			{"offset": 0, "infons": {"type": "paragraph", "section_type": "INTRO"}, "text": "   "}]}]}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, tr.Transform(tt.raw))
		})
	}
}

func TestTransform_UnknownMetadata(t *testing.T) {
	raw := decode(t, `{"documents": [{"passages": [
		{"offset": 0, "infons": {"type": "paragraph", "section_type": "INTRO"}, "text": "Only text."}
	]}]}`)

	got := newTransformer(extract.Filter{}, core.ModeSentences).Transform(raw)
	require.NotNil(t, got)
	assert.Equal(t, core.Unknown, got.ID)
	// The first passage is used as title even when it is not a title passage.
	assert.Equal(t, "Only text.", got.Title)
}

func TestTransform_FirstDocumentOnly(t *testing.T) {
	raw := decode(t, `{"documents": [
		{"id": "first", "passages": [{"offset": 0, "infons": {"type": "paragraph", "section_type": "INTRO"}, "text": "One."}]},
		{"id": "second", "passages": [{"offset": 0, "infons": {"type": "paragraph", "section_type": "INTRO"}, "text": "Two."}]}
	]}`)

	got := newTransformer(extract.Filter{}, core.ModeSentences).Transform(raw)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.ID)
	assert.Equal(t, []core.Sentence{{Text: "One."}}, got.Sentences)
}

func TestTransform_SectionOrder(t *testing.T) {
	raw := decode(t, `{"documents": [{"id": "x", "passages": [
		{"offset": 0, "infons": {"type": "paragraph", "section_type": "INTRO"}, "text": "I1."},
		{"offset": 1, "infons": {"type": "paragraph", "section_type": "METHODS"}, "text": "M1."},
		{"offset": 2, "infons": {"type": "paragraph", "section_type": "INTRO"}, "text": "I2."}
	]}]}`)

	got := newTransformer(extract.Filter{}, core.ModeSentences).Transform(raw)
	require.NotNil(t, got)
	assert.Equal(t, []core.Sentence{{Text: "I1."}, {Text: "I2."}, {Text: "M1."}}, got.Sentences)
}

func TestTransform_Deterministic(t *testing.T) {
	tr := newTransformer(extract.Filter{}, core.ModeSentences)
	raw := decode(t, studyDoc)
	assert.Equal(t, tr.Transform(raw), tr.Transform(raw))
}

func TestTransform_ArrayPayload(t *testing.T) {
	got := newTransformer(extract.Filter{}, core.ModeSentences).Transform(decode(t, "["+studyDoc+"]"))
	require.NotNil(t, got)
	assert.Equal(t, "PMC4242", got.ID)
}
