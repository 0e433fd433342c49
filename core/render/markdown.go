// Package render provides output renderers for normalized records.
// This file implements the Markdown preview used by the show command.
package render

import (
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/biocpipe/core"
)

// MarkdownRenderer renders records as a readable Markdown document: one
// heading per record followed by its sentences as a numbered list.
type MarkdownRenderer struct {
	// Limit caps the sentences shown per record. Zero shows all.
	Limit int
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer(limit int) *MarkdownRenderer {
	return &MarkdownRenderer{Limit: limit}
}

// Render returns the Markdown preview of records.
func (r *MarkdownRenderer) Render(records []core.NormalizedRecord) ([]byte, error) {
	var b strings.Builder
	for i, rec := range records {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", rec.ID)
		fmt.Fprintf(&b, "**%s**\n\n", oneLine(rec.Title))

		shown := rec.Sentences
		if r.Limit > 0 && len(shown) > r.Limit {
			shown = shown[:r.Limit]
		}
		for j, s := range shown {
			fmt.Fprintf(&b, "%d. %s\n", j+1, oneLine(s.Text))
		}
		if hidden := len(rec.Sentences) - len(shown); hidden > 0 {
			fmt.Fprintf(&b, "\n_… %d more_\n", hidden)
		}
	}
	return []byte(b.String()), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
