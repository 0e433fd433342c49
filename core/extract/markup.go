package extract

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup removes HTML/XML tags from text and decodes entities.
// Text without a '<' or '&' is returned unchanged.
func StripMarkup(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(text))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return b.String()
			}
			// Tokenizer errors only occur on read failures, which a
			// strings.Reader never produces.
			return text
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
