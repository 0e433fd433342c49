package segment

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"two sentences", "Sentence one. Sentence two.", []string{"Sentence one.", "Sentence two."}},
		{"no terminal", "no terminal punctuation", []string{"no terminal punctuation"}},
		{"empty", "   ", nil},
		{"question and exclamation", "Why? Because! Done.", []string{"Why?", "Because!", "Done."}},
		{"closing quote", `He said "stop." Then left.`, []string{`He said "stop."`, "Then left."}},
		{"closing paren", "Cells died (n = 4.) Controls did not.", []string{"Cells died (n = 4.)", "Controls did not."}},
		{"decimal", "The value was 3.5 mM. It rose.", []string{"The value was 3.5 mM.", "It rose."}},
		{"et al", "Smith et al. reported this. We agree.", []string{"Smith et al. reported this.", "We agree."}},
		{"e.g. in parens", "Some genes (e.g. TP53) matter. Others do not.", []string{"Some genes (e.g. TP53) matter.", "Others do not."}},
		{"fig", "See Fig. 2 for details. It is clear.", []string{"See Fig. 2 for details.", "It is clear."}},
		{"initial", "Work by J. Smith was cited. Later too.", []string{"Work by J. Smith was cited.", "Later too."}},
		{"ellipsis run", "Wait... Go on.", []string{"Wait...", "Go on."}},
		{"newline separated", "First line.\nSecond line.", []string{"First line.", "Second line."}},
	}
	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Segment(tt.in))
		})
	}
}

func TestSegment_ExtraAbbreviations(t *testing.T) {
	s := New("Suppl.")
	assert.Equal(t, []string{"See Suppl. Table 1."}, s.Segment("See Suppl. Table 1."))
	assert.Equal(t, []string{"See Suppl.", "Table 1."}, New().Segment("See Suppl. Table 1."))
}

func TestSegment_ConcurrentUse(t *testing.T) {
	s := New()
	text := "Alpha beta. Gamma delta! Epsilon?"
	want := s.Segment(text)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, s.Segment(text))
		}()
	}
	wg.Wait()
}
