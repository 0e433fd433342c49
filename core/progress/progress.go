// Package progress wraps progressbar for download, extraction and
// splitting progress. Bars render to stderr; a silent Reporter discards
// everything, which is what tests and JSON logging use.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter creates progress bars.
type Reporter struct {
	out    io.Writer
	silent bool
}

// New creates a Reporter writing to stderr.
func New() *Reporter {
	return &Reporter{out: os.Stderr}
}

// Silent returns a Reporter whose bars render nowhere.
func Silent() *Reporter {
	return &Reporter{out: io.Discard, silent: true}
}

// Bar is a single progress bar. It is safe for concurrent use.
type Bar struct {
	bar *progressbar.ProgressBar
}

// Bytes creates a byte-count bar. A total <= 0 renders as an
// indeterminate spinner.
func (r *Reporter) Bytes(total int64, description string) *Bar {
	if total <= 0 {
		total = -1
	}
	return &Bar{bar: progressbar.NewOptions64(
		total,
		r.common(description,
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
		)...,
	)}
}

// Count creates an item-count bar.
func (r *Reporter) Count(total int64, description, unit string) *Bar {
	return &Bar{bar: progressbar.NewOptions64(
		total,
		r.common(description,
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString(unit),
			progressbar.OptionSetWidth(40),
		)...,
	)}
}

func (r *Reporter) common(description string, extra ...progressbar.Option) []progressbar.Option {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(r.out, "\n")
		}),
	}
	if r.silent {
		opts = append(opts, progressbar.OptionSetVisibility(false))
	}
	return append(opts, extra...)
}

// Write implements io.Writer so the bar can sit in an io.MultiWriter.
func (b *Bar) Write(p []byte) (int, error) {
	return b.bar.Write(p)
}

// Add advances the bar by n.
func (b *Bar) Add(n int) {
	_ = b.bar.Add(n)
}

// Set moves the bar to an absolute position.
func (b *Bar) Set(n int64) {
	_ = b.bar.Set64(n)
}

// Finish completes the bar.
func (b *Bar) Finish() {
	_ = b.bar.Finish()
}
