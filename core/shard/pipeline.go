// Package shard turns a corpus of raw BioC documents into numbered shard
// files of normalized records.
//
// The input is split into consecutive batches. Each batch is handled by
// one worker that loads, transforms and renders its documents in input
// order and writes a single shard named after the batch's dispatch index,
// so the output is the same whichever worker finishes first.
package shard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gaurav-prasanna/biocpipe/core"
	"github.com/gaurav-prasanna/biocpipe/core/chunk"
	"github.com/gaurav-prasanna/biocpipe/core/output"
	"github.com/gaurav-prasanna/biocpipe/core/progress"
	"github.com/gaurav-prasanna/biocpipe/core/render"
)

// Transformer normalizes one raw document; nil means dropped.
type Transformer interface {
	Transform(raw *core.RawDocument) *core.NormalizedRecord
}

// Options configures a Pipeline.
type Options struct {
	// BatchSize is the number of input documents per shard. <= 0 puts
	// everything in one shard.
	BatchSize int
	// Workers caps concurrent batches; the effective limit is also capped
	// by runtime.NumCPU.
	Workers   int
	OutputDir string
	Stem      string
	Suffix    string
	// RandomSample > 0 processes only that many randomly chosen files.
	RandomSample int
	// Seed makes sampling reproducible. Zero picks a random seed.
	Seed uint64
}

// ShardInfo describes one written shard.
type ShardInfo struct {
	Index   int
	Path    string
	Records int
}

// Report summarizes a run. Files = Records + Dropped + Failed.
type Report struct {
	Files   int
	Records int
	Dropped int
	Failed  int
	Shards  []ShardInfo
}

// Pipeline runs batch normalization.
type Pipeline struct {
	Options     Options
	Transformer Transformer
	// Renderer encodes shards. Defaults to the JSON shard renderer.
	Renderer core.Renderer
	Progress *progress.Reporter
	Logger   zerolog.Logger
}

// unit is one input document, loaded lazily by the batch worker.
type unit struct {
	name string
	load func() ([]byte, error)
}

type batchResult struct {
	index   int
	files   int
	dropped int
	failed  int
	shard   *ShardInfo
}

// Run processes the given files. A shard write failure aborts the run;
// unreadable or undecodable files are counted and skipped.
func (p *Pipeline) Run(ctx context.Context, files []string) (*Report, error) {
	files = Sample(files, p.Options.RandomSample, p.Options.Seed, p.Logger)

	units := make([]unit, len(files))
	for i, path := range files {
		units[i] = unit{name: path, load: func() ([]byte, error) { return os.ReadFile(path) }}
	}
	batches := chunk.Split(units, p.Options.BatchSize)

	bar := p.reporter().Count(int64(len(units)), "splitting", "docs")
	defer bar.Finish()

	return p.execute(ctx, bar, func(dispatch func([]unit) error) error {
		for _, b := range batches {
			if err := dispatch(b); err != nil {
				return err
			}
		}
		return nil
	})
}

// RunBulk processes a single {"fulltexts": [...]} file as produced by the
// bulk fetcher in file mode. Documents are streamed and batched in file
// order; the trailing {} placeholder is skipped.
func (p *Pipeline) RunBulk(ctx context.Context, path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrInputMissing, path)
		}
		return nil, fmt.Errorf("opening bulk file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	if err := enterFulltexts(dec); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	bar := p.reporter().Count(-1, "splitting", "docs")
	defer bar.Finish()

	return p.execute(ctx, bar, func(dispatch func([]unit) error) error {
		var batch []unit
		n := 0
		for dec.More() {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("decoding fulltexts element %d: %w", n, err)
			}
			n++
			if isPlaceholder(raw) {
				continue
			}
			name := fmt.Sprintf("%s#%d", path, n-1)
			batch = append(batch, unit{name: name, load: func() ([]byte, error) { return raw, nil }})
			if p.Options.BatchSize > 0 && len(batch) == p.Options.BatchSize {
				if err := dispatch(batch); err != nil {
					return err
				}
				batch = nil
			}
		}
		if len(batch) > 0 {
			return dispatch(batch)
		}
		return nil
	})
}

// execute dispatches batches to a bounded errgroup and assembles the
// report in dispatch order.
func (p *Pipeline) execute(ctx context.Context, bar *progress.Bar, produce func(dispatch func([]unit) error) error) (*Report, error) {
	writer, err := output.New(p.Options.OutputDir)
	if err != nil {
		return nil, err
	}
	renderer := p.Renderer
	if renderer == nil {
		renderer = render.NewJSONRenderer()
	}
	stem, suffix := p.Options.Stem, p.Options.Suffix
	if stem == "" {
		stem = "output"
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Concurrency(p.Options.Workers))

	var results []*batchResult
	dispatch := func(batch []unit) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		res := &batchResult{index: len(results)}
		results = append(results, res)
		name := output.ShardName(stem, res.index, suffix)
		g.Go(func() error {
			return p.processBatch(gctx, batch, res, bar, func(records []core.NormalizedRecord) (string, error) {
				data, err := renderer.Render(records)
				if err != nil {
					return "", fmt.Errorf("rendering shard %s: %w", name, err)
				}
				return writer.WriteShard(name, data)
			})
		})
		return nil
	}

	perr := produce(dispatch)
	werr := g.Wait()

	report := &Report{}
	for _, r := range results {
		report.Files += r.files
		report.Dropped += r.dropped
		report.Failed += r.failed
		if r.shard != nil {
			report.Records += r.shard.Records
			report.Shards = append(report.Shards, *r.shard)
		}
	}

	switch {
	case werr != nil:
		return report, werr
	case perr != nil:
		return report, perr
	case ctx.Err() != nil:
		return report, ctx.Err()
	}

	p.Logger.Info().
		Int("files", report.Files).
		Int("records", report.Records).
		Int("dropped", report.Dropped).
		Int("failed", report.Failed).
		Int("shards", len(report.Shards)).
		Msg("split finished")
	return report, nil
}

// processBatch runs on a worker goroutine and owns res.
func (p *Pipeline) processBatch(ctx context.Context, batch []unit, res *batchResult, bar *progress.Bar, flush func([]core.NormalizedRecord) (string, error)) error {
	var records []core.NormalizedRecord
	for _, u := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.files++
		rec, err := p.transformUnit(u)
		bar.Add(1)
		switch {
		case err != nil:
			res.failed++
			p.Logger.Warn().Err(err).Str("file", u.name).Msg("skipping document")
		case rec == nil:
			res.dropped++
			p.Logger.Debug().Str("file", u.name).Msg("document has no section text")
		default:
			records = append(records, *rec)
		}
	}

	if len(records) == 0 {
		p.Logger.Debug().Int("batch", res.index).Msg("empty batch, no shard written")
		return nil
	}
	path, err := flush(records)
	if err != nil {
		return err
	}
	res.shard = &ShardInfo{Index: res.index, Path: path, Records: len(records)}
	p.Logger.Debug().Int("batch", res.index).Str("path", path).Int("records", len(records)).Msg("shard written")
	return nil
}

func (p *Pipeline) transformUnit(u unit) (*core.NormalizedRecord, error) {
	data, err := u.load()
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	raw, err := core.DecodeRawDocument(data)
	if err != nil {
		return nil, err
	}
	return p.Transformer.Transform(raw), nil
}

func (p *Pipeline) reporter() *progress.Reporter {
	if p.Progress == nil {
		return progress.Silent()
	}
	return p.Progress
}

// Concurrency returns the effective batch worker limit.
func Concurrency(workers int) int {
	return max(1, min(workers, runtime.NumCPU()))
}

// enterFulltexts advances dec to the first element of the fulltexts array.
func enterFulltexts(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: bulk file is not a JSON object", core.ErrMalformedPayload)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if key, _ := tok.(string); key == "fulltexts" {
			tok, err := dec.Token()
			if err != nil {
				return err
			}
			if d, ok := tok.(json.Delim); !ok || d != '[' {
				return fmt.Errorf("%w: fulltexts is not an array", core.ErrMalformedPayload)
			}
			return nil
		}
		// Skip the value of any other key.
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: no fulltexts key", core.ErrMalformedPayload)
}

func isPlaceholder(raw json.RawMessage) bool {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return false
	}
	return buf.String() == "{}"
}
