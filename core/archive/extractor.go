package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/biocpipe/core"
	"github.com/gaurav-prasanna/biocpipe/core/progress"
)

// ExtractResult summarizes one extraction.
type ExtractResult struct {
	Files   int
	Dirs    int
	Bytes   int64
	Ignored int
	// Skipped is set when the archive was not a valid tar.gz and nothing
	// was extracted.
	Skipped bool
}

// Extractor unpacks tar.gz archives member by member.
type Extractor struct {
	Progress *progress.Reporter
	Logger   zerolog.Logger
}

// Extract unpacks archivePath into outputDir. An invalid archive is
// logged and reported through ExtractResult.Skipped with a nil error.
// Cancellation is checked between members; files already written stay.
func (e *Extractor) Extract(ctx context.Context, archivePath, outputDir string) (*ExtractResult, error) {
	if err := Validate(archivePath); err != nil {
		if errors.Is(err, core.ErrInvalidArchive) {
			e.Logger.Error().Err(err).Str("archive", archivePath).Msg("skipping extraction")
			return &ExtractResult{Skipped: true}, nil
		}
		return nil, err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	root, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	reporter := e.Progress
	if reporter == nil {
		reporter = progress.Silent()
	}
	bar := reporter.Bytes(info.Size(), "extracting")
	counter := &countingReader{r: f}

	zr, err := gzip.NewReader(counter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidArchive, err)
	}
	defer zr.Close()
	tr := tar.NewReader(zr)

	res := &ExtractResult{}
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("reading archive member: %w", err)
		}

		target, ok := memberPath(root, hdr.Name)
		if !ok {
			res.Ignored++
			e.Logger.Warn().Str("member", hdr.Name).Msg("skipping member outside output directory")
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return res, fmt.Errorf("creating %s: %w", target, err)
			}
			res.Dirs++
		case tar.TypeReg:
			n, err := writeMember(target, tr, hdr.FileInfo().Mode().Perm())
			if err != nil {
				return res, err
			}
			res.Files++
			res.Bytes += n
		default:
			res.Ignored++
			e.Logger.Debug().Str("member", hdr.Name).Str("type", string(hdr.Typeflag)).Msg("skipping non-regular member")
		}
		bar.Set(counter.n)
	}
	bar.Finish()

	e.Logger.Info().
		Str("archive", archivePath).
		Int("files", res.Files).
		Int("dirs", res.Dirs).
		Int("ignored", res.Ignored).
		Msg("archive extracted")
	return res, nil
}

// Validate checks that path is a gzip stream whose first tar header can
// be read. An empty tar is valid.
func Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrInvalidArchive, path, err)
	}
	defer zr.Close()

	if _, err := tar.NewReader(zr).Next(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", core.ErrInvalidArchive, path, err)
	}
	return nil
}

// memberPath resolves name under root and reports whether it stays inside.
func memberPath(root, name string) (string, bool) {
	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

func writeMember(target string, r io.Reader, perm os.FileMode) (int64, error) {
	if perm == 0 {
		perm = 0644
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, fmt.Errorf("creating directory for %s: %w", target, err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", target, err)
	}
	n, err := io.CopyBuffer(out, r, make([]byte, blockSize))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("writing %s: %w", target, err)
	}
	return n, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
