// Package archive downloads and unpacks bulk BioC tar.gz archives.
package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/biocpipe/core"
	"github.com/gaurav-prasanna/biocpipe/core/progress"
)

const blockSize = 32 << 10

// ArchiveURL joins the archive server base URL and a file name.
func ArchiveURL(base, filename string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(filename, "/")
}

// Fetcher streams a remote archive to disk.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	Progress  *progress.Reporter
	Logger    zerolog.Logger
}

// Fetch downloads url to dest and returns the number of bytes written.
// The body goes to dest.part first and is renamed into place on success.
// There is no retry.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (int64, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	reporter := f.Progress
	if reporter == nil {
		reporter = progress.Silent()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &core.StatusError{URL: url, Code: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("creating directory for %s: %w", dest, err)
	}
	part := dest + ".part"
	out, err := os.Create(part)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", part, err)
	}

	f.Logger.Info().Str("url", url).Int64("size", resp.ContentLength).Str("dest", dest).Msg("downloading archive")
	bar := reporter.Bytes(resp.ContentLength, filepath.Base(dest))

	n, err := io.CopyBuffer(io.MultiWriter(out, bar), resp.Body, make([]byte, blockSize))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(part)
		return n, fmt.Errorf("downloading %s: %w", url, err)
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		_ = os.Remove(part)
		return n, fmt.Errorf("downloading %s: got %d of %d bytes: %w", url, n, resp.ContentLength, io.ErrUnexpectedEOF)
	}
	bar.Finish()

	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return n, fmt.Errorf("renaming %s: %w", part, err)
	}
	f.Logger.Info().Str("dest", dest).Int64("bytes", n).Msg("archive downloaded")
	return n, nil
}
