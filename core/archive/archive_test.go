package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/biocpipe/core"
)

type member struct {
	name string
	typ  byte
	body string
}

func buildTarGz(t *testing.T, members ...member) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(zw)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Typeflag: m.typ, Mode: 0644, Size: int64(len(m.body))}
		switch m.typ {
		case tar.TypeDir:
			hdr.Mode, hdr.Size = 0755, 0
		case tar.TypeSymlink:
			hdr.Linkname, hdr.Size = "/etc/passwd", 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Size > 0 {
			_, err := tw.Write([]byte(m.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "BioCXML.0.tar.gz")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestArchiveURL(t *testing.T) {
	assert.Equal(t, "https://ftp.example.org/pub/a.tar.gz", ArchiveURL("https://ftp.example.org/pub/", "a.tar.gz"))
	assert.Equal(t, "https://ftp.example.org/pub/a.tar.gz", ArchiveURL("https://ftp.example.org/pub", "/a.tar.gz"))
}

func TestExtract(t *testing.T) {
	path := writeFile(t, buildTarGz(t,
		member{name: "docs/", typ: tar.TypeDir},
		member{name: "docs/PMC1.json", typ: tar.TypeReg, body: `{"documents":[]}`},
		member{name: "docs/PMC2.json", typ: tar.TypeReg, body: `{"documents":[{}]}`},
		member{name: "docs/link", typ: tar.TypeSymlink},
	))
	out := filepath.Join(t.TempDir(), "out")

	res, err := (&Extractor{Logger: zerolog.Nop()}).Extract(context.Background(), path, out)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 1, res.Dirs)
	assert.Equal(t, 1, res.Ignored)

	data, err := os.ReadFile(filepath.Join(out, "docs", "PMC2.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"documents":[{}]}`, string(data))

	_, err = os.Lstat(filepath.Join(out, "docs", "link"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "symlinks are not extracted")
}

func TestExtract_RejectsTraversal(t *testing.T) {
	path := writeFile(t, buildTarGz(t,
		member{name: "../escape.json", typ: tar.TypeReg, body: "x"},
		member{name: "ok/../../also-escape.json", typ: tar.TypeReg, body: "x"},
		member{name: "inside.json", typ: tar.TypeReg, body: "y"},
	))
	parent := t.TempDir()
	out := filepath.Join(parent, "out")

	res, err := (&Extractor{Logger: zerolog.Nop()}).Extract(context.Background(), path, out)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 2, res.Ignored)
	assert.NoFileExists(t, filepath.Join(parent, "escape.json"))
	assert.NoFileExists(t, filepath.Join(parent, "also-escape.json"))
	assert.FileExists(t, filepath.Join(out, "inside.json"))
}

func TestExtract_InvalidArchiveIsSkipped(t *testing.T) {
	tests := map[string][]byte{
		"not gzip":     []byte("this is plain text, not an archive"),
		"empty file":   nil,
		"gzip not tar": gzipBytes(t, []byte("just some compressed text")),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, data)
			out := filepath.Join(t.TempDir(), "out")

			res, err := (&Extractor{Logger: zerolog.Nop()}).Extract(context.Background(), path, out)
			require.NoError(t, err)
			assert.True(t, res.Skipped)
			assert.NoDirExists(t, out)
		})
	}
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_MissingArchive(t *testing.T) {
	_, err := (&Extractor{Logger: zerolog.Nop()}).Extract(context.Background(), filepath.Join(t.TempDir(), "nope.tar.gz"), t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtract_Cancelled(t *testing.T) {
	path := writeFile(t, buildTarGz(t, member{name: "a.json", typ: tar.TypeReg, body: "{}"}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := (&Extractor{Logger: zerolog.Nop()}).Extract(ctx, path, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Files)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(writeFile(t, buildTarGz(t))))
	assert.ErrorIs(t, Validate(writeFile(t, []byte("nope"))), core.ErrInvalidArchive)
}

func TestFetch(t *testing.T) {
	payload := bytes.Repeat([]byte("bioc"), 50_000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "biocpipe-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "save", "archive.tar.gz")
	f := &Fetcher{UserAgent: "biocpipe-test", Logger: zerolog.Nop()}
	n, err := f.Fetch(context.Background(), srv.URL+"/archive.tar.gz", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.NoFileExists(t, dest+".part")
}

func TestFetch_UnknownLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		_, _ = w.Write([]byte("part one "))
		fl.Flush()
		_, _ = w.Write([]byte("part two"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "a.tar.gz")
	n, err := (&Fetcher{Logger: zerolog.Nop()}).Fetch(context.Background(), srv.URL, dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len("part one part two")), n)
}

func TestFetch_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "a.tar.gz")
	_, err := (&Fetcher{Logger: zerolog.Nop()}).Fetch(context.Background(), srv.URL, dest)

	var se *core.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+".part")
}
