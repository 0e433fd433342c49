// Package output handles file naming and writing for biocpipe outputs.
// Shards are named {stem}-{index:03}{suffix} and written atomically so a
// reader never observes a partially written shard.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes shard files into one directory.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir}, nil
}

// ShardName returns the file name of shard index.
// Example: ShardName("output", 3, ".json") → output-003.json
func ShardName(stem string, index int, suffix string) string {
	return fmt.Sprintf("%s-%03d%s", sanitize(stem), index, suffix)
}

// WriteShard writes data to name inside the output directory via a
// temporary file and rename.
func (w *Writer) WriteShard(name string, data []byte) (string, error) {
	path := filepath.Join(w.OutputDir, name)
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return fmt.Errorf("setting mode on %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("renaming %s: %w", path, err)
	}
	return nil
}

// SplitName splits an output file name into stem and suffix.
// Example: "corpus.json" → ("corpus", ".json")
func SplitName(name string) (stem, suffix string) {
	base := filepath.Base(name)
	suffix = filepath.Ext(base)
	stem = strings.TrimSuffix(base, suffix)
	if stem == "" {
		stem = "output"
	}
	return stem, suffix
}

// sanitize replaces characters other than letters, digits, '-', '_' and
// '.' with underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' || ch == '_' || ch == '.' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
