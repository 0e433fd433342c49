package shard

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/biocpipe/core"
)

// ListFiles returns the regular files in dir sorted by path. With
// recursive set, subdirectories are walked too. A missing dir is an
// ErrInputMissing error.
func ListFiles(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrInputMissing, dir)
		}
		return nil, fmt.Errorf("stat input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", core.ErrInputMissing, dir)
	}

	var files []string
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading input directory: %w", err)
		}
		for _, e := range entries {
			if e.Type().IsRegular() {
				files = append(files, filepath.Join(dir, e.Name()))
			}
		}
		return files, nil
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking input directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Sample returns n files chosen uniformly at random, in their original
// order. n <= 0 returns files unchanged; n >= len(files) returns all of
// them. A non-zero seed makes the choice reproducible.
func Sample(files []string, n int, seed uint64, logger zerolog.Logger) []string {
	if n <= 0 {
		return files
	}
	if n >= len(files) {
		if n > len(files) {
			logger.Warn().Int("requested", n).Int("available", len(files)).Msg("sample larger than input, using all files")
		}
		return files
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	picked := rng.Perm(len(files))[:n]
	slices.Sort(picked)
	out := make([]string, n)
	for i, idx := range picked {
		out[i] = files[idx]
	}
	logger.Info().Int("sample", n).Int("available", len(files)).Msg("sampled input files")
	return out
}
