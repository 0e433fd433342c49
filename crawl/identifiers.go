package crawl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gaurav-prasanna/biocpipe/core"
)

// ReadIdentifiers reads a newline-delimited identifier file. Lines are
// trimmed, blank lines skipped and repeats dropped, keeping the first
// occurrence. A missing file is an ErrInputMissing error.
func ReadIdentifiers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", core.ErrInputMissing, path)
		}
		return nil, fmt.Errorf("opening identifier file: %w", err)
	}
	defer f.Close()

	ids, err := ParseIdentifiers(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ids, nil
}

// ParseIdentifiers is ReadIdentifiers over an arbitrary reader.
func ParseIdentifiers(r io.Reader) ([]string, error) {
	queue := NewQueue()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if id := NormalizeIdentifier(sc.Text()); id != "" {
			queue.Add(id)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return queue.All(), nil
}
