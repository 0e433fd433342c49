package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/biocpipe/core"
)

// DirSink writes one {id}.json file per fetched document.
type DirSink struct {
	dir string
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Write stores payload followed by a newline as {dir}/{id}.json.
func (s *DirSink) Write(id string, payload []byte) error {
	if err := ValidateIdentifier(id); err != nil {
		return err
	}
	path := filepath.Join(s.dir, id+".json")
	data := make([]byte, 0, len(payload)+1)
	data = append(data, payload...)
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing file %s: %w", path, err)
	}
	return nil
}

// Close is a no-op; every file is complete once written.
func (s *DirSink) Close() error {
	return nil
}

// ValidateIdentifier rejects identifiers that cannot be used as a plain
// file name.
func ValidateIdentifier(id string) error {
	switch {
	case id == "", id == ".", id == "..":
		return fmt.Errorf("%w: %q", core.ErrInvalidIdentifier, id)
	case strings.ContainsAny(id, `/\`+"\x00"):
		return fmt.Errorf("%w: %q contains a path separator", core.ErrInvalidIdentifier, id)
	case strings.Contains(id, ".."):
		return fmt.Errorf("%w: %q contains ..", core.ErrInvalidIdentifier, id)
	}
	return nil
}

// NewSink creates the sink for mode. In file mode path is the output
// file; in dir mode it is the output directory.
func NewSink(mode core.WriteMode, path string) (core.ResultSink, error) {
	switch mode {
	case core.WriteModeFile:
		return NewStreamSink(path)
	case core.WriteModeDir:
		return NewDirSink(path)
	}
	return nil, fmt.Errorf("%w: unknown write mode %q", core.ErrInvalidConfig, mode)
}
