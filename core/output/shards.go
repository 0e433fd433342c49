package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ListShards returns the shard files for stem and suffix in dir, ordered
// by numeric index. Files whose index part is not a number are ignored.
func ListShards(dir, stem, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading shard directory: %w", err)
	}

	prefix := sanitize(stem) + "-"
	type shard struct {
		path  string
		index int
	}
	var found []shard
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		num := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		if num == "" || strings.Trim(num, "0123456789") != "" {
			continue
		}
		idx, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		found = append(found, shard{path: filepath.Join(dir, name), index: idx})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].index < found[j].index })
	paths := make([]string, len(found))
	for i, s := range found {
		paths[i] = s.path
	}
	return paths, nil
}
