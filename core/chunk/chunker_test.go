package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	seven := []string{"a", "b", "c", "d", "e", "f", "g"}

	tests := []struct {
		name  string
		items []string
		size  int
		want  [][]string
	}{
		{"seven by three", seven, 3, [][]string{{"a", "b", "c"}, {"d", "e", "f"}, {"g"}}},
		{"exact", seven[:6], 3, [][]string{{"a", "b", "c"}, {"d", "e", "f"}}},
		{"size larger than list", seven[:2], 10, [][]string{{"a", "b"}}},
		{"zero means one batch", seven, 0, [][]string{seven}},
		{"negative means one batch", seven[:3], -1, [][]string{{"a", "b", "c"}}},
		{"empty", nil, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.items, tt.size))
		})
	}
}

func TestSplit_BatchesDoNotAlias(t *testing.T) {
	items := []int{1, 2, 3, 4}
	batches := Split(items, 2)
	batches[0] = append(batches[0], 99)
	assert.Equal(t, []int{1, 2, 3, 4}, items)
}
