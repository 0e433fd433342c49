// Package chunk partitions work lists into fixed-size batches.
// Batches are consecutive and keep input order; the last may be shorter.
package chunk

// Split partitions items into consecutive batches of at most size
// elements. A size <= 0 yields a single batch holding everything.
// Batches share the backing array of items.
func Split[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items}
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		batches = append(batches, items[i:end:end])
	}
	return batches
}
