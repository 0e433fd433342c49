// Package crawl — insertion-ordered set.
// Keeps the first occurrence of each item, in the order items were added.
package crawl

// Queue is an insertion-ordered set of strings.
type Queue struct {
	items   []string
	visited map[string]bool
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{
		visited: make(map[string]bool),
	}
}

// Add enqueues item if it hasn't been seen before and reports whether it
// was added.
func (q *Queue) Add(item string) bool {
	if q.visited[item] {
		return false
	}
	q.visited[item] = true
	q.items = append(q.items, item)
	return true
}

// Len returns the number of unique items.
func (q *Queue) Len() int {
	return len(q.items)
}

// All returns all unique items in insertion order.
func (q *Queue) All() []string {
	return q.items
}
