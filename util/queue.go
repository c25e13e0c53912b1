package util

// Queue implements a parameterized First-In-First-Out (FIFO) data structure.
// It is not safe for concurrent use; callers guard it with their own lock.
type Queue[T any] struct {
	items []T
}

// Push appends a new element to the back of the queue.
func (q *Queue[T]) Push(item T) {
	q.items = append(q.items, item)
}

// Pop removes and returns the front element; ok is false if the queue is empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	if len(q.items) == 0 {
		return
	}
	item = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// Peek returns the front element without removing it.
func (q *Queue[T]) Peek() (item T, ok bool) {
	if len(q.items) == 0 {
		return
	}
	return q.items[0], true
}

// RemoveAt deletes the element at the zero-based index, keeping the order of the rest.
func (q *Queue[T]) RemoveAt(index int) (item T, ok bool) {
	if index < 0 || index >= len(q.items) {
		return
	}
	item = q.items[index]
	q.items = append(q.items[:index:index], q.items[index+1:]...)
	return item, true
}

// Items returns a copy of the queued elements in order.
func (q *Queue[T]) Items() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the total number of elements currently stored in the queue.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Clear removes all elements from the queue.
func (q *Queue[T]) Clear() {
	q.items = nil
}
