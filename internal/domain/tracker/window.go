// Package tracker holds the per-entity running state behind the temporal
// features: team form and pitcher career lines.
package tracker

// Window is a fixed-capacity FIFO ring buffer. Pushing into a full window
// silently drops the oldest entry.
type Window[T any] struct {
	buf   []T
	start int
	n     int
}

// NewWindow returns an empty window holding at most capacity entries.
func NewWindow[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Window[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest entry when full.
func (w *Window[T]) Push(v T) {
	if w.n < len(w.buf) {
		w.buf[(w.start+w.n)%len(w.buf)] = v
		w.n++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

// Len returns the number of entries held.
func (w *Window[T]) Len() int { return w.n }

// Cap returns the window capacity.
func (w *Window[T]) Cap() int { return len(w.buf) }

// At returns the i-th entry, oldest first.
func (w *Window[T]) At(i int) T {
	if i < 0 || i >= w.n {
		panic("tracker: window index out of range")
	}
	return w.buf[(w.start+i)%len(w.buf)]
}

// Tail calls fn for the most recent k entries, oldest first. k larger than
// Len visits everything.
func (w *Window[T]) Tail(k int, fn func(T)) {
	if k > w.n {
		k = w.n
	}
	for i := w.n - k; i < w.n; i++ {
		fn(w.At(i))
	}
}

// Slice copies the entries out, oldest first.
func (w *Window[T]) Slice() []T {
	out := make([]T, 0, w.n)
	w.Tail(w.n, func(v T) { out = append(out, v) })
	return out
}
