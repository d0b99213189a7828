package models

// Window selects records by their 1-based rank in id order among the records
// currently present. Min and Max are inclusive; zero means unbounded.
type Window struct {
	Min int64
	Max int64
}

// Offset is the number of leading records skipped.
func (w Window) Offset() int64 {
	if w.Min <= 1 {
		return 0
	}
	return w.Min - 1
}

// Limit is the maximum number of records returned. ok is false when the
// window has no upper bound.
func (w Window) Limit() (n int64, ok bool) {
	if w.Max <= 0 {
		return 0, false
	}
	n = w.Max - w.Offset()
	if n < 0 {
		n = 0
	}
	return n, true
}

// Apply slices an id-ordered sequence down to the window.
func Apply[T any](items []T, w Window) []T {
	off := w.Offset()
	if off >= int64(len(items)) {
		return []T{}
	}
	items = items[off:]
	if n, ok := w.Limit(); ok && n < int64(len(items)) {
		items = items[:n]
	}
	return items
}
