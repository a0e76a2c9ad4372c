package state

// Pager client-side pseudo-pagination: the full result set is held in memory
// and revealed in fixed-size pages. It is a value type so it can live inside
// immutable snapshots.
type Pager[T any] struct {
	items []T
	size  int
	shown int
}

// NewPager creates an empty pager. size <= 0 means 20.
func NewPager[T any](size int) Pager[T] {
	if size <= 0 {
		size = 20
	}
	return Pager[T]{size: size}
}

// Reset replaces the item set and rewinds to the first page.
func (p Pager[T]) Reset(items []T) Pager[T] {
	p.items = items
	p.shown = min(p.size, len(items))
	return p
}

// LoadMore advances the reveal window by one page.
func (p Pager[T]) LoadMore() Pager[T] {
	p.shown = min(p.shown+p.size, len(p.items))
	return p
}

// Visible items revealed so far.
func (p Pager[T]) Visible() []T {
	return p.items[:p.shown:p.shown]
}

// HasMore reports whether LoadMore would reveal more items.
func (p Pager[T]) HasMore() bool { return p.shown < len(p.items) }

// Total size of the underlying set.
func (p Pager[T]) Total() int { return len(p.items) }

// PageSize configured page size.
func (p Pager[T]) PageSize() int { return p.size }
