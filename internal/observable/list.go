package observable

// ListObserver receives the index, the previous and the current element and
// the kind of change. For Added the previous element is the zero value, for
// Removed the current one is.
type ListObserver[T any] func(index int, prev, cur T, kind ChangeKind)

// List holds an ordered observable collection.
type List[T any] struct {
	items  []T
	subs   []sub[ListObserver[T]]
	nextID int
}

// NewList creates an empty list.
func NewList[T any]() *List[T] {
	return &List[T]{}
}

// Len returns the number of elements.
func (l *List[T]) Len() int {
	return len(l.items)
}

// At returns the element at index i.
func (l *List[T]) At(i int) T {
	return l.items[i]
}

// Items returns a copy of the backing slice.
func (l *List[T]) Items() []T {
	return append([]T(nil), l.items...)
}

// Add appends v and notifies observers with an Added change.
func (l *List[T]) Add(v T) {
	l.items = append(l.items, v)
	var zero T
	l.notify(len(l.items)-1, zero, v, Added)
}

// Set replaces the element at index i and notifies with an Updated change.
func (l *List[T]) Set(i int, v T) {
	prev := l.items[i]
	l.items[i] = v
	l.notify(i, prev, v, Updated)
}

// RemoveAt removes the element at index i and notifies with a Removed change.
func (l *List[T]) RemoveAt(i int) {
	prev := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	var zero T
	l.notify(i, prev, zero, Removed)
}

// IndexFunc returns the index of the first element for which match returns
// true, or -1.
func (l *List[T]) IndexFunc(match func(T) bool) int {
	for i, v := range l.items {
		if match(v) {
			return i
		}
	}
	return -1
}

// InvokeUpdate fires an Updated notification for index i without changing the
// element. Used after mutating an element in place.
func (l *List[T]) InvokeUpdate(i int) {
	l.notify(i, l.items[i], l.items[i], Updated)
}

// Clear removes all elements, notifying a Removed change for each, last to
// first.
func (l *List[T]) Clear() {
	for i := len(l.items) - 1; i >= 0; i-- {
		l.RemoveAt(i)
	}
}

// Observe registers fn for future changes.
func (l *List[T]) Observe(fn ListObserver[T]) *Handle {
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, sub[ListObserver[T]]{id: id, fn: fn})
	return &Handle{remove: func() {
		l.subs = removeSub(l.subs, id)
	}}
}

// InvokeObserve invokes fn once per current element as an Updated change,
// then registers it.
func (l *List[T]) InvokeObserve(fn ListObserver[T]) *Handle {
	for i, v := range l.items {
		fn(i, v, v, Updated)
	}
	return l.Observe(fn)
}

func (l *List[T]) notify(i int, prev, cur T, kind ChangeKind) {
	for _, s := range append([]sub[ListObserver[T]](nil), l.subs...) {
		s.fn(i, prev, cur, kind)
	}
}
