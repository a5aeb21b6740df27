package observable

// FieldObserver receives the previous and the new value after a Set.
type FieldObserver[T any] func(prev, cur T)

// Field holds a single observable value.
type Field[T any] struct {
	value  T
	subs   []sub[FieldObserver[T]]
	nextID int
}

// NewField creates a field with the given initial value. Setting the initial
// value does not notify anyone.
func NewField[T any](initial T) *Field[T] {
	return &Field[T]{value: initial}
}

// Value returns the current value.
func (f *Field[T]) Value() T {
	return f.value
}

// Set replaces the value and notifies all observers with (previous, current).
func (f *Field[T]) Set(v T) {
	prev := f.value
	f.value = v
	for _, s := range append([]sub[FieldObserver[T]](nil), f.subs...) {
		s.fn(prev, v)
	}
}

// Observe registers fn for future changes.
func (f *Field[T]) Observe(fn FieldObserver[T]) *Handle {
	f.nextID++
	id := f.nextID
	f.subs = append(f.subs, sub[FieldObserver[T]]{id: id, fn: fn})
	return &Handle{remove: func() {
		f.subs = removeSub(f.subs, id)
	}}
}

// InvokeObserve invokes fn once with the current value, then registers it.
// Used to prime observers on attach.
func (f *Field[T]) InvokeObserve(fn FieldObserver[T]) *Handle {
	fn(f.value, f.value)
	return f.Observe(fn)
}
