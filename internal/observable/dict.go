package observable

// DictObserver receives the key, the previous and the current value and the
// kind of change. For Added the previous value is the zero value, for Removed
// the current one is.
type DictObserver[K comparable, V any] func(key K, prev, cur V, kind ChangeKind)

// Dict holds an observable key-value map. Observers can watch the whole map
// or a single key.
type Dict[K comparable, V any] struct {
	values  map[K]V
	subs    []sub[DictObserver[K, V]]
	keySubs map[K][]sub[DictObserver[K, V]]
	nextID  int
}

// NewDict creates an empty dictionary.
func NewDict[K comparable, V any]() *Dict[K, V] {
	return &Dict[K, V]{
		values:  make(map[K]V),
		keySubs: make(map[K][]sub[DictObserver[K, V]]),
	}
}

// Len returns the number of entries.
func (d *Dict[K, V]) Len() int {
	return len(d.values)
}

// Get looks up the value for key.
func (d *Dict[K, V]) Get(key K) (V, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Snapshot returns a copy of the backing map.
func (d *Dict[K, V]) Snapshot() map[K]V {
	out := make(map[K]V, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

// Set stores value under key, notifying an Added change for a new key and an
// Updated change for an existing one.
func (d *Dict[K, V]) Set(key K, value V) {
	prev, existed := d.values[key]
	d.values[key] = value
	if existed {
		d.notify(key, prev, value, Updated)
		return
	}
	var zero V
	d.notify(key, zero, value, Added)
}

// Delete removes key, notifying a Removed change. It reports whether the key
// was present.
func (d *Dict[K, V]) Delete(key K) bool {
	prev, existed := d.values[key]
	if !existed {
		return false
	}
	delete(d.values, key)
	var zero V
	d.notify(key, prev, zero, Removed)
	return true
}

// InvokeUpdate fires an Updated notification for key without changing the
// value.
func (d *Dict[K, V]) InvokeUpdate(key K) {
	if v, ok := d.values[key]; ok {
		d.notify(key, v, v, Updated)
	}
}

// Clear removes all entries, notifying a Removed change for each.
func (d *Dict[K, V]) Clear() {
	for k := range d.Snapshot() {
		d.Delete(k)
	}
}

// Observe registers fn for changes to any key.
func (d *Dict[K, V]) Observe(fn DictObserver[K, V]) *Handle {
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, sub[DictObserver[K, V]]{id: id, fn: fn})
	return &Handle{remove: func() {
		d.subs = removeSub(d.subs, id)
	}}
}

// ObserveKey registers fn for changes to a single key.
func (d *Dict[K, V]) ObserveKey(key K, fn DictObserver[K, V]) *Handle {
	d.nextID++
	id := d.nextID
	d.keySubs[key] = append(d.keySubs[key], sub[DictObserver[K, V]]{id: id, fn: fn})
	return &Handle{remove: func() {
		d.keySubs[key] = removeSub(d.keySubs[key], id)
	}}
}

// InvokeObserveKey invokes fn once with the current value for key (as an
// Updated change, only if the key exists), then registers it.
func (d *Dict[K, V]) InvokeObserveKey(key K, fn DictObserver[K, V]) *Handle {
	if v, ok := d.values[key]; ok {
		fn(key, v, v, Updated)
	}
	return d.ObserveKey(key, fn)
}

func (d *Dict[K, V]) notify(key K, prev, cur V, kind ChangeKind) {
	for _, s := range append([]sub[DictObserver[K, V]](nil), d.keySubs[key]...) {
		s.fn(key, prev, cur, kind)
	}
	for _, s := range append([]sub[DictObserver[K, V]](nil), d.subs...) {
		s.fn(key, prev, cur, kind)
	}
}
