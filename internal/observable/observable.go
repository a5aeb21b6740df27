// Package observable provides small reactive containers: a single value, a
// list and a key-mapped dictionary. Observers are invoked synchronously on
// mutation, in registration order. None of the containers are safe for
// concurrent use; all party state lives on a single cooperative flow.
package observable

// ChangeKind describes what a mutation did to the observed element.
type ChangeKind int

const (
	Added ChangeKind = iota
	Updated
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Handle represents one active subscription. Closing it removes the observer;
// closing twice is a no-op. Callers keep the handles they get from Observe and
// close them when detaching.
type Handle struct {
	remove func()
}

// NewHandle wraps a removal func so other packages can hand out handles for
// their own subscription lists.
func NewHandle(remove func()) *Handle {
	return &Handle{remove: remove}
}

// Close detaches the observer from its container.
func (h *Handle) Close() {
	if h.remove != nil {
		h.remove()
		h.remove = nil
	}
}

// sub pairs a registration id with a callback so handles can remove exactly
// their own entry even when the same function is registered twice.
type sub[F any] struct {
	id int
	fn F
}

func removeSub[F any](subs []sub[F], id int) []sub[F] {
	for i := range subs {
		if subs[i].id == id {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}
