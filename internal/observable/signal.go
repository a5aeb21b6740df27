package observable

// Signal is a parameterless observable event.
type Signal struct {
	subs   []sub[func()]
	nextID int
}

// NewSignal creates a signal with no observers.
func NewSignal() *Signal {
	return &Signal{}
}

// Observe registers fn for future notifications.
func (s *Signal) Observe(fn func()) *Handle {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, sub[func()]{id: id, fn: fn})
	return &Handle{remove: func() {
		s.subs = removeSub(s.subs, id)
	}}
}

// Notify invokes all observers in registration order.
func (s *Signal) Notify() {
	for _, su := range append([]sub[func()](nil), s.subs...) {
		su.fn()
	}
}
