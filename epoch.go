package gotlive

import "sync/atomic"

// Epochs hands out monotonically increasing invocation ids. Only the holder
// of the newest id may change the visible document.
type Epochs struct {
	current atomic.Uint64
}

// Begin starts a new epoch and returns its id.
func (e *Epochs) Begin() uint64 {
	return e.current.Add(1)
}

// IsCurrent reports whether id is still the newest epoch.
func (e *Epochs) IsCurrent(id uint64) bool {
	return e.current.Load() == id
}

// Current returns the newest epoch id, or zero before the first Begin.
func (e *Epochs) Current() uint64 {
	return e.current.Load()
}
