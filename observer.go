package gotlive

import (
	"sync"
	"time"

	"github.com/ZaguanLabs/gotlive/dom"
)

// DefaultDebounce is the quiet period after the last qualifying mutation
// before an incremental re-run starts.
const DefaultDebounce = 250 * time.Millisecond

// debouncer runs fn once after trigger stops being called for window.
type debouncer struct {
	mu      sync.Mutex
	window  time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

func newDebouncer(window time.Duration, fn func()) *debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &debouncer{window: window, fn: fn}
}

// trigger (re)starts the window.
func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Observer watches a document and calls a function once a burst of
// qualifying mutations has settled.
type Observer struct {
	debounce *debouncer
	cancel   func()
}

// NewObserver starts watching doc. Records for which accept returns false
// are ignored; a nil accept takes every record. fn runs on its own
// goroutine.
func NewObserver(doc *dom.Document, window time.Duration, accept func(dom.Record) bool, fn func()) *Observer {
	o := &Observer{debounce: newDebouncer(window, fn)}
	o.cancel = doc.Watch(func(rec dom.Record) {
		if accept == nil || accept(rec) {
			o.debounce.trigger()
		}
	})
	return o
}

// Trigger schedules fn as if a qualifying mutation had just happened.
func (o *Observer) Trigger() {
	o.debounce.trigger()
}

// Stop stops watching and cancels a pending run.
func (o *Observer) Stop() {
	o.cancel()
	o.debounce.stop()
}
