package watcher

import (
	"sync"
	"time"
)

// Debouncer groups rapid change notifications together. Every Trigger
// restarts a single quiet-period timer; when the timer expires without
// another Trigger the handler runs once with the last event of the burst.
type Debouncer struct {
	delay time.Duration
	fn    func(ChangeEvent)

	mutex      sync.Mutex
	timer      *time.Timer
	generation uint64
	last       ChangeEvent
	stopped    bool

	// runMutex keeps handler invocations from overlapping.
	runMutex sync.Mutex
}

// NewDebouncer creates a debouncer that calls fn after delay of quiet.
func NewDebouncer(delay time.Duration, fn func(ChangeEvent)) *Debouncer {
	return &Debouncer{
		delay: delay,
		fn:    fn,
	}
}

// Trigger records event and restarts the quiet period. Calls after Stop are
// ignored.
func (d *Debouncer) Trigger(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}

	d.last = event
	d.generation++

	if d.timer != nil {
		d.timer.Stop()
	}

	gen := d.generation
	d.timer = time.AfterFunc(d.delay, func() {
		d.flush(gen)
	})
}

// flush runs the handler unless a newer Trigger or a Stop superseded gen.
// A timer whose Stop lost the race with expiry lands here with a stale gen.
func (d *Debouncer) flush(gen uint64) {
	d.mutex.Lock()
	if d.stopped || gen != d.generation {
		d.mutex.Unlock()
		return
	}
	event := d.last
	d.timer = nil
	d.mutex.Unlock()

	d.runMutex.Lock()
	defer d.runMutex.Unlock()

	d.fn(event)
}

// Pending reports whether a settle is scheduled.
func (d *Debouncer) Pending() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.timer != nil
}

// Stop cancels any pending settle. It is safe with no timer pending and
// safe to call more than once.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.stopped = true
	d.generation++

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
