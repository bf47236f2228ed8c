//go:build property

package watcher

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties validates burst coalescing.
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	properties.Property("a burst inside the quiet period settles exactly once", prop.ForAll(
		func(count int, delayMs int) bool {
			delay := time.Duration(delayMs) * time.Millisecond
			var settled atomic.Int32
			d := NewDebouncer(delay, func(ChangeEvent) { settled.Add(1) })
			defer d.Stop()

			for i := 0; i < count; i++ {
				d.Trigger(ChangeEvent{Type: EventTypeModified})
			}

			time.Sleep(delay * 4)
			return settled.Load() == 1 && !d.Pending()
		},
		gen.IntRange(1, 50),
		gen.IntRange(5, 25),
	))

	properties.Property("the quiet period is measured from the last notification", prop.ForAll(
		func(count int) bool {
			delay := 20 * time.Millisecond
			fired := make(chan time.Time, 1)
			d := NewDebouncer(delay, func(ChangeEvent) { fired <- time.Now() })
			defer d.Stop()

			var last time.Time
			for i := 0; i < count; i++ {
				last = time.Now()
				d.Trigger(ChangeEvent{})
				time.Sleep(delay / 5)
			}

			select {
			case at := <-fired:
				return at.Sub(last) >= delay
			case <-time.After(time.Second):
				return false
			}
		},
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
