package testutils

import (
	"os"
	"runtime"
	"time"
)

// TestingT is the part of *testing.T the leak tracker needs.
type TestingT interface {
	Helper()
	Errorf(format string, args ...interface{})
	Logf(format string, args ...interface{})
}

// LeakLimits bounds how far goroutine and file descriptor counts may grow
// between baseline and check.
type LeakLimits struct {
	MaxGoroutineIncrease int
	MaxFileIncrease      int
	// Settle is how long Check keeps re-sampling before reporting.
	Settle time.Duration
}

// DefaultLeakLimits allows a little runtime and test framework noise.
func DefaultLeakLimits() LeakLimits {
	return LeakLimits{
		MaxGoroutineIncrease: 2,
		MaxFileIncrease:      2,
		Settle:               2 * time.Second,
	}
}

// LeakTracker compares goroutine and open file counts against a baseline.
// Sessions own a watcher, a listener and per-viewer goroutines, so a
// stopped session must bring both back down.
type LeakTracker struct {
	goroutines int
	files      int
}

// NewLeakTracker records the baseline.
func NewLeakTracker() *LeakTracker {
	runtime.GC()

	return &LeakTracker{
		goroutines: runtime.NumGoroutine(),
		files:      openFileCount(),
	}
}

// Check reports a leak if, after re-sampling for up to limits.Settle, the
// counts are still above baseline plus the allowance.
func (lt *LeakTracker) Check(t TestingT, limits LeakLimits) {
	t.Helper()

	deadline := time.Now().Add(limits.Settle)
	var goroutines, files int
	for {
		goroutines = runtime.NumGoroutine()
		files = openFileCount()

		if goroutines-lt.goroutines <= limits.MaxGoroutineIncrease &&
			(files < 0 || files-lt.files <= limits.MaxFileIncrease) {
			return
		}
		if time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if diff := goroutines - lt.goroutines; diff > limits.MaxGoroutineIncrease {
		t.Errorf("goroutine leak: %d at baseline, %d now (+%d, limit +%d)",
			lt.goroutines, goroutines, diff, limits.MaxGoroutineIncrease)
		t.Logf("goroutines:\n%s", goroutineStacks())
	}

	if diff := files - lt.files; files >= 0 && diff > limits.MaxFileIncrease {
		t.Errorf("file descriptor leak: %d at baseline, %d now (+%d, limit +%d)",
			lt.files, files, diff, limits.MaxFileIncrease)
	}
}

// openFileCount counts /proc/self/fd entries, or -1 where that is missing.
func openFileCount() int {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return -1
	}

	return len(entries)
}

func goroutineStacks() string {
	buf := make([]byte, 64*1024)
	n := runtime.Stack(buf, true)

	return string(buf[:n])
}
