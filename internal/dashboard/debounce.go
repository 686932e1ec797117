package dashboard

import (
	"sync"
	"time"
)

// DefaultDebounce is the slider coalescing window.
const DefaultDebounce = 350 * time.Millisecond

// Debouncer runs fn once after calls to Trigger stop for the configured delay.
type Debouncer struct {
	mu      sync.Mutex
	idle    *sync.Cond
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	running int
}

// NewDebouncer creates a debouncer for fn.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	d := &Debouncer{delay: delay, fn: fn}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger (re)starts the window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timer != t {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.running++
		d.mu.Unlock()

		defer func() {
			d.mu.Lock()
			d.running--
			if d.running == 0 {
				d.idle.Broadcast()
			}
			d.mu.Unlock()
		}()
		d.fn()
	})
	d.timer = t
}

// Cancel drops a pending call. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

// Flush runs a pending call now instead of at the end of the window. A call
// whose timer already fired is waited for.
func (d *Debouncer) Flush() {
	if d.Cancel() {
		d.fn()
	}
	d.wait()
}

// Stop drops a pending call and waits for a fired one to return.
func (d *Debouncer) Stop() {
	d.Cancel()
	d.wait()
}

func (d *Debouncer) wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.running > 0 {
		d.idle.Wait()
	}
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
