package feed

import (
	"sync"
	"time"
)

// delayed runs at most one pending callback. Scheduling again or cancelling
// stops the previous one, including a callback whose timer already fired but
// has not run yet.
type delayed struct {
	mu  sync.Mutex
	t   *time.Timer
	seq uint64
}

func (d *delayed) Schedule(after time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.t != nil {
		d.t.Stop()
	}
	d.seq++
	seq := d.seq
	d.t = time.AfterFunc(after, func() {
		d.mu.Lock()
		current := d.seq == seq
		if current {
			d.t = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

func (d *delayed) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.t != nil {
		d.t.Stop()
		d.t = nil
	}
	d.seq++
}

// Pending reports whether a callback is scheduled.
func (d *delayed) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t != nil
}
