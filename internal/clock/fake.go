package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Timers fire synchronously from Advance,
// in deadline order, on the goroutine that calls Advance.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	fake  *Fake
	when  time.Time
	seq   uint64
	fn    func()
	ch    chan time.Time
	fired bool
}

// NewFake returns a Fake clock set to now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After returns a channel that receives the fake time once it has been
// advanced by at least d.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	f.schedule(d, nil, ch)
	return ch
}

// AfterFunc calls fn from Advance once the fake time has moved by d.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	return f.schedule(d, fn, nil)
}

func (f *Fake) schedule(d time.Duration, fn func(), ch chan time.Time) *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{fake: f, when: f.now.Add(d), seq: f.seq, fn: fn, ch: ch}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the fake time forward by d, firing every timer whose
// deadline is reached. Timers scheduled by fired callbacks are honored when
// they fall inside the same window.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		idx := -1
		for i, t := range f.timers {
			if t.when.After(target) {
				continue
			}
			if idx < 0 || t.when.Before(f.timers[idx].when) ||
				(t.when.Equal(f.timers[idx].when) && t.seq < f.timers[idx].seq) {
				idx = i
			}
		}
		if idx < 0 {
			f.now = target
			f.mu.Unlock()
			return
		}
		t := f.timers[idx]
		f.timers = append(f.timers[:idx], f.timers[idx+1:]...)
		t.fired = true
		f.now = t.when
		now := f.now
		f.mu.Unlock()

		if t.fn != nil {
			t.fn()
		} else {
			t.ch <- now
		}
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// BlockUntil waits until at least n timers are pending. Used by tests to
// wait for a goroutine to reach its next timed wait.
func (f *Fake) BlockUntil(n int) {
	for f.Pending() < n {
		time.Sleep(time.Millisecond)
	}
}

func (t *fakeTimer) Stop() bool {
	f := t.fake
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.fired {
		return false
	}
	for i, other := range f.timers {
		if other == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return true
		}
	}
	return false
}
