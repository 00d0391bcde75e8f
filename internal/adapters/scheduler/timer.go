// Package scheduler provides wall-clock implementations of ports.Scheduler.
package scheduler

import (
	"sync"
	"time"

	"github.com/arco-rh/arco-client/internal/ports"
)

var _ ports.Scheduler = Timer{}

// Timer schedules work on time.AfterFunc.
type Timer struct{}

func (Timer) Schedule(delay time.Duration, fn func()) ports.Task {
	t := &timerTask{done: make(chan struct{})}
	t.timer = time.AfterFunc(delay, func() {
		defer t.finish()
		fn()
	})
	return t
}

type timerTask struct {
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
}

func (t *timerTask) Cancel() bool {
	if t.timer.Stop() {
		t.finish()
		return true
	}
	return false
}

func (t *timerTask) Done() <-chan struct{} { return t.done }

func (t *timerTask) finish() {
	t.once.Do(func() { close(t.done) })
}
