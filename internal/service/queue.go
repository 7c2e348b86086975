package service

import (
	"errors"
	"sync"
)

var ErrQueueClosed = errors.New("service is shutting down")

// ─────────────────────────────────────────────────────────────
// serialQueue: one goroutine owns the open document
// ─────────────────────────────────────────────────────────────

// serialQueue runs tasks one at a time in submission order. Every read and
// write of the open document happens inside a task, so a reflow cascade is
// always fully drained before the next edit or export sees the model.
type serialQueue struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func newSerialQueue() *serialQueue {
	q := &serialQueue{
		tasks: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *serialQueue) loop() {
	defer close(q.done)
	for {
		select {
		case fn := <-q.tasks:
			fn()
		case <-q.quit:
			return
		}
	}
}

// Do runs fn on the queue goroutine and waits for its result. It must not
// be called from inside another task.
func (q *serialQueue) Do(fn func() error) error {
	result := make(chan error, 1)
	select {
	case <-q.quit:
		return ErrQueueClosed
	case q.tasks <- func() { result <- fn() }:
	}
	return <-result
}

// Close stops accepting tasks and waits for the running one to finish.
func (q *serialQueue) Close() {
	q.once.Do(func() { close(q.quit) })
	<-q.done
}
