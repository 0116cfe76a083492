// Package lane implements a task queue with two classes of work: concurrent
// tasks that may overlap each other, and exclusive tasks that run alone.
//
// It is the execution context of a disk tier: reads are concurrent tasks,
// writes are exclusive. Tasks are dispatched strictly in submission order, so
//
//   - an exclusive task starts only after every task submitted before it has
//     finished, and no task submitted after it starts until it has finished;
//   - exclusive tasks are totally ordered by submission;
//   - concurrent tasks between two exclusive tasks run in parallel, bounded by
//     the optional reader limit.
//
// A task is a func that does its work and returns an optional delivery
// func. Deliveries run after the task has released the lane, so a delivery
// may submit (and wait for) further tasks on the same lane.
package lane

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Task does work inside the lane and returns what to run once it has left.
type Task func() (deliver func())

type item struct {
	run       Task
	exclusive bool
}

// Lane dispatches tasks on a single coordinator goroutine.
type Lane struct {
	mu     sync.Mutex
	queue  []item
	wake   chan struct{}
	closed bool

	readers  *semaphore.Weighted // nil = unbounded
	inflight sync.WaitGroup
	stopped  chan struct{}
}

// New starts a lane. maxReaders bounds concurrently running concurrent tasks;
// zero or less means unbounded.
func New(maxReaders int) *Lane {
	l := &Lane{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	if maxReaders > 0 {
		l.readers = semaphore.NewWeighted(int64(maxReaders))
	}
	go l.loop()
	return l
}

// Go submits a concurrent task. It reports false if the lane is closed, in
// which case the task is not run.
func (l *Lane) Go(t Task) bool { return l.submit(item{run: t}) }

// Exclusive submits a task that runs with nothing else in flight.
// It reports false if the lane is closed.
func (l *Lane) Exclusive(t Task) bool { return l.submit(item{run: t, exclusive: true}) }

// Close stops accepting tasks, runs everything already queued and waits for
// it to finish (deliveries of exclusive tasks may still be running).
func (l *Lane) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		l.signal()
	}
	l.mu.Unlock()
	<-l.stopped
}

func (l *Lane) submit(it item) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.queue = append(l.queue, it)
	l.signal()
	return true
}

// signal wakes the loop; mu held.
func (l *Lane) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Lane) loop() {
	defer close(l.stopped)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		for _, it := range batch {
			l.dispatch(it)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			l.inflight.Wait()
			return
		}
		<-l.wake
	}
}

func (l *Lane) dispatch(it item) {
	if it.exclusive {
		l.inflight.Wait()
		if deliver := it.run(); deliver != nil {
			go deliver()
		}
		return
	}

	if l.readers != nil {
		// Background context: Acquire only fails on cancellation.
		_ = l.readers.Acquire(context.Background(), 1)
	}
	l.inflight.Add(1)
	go func() {
		deliver := it.run()
		l.inflight.Done()
		if l.readers != nil {
			l.readers.Release(1)
		}
		if deliver != nil {
			deliver()
		}
	}()
}
