// File: internal/dispatch/queue.go
// Package dispatch implements the main-thread dispatch queue: a FIFO of
// deferred closures enqueued from the I/O and timeout goroutines and
// drained on the caller's chosen "main" goroutine.
// Author: ulala-x
// License: Apache-2.0
//
// The core is notified from the I/O goroutine and the timeout goroutine,
// but users (game engines, UI frameworks) require callbacks on a specific
// goroutine. This queue is the marshalling boundary. Backed by
// github.com/eapache/queue, a ring-buffer-based FIFO the teacher already
// depends on for its executor's overflow path (internal/concurrency/executor.go)
// — here it gets a more direct use as the dispatch queue's own storage.

package dispatch

import (
	"log"
	"sync"

	"github.com/eapache/queue"
)

// Closure is a deferred, argument-less unit of work.
type Closure func()

// Queue is safe for concurrent Enqueue from any number of goroutines. Drive
// must only be called from the single goroutine the caller has designated
// as "main" — concurrent Drive calls would race on delivery order.
type Queue struct {
	mu sync.Mutex
	q  *queue.Queue
}

// New constructs an empty dispatch queue.
func New() *Queue {
	return &Queue{q: queue.New()}
}

// Enqueue appends f to the queue. Thread-safe; unbounded, subject to
// available memory.
func (d *Queue) Enqueue(f Closure) {
	d.mu.Lock()
	d.q.Add(f)
	d.mu.Unlock()
}

// Drive removes and invokes every closure queued as of the start of this
// call, in enqueue order. Closures enqueued during Drive (e.g. by a
// callback that itself calls Send) run on the next Drive call, not this
// one. A closure that panics is recovered and logged; the remaining queue
// is still drained.
func (d *Queue) Drive() {
	d.mu.Lock()
	n := d.q.Length()
	batch := make([]Closure, n)
	for i := 0; i < n; i++ {
		batch[i] = d.q.Remove().(Closure)
	}
	d.mu.Unlock()

	for _, f := range batch {
		runSafely(f)
	}
}

func runSafely(f Closure) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatch: recovered panic in queued callback: %v", r)
		}
	}()
	f()
}

// Len reports the number of closures currently queued. Intended for tests
// and diagnostics.
func (d *Queue) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.q.Length()
}
