// File: internal/reaper/reaper.go
// Package reaper implements the periodic sweep that fails overdue pending
// requests with a timeout result.
// Author: ulala-x
// License: Apache-2.0
//
// Grounded on the ticker-driven worker goroutine shape of
// core/concurrency/executor.go's worker loop, simplified to a single
// goroutine on a single ticker — the reaper has no work-stealing or
// resizing concerns, only a fixed cadence.

package reaper

import (
	"time"

	"github.com/ulala-x/playhouse-go/internal/dispatch"
	"github.com/ulala-x/playhouse-go/internal/pending"
	"github.com/ulala-x/playhouse-go/protocol"
)

// DefaultInterval is the sweep cadence used when the caller does not pick
// one. spec.md §4.6 requires a cadence <= 200ms; 100ms matches the C++
// original's CheckRequestTimeouts loop.
const DefaultInterval = 100 * time.Millisecond

const (
	errCodeRequestTimeout = 2001
)

// Reaper periodically sweeps a pending.Table and delivers a synthetic
// @Timeout@ packet, through a dispatch.Queue, for every entry it finds
// expired. Uses monotonic time only (time.Now(), never wall-clock math).
type Reaper struct {
	table    *pending.Table
	dispatch *dispatch.Queue
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// New constructs a reaper over table, delivering expirations through d at
// the given interval. Call Start to begin sweeping.
func New(table *pending.Table, d *dispatch.Queue, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reaper{
		table:    table,
		dispatch: d,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the periodic sweep on its own goroutine. Call it once: a
// second call starts a second sweep goroutine, and guarding against that
// is the caller's responsibility (the Connector only ever calls it once
// per Init).
func (r *Reaper) Start() {
	go r.run()
}

// Stop halts the sweep goroutine and waits for it to exit.
func (r *Reaper) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Reaper) run() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.sweep(now)
		}
	}
}

func (r *Reaper) sweep(now time.Time) {
	for _, exp := range r.table.CollectExpired(now) {
		seq := exp.Seq
		sink := exp.Sink
		r.dispatch.Enqueue(func() {
			sink(protocol.Packet{
				MsgID:     protocol.MsgIDTimeout,
				MsgSeq:    seq,
				ErrorCode: errCodeRequestTimeout,
			})
		})
	}
}
