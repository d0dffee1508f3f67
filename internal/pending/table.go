// File: internal/pending/table.go
// Package pending implements the thread-safe pending-request table: a
// sequence-number-keyed map from an outstanding request to the completion
// sink that resolves it exactly once.
// Author: ulala-x
// License: Apache-2.0
//
// Grounded on the sharded-map shape of internal/session/store.go, reduced
// to a single shard: one Connector owns one Table, and even at the 65535
// in-flight ceiling (spec.md §4.4.1) a single mutex over a single map does
// not contend badly enough to justify sharding.

package pending

import (
	"sync"
	"time"

	"github.com/ulala-x/playhouse-go/protocol"
)

// Sink is handed back to the caller exactly once: by Resolve, by a
// CollectExpired sweep, or by DrainAll. The table never invokes a sink
// itself; the entry has already left the table by the time its sink is
// returned, so whichever caller receives it owns the single delivery.
type Sink func(protocol.Packet)

type entry struct {
	deadline time.Time
	sink     Sink
}

// Expired pairs a sequence number with the sink that must now be resolved
// out-of-band (with a timeout or disconnect packet), since CollectExpired
// and DrainAll only remove entries — they do not invoke sinks themselves.
type Expired struct {
	Seq  uint16
	Sink Sink
}

// Table is a thread-safe map from msg_seq to a pending request's deadline
// and completion sink. All operations are mutually exclusive.
type Table struct {
	mu      sync.Mutex
	entries map[uint16]entry
}

// New constructs an empty table.
func New() *Table {
	return &Table{entries: make(map[uint16]entry)}
}

// Insert records a new pending entry for seq. The sequence allocator
// (skip-zero, collision-free within the 65535 in-flight ceiling) guarantees
// seq is not already present; Insert overwrites silently if it is, since
// that would indicate allocator misuse rather than a condition callers
// should need to handle.
func (t *Table) Insert(seq uint16, deadline time.Time, sink Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[seq] = entry{deadline: deadline, sink: sink}
}

// Resolve removes seq's entry, if present, and returns its sink for the
// caller to deliver. Mirrors CollectExpired/DrainAll: the table only ever
// hands sinks back, it never invokes one itself, so every delivery path
// (an immediate response, a reaper sweep, a disconnect drain) runs through
// exactly the same caller-side invocation discipline.
func (t *Table) Resolve(seq uint16) (Sink, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[seq]
	if !ok {
		return nil, false
	}
	delete(t.entries, seq)
	return e.sink, true
}

// CollectExpired removes and returns every entry whose deadline has passed
// as of now. Idempotent once drained: a second call with the same or a
// later now returns nothing for entries already removed.
func (t *Table) CollectExpired(now time.Time) []Expired {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []Expired
	for seq, e := range t.entries {
		if !e.deadline.After(now) {
			expired = append(expired, Expired{Seq: seq, Sink: e.sink})
			delete(t.entries, seq)
		}
	}
	return expired
}

// DrainAll removes and returns every remaining entry, for the caller to
// fail with a disconnect reason. Called exactly once per disconnect.
func (t *Table) DrainAll() []Expired {
	t.mu.Lock()
	defer t.mu.Unlock()

	drained := make([]Expired, 0, len(t.entries))
	for seq, e := range t.entries {
		drained = append(drained, Expired{Seq: seq, Sink: e.sink})
	}
	t.entries = make(map[uint16]entry)
	return drained
}

// Len reports the number of outstanding entries. Intended for tests and
// diagnostics, not for control flow.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
