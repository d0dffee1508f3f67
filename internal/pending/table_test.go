package pending_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ulala-x/playhouse-go/internal/pending"
	"github.com/ulala-x/playhouse-go/protocol"
)

func TestResolveDeliversOnce(t *testing.T) {
	tbl := pending.New()
	var got protocol.Packet
	calls := 0
	tbl.Insert(5, time.Now().Add(time.Minute), func(p protocol.Packet) {
		calls++
		got = p
	})

	sink, ok := tbl.Resolve(5)
	if !ok {
		t.Fatalf("Resolve returned false for a present entry")
	}
	sink(protocol.Packet{MsgID: "EchoReply", MsgSeq: 5})
	if calls != 1 {
		t.Fatalf("sink invoked %d times, want 1", calls)
	}
	if got.MsgID != "EchoReply" {
		t.Fatalf("got %+v", got)
	}
	if _, ok := tbl.Resolve(5); ok {
		t.Fatalf("Resolve succeeded twice for the same seq")
	}
	if calls != 1 {
		t.Fatalf("sink invoked again after entry was removed")
	}
}

func TestResolveUnknownSeqReturnsFalse(t *testing.T) {
	tbl := pending.New()
	if _, ok := tbl.Resolve(99); ok {
		t.Fatalf("Resolve succeeded for an unknown seq")
	}
}

func TestCollectExpiredIsIdempotent(t *testing.T) {
	tbl := pending.New()
	past := time.Now().Add(-time.Second)
	future := time.Now().Add(time.Minute)
	tbl.Insert(1, past, func(protocol.Packet) {})
	tbl.Insert(2, future, func(protocol.Packet) {})

	expired := tbl.CollectExpired(time.Now())
	if len(expired) != 1 || expired[0].Seq != 1 {
		t.Fatalf("got %+v", expired)
	}
	if again := tbl.CollectExpired(time.Now()); len(again) != 0 {
		t.Fatalf("second sweep returned entries: %+v", again)
	}
	if tbl.Len() != 1 {
		t.Fatalf("len = %d, want 1 (seq 2 still pending)", tbl.Len())
	}
}

func TestDrainAllRemovesEverything(t *testing.T) {
	tbl := pending.New()
	for seq := uint16(1); seq <= 3; seq++ {
		tbl.Insert(seq, time.Now().Add(time.Minute), func(protocol.Packet) {})
	}
	drained := tbl.DrainAll()
	if len(drained) != 3 {
		t.Fatalf("drained %d entries, want 3", len(drained))
	}
	if tbl.Len() != 0 {
		t.Fatalf("table not empty after DrainAll: %d", tbl.Len())
	}
}

func TestConcurrentInsertResolveCollect(t *testing.T) {
	tbl := pending.New()
	var wg sync.WaitGroup
	const n = 200

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(seq uint16) {
			defer wg.Done()
			tbl.Insert(seq, time.Now().Add(50*time.Millisecond), func(protocol.Packet) {})
		}(uint16(i + 1))
	}
	wg.Wait()

	for i := 0; i < n/2; i++ {
		wg.Add(1)
		go func(seq uint16) {
			defer wg.Done()
			if sink, ok := tbl.Resolve(seq); ok {
				sink(protocol.Packet{MsgSeq: seq})
			}
		}(uint16(i + 1))
	}
	wg.Wait()

	time.Sleep(60 * time.Millisecond)
	expired := tbl.CollectExpired(time.Now())
	drained := tbl.DrainAll()
	if len(expired)+len(drained)+n/2 != n {
		t.Fatalf("accounting mismatch: resolved=%d expired=%d drained=%d total=%d", n/2, len(expired), len(drained), n)
	}
}
