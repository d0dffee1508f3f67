package dispatch_test

import (
	"sync"
	"testing"

	"github.com/ulala-x/playhouse-go/internal/dispatch"
)

func TestDriveRunsInEnqueueOrder(t *testing.T) {
	d := dispatch.New()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		d.Enqueue(func() { order = append(order, i) })
	}
	d.Drive()
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want 0..4 in sequence", order)
		}
	}
}

func TestDriveRecoversPanicsAndContinues(t *testing.T) {
	d := dispatch.New()
	ran := false
	d.Enqueue(func() { panic("boom") })
	d.Enqueue(func() { ran = true })
	d.Drive()
	if !ran {
		t.Fatalf("closure after a panicking one did not run")
	}
}

func TestEnqueueDuringDriveRunsNextDrive(t *testing.T) {
	d := dispatch.New()
	second := false
	d.Enqueue(func() {
		d.Enqueue(func() { second = true })
	})
	d.Drive()
	if second {
		t.Fatalf("closure enqueued during Drive ran within the same Drive call")
	}
	d.Drive()
	if !second {
		t.Fatalf("closure enqueued during Drive never ran")
	}
}

func TestConcurrentEnqueue(t *testing.T) {
	d := dispatch.New()
	var wg sync.WaitGroup
	const n = 500
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Enqueue(func() {})
		}()
	}
	wg.Wait()
	if d.Len() != n {
		t.Fatalf("len = %d, want %d", d.Len(), n)
	}
}
