package engine

import (
	"sync"
	"testing"
	"time"
)

type sendRecorder struct {
	mu    sync.Mutex
	sends [][2]float64
}

func (r *sendRecorder) send(x, y float64) {
	r.mu.Lock()
	r.sends = append(r.sends, [2]float64{x, y})
	r.mu.Unlock()
}

func (r *sendRecorder) snapshot() [][2]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]float64(nil), r.sends...)
}

func TestCoalescerBoundsRateAndKeepsLast(t *testing.T) {
	const interval = 40 * time.Millisecond
	rec := &sendRecorder{}
	c := newCoalescer(interval, rec.send)

	// A burst far faster than the interval.
	const moves = 20
	for i := 0; i < moves; i++ {
		c.offer(float64(i), float64(i)/2)
		time.Sleep(2 * time.Millisecond)
	}

	// Wait out the trailing flush.
	time.Sleep(2 * interval)

	sends := rec.snapshot()
	if len(sends) == 0 {
		t.Fatal("expected at least one send")
	}

	// Rate bound: the burst lasted ~40ms, so at most a handful of sends may
	// occur; certainly far fewer than the number of moves.
	if len(sends) >= moves/2 {
		t.Fatalf("expected coalescing, got %d sends for %d moves", len(sends), moves)
	}

	last := sends[len(sends)-1]
	if last[0] != float64(moves-1) || last[1] != float64(moves-1)/2 {
		t.Fatalf("expected final position (%v, %v), got (%v, %v)",
			float64(moves-1), float64(moves-1)/2, last[0], last[1])
	}
}

func TestCoalescerSendsImmediatelyWhenIdle(t *testing.T) {
	rec := &sendRecorder{}
	c := newCoalescer(40*time.Millisecond, rec.send)

	c.offer(10, 20)
	sends := rec.snapshot()
	if len(sends) != 1 {
		t.Fatalf("expected immediate send, got %d", len(sends))
	}
	if sends[0] != [2]float64{10, 20} {
		t.Fatalf("unexpected coordinates %v", sends[0])
	}
}

func TestCoalescerResetDropsPending(t *testing.T) {
	rec := &sendRecorder{}
	c := newCoalescer(40*time.Millisecond, rec.send)

	c.offer(10, 10) // immediate
	c.offer(20, 20) // parked for the trailing flush
	c.reset()

	time.Sleep(100 * time.Millisecond)
	sends := rec.snapshot()
	if len(sends) != 1 {
		t.Fatalf("expected parked position to be dropped after reset, got %d sends", len(sends))
	}
}
