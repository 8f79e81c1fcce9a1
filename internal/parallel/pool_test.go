package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func isClosed(p *Pool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

func TestPoolCreate(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	if p.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", p.Workers())
	}
	if isClosed(p) {
		t.Error("pool should be running after creation")
	}
}

func TestPoolDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		p := NewPool(n)
		if p.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewPool(%d).Workers() = %d, want GOMAXPROCS", n, p.Workers())
		}
		p.Close()
	}
}

func TestPoolRunAll(t *testing.T) {
	p := NewPool(4)
	defer p.Close()

	var counter atomic.Int64
	work := make([]func(), 257)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	p.Run(work)

	if got := counter.Load(); got != int64(len(work)) {
		t.Errorf("ran %d items, want %d", got, len(work))
	}
}

func TestPoolRunDisjointWrites(t *testing.T) {
	p := NewPool(3)
	defer p.Close()

	out := make([]int, 1000)
	bands := Bands(len(out), 7)
	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() {
			for y := b.Y0; y < b.Y1; y++ {
				out[y] = y * 2
			}
		}
	}
	p.Run(work)

	for i, v := range out {
		if v != i*2 {
			t.Fatalf("out[%d] = %d, want %d", i, v, i*2)
		}
	}
}

func TestPoolRunAfterClose(t *testing.T) {
	p := NewPool(2)
	p.Close()
	p.Close() // idempotent

	if !isClosed(p) {
		t.Error("pool should be closed after Close")
	}

	var counter atomic.Int64
	p.Run([]func(){
		func() { counter.Add(1) },
		func() { counter.Add(1) },
	})
	if counter.Load() != 2 {
		t.Errorf("closed pool ran %d items, want 2 inline", counter.Load())
	}
}

func TestPoolCloseDuringRun(t *testing.T) {
	for iter := 0; iter < 200; iter++ {
		p := NewPool(4)
		var counter atomic.Int64
		work := make([]func(), 64)
		for i := range work {
			work[i] = func() { counter.Add(1) }
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 4; j++ {
				p.Run(work)
			}
		}()
		go func() {
			defer wg.Done()
			p.Close()
		}()

		finished := make(chan struct{})
		go func() {
			wg.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(10 * time.Second):
			t.Fatalf("iteration %d: Run did not return after a concurrent Close", iter)
		}
		if got := counter.Load(); got != int64(4*len(work)) {
			t.Fatalf("iteration %d: ran %d items, want %d", iter, got, 4*len(work))
		}
	}
}

func TestPoolRunEmpty(t *testing.T) {
	p := NewPool(2)
	defer p.Close()
	p.Run(nil)
}

func BenchmarkPoolRun(b *testing.B) {
	p := NewPool(0)
	defer p.Close()

	work := make([]func(), 64)
	for i := range work {
		work[i] = func() {
			s := 0
			for j := 0; j < 1000; j++ {
				s += j
			}
			_ = s
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Run(work)
	}
}
