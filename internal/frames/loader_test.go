package frames

import (
	"context"
	"errors"
	"image"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func frameOf(index int) image.Image {
	return image.NewGray(image.Rect(0, 0, index+1, 1))
}

// recorder builds sources that remember the order and number of calls
type recorder struct {
	mu       sync.Mutex
	order    []int
	calls    map[int]int
	inflight atomic.Int32
	maxSeen  atomic.Int32
	gates    map[int]chan struct{}
	failing  map[int]bool
	delay    time.Duration
}

func newRecorder() *recorder {
	return &recorder{calls: map[int]int{}, gates: map[int]chan struct{}{}, failing: map[int]bool{}}
}

func (r *recorder) gate(index int) chan struct{} {
	ch := make(chan struct{})
	r.gates[index] = ch
	return ch
}

func (r *recorder) source(index int) Source {
	gate := r.gates[index]
	fail := r.failing[index]
	return SourceFunc(func(ctx context.Context) (image.Image, error) {
		n := r.inflight.Add(1)
		defer r.inflight.Add(-1)
		for {
			m := r.maxSeen.Load()
			if n <= m || r.maxSeen.CompareAndSwap(m, n) {
				break
			}
		}
		r.mu.Lock()
		r.order = append(r.order, index)
		r.calls[index]++
		r.mu.Unlock()
		if gate != nil {
			<-gate
		}
		if r.delay > 0 {
			time.Sleep(r.delay)
		}
		if fail {
			return nil, errors.New("decode failed")
		}
		return frameOf(index), nil
	})
}

func (r *recorder) sources(indices ...int) map[int]Source {
	out := map[int]Source{}
	for _, i := range indices {
		out[i] = r.source(i)
	}
	return out
}

func (r *recorder) snapshot() ([]int, map[int]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := map[int]int{}
	for k, v := range r.calls {
		calls[k] = v
	}
	return slices.Clone(r.order), calls
}

func TestLoader_ConcurrencyBound(t *testing.T) {
	rec := newRecorder()
	rec.delay = 5 * time.Millisecond
	rec.failing[3] = true

	l := NewLoader(context.Background(), 2)
	var loaded atomic.Int32
	l.OnFrameLoaded(func(int, image.Image) { loaded.Add(1) })
	l.SetFramesToLoad(rec.sources(0, 1, 2, 3, 4, 5, 6, 7))

	waitFor(t, func() bool {
		_, calls := rec.snapshot()
		return len(calls) == 8 && l.Loading() == 0 && l.Pending() == 0
	})

	if got := rec.maxSeen.Load(); got > 2 {
		t.Errorf("max concurrent loads = %d, want <= 2", got)
	}
	_, calls := rec.snapshot()
	for i := 0; i < 8; i++ {
		if calls[i] != 1 {
			t.Errorf("frame %d loaded %d times, want 1", i, calls[i])
		}
	}
	waitFor(t, func() bool { return loaded.Load() == 7 })
}

func TestLoader_DefaultConcurrency(t *testing.T) {
	l := NewLoader(context.Background(), 0)
	if l.Concurrency() != DefaultConcurrency {
		t.Errorf("Concurrency() = %d, want %d", l.Concurrency(), DefaultConcurrency)
	}
}

func TestLoader_SetNextFrameToLoad(t *testing.T) {
	t.Run("deduplicates requests in flight", func(t *testing.T) {
		rec := newRecorder()
		gate := rec.gate(4)
		l := NewLoader(context.Background(), 1)
		l.SetFramesToLoad(rec.sources(4))

		first := l.SetNextFrameToLoad(4)
		second := l.SetNextFrameToLoad(4)
		if first != second {
			t.Fatal("expected the same pending load")
		}
		close(gate)

		frame, err := first.Wait(context.Background())
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if frame == nil || frame.Bounds().Dx() != 5 {
			t.Errorf("frame = %v, want frame 4", frame)
		}
		_, calls := rec.snapshot()
		if calls[4] != 1 {
			t.Errorf("source called %d times, want 1", calls[4])
		}
	})

	t.Run("pre-empts the sweep", func(t *testing.T) {
		rec := newRecorder()
		gate := rec.gate(0)
		l := NewLoader(context.Background(), 1)
		l.SetFramesToLoad(rec.sources(0, 1, 2, 3, 4))

		waitFor(t, func() bool { order, _ := rec.snapshot(); return len(order) == 1 })
		frame, err := l.SetNextFrameToLoad(3).Wait(context.Background())
		if err != nil || frame == nil {
			t.Fatalf("Wait() = %v, %v", frame, err)
		}
		close(gate)

		waitFor(t, func() bool { order, _ := rec.snapshot(); return len(order) == 5 })
		order, _ := rec.snapshot()
		if want := []int{0, 3, 4, 1, 2}; !slices.Equal(order, want) {
			t.Errorf("load order = %v, want %v", order, want)
		}
	})

	t.Run("unknown frames resolve to nil", func(t *testing.T) {
		l := NewLoader(context.Background(), 1)
		frame, err := l.SetNextFrameToLoad(42).Wait(context.Background())
		if frame != nil || err != nil {
			t.Errorf("Wait() = %v, %v, want nil, nil", frame, err)
		}
	})

	t.Run("failed frames resolve to nil", func(t *testing.T) {
		rec := newRecorder()
		rec.failing[1] = true
		l := NewLoader(context.Background(), 1)
		l.AddFramesToLoad(rec.sources(1))

		p := l.SetNextFrameToLoad(1)
		frame, err := p.Wait(context.Background())
		if frame != nil || err != nil {
			t.Errorf("Wait() = %v, %v, want nil, nil", frame, err)
		}
		if p.Err() == nil {
			t.Error("Err() should report the decode failure")
		}
	})
}

func TestLoader_OnFrameLoaded(t *testing.T) {
	rec := newRecorder()
	l := NewLoader(context.Background(), 2)

	var mu sync.Mutex
	got := map[int]int{}
	unsubscribe := l.OnFrameLoaded(func(index int, frame image.Image) {
		mu.Lock()
		defer mu.Unlock()
		got[index] = frame.Bounds().Dx()
	})
	l.SetFramesToLoad(rec.sources(0, 1, 2))
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return len(got) == 3 })
	for i := 0; i < 3; i++ {
		if got[i] != i+1 {
			t.Errorf("frame %d width = %d, want %d", i, got[i], i+1)
		}
	}

	unsubscribe()
	p := l.SetNextFrameToLoad(2)
	if _, err := p.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Error("unsubscribed listener was called")
	}
}

func TestLoader_Cleanup(t *testing.T) {
	rec := newRecorder()
	gate := rec.gate(0)
	l := NewLoader(context.Background(), 1)

	var called atomic.Bool
	l.OnFrameLoaded(func(int, image.Image) { called.Store(true) })
	l.SetFramesToLoad(rec.sources(0, 1, 2))
	waitFor(t, func() bool { order, _ := rec.snapshot(); return len(order) == 1 })

	l.Cleanup()
	if l.Pending() != 0 || l.Loading() != 0 {
		t.Errorf("Pending() = %d, Loading() = %d, want 0, 0", l.Pending(), l.Loading())
	}
	close(gate)

	time.Sleep(20 * time.Millisecond)
	if called.Load() {
		t.Error("listener called after cleanup")
	}
	if order, _ := rec.snapshot(); len(order) != 1 {
		t.Errorf("frames loaded after cleanup: %v", order)
	}
}
