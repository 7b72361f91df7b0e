// Package frames streams the image data of video frames under a bounded
// number of concurrent loads.
package frames

import (
	"context"
	"image"
	"maps"
	"slices"
	"sync"

	"github.com/lewtec/rotulador-editor/internal/logging"
)

// DefaultConcurrency is used when no hardware concurrency setting is given
const DefaultConcurrency = 2

// Source fetches and decodes the image of one frame
type Source interface {
	LoadFrame(ctx context.Context) (image.Image, error)
}

// SourceFunc adapts a function to Source
type SourceFunc func(ctx context.Context) (image.Image, error)

func (f SourceFunc) LoadFrame(ctx context.Context) (image.Image, error) {
	return f(ctx)
}

// Pending is the result of a frame load in flight
type Pending struct {
	done  chan struct{}
	frame image.Image
	err   error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(frame image.Image, err error) {
	p.frame, p.err = frame, err
	close(p.done)
}

// Done is closed once the load finished
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the load finished. A frame that failed to load resolves
// to nil; the returned error only reports ctx.
func (p *Pending) Wait(ctx context.Context) (image.Image, error) {
	select {
	case <-p.done:
		return p.frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Err is the load failure, if any. Only meaningful after Done.
func (p *Pending) Err() error {
	<-p.done
	return p.err
}

type descriptor struct {
	source Source
}

// Loader schedules frame loads. At most Concurrency frames load at once
// through the forward sweep; explicit requests through SetNextFrameToLoad
// start immediately and move the sweep to the requested frame.
type Loader struct {
	ctx         context.Context
	concurrency int

	mu          sync.Mutex
	descriptors map[int]*descriptor
	pending     map[int]struct{}
	loading     map[int]*Pending
	current     int
	hasCurrent  bool
	next        int
	hasNext     bool

	listeners   map[int]func(int, image.Image)
	listenerSeq int
}

// NewLoader creates a loader passing ctx to every frame source.
// concurrency below 1 means DefaultConcurrency.
func NewLoader(ctx context.Context, concurrency int) *Loader {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Loader{
		ctx:         ctx,
		concurrency: concurrency,
		descriptors: map[int]*descriptor{},
		pending:     map[int]struct{}{},
		loading:     map[int]*Pending{},
		listeners:   map[int]func(int, image.Image){},
	}
}

// Concurrency is the maximum number of frames loaded by the sweep at once
func (l *Loader) Concurrency() int {
	return l.concurrency
}

// SetFramesToLoad replaces the pending work with frames and starts loading
// from the lowest index
func (l *Loader) SetFramesToLoad(frames map[int]Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.descriptors = make(map[int]*descriptor, len(frames))
	l.pending = make(map[int]struct{}, len(frames))
	l.hasCurrent, l.hasNext = false, false
	l.addLocked(frames)
	logging.Logger().Debug("frameloader: frames to load", "frames", len(frames))
	l.loadFramesLocked()
}

// AddFramesToLoad adds frames to the pending work
func (l *Loader) AddFramesToLoad(frames map[int]Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.addLocked(frames)
	l.loadFramesLocked()
}

func (l *Loader) addLocked(frames map[int]Source) {
	if len(frames) == 0 {
		return
	}
	for index, src := range frames {
		l.descriptors[index] = &descriptor{source: src}
		l.pending[index] = struct{}{}
	}
	if !l.hasCurrent {
		l.current, l.hasCurrent = slices.Min(slices.Collect(maps.Keys(frames))), true
	}
}

// SetNextFrameToLoad loads index right away, outside of the sweep and of the
// concurrency limit, and returns its pending result. A frame already loading
// returns the load in flight. Unknown frames resolve to nil.
func (l *Loader) SetNextFrameToLoad(index int) *Pending {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next, l.hasNext = index, true
	if p, ok := l.loading[index]; ok {
		return p
	}
	if _, ok := l.descriptors[index]; !ok {
		p := newPending()
		p.resolve(nil, nil)
		return p
	}
	return l.startLocked(index)
}

// OnFrameLoaded subscribes fn to successful loads. The returned func unsubscribes.
func (l *Loader) OnFrameLoaded(fn func(index int, frame image.Image)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.listenerSeq
	l.listenerSeq++
	l.listeners[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.listeners, id)
	}
}

// Cleanup drops every pending frame, every load in flight and every
// subscriber. Loads in flight still run to completion but their results are
// ignored.
func (l *Loader) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.descriptors = map[int]*descriptor{}
	l.pending = map[int]struct{}{}
	l.loading = map[int]*Pending{}
	l.listeners = map[int]func(int, image.Image){}
	l.hasCurrent, l.hasNext = false, false
}

// Pending counts the frames waiting to be loaded
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Loading counts the frames in flight
func (l *Loader) Loading() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.loading)
}

func (l *Loader) loadFramesLocked() {
	for len(l.pending) > 0 && len(l.loading) < l.concurrency {
		if l.hasNext {
			l.current, l.hasCurrent = l.next, true
			l.hasNext = false
		}
		index, ok := l.pickLocked()
		if !ok {
			return
		}
		l.startLocked(index)
		l.current, l.hasCurrent = l.getNextClosestOrNull(index)
	}
}

// pickLocked returns the cursor when it can be loaded, else the closest
// greater pending frame. When the sweep ran past the end it restarts from the
// lowest pending frame.
func (l *Loader) pickLocked() (int, bool) {
	if l.hasCurrent {
		if l.readyLocked(l.current) {
			return l.current, true
		}
		if index, ok := l.getNextClosestOrNull(l.current); ok {
			return index, true
		}
	}
	// wrap so frames skipped by a jump still load, see the 0,3,4,1,2 order in TestLoader_SetNextFrameToLoad
	found := false
	lowest := 0
	for index := range l.pending {
		if l.readyLocked(index) && (!found || index < lowest) {
			lowest, found = index, true
		}
	}
	return lowest, found
}

// getNextClosestOrNull finds the smallest pending frame greater than index.
// It does not wrap around.
func (l *Loader) getNextClosestOrNull(index int) (int, bool) {
	found := false
	closest := 0
	for candidate := range l.pending {
		if candidate > index && l.readyLocked(candidate) && (!found || candidate < closest) {
			closest, found = candidate, true
		}
	}
	return closest, found
}

func (l *Loader) readyLocked(index int) bool {
	if _, ok := l.pending[index]; !ok {
		return false
	}
	_, loading := l.loading[index]
	return !loading
}

func (l *Loader) startLocked(index int) *Pending {
	d := l.descriptors[index]
	delete(l.pending, index)
	p := newPending()
	l.loading[index] = p
	go l.run(index, d, p)
	return p
}

func (l *Loader) run(index int, d *descriptor, p *Pending) {
	frame, err := d.source.LoadFrame(l.ctx)
	if err != nil {
		logging.Logger().Warn("frameloader: frame failed to load", "index", index, "err", err)
		frame = nil
	}

	l.mu.Lock()
	if l.loading[index] == p {
		delete(l.loading, index)
	}
	current := l.descriptors[index] == d
	var listeners []func(int, image.Image)
	if current && frame != nil {
		for _, id := range slices.Sorted(maps.Keys(l.listeners)) {
			listeners = append(listeners, l.listeners[id])
		}
	}
	l.loadFramesLocked()
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(index, frame)
	}
	p.resolve(frame, err)
}
