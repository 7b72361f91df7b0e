package annotation

import (
	"image"
	"sync"

	"github.com/lewtec/rotulador-editor/internal/frames"
)

// FrameCache keeps the frames delivered by a loader for the drawing side
type FrameCache struct {
	mu          sync.RWMutex
	frames      map[int]image.Image
	unsubscribe func()
}

// NewFrameCache subscribes to loader
func NewFrameCache(loader *frames.Loader) *FrameCache {
	c := &FrameCache{frames: map[int]image.Image{}}
	c.unsubscribe = loader.OnFrameLoaded(c.set)
	return c
}

func (c *FrameCache) set(index int, frame image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames[index] = frame
}

// Get returns the frame at index if it was loaded
func (c *FrameCache) Get(index int) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	frame, ok := c.frames[index]
	return frame, ok
}

func (c *FrameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Retain drops every frame outside [first, last]
func (c *FrameCache) Retain(first, last int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for index := range c.frames {
		if index < first || index > last {
			delete(c.frames, index)
		}
	}
}

// Close stops receiving frames and drops the cached ones
func (c *FrameCache) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.mu.Lock()
	clear(c.frames)
	c.mu.Unlock()
}
