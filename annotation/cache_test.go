package annotation

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/lewtec/rotulador-editor/internal/frames"
)

func TestFrameCache(t *testing.T) {
	ctx := t.Context()
	loader := frames.NewLoader(ctx, 2)
	cache := NewFrameCache(loader)

	sources := map[int]frames.Source{}
	for i := range 4 {
		sources[i] = frames.SourceFunc(func(context.Context) (image.Image, error) {
			return image.NewGray(image.Rect(0, 0, i+1, 1)), nil
		})
	}
	loader.SetFramesToLoad(sources)

	deadline := time.Now().Add(5 * time.Second)
	for cache.Len() < 4 {
		if time.Now().After(deadline) {
			t.Fatalf("Got %d frames, want 4", cache.Len())
		}
		time.Sleep(time.Millisecond)
	}

	frame, ok := cache.Get(2)
	if !ok || frame.Bounds().Dx() != 3 {
		t.Errorf("Get(2) = %v, %v, want a 3 pixel wide frame", frame, ok)
	}

	cache.Retain(1, 2)
	if cache.Len() != 2 {
		t.Errorf("Got %d frames after Retain, want 2", cache.Len())
	}
	if _, ok := cache.Get(0); ok {
		t.Errorf("Frame 0 survived Retain")
	}

	cache.Close()
	if cache.Len() != 0 {
		t.Errorf("Got %d frames after Close, want 0", cache.Len())
	}
}
