// Package renderer maps annotation types to the code that knows their shape.
//
// The engine never switches on annotation types by hand: raster, segment and
// overlay code ask the registry for the renderer of a type and use it to get
// paths, bounding boxes, interpolated keyframes and decoded payloads.
package renderer

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lewtec/rotulador-editor/internal/domain"
)

// InterpolationParams locates the requested frame between two keyframes.
// Ratio is 0 at the previous keyframe and 1 at the next one.
type InterpolationParams struct {
	PrevIndex int
	NextIndex int
	Index     int
	Ratio     float64
}

// NewInterpolationParams computes the ratio of index between prev and next
func NewInterpolationParams(prev, next, index int) InterpolationParams {
	p := InterpolationParams{PrevIndex: prev, NextIndex: next, Index: index}
	if next > prev {
		p.Ratio = float64(index-prev) / float64(next-prev)
	}
	return p
}

// Renderer knows the geometry of one annotation type
type Renderer interface {
	Type() string
	// BoundingBox returns the box of the payload, false when it has no extent
	BoundingBox(d domain.Data) (domain.BoundingBox, bool)
	// Path returns the vertices used for hit testing and drawing
	Path(d domain.Data) []domain.Point
	// Interpolate computes the payload between two keyframes
	Interpolate(prev, next domain.Data, params InterpolationParams) domain.Data
	// Decode parses a stored payload
	Decode(raw []byte) (domain.Data, error)
}

// Registry maps annotation types to renderers
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{renderers: map[string]Renderer{}}
}

// Default creates a registry with every built-in annotation type
func Default() *Registry {
	r := NewRegistry()
	r.Register(Polygon{})
	r.Register(BoundingBox{})
	r.Register(Mask{})
	r.Register(Text{})
	r.Register(InstanceID{})
	return r
}

// Register adds or replaces the renderer of a type
func (r *Registry) Register(rd Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[rd.Type()] = rd
}

// Lookup returns the renderer of an annotation type
func (r *Registry) Lookup(annotationType string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rd, ok := r.renderers[annotationType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAnnotationType, annotationType)
	}
	return rd, nil
}

// Decode parses a payload stored under annotationType
func (r *Registry) Decode(annotationType string, raw []byte) (domain.Data, error) {
	rd, err := r.Lookup(annotationType)
	if err != nil {
		return nil, err
	}
	return rd.Decode(raw)
}

func decodeInto[T any, P interface {
	*T
	domain.Data
}](raw []byte) (domain.Data, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return P(&v), nil
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
