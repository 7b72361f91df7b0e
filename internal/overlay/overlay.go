// Package overlay keeps the label positions of a view in sync with its
// annotations and playhead.
package overlay

import (
	"slices"
	"sync"

	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/logging"
	"github.com/lewtec/rotulador-editor/internal/renderer"
	"github.com/lewtec/rotulador-editor/internal/video"
)

// Position is where the label of an annotation is drawn
type Position struct {
	AnnotationID string
	ClassID      int64
	ZIndex       int
	X, Y         float64
	Box          domain.BoundingBox
}

// BoundingBoxAt returns the box of ann at the current frame of view.
// Annotations without geometry or without data on that frame report false.
func BoundingBoxAt(reg *renderer.Registry, view *domain.View, ann *domain.Annotation) (domain.BoundingBox, bool) {
	data, ok := video.DataAtFrame(reg, ann, view.CurrentFrame())
	if !ok || data == nil {
		return domain.BoundingBox{}, false
	}
	rd, err := reg.Lookup(data.DataType())
	if err != nil {
		logging.Logger().Debug("overlay: no renderer", "type", data.DataType(), "err", err)
		return domain.BoundingBox{}, false
	}
	return rd.BoundingBox(data)
}

// Manager recomputes label positions when annotations of its view change
type Manager struct {
	view *domain.View
	reg  *renderer.Registry

	mu          sync.RWMutex
	positions   map[string]Position
	unsubscribe func()
}

// NewManager subscribes to view and computes the initial positions
func NewManager(view *domain.View, reg *renderer.Registry) *Manager {
	m := &Manager{view: view, reg: reg, positions: map[string]Position{}}
	m.recomputeAll()
	m.unsubscribe = view.OnChange(m.handle)
	return m
}

func (m *Manager) handle(c domain.Change) {
	switch c.Kind {
	case domain.FrameChanged:
		m.recomputeAll()
	case domain.AnnotationRemoved:
		m.mu.Lock()
		delete(m.positions, c.Annotation.ID)
		m.mu.Unlock()
	default:
		m.recompute(c.Annotation)
	}
}

func (m *Manager) recomputeAll() {
	m.mu.Lock()
	clear(m.positions)
	m.mu.Unlock()
	for _, a := range m.view.Annotations() {
		m.recompute(a)
	}
}

func (m *Manager) recompute(a *domain.Annotation) {
	box, ok := BoundingBoxAt(m.reg, m.view, a)
	m.mu.Lock()
	defer m.mu.Unlock()
	if !ok {
		delete(m.positions, a.ID)
		return
	}
	m.positions[a.ID] = Position{
		AnnotationID: a.ID,
		ClassID:      a.ClassID,
		ZIndex:       a.ZIndex,
		X:            box.X,
		Y:            box.Y,
		Box:          box,
	}
}

// Position returns the label position of one annotation
func (m *Manager) Position(id string) (Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[id]
	return p, ok
}

// Positions returns every visible label in paint order
func (m *Manager) Positions() []Position {
	m.mu.RLock()
	out := make([]Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b Position) int {
		if a.ZIndex != b.ZIndex {
			return a.ZIndex - b.ZIndex
		}
		if a.AnnotationID < b.AnnotationID {
			return -1
		}
		if a.AnnotationID > b.AnnotationID {
			return 1
		}
		return 0
	})
	return out
}

// Close stops listening to the view
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}
