package domain

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChangeKind tells listeners what happened to an annotation of a view
type ChangeKind int

const (
	AnnotationAdded ChangeKind = iota
	AnnotationUpdated
	AnnotationRemoved
	FrameChanged
)

// Change is the notification sent to view listeners
type Change struct {
	Kind       ChangeKind
	Annotation *Annotation
}

// View is one rendering surface: an image or a video item with the
// annotations drawn on it
type View struct {
	ID              string
	Width           int
	Height          int
	TotalFrames     int
	FirstFrameIndex int
	CreatedAt       time.Time

	currentFrame int
	annotations  []*Annotation
	raster       *Raster

	mu        sync.Mutex
	listeners map[int]func(Change)
	nextID    int
}

// NewView creates an image view. Use NewVideoView for videos.
func NewView(width, height int) *View {
	return &View{ID: uuid.NewString(), Width: width, Height: height, CreatedAt: time.Now()}
}

// NewVideoView creates a view over a video of totalFrames frames
func NewVideoView(width, height, totalFrames int) *View {
	v := NewView(width, height)
	v.TotalFrames = totalFrames
	return v
}

// IsVideo reports whether a video is loaded in the view
func (v *View) IsVideo() bool {
	return v.TotalFrames > 0
}

// LastFrameIndex is the index of the last frame of the video
func (v *View) LastFrameIndex() int {
	return v.TotalFrames - 1
}

// CurrentFrame is the frame index currently displayed
func (v *View) CurrentFrame() int {
	return v.currentFrame
}

// SetCurrentFrame moves the playhead and notifies listeners
func (v *View) SetCurrentFrame(index int) {
	v.currentFrame = index
	v.notify(Change{Kind: FrameChanged})
}

// Raster returns the view raster, creating it on first use
func (v *View) Raster() *Raster {
	if v.raster == nil {
		v.raster = NewRaster(v.Width, v.Height)
	}
	return v.raster
}

// HasRaster reports whether the raster was already created
func (v *View) HasRaster() bool {
	return v.raster != nil
}

// SetRaster installs a raster loaded from storage
func (v *View) SetRaster(r *Raster) {
	v.raster = r
}

// Annotations returns the annotations of the view in paint order
func (v *View) Annotations() []*Annotation {
	out := slices.Clone(v.annotations)
	slices.SortStableFunc(out, func(a, b *Annotation) int { return a.ZIndex - b.ZIndex })
	return out
}

// Annotation finds an annotation by id
func (v *View) Annotation(id string) *Annotation {
	for _, a := range v.annotations {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// MaskForClass returns the mask annotation of a class, if any
func (v *View) MaskForClass(classID int64) *Annotation {
	for _, a := range v.annotations {
		if a.Type == TypeMask && a.ClassID == classID {
			return a
		}
	}
	return nil
}

// Add appends an annotation on top of the others
func (v *View) Add(a *Annotation) {
	if a.ZIndex == 0 {
		for _, other := range v.annotations {
			a.ZIndex = max(a.ZIndex, other.ZIndex+1)
		}
	}
	v.annotations = append(v.annotations, a)
	v.notify(Change{Kind: AnnotationAdded, Annotation: a})
}

// Insert puts back an annotation keeping its z index, used when undoing a removal
func (v *View) Insert(a *Annotation) {
	v.annotations = append(v.annotations, a)
	v.notify(Change{Kind: AnnotationAdded, Annotation: a})
}

// Remove drops an annotation and its sub-annotations from the view
func (v *View) Remove(id string) *Annotation {
	for i, a := range v.annotations {
		if a.ID == id {
			v.annotations = slices.Delete(v.annotations, i, i+1)
			v.notify(Change{Kind: AnnotationRemoved, Annotation: a})
			return a
		}
	}
	return nil
}

// NotifyUpdated tells listeners that a was mutated in place
func (v *View) NotifyUpdated(a *Annotation) {
	v.notify(Change{Kind: AnnotationUpdated, Annotation: a})
}

// OnChange subscribes fn to annotation mutations. The returned func unsubscribes.
func (v *View) OnChange(fn func(Change)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.listeners == nil {
		v.listeners = map[int]func(Change){}
	}
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

func (v *View) notify(c Change) {
	v.mu.Lock()
	fns := make([]func(Change), 0, len(v.listeners))
	for id := 0; id < v.nextID; id++ {
		if fn, ok := v.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	v.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// ViewRepository defines the interface for view storage operations
type ViewRepository interface {
	// Create stores a new view
	Create(ctx context.Context, view *View) error

	// Get retrieves a view by ID, nil when it does not exist
	Get(ctx context.Context, id string) (*View, error)

	// List retrieves all views
	List(ctx context.Context) ([]*View, error)

	// Delete removes a view and its annotations
	Delete(ctx context.Context, id string) error

	// SaveRaster stores the label buffer of a view
	SaveRaster(ctx context.Context, viewID string, r *Raster) error

	// LoadRaster retrieves the label buffer of a view, nil when none was saved
	LoadRaster(ctx context.Context, viewID string) (*Raster, error)
}
