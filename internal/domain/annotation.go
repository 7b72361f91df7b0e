package domain

import (
	"context"

	"github.com/google/uuid"
)

// Kind tells whether an annotation lives on an image or on a video.
// It is decided once, when the annotation is built.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "image"
}

// Annotation is a single labeled shape, region or value attached to a view
type Annotation struct {
	ID      string
	Type    string
	ClassID int64
	ZIndex  int
	Kind    Kind

	// Data is the payload of an image annotation. Nil for video annotations.
	Data Data
	// Video is the temporal payload of a video annotation. Nil for image annotations.
	Video *VideoAnnotationData

	// SubAnnotations holds the children of an image annotation.
	SubAnnotations []*Annotation
	// VideoSubAnnotations holds the children of a video annotation, keyed by frame.
	VideoSubAnnotations *VideoSubAnnotations
}

// NewImageAnnotation creates an image annotation with a fresh id
func NewImageAnnotation(classID int64, data Data) *Annotation {
	return &Annotation{
		ID:      uuid.NewString(),
		Type:    data.DataType(),
		ClassID: classID,
		Kind:    KindImage,
		Data:    data,
	}
}

// NewVideoAnnotation creates a video annotation with a fresh id.
// annotationType names the payload type stored in each keyframe.
func NewVideoAnnotation(classID int64, annotationType string, video *VideoAnnotationData) *Annotation {
	if video == nil {
		video = &VideoAnnotationData{}
	}
	if video.Frames == nil {
		video.Frames = map[int]Data{}
	}
	return &Annotation{
		ID:                  uuid.NewString(),
		Type:                annotationType,
		ClassID:             classID,
		Kind:                KindVideo,
		Video:               video,
		VideoSubAnnotations: NewVideoSubAnnotations(),
	}
}

// IsVideoSubAnnotations reports whether the children of a are keyed by frame
func (a *Annotation) IsVideoSubAnnotations() bool {
	return a.Kind == KindVideo
}

// Clone returns a deep copy of the annotation, sub-annotations included
func (a *Annotation) Clone() *Annotation {
	if a == nil {
		return nil
	}
	c := *a
	if a.Data != nil {
		c.Data = a.Data.Clone()
	}
	c.Video = a.Video.Clone()
	c.SubAnnotations = CloneAnnotations(a.SubAnnotations)
	c.VideoSubAnnotations = a.VideoSubAnnotations.Clone()
	return &c
}

// CloneAnnotations deep copies a flat list of annotations
func CloneAnnotations(list []*Annotation) []*Annotation {
	if list == nil {
		return nil
	}
	out := make([]*Annotation, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}
	return out
}

// AnnotationRepository is the persistence collaborator every action calls
// after a local mutation
type AnnotationRepository interface {
	// Create stores a new annotation for a view
	Create(ctx context.Context, viewID string, ann *Annotation) error

	// Update persists the current state of an annotation
	Update(ctx context.Context, viewID string, ann *Annotation) error

	// Delete removes an annotation by ID
	Delete(ctx context.Context, id string) error

	// Get retrieves an annotation by ID, nil when it does not exist
	Get(ctx context.Context, id string) (*Annotation, error)

	// ListForView retrieves every annotation of a view ordered by z index
	ListForView(ctx context.Context, viewID string) ([]*Annotation, error)
}
