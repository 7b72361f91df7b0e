package action

import (
	"slices"

	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/video"
)

// NewUpdateVideoAnnotationSegments moves or resizes one segment of a video
// annotation to rng. Keyframes and sub-annotation keyframes follow a pure
// translation and are pulled back inside the video afterwards.
func NewUpdateVideoAnnotationSegments(view *domain.View, ann *domain.Annotation, segmentIndex int, rng [2]float64, repo domain.AnnotationRepository) (*Edit, error) {
	if ann.Kind != domain.KindVideo {
		return nil, domain.ErrNotVideoAnnotation
	}
	if !view.IsVideo() {
		return nil, domain.ErrNoVideoLoaded
	}
	up, err := video.UpdateSegments(ann.Video, ann.VideoSubAnnotations, segmentIndex, rng, view.FirstFrameIndex, view.TotalFrames)
	if err != nil {
		return nil, err
	}
	return newEdit("update segments", view, ann, repo, func(after *domain.Annotation) error {
		after.Video = up.Data
		after.VideoSubAnnotations = up.SubAnnotations
		return nil
	})
}

// NewUpdateKeyframe stores data as the keyframe of ann on the current frame.
// A frame outside every segment opens a one frame segment.
func NewUpdateKeyframe(view *domain.View, ann *domain.Annotation, data domain.Data, repo domain.AnnotationRepository) (*Edit, error) {
	if ann.Kind != domain.KindVideo {
		return nil, domain.ErrNotVideoAnnotation
	}
	if !view.IsVideo() {
		return nil, domain.ErrNoVideoLoaded
	}
	index := view.CurrentFrame()
	return newEdit("update keyframe", view, ann, repo, func(after *domain.Annotation) error {
		if after.Video == nil {
			after.Video = &domain.VideoAnnotationData{}
		}
		if after.Video.Frames == nil {
			after.Video.Frames = map[int]domain.Data{}
		}
		after.Video.Frames[index] = data.Clone()
		if _, ok := after.Video.SegmentAt(index); !ok {
			after.Video.Segments = append(after.Video.Segments, domain.Segment{index, index})
			slices.SortFunc(after.Video.Segments, func(a, b domain.Segment) int { return a.Start() - b.Start() })
		}
		return nil
	})
}

// NewRemoveKeyframe drops the keyframe of ann on the current frame
func NewRemoveKeyframe(view *domain.View, ann *domain.Annotation, repo domain.AnnotationRepository) (*Edit, error) {
	if ann.Kind != domain.KindVideo {
		return nil, domain.ErrNotVideoAnnotation
	}
	if !view.IsVideo() {
		return nil, domain.ErrNoVideoLoaded
	}
	index := view.CurrentFrame()
	if !video.IsKeyframe(ann, index) {
		return nil, domain.ErrNotFound
	}
	return newEdit("remove keyframe", view, ann, repo, func(after *domain.Annotation) error {
		delete(after.Video.Frames, index)
		return nil
	})
}

// NewUpdateData replaces the payload of an image annotation
func NewUpdateData(view *domain.View, ann *domain.Annotation, data domain.Data, repo domain.AnnotationRepository) (*Edit, error) {
	if ann.Kind != domain.KindImage {
		return nil, domain.ErrNotImageAnnotation
	}
	return newEdit("update data", view, ann, repo, func(after *domain.Annotation) error {
		after.Data = data.Clone()
		return nil
	})
}
