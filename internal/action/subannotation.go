package action

import (
	"slices"

	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/video"
)

// NewAddSubAnnotation appends sub to the children of parent.
//
// Video parents receive the child on the current frame. When that frame is
// not yet a sub-annotation keyframe it is seeded with the children inferred
// from the closest preceding keyframe.
func NewAddSubAnnotation(view *domain.View, parent *domain.Annotation, sub *domain.Annotation, repo domain.AnnotationRepository) (*Edit, error) {
	return editSubAnnotations("add sub-annotation", view, parent, repo, func(list []*domain.Annotation) []*domain.Annotation {
		return append(list, sub.Clone())
	})
}

// NewUpdateSubAnnotation replaces every child of the same type as sub with sub
func NewUpdateSubAnnotation(view *domain.View, parent *domain.Annotation, sub *domain.Annotation, repo domain.AnnotationRepository) (*Edit, error) {
	return editSubAnnotations("update sub-annotation", view, parent, repo, replaceByType(sub))
}

// NewRemoveSubAnnotation drops every child of type subType. On video parents
// the removal takes effect from the current frame on.
func NewRemoveSubAnnotation(view *domain.View, parent *domain.Annotation, subType string, repo domain.AnnotationRepository) (*Edit, error) {
	return editSubAnnotations("remove sub-annotation", view, parent, repo, func(list []*domain.Annotation) []*domain.Annotation {
		return slices.DeleteFunc(list, func(a *domain.Annotation) bool { return a.Type == subType })
	})
}

// NewUpdateSubAnnotationKeyframe writes sub on the current frame of a video
// parent, replacing children of the same type there
func NewUpdateSubAnnotationKeyframe(view *domain.View, parent *domain.Annotation, sub *domain.Annotation, repo domain.AnnotationRepository) (*Edit, error) {
	if !parent.IsVideoSubAnnotations() {
		return nil, domain.ErrNotVideoAnnotation
	}
	return editSubAnnotations("update sub-annotation keyframe", view, parent, repo, replaceByType(sub))
}

func replaceByType(sub *domain.Annotation) func([]*domain.Annotation) []*domain.Annotation {
	return func(list []*domain.Annotation) []*domain.Annotation {
		list = slices.DeleteFunc(list, func(a *domain.Annotation) bool { return a.Type == sub.Type })
		return append(list, sub.Clone())
	}
}

func editSubAnnotations(name string, view *domain.View, parent *domain.Annotation, repo domain.AnnotationRepository, change func([]*domain.Annotation) []*domain.Annotation) (*Edit, error) {
	if !parent.IsVideoSubAnnotations() {
		return newEdit(name, view, parent, repo, func(after *domain.Annotation) error {
			after.SubAnnotations = change(after.SubAnnotations)
			return nil
		})
	}
	if !view.IsVideo() {
		return nil, domain.ErrNoVideoLoaded
	}
	index := view.CurrentFrame()
	return newEdit(name, view, parent, repo, func(after *domain.Annotation) error {
		if after.VideoSubAnnotations == nil {
			after.VideoSubAnnotations = domain.NewVideoSubAnnotations()
		}
		list := video.InferVideoSubAnnotations(after.VideoSubAnnotations, index)
		after.VideoSubAnnotations.Frames[index] = change(list)
		return nil
	})
}
