// Package video holds the temporal model of video annotations: keyframes,
// segments, interpolation and sub-annotation inference.
package video

import (
	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/renderer"
)

// DataAtFrame resolves the payload of an annotation at a frame index.
//
// Keyframes are returned as stored. Inside a segment, an interpolated
// annotation blends the two bracketing keyframes through the renderer of its
// type; otherwise the closest preceding keyframe is held. Frames outside every
// segment have no data. Image annotations always return their payload.
func DataAtFrame(reg *renderer.Registry, ann *domain.Annotation, index int) (domain.Data, bool) {
	if ann.Kind != domain.KindVideo {
		return ann.Data, ann.Data != nil
	}
	v := ann.Video
	if v == nil {
		return nil, false
	}
	if d, ok := v.Frames[index]; ok {
		return d, true
	}
	seg, ok := v.SegmentAt(index)
	if !ok {
		return nil, false
	}

	prev, next := -1, -1
	for _, k := range v.KeyframeIndices() {
		if k < index {
			prev = k
			continue
		}
		if k <= seg.End() {
			next = k
		}
		break
	}
	if prev < 0 {
		return nil, false
	}
	if v.Interpolated && next >= 0 && prev >= seg.Start() {
		rd, err := reg.Lookup(ann.Type)
		if err == nil {
			params := renderer.NewInterpolationParams(prev, next, index)
			return rd.Interpolate(v.Frames[prev], v.Frames[next], params), true
		}
	}
	return v.Frames[prev], true
}

// IsKeyframe reports whether index holds an explicit keyframe
func IsKeyframe(ann *domain.Annotation, index int) bool {
	if ann.Video == nil {
		return false
	}
	_, ok := ann.Video.Frames[index]
	return ok
}

// InferVideoSubAnnotations returns copies of the sub-annotations in effect at
// index: the keyframe at index if present, else the closest preceding one
func InferVideoSubAnnotations(subs *domain.VideoSubAnnotations, index int) []*domain.Annotation {
	if subs == nil {
		return nil
	}
	if list, ok := subs.Frames[index]; ok {
		return domain.CloneAnnotations(list)
	}
	found := -1
	for _, k := range subs.KeyframeIndices() {
		if k > index {
			break
		}
		found = k
	}
	if found < 0 {
		return nil
	}
	return domain.CloneAnnotations(subs.Frames[found])
}
