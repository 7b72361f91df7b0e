package domain

import (
	"maps"
	"slices"
)

// Segment is an inclusive [start, end] frame range over which a video
// annotation is active
type Segment [2]int

// Start is the first frame of the segment
func (s Segment) Start() int { return s[0] }

// End is the last frame of the segment
func (s Segment) End() int { return s[1] }

// Len is end minus start
func (s Segment) Len() int { return s[1] - s[0] }

// Contains reports whether index falls inside the segment
func (s Segment) Contains(index int) bool {
	return index >= s[0] && index <= s[1]
}

// VideoAnnotationData is the temporal payload of a video annotation.
// Only keyframes are stored in Frames.
type VideoAnnotationData struct {
	Frames       map[int]Data
	Segments     []Segment
	Interpolated bool
}

// Clone deep copies the keyframes and segments
func (v *VideoAnnotationData) Clone() *VideoAnnotationData {
	if v == nil {
		return nil
	}
	frames := make(map[int]Data, len(v.Frames))
	for k, d := range v.Frames {
		if d != nil {
			d = d.Clone()
		}
		frames[k] = d
	}
	return &VideoAnnotationData{
		Frames:       frames,
		Segments:     slices.Clone(v.Segments),
		Interpolated: v.Interpolated,
	}
}

// KeyframeIndices returns the keyframe indices in ascending order
func (v *VideoAnnotationData) KeyframeIndices() []int {
	return slices.Sorted(maps.Keys(v.Frames))
}

// SegmentAt returns the segment containing index
func (v *VideoAnnotationData) SegmentAt(index int) (Segment, bool) {
	for _, s := range v.Segments {
		if s.Contains(index) {
			return s, true
		}
	}
	return Segment{}, false
}

// VideoSubAnnotations holds sub-annotation keyframes of a video annotation
type VideoSubAnnotations struct {
	Frames map[int][]*Annotation
}

func NewVideoSubAnnotations() *VideoSubAnnotations {
	return &VideoSubAnnotations{Frames: map[int][]*Annotation{}}
}

// Clone deep copies every frame
func (v *VideoSubAnnotations) Clone() *VideoSubAnnotations {
	if v == nil {
		return nil
	}
	out := &VideoSubAnnotations{Frames: make(map[int][]*Annotation, len(v.Frames))}
	for k, list := range v.Frames {
		out.Frames[k] = CloneAnnotations(list)
	}
	return out
}

// KeyframeIndices returns the frames holding sub-annotations, ascending
func (v *VideoSubAnnotations) KeyframeIndices() []int {
	return slices.Sorted(maps.Keys(v.Frames))
}
