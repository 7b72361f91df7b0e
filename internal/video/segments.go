package video

import (
	"fmt"
	"maps"
	"math"

	"github.com/lewtec/rotulador-editor/internal/domain"
)

// SegmentUpdate is the outcome of dragging a segment handle
type SegmentUpdate struct {
	Data           *domain.VideoAnnotationData
	SubAnnotations *domain.VideoSubAnnotations
	// Translated is true when the drag moved the segment without resizing it
	Translated bool
	Delta      int
}

// UpdateSegments applies a drag of segment segmentIndex to the range rng.
//
// Both ends of rng are rounded and clamped to the video. When the clamped
// range keeps the segment length the drag is a translation: every keyframe,
// every sub-annotation keyframe and every segment moves by the same delta.
// Otherwise only the edited segment changes. Keyframes pushed out of the video
// are reconciled with RemoveKeyframesOutsideOfVideoRange.
//
// The inputs are not modified.
func UpdateSegments(data *domain.VideoAnnotationData, subs *domain.VideoSubAnnotations, segmentIndex int, rng [2]float64, firstFrame, totalFrames int) (*SegmentUpdate, error) {
	if totalFrames <= 0 {
		return nil, domain.ErrNoVideoLoaded
	}
	if segmentIndex < 0 || segmentIndex >= len(data.Segments) {
		return nil, fmt.Errorf("%w: %d of %d", domain.ErrSegmentIndexOutOfRange, segmentIndex, len(data.Segments))
	}
	last := totalFrames - 1
	x := clamp(int(math.Round(rng[0])), firstFrame, last)
	y := clamp(int(math.Round(rng[1])), firstFrame, last)
	if x > y {
		x, y = y, x
	}

	original := data.Segments[segmentIndex]
	out := &SegmentUpdate{
		Data:           data.Clone(),
		SubAnnotations: subs.Clone(),
		Translated:     y-x == original.Len(),
		Delta:          x - original.Start(),
	}
	if out.SubAnnotations == nil {
		out.SubAnnotations = domain.NewVideoSubAnnotations()
	}

	if out.Translated {
		out.Data.Frames = shiftKeys(out.Data.Frames, out.Delta)
		out.SubAnnotations.Frames = shiftKeys(out.SubAnnotations.Frames, out.Delta)
		segments := make([]domain.Segment, 0, len(out.Data.Segments))
		for _, s := range out.Data.Segments {
			s = domain.Segment{s.Start() + out.Delta, s.End() + out.Delta}
			if s.End() < firstFrame || s.Start() > last {
				continue
			}
			segments = append(segments, domain.Segment{clamp(s.Start(), firstFrame, last), clamp(s.End(), firstFrame, last)})
		}
		out.Data.Segments = segments
	} else {
		out.Data.Segments[segmentIndex] = domain.Segment{x, y}
	}

	frames, err := RemoveKeyframesOutsideOfVideoRange(out.Data.Frames, firstFrame, last)
	if err != nil {
		return nil, fmt.Errorf("while reconciling keyframes: %w", err)
	}
	out.Data.Frames = frames
	subFrames, err := RemoveKeyframesOutsideOfVideoRange(out.SubAnnotations.Frames, firstFrame, last)
	if err != nil {
		return nil, fmt.Errorf("while reconciling sub-annotation keyframes: %w", err)
	}
	out.SubAnnotations.Frames = subFrames
	return out, nil
}

// RemoveKeyframesOutsideOfVideoRange reconciles keyframes moved beyond
// [first, last].
//
// Out of range keyframes must all lie on the same side, otherwise
// ErrKeyframesOutOfRangeBothWays is returned. The out of range keyframe closest
// to the crossed boundary is relabeled to the boundary frame when no keyframe
// already sits there; every other out of range keyframe is dropped. A lone
// keyframe is therefore always clipped, never deleted.
func RemoveKeyframesOutsideOfVideoRange[T any](frames map[int]T, first, last int) (map[int]T, error) {
	out := maps.Clone(frames)
	var below, above []int
	for k := range out {
		switch {
		case k < first:
			below = append(below, k)
		case k > last:
			above = append(above, k)
		}
	}
	if len(below) == 0 && len(above) == 0 {
		return out, nil
	}
	if len(below) > 0 && len(above) > 0 {
		return nil, domain.ErrKeyframesOutOfRangeBothWays
	}

	boundary, outside := first, below
	closest := below[0]
	for _, k := range below {
		closest = max(closest, k)
	}
	if len(above) > 0 {
		boundary, outside = last, above
		closest = above[0]
		for _, k := range above {
			closest = min(closest, k)
		}
	}
	if _, taken := out[boundary]; !taken {
		out[boundary] = out[closest]
	}
	for _, k := range outside {
		delete(out, k)
	}
	return out, nil
}

func shiftKeys[T any](frames map[int]T, delta int) map[int]T {
	out := make(map[int]T, len(frames))
	for k, v := range frames {
		out[k+delta] = v
	}
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
