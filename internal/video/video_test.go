package video

import (
	"errors"
	"slices"
	"testing"

	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/renderer"
)

func square(x, y float64) *domain.PolygonData {
	return &domain.PolygonData{Path: []domain.Point{{X: x, Y: y}, {X: x + 10, Y: y}, {X: x + 10, Y: y + 10}, {X: x, Y: y + 10}}}
}

func videoAnnotation(interpolated bool, segments []domain.Segment, frames map[int]domain.Data) *domain.Annotation {
	return domain.NewVideoAnnotation(1, domain.TypePolygon, &domain.VideoAnnotationData{
		Frames:       frames,
		Segments:     segments,
		Interpolated: interpolated,
	})
}

func TestDataAtFrame(t *testing.T) {
	reg := renderer.Default()
	dataA := square(0, 0)
	dataB := square(29, 58)

	t.Run("interpolates between bracketing keyframes", func(t *testing.T) {
		ann := videoAnnotation(true, []domain.Segment{{0, 29}}, map[int]domain.Data{0: dataA, 29: dataB})

		got, ok := DataAtFrame(reg, ann, 15)
		if !ok {
			t.Fatal("expected data at frame 15")
		}
		if got == dataA || got == dataB {
			t.Fatal("frame 15 returned a keyframe verbatim")
		}
		want := renderer.Polygon{}.Interpolate(dataA, dataB, renderer.NewInterpolationParams(0, 29, 15)).(*domain.PolygonData)
		if !slices.Equal(got.(*domain.PolygonData).Path, want.Path) {
			t.Errorf("Path = %v, want %v", got.(*domain.PolygonData).Path, want.Path)
		}
	})

	t.Run("returns keyframes as stored", func(t *testing.T) {
		ann := videoAnnotation(true, []domain.Segment{{0, 29}}, map[int]domain.Data{0: dataA, 29: dataB})
		got, ok := DataAtFrame(reg, ann, 29)
		if !ok || got != dataB {
			t.Errorf("DataAtFrame(29) = %v, %v, want keyframe", got, ok)
		}
	})

	t.Run("holds last value when not interpolated", func(t *testing.T) {
		ann := videoAnnotation(false, []domain.Segment{{0, 29}}, map[int]domain.Data{0: dataA, 29: dataB})
		got, ok := DataAtFrame(reg, ann, 15)
		if !ok || got != dataA {
			t.Errorf("DataAtFrame(15) = %v, %v, want previous keyframe", got, ok)
		}
	})

	t.Run("holds last value after the final keyframe", func(t *testing.T) {
		ann := videoAnnotation(true, []domain.Segment{{0, 29}}, map[int]domain.Data{0: dataA, 10: dataB})
		got, ok := DataAtFrame(reg, ann, 20)
		if !ok || got != dataB {
			t.Errorf("DataAtFrame(20) = %v, %v, want keyframe 10", got, ok)
		}
	})

	t.Run("no data outside segments", func(t *testing.T) {
		ann := videoAnnotation(true, []domain.Segment{{0, 10}}, map[int]domain.Data{0: dataA, 10: dataB})
		if _, ok := DataAtFrame(reg, ann, 20); ok {
			t.Error("expected no data outside of segments")
		}
	})

	t.Run("image annotations return their payload", func(t *testing.T) {
		ann := domain.NewImageAnnotation(1, dataA)
		got, ok := DataAtFrame(reg, ann, 7)
		if !ok || got != dataA {
			t.Errorf("DataAtFrame() = %v, %v", got, ok)
		}
	})
}

func TestUpdateSegments(t *testing.T) {
	keyframes := func() map[int]domain.Data {
		return map[int]domain.Data{10: square(0, 0), 15: square(5, 5), 20: square(10, 10)}
	}

	t.Run("translation shifts keyframes and segment", func(t *testing.T) {
		data := &domain.VideoAnnotationData{Frames: keyframes(), Segments: []domain.Segment{{10, 20}}}
		up, err := UpdateSegments(data, nil, 0, [2]float64{15.2, 24.8}, 0, 30)
		if err != nil {
			t.Fatalf("UpdateSegments() error = %v", err)
		}
		if !up.Translated || up.Delta != 5 {
			t.Errorf("Translated = %v, Delta = %d, want true, 5", up.Translated, up.Delta)
		}
		if got := up.Data.Segments; !slices.Equal(got, []domain.Segment{{15, 25}}) {
			t.Errorf("Segments = %v, want [[15 25]]", got)
		}
		if got := up.Data.KeyframeIndices(); !slices.Equal(got, []int{15, 20, 25}) {
			t.Errorf("keyframes = %v, want [15 20 25]", got)
		}
		if got := data.KeyframeIndices(); !slices.Equal(got, []int{10, 15, 20}) {
			t.Errorf("input was modified: keyframes = %v", got)
		}
	})

	t.Run("resize leaves keyframes in place", func(t *testing.T) {
		data := &domain.VideoAnnotationData{Frames: keyframes(), Segments: []domain.Segment{{10, 20}}}
		up, err := UpdateSegments(data, nil, 0, [2]float64{-5, 5}, 0, 30)
		if err != nil {
			t.Fatalf("UpdateSegments() error = %v", err)
		}
		if up.Translated {
			t.Error("expected a resize")
		}
		if got := up.Data.Segments; !slices.Equal(got, []domain.Segment{{0, 5}}) {
			t.Errorf("Segments = %v, want [[0 5]]", got)
		}
		if got := up.Data.KeyframeIndices(); !slices.Equal(got, []int{10, 15, 20}) {
			t.Errorf("keyframes = %v, want [10 15 20]", got)
		}
	})

	t.Run("translation moves every segment", func(t *testing.T) {
		data := &domain.VideoAnnotationData{
			Frames:   map[int]domain.Data{2: square(0, 0), 10: square(1, 1), 20: square(2, 2)},
			Segments: []domain.Segment{{2, 5}, {10, 20}},
		}
		up, err := UpdateSegments(data, nil, 1, [2]float64{0, 10}, 0, 30)
		if err != nil {
			t.Fatalf("UpdateSegments() error = %v", err)
		}
		if got := up.Data.Segments; !slices.Equal(got, []domain.Segment{{0, 10}}) {
			t.Errorf("Segments = %v, want [[0 10]]", got)
		}
		// keyframe 2 lands on -8 and is dropped because frame 0 is taken
		if got := up.Data.KeyframeIndices(); !slices.Equal(got, []int{0, 10}) {
			t.Errorf("keyframes = %v, want [0 10]", got)
		}
		if up.Data.Frames[0].(*domain.PolygonData).Path[0].X != 1 {
			t.Error("frame 0 should hold the former keyframe 10")
		}
	})

	t.Run("translation moves sub-annotation keyframes", func(t *testing.T) {
		data := &domain.VideoAnnotationData{Frames: keyframes(), Segments: []domain.Segment{{10, 20}}}
		subs := domain.NewVideoSubAnnotations()
		subs.Frames[10] = []*domain.Annotation{domain.NewImageAnnotation(0, &domain.TextData{Text: "car"})}
		up, err := UpdateSegments(data, subs, 0, [2]float64{12, 22}, 0, 30)
		if err != nil {
			t.Fatalf("UpdateSegments() error = %v", err)
		}
		if got := up.SubAnnotations.KeyframeIndices(); !slices.Equal(got, []int{12}) {
			t.Errorf("sub-annotation keyframes = %v, want [12]", got)
		}
		if _, ok := subs.Frames[10]; !ok {
			t.Error("input sub-annotations were modified")
		}
	})

	t.Run("rejects unknown segment", func(t *testing.T) {
		data := &domain.VideoAnnotationData{Frames: keyframes(), Segments: []domain.Segment{{10, 20}}}
		_, err := UpdateSegments(data, nil, 3, [2]float64{0, 1}, 0, 30)
		if !errors.Is(err, domain.ErrSegmentIndexOutOfRange) {
			t.Errorf("error = %v, want ErrSegmentIndexOutOfRange", err)
		}
	})
}

func TestRemoveKeyframesOutsideOfVideoRange(t *testing.T) {
	t.Run("clips a lone keyframe to the first frame", func(t *testing.T) {
		got, err := RemoveKeyframesOutsideOfVideoRange(map[int]string{-3: "a"}, 0, 29)
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if len(got) != 1 || got[0] != "a" {
			t.Errorf("frames = %v, want map[0:a]", got)
		}
	})

	t.Run("clips a lone keyframe to the last frame", func(t *testing.T) {
		got, _ := RemoveKeyframesOutsideOfVideoRange(map[int]string{40: "a"}, 0, 29)
		if len(got) != 1 || got[29] != "a" {
			t.Errorf("frames = %v, want map[29:a]", got)
		}
	})

	t.Run("keeps the closest keyframe when the boundary is free", func(t *testing.T) {
		got, _ := RemoveKeyframesOutsideOfVideoRange(map[int]string{-5: "a", -2: "b", 3: "c"}, 0, 29)
		if len(got) != 2 || got[0] != "b" || got[3] != "c" {
			t.Errorf("frames = %v, want map[0:b 3:c]", got)
		}
	})

	t.Run("drops everything outside when the boundary is taken", func(t *testing.T) {
		got, _ := RemoveKeyframesOutsideOfVideoRange(map[int]string{31: "a", 35: "b", 29: "c"}, 0, 29)
		if len(got) != 1 || got[29] != "c" {
			t.Errorf("frames = %v, want map[29:c]", got)
		}
	})

	t.Run("leaves in-range keyframes alone", func(t *testing.T) {
		in := map[int]string{0: "a", 29: "b"}
		got, _ := RemoveKeyframesOutsideOfVideoRange(in, 0, 29)
		if len(got) != 2 {
			t.Errorf("frames = %v", got)
		}
	})

	t.Run("fails when keyframes leave on both sides", func(t *testing.T) {
		_, err := RemoveKeyframesOutsideOfVideoRange(map[int]string{-1: "a", 30: "b"}, 0, 29)
		if !errors.Is(err, domain.ErrKeyframesOutOfRangeBothWays) {
			t.Errorf("error = %v, want ErrKeyframesOutOfRangeBothWays", err)
		}
	})
}

func TestInferVideoSubAnnotations(t *testing.T) {
	subs := domain.NewVideoSubAnnotations()
	subs.Frames[5] = []*domain.Annotation{domain.NewImageAnnotation(0, &domain.TextData{Text: "five"})}
	subs.Frames[10] = []*domain.Annotation{domain.NewImageAnnotation(0, &domain.TextData{Text: "ten"})}

	text := func(list []*domain.Annotation) string {
		if len(list) == 0 {
			return ""
		}
		return list[0].Data.(*domain.TextData).Text
	}

	if got := text(InferVideoSubAnnotations(subs, 7)); got != "five" {
		t.Errorf("frame 7 = %q, want five", got)
	}
	if got := text(InferVideoSubAnnotations(subs, 10)); got != "ten" {
		t.Errorf("frame 10 = %q, want ten", got)
	}
	if got := InferVideoSubAnnotations(subs, 2); got != nil {
		t.Errorf("frame 2 = %v, want nil", got)
	}

	inferred := InferVideoSubAnnotations(subs, 7)
	inferred[0].Data.(*domain.TextData).Text = "changed"
	if text(subs.Frames[5]) != "five" {
		t.Error("inferred sub-annotations alias the keyframe")
	}
}
