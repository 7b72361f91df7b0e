package raster

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/lewtec/rotulador-editor/internal/domain"
)

type fakeRepository struct {
	created map[string]*domain.Annotation
	updated map[string]int
	deleted []string
	err     error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{created: map[string]*domain.Annotation{}, updated: map[string]int{}}
}

func (f *fakeRepository) Create(_ context.Context, _ string, a *domain.Annotation) error {
	f.created[a.ID] = a
	return f.err
}

func (f *fakeRepository) Update(_ context.Context, _ string, a *domain.Annotation) error {
	f.updated[a.ID]++
	return f.err
}

func (f *fakeRepository) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeRepository) Get(_ context.Context, id string) (*domain.Annotation, error) {
	return f.created[id], nil
}

func (f *fakeRepository) ListForView(context.Context, string) ([]*domain.Annotation, error) {
	return nil, nil
}

func rect(x0, y0, x1, y1 float64) []domain.Point {
	return []domain.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func labelOf(t *testing.T, r *domain.Raster, a *domain.Annotation) uint16 {
	t.Helper()
	l, ok := r.GetLabelIndexForAnnotationID(a.ID)
	if !ok {
		t.Fatalf("annotation %s has no label", a.ID)
	}
	return l
}

func TestDrawPolygonToRaster(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a mask annotation", func(t *testing.T) {
		view := domain.NewView(20, 20)
		repo := newFakeRepository()

		res, err := DrawPolygonToRaster(ctx, view, rect(0, 0, 10, 10), 7, repo)
		if err != nil {
			t.Fatalf("DrawPolygonToRaster() error = %v", err)
		}
		if !res.Created || res.Annotation == nil {
			t.Fatal("expected a created annotation")
		}
		ann := res.Annotation
		if ann.Type != domain.TypeMask || ann.ClassID != 7 {
			t.Errorf("annotation = %+v", ann)
		}
		if view.Annotation(ann.ID) == nil {
			t.Error("annotation was not added to the view")
		}
		if _, ok := repo.created[ann.ID]; !ok {
			t.Error("annotation was not persisted")
		}

		r := view.Raster()
		if got := labelOf(t, r, ann); got != 1 {
			t.Errorf("label = %d, want 1", got)
		}
		if got := r.CountPixels(1); got != 100 {
			t.Errorf("CountPixels(1) = %d, want 100", got)
		}
		want := domain.BoundingBox{X: 0, Y: 0, W: 10, H: 10}
		if got := ann.Data.(*domain.MaskData).BoundingBox; got != want {
			t.Errorf("BoundingBox = %+v, want %+v", got, want)
		}
		if got := r.TakeInvalidated(); got != image.Rect(0, 0, 10, 10) {
			t.Errorf("invalidated = %v, want (0,0)-(10,10)", got)
		}
	})

	t.Run("reuses the mask of the class and grows its box", func(t *testing.T) {
		view := domain.NewView(20, 20)
		repo := newFakeRepository()

		first, _ := DrawPolygonToRaster(ctx, view, rect(0, 0, 5, 5), 7, repo)
		second, err := DrawPolygonToRaster(ctx, view, rect(10, 10, 15, 15), 7, repo)
		if err != nil {
			t.Fatalf("DrawPolygonToRaster() error = %v", err)
		}
		if second.Created || second.Annotation != first.Annotation {
			t.Fatal("second stroke should update the existing mask")
		}
		if second.Previous == nil || second.Previous.Data.(*domain.MaskData).BoundingBox.W != 5 {
			t.Error("Previous should hold the mask before the stroke")
		}
		want := domain.BoundingBox{X: 0, Y: 0, W: 15, H: 15}
		if got := second.Annotation.Data.(*domain.MaskData).BoundingBox; got != want {
			t.Errorf("BoundingBox = %+v, want %+v", got, want)
		}
		if repo.updated[first.Annotation.ID] != 1 {
			t.Errorf("updated %d times, want 1", repo.updated[first.Annotation.ID])
		}
		if n := len(view.Annotations()); n != 1 {
			t.Errorf("view has %d annotations, want 1", n)
		}
	})

	t.Run("removes masks fully painted over", func(t *testing.T) {
		view := domain.NewView(20, 20)
		repo := newFakeRepository()

		a, _ := DrawPolygonToRaster(ctx, view, rect(0, 0, 10, 10), 1, repo)
		b, err := DrawPolygonToRaster(ctx, view, rect(0, 0, 10, 10), 2, repo)
		if err != nil {
			t.Fatalf("DrawPolygonToRaster() error = %v", err)
		}
		if view.Annotation(a.Annotation.ID) != nil {
			t.Error("occluded mask should be removed from the view")
		}
		if len(b.Removed) != 1 || b.Removed[0].ID != a.Annotation.ID {
			t.Errorf("Removed = %v, want the first mask", b.Removed)
		}
		if len(repo.deleted) != 1 || repo.deleted[0] != a.Annotation.ID {
			t.Errorf("deleted = %v", repo.deleted)
		}
		if _, ok := view.Raster().AnnotationIDForLabel(1); ok {
			t.Error("label 1 should be released")
		}
	})

	t.Run("keeps partially covered masks", func(t *testing.T) {
		view := domain.NewView(20, 20)
		repo := newFakeRepository()

		a, _ := DrawPolygonToRaster(ctx, view, rect(0, 0, 10, 10), 1, repo)
		_, _ = DrawPolygonToRaster(ctx, view, rect(5, 0, 15, 10), 2, repo)
		if view.Annotation(a.Annotation.ID) == nil {
			t.Fatal("partially covered mask was removed")
		}
		if got := view.Raster().CountPixels(1); got != 50 {
			t.Errorf("CountPixels(1) = %d, want 50", got)
		}
		if got := a.Annotation.Data.(*domain.MaskData).BoundingBox.W; got != 10 {
			t.Errorf("bounding box width = %v, want 10 (never shrinks)", got)
		}
	})

	t.Run("reuses vacated labels", func(t *testing.T) {
		view := domain.NewView(20, 20)
		repo := newFakeRepository()

		_, _ = DrawPolygonToRaster(ctx, view, rect(0, 0, 10, 10), 1, repo)
		erased, err := EraseFromRaster(ctx, view, rect(0, 0, 10, 10), repo)
		if err != nil {
			t.Fatalf("EraseFromRaster() error = %v", err)
		}
		if len(erased.Removed) != 1 {
			t.Fatalf("erase removed %d masks, want 1", len(erased.Removed))
		}

		b, _ := DrawPolygonToRaster(ctx, view, rect(0, 0, 10, 10), 2, repo)
		if got := labelOf(t, view.Raster(), b.Annotation); got != 1 {
			t.Errorf("label = %d, want 1", got)
		}
	})

	t.Run("degenerate polygon leaves no bookkeeping", func(t *testing.T) {
		view := domain.NewView(20, 20)
		repo := newFakeRepository()

		res, err := DrawPolygonToRaster(ctx, view, []domain.Point{{X: 1, Y: 1}, {X: 1.2, Y: 1.1}, {X: 1.1, Y: 1.2}}, 3, repo)
		if err != nil {
			t.Fatalf("DrawPolygonToRaster() error = %v", err)
		}
		if res.Annotation != nil || res.Created {
			t.Errorf("expected no mask, got %+v", res.Annotation)
		}
		if len(view.Annotations()) != 0 || len(repo.created) != 0 {
			t.Error("no annotation should be created")
		}
		if len(view.Raster().Labels()) != 0 {
			t.Error("label should be released")
		}
	})

	t.Run("degenerate polygon on an unlabeled mask releases the label", func(t *testing.T) {
		view := domain.NewView(20, 20)
		repo := newFakeRepository()
		ann := domain.NewImageAnnotation(3, &domain.MaskData{})
		view.Add(ann)

		res, err := DrawPolygonToRaster(ctx, view, []domain.Point{{X: 1, Y: 1}, {X: 1.2, Y: 1.1}, {X: 1.1, Y: 1.2}}, 3, repo)
		if err != nil {
			t.Fatalf("DrawPolygonToRaster() error = %v", err)
		}
		if res.Annotation != ann {
			t.Errorf("Annotation = %+v, want the existing mask", res.Annotation)
		}
		if _, ok := view.Raster().GetLabelIndexForAnnotationID(ann.ID); ok {
			t.Error("mask without pixels should not keep a label")
		}
		if len(res.LabelsAfter) != 0 {
			t.Errorf("LabelsAfter = %v, want empty", res.LabelsAfter)
		}
	})

	t.Run("refuses to paint over a video mask", func(t *testing.T) {
		view := domain.NewVideoView(20, 20, 30)
		repo := newFakeRepository()
		ann := domain.NewVideoAnnotation(1, domain.TypeMask, &domain.VideoAnnotationData{
			Frames:   map[int]domain.Data{0: &domain.MaskData{}},
			Segments: []domain.Segment{{0, 29}},
		})
		view.Add(ann)

		res, err := DrawPolygonToRaster(ctx, view, rect(0, 0, 5, 5), 1, repo)
		if !errors.Is(err, domain.ErrNotImageAnnotation) {
			t.Fatalf("error = %v, want ErrNotImageAnnotation", err)
		}
		if res != nil {
			t.Errorf("result = %+v, want nil", res)
		}
		r := view.Raster()
		if got := r.CountPixels(1); got != 0 {
			t.Errorf("CountPixels(1) = %d, want 0", got)
		}
		if len(r.Labels()) != 0 {
			t.Errorf("labels = %v, want none", r.Labels())
		}
		if len(repo.created)+len(repo.updated) != 0 {
			t.Error("nothing should be persisted")
		}
	})

	t.Run("clips polygons to the raster", func(t *testing.T) {
		view := domain.NewView(20, 20)
		repo := newFakeRepository()

		res, _ := DrawPolygonToRaster(ctx, view, rect(-5, -5, 5, 5), 1, repo)
		if got := view.Raster().CountPixels(1); got != 25 {
			t.Errorf("CountPixels(1) = %d, want 25", got)
		}
		if res.Rect != image.Rect(0, 0, 5, 5) {
			t.Errorf("Rect = %v", res.Rect)
		}
	})

	t.Run("reports persistence failures after applying locally", func(t *testing.T) {
		view := domain.NewView(20, 20)
		repo := newFakeRepository()
		repo.err = errors.New("backend unavailable")

		res, err := DrawPolygonToRaster(ctx, view, rect(0, 0, 4, 4), 1, repo)
		if err != nil {
			t.Fatalf("DrawPolygonToRaster() error = %v", err)
		}
		if res.PersistErr == nil {
			t.Error("expected PersistErr")
		}
		if view.Annotation(res.Annotation.ID) == nil {
			t.Error("local state should keep the mask")
		}
	})
}
