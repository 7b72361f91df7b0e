package raster

import (
	"context"
	"fmt"
	"image"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/logging"
)

// PaintResult records what a paint stroke changed, enough to revert or
// replay it without repainting
type PaintResult struct {
	// Annotation is the created or updated mask, nil when the polygon covered no pixel
	Annotation *domain.Annotation
	Created    bool
	// Previous is a copy of the mask annotation before the stroke, nil when created
	Previous *domain.Annotation
	// Removed holds the masks fully overwritten by the stroke
	Removed []*domain.Annotation

	// Rect bounds every pixel the stroke may have changed
	Rect         image.Rectangle
	Before       []uint16
	After        []uint16
	LabelsBefore map[uint16]string
	LabelsAfter  map[uint16]string

	// PersistErr holds persistence failures. Local state is already updated.
	PersistErr error
}

// DrawPolygonToRaster paints polygon onto the raster of view under classID.
//
// The mask annotation of the class is reused when it exists, otherwise a new
// one is created with the lowest free label. Every pixel covered by the
// polygon takes the label of the class; masks left without pixels by the
// stroke are removed from the view. The mask bounding box only grows.
func DrawPolygonToRaster(ctx context.Context, view *domain.View, polygon []domain.Point, classID int64, repo domain.AnnotationRepository) (*PaintResult, error) {
	r := view.Raster()
	res := &PaintResult{LabelsBefore: r.Labels()}

	ann := view.MaskForClass(classID)
	var mask *domain.MaskData
	if ann != nil {
		var ok bool
		if mask, ok = ann.Data.(*domain.MaskData); !ok || mask == nil || ann.Kind != domain.KindImage {
			return nil, fmt.Errorf("while painting class %d: mask %s: %w", classID, ann.ID, domain.ErrNotImageAnnotation)
		}
	}

	var label uint16
	fresh := false
	if ann != nil {
		l, ok := r.GetLabelIndexForAnnotationID(ann.ID)
		if !ok {
			var err error
			if l, err = r.GetNextAvailableLabelIndex(); err != nil {
				return nil, fmt.Errorf("while allocating label for class %d: %w", classID, err)
			}
			r.AssignLabel(l, ann.ID)
			fresh = true
		}
		res.Previous = ann.Clone()
		label = l
	} else {
		l, err := r.GetNextAvailableLabelIndex()
		if err != nil {
			return nil, fmt.Errorf("while allocating label for class %d: %w", classID, err)
		}
		mask = &domain.MaskData{RasterID: r.ID}
		ann = domain.NewImageAnnotation(classID, mask)
		r.AssignLabel(l, ann.ID)
		label = l
		res.Created = true
		fresh = true
	}

	var displaced map[uint16]struct{}
	var touched image.Rectangle
	res.Rect, res.Before, res.After, displaced, touched = paint(r, polygon, label)

	if touched.Empty() {
		logging.Logger().Debug("raster: polygon covered no pixel", "class", classID, "created", res.Created)
		if fresh {
			r.ReleaseLabel(label)
		}
		if res.Created {
			res.Created = false
		} else {
			res.Annotation = ann
		}
		res.LabelsAfter = r.Labels()
		return res, nil
	}

	mask.BoundingBox = mask.BoundingBox.Union(BoundingBoxOfRect(touched))
	if res.Created {
		view.Add(ann)
	}

	var errs *multierror.Error
	removed, err := checkAndRemoveEmptyMasks(ctx, view, r, displaced, repo)
	res.Removed = removed
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	r.Invalidate(touched)
	if res.Created {
		err = repo.Create(ctx, view.ID, ann)
	} else {
		view.NotifyUpdated(ann)
		err = repo.Update(ctx, view.ID, ann)
	}
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("while persisting mask %s: %w", ann.ID, err))
	}

	res.Annotation = ann
	res.LabelsAfter = r.Labels()
	res.PersistErr = errs.ErrorOrNil()
	if res.PersistErr != nil {
		logging.Logger().Warn("raster: persistence failed", "annotation", ann.ID, "err", res.PersistErr)
	}
	return res, nil
}

// EraseFromRaster resets the pixels covered by polygon to background and
// removes the masks left without pixels. Bounding boxes of the remaining masks
// are kept as they are.
func EraseFromRaster(ctx context.Context, view *domain.View, polygon []domain.Point, repo domain.AnnotationRepository) (*PaintResult, error) {
	r := view.Raster()
	res := &PaintResult{LabelsBefore: r.Labels()}

	var displaced map[uint16]struct{}
	var touched image.Rectangle
	res.Rect, res.Before, res.After, displaced, touched = paint(r, polygon, 0)

	removed, err := checkAndRemoveEmptyMasks(ctx, view, r, displaced, repo)
	res.Removed = removed
	res.PersistErr = err
	r.Invalidate(touched)
	res.LabelsAfter = r.Labels()
	return res, nil
}

// paint writes label on every pixel covered by polygon. It returns the
// rectangle that may have changed with its content before and after, the
// nonzero labels overwritten and the bounds of the pixels actually covered.
func paint(r *domain.Raster, polygon []domain.Point, label uint16) (rect image.Rectangle, before, after []uint16, displaced map[uint16]struct{}, touched image.Rectangle) {
	rect, cover := rasterizePolygon(polygon, r.Bounds())
	before = r.Region(rect)
	displaced = map[uint16]struct{}{}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if cover.AlphaAt(x-rect.Min.X, y-rect.Min.Y).A < coverageThreshold {
				continue
			}
			i := y*r.Width + x
			if prev := r.Buffer[i]; prev != label && prev != 0 {
				displaced[prev] = struct{}{}
			}
			r.Buffer[i] = label
			touched = touched.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	after = r.Region(rect)
	return rect, before, after, displaced, touched
}

// checkAndRemoveEmptyMasks removes the masks whose label was displaced by a
// stroke and no longer owns any pixel. Only the given labels are checked.
func checkAndRemoveEmptyMasks(ctx context.Context, view *domain.View, r *domain.Raster, labels map[uint16]struct{}, repo domain.AnnotationRepository) ([]*domain.Annotation, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	counts := make(map[uint16]int, len(labels))
	for _, v := range r.Buffer {
		if _, ok := labels[v]; ok {
			counts[v]++
		}
	}

	ordered := make([]uint16, 0, len(labels))
	for l := range labels {
		ordered = append(ordered, l)
	}
	slices.Sort(ordered)

	var removed []*domain.Annotation
	var errs *multierror.Error
	for _, l := range ordered {
		if counts[l] > 0 {
			continue
		}
		id, ok := r.AnnotationIDForLabel(l)
		r.ReleaseLabel(l)
		if !ok {
			continue
		}
		a := view.Remove(id)
		if a == nil {
			continue
		}
		logging.Logger().Debug("raster: removing empty mask", "annotation", id, "label", l)
		removed = append(removed, a)
		if err := repo.Delete(ctx, id); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("while deleting mask %s: %w", id, err))
		}
	}
	return removed, errs.ErrorOrNil()
}
