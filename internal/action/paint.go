package action

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/raster"
)

// Paint is an undoable raster stroke. The first Do rasterizes the polygon;
// later calls replay the recorded pixels and label table instead.
type Paint struct {
	view    *domain.View
	repo    domain.AnnotationRepository
	polygon []domain.Point
	classID int64
	erase   bool

	result    *raster.PaintResult
	afterData domain.Data
}

// NewPaintPolygon paints polygon with the mask of classID
func NewPaintPolygon(view *domain.View, polygon []domain.Point, classID int64, repo domain.AnnotationRepository) *Paint {
	return &Paint{view: view, repo: repo, polygon: polygon, classID: classID}
}

// NewErasePolygon resets the pixels under polygon to background
func NewErasePolygon(view *domain.View, polygon []domain.Point, repo domain.AnnotationRepository) *Paint {
	return &Paint{view: view, repo: repo, polygon: polygon, erase: true}
}

func (p *Paint) Name() string {
	if p.erase {
		return "erase"
	}
	return fmt.Sprintf("paint class %d", p.classID)
}

// Result is the outcome of the first stroke, nil before Do
func (p *Paint) Result() *raster.PaintResult {
	return p.result
}

func (p *Paint) Do(ctx context.Context) Result {
	if p.result != nil {
		return p.redo(ctx)
	}
	var (
		res *raster.PaintResult
		err error
	)
	if p.erase {
		res, err = raster.EraseFromRaster(ctx, p.view, p.polygon, p.repo)
	} else {
		res, err = raster.DrawPolygonToRaster(ctx, p.view, p.polygon, p.classID, p.repo)
	}
	if err != nil {
		return Result{Err: err}
	}
	p.result = res
	if res.Annotation != nil {
		p.afterData = res.Annotation.Data.Clone()
	}
	return Result{Success: true, Err: res.PersistErr}
}

func (p *Paint) Undo(ctx context.Context) Result {
	res := p.result
	if res == nil {
		return Result{}
	}
	r := p.view.Raster()
	r.SetRegion(res.Rect, res.Before)
	r.SetLabels(res.LabelsBefore)

	var errs *multierror.Error
	switch {
	case res.Created:
		p.view.Remove(res.Annotation.ID)
		if err := p.repo.Delete(ctx, res.Annotation.ID); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("while deleting mask %s: %w", res.Annotation.ID, err))
		}
	case res.Annotation != nil && res.Previous != nil:
		res.Annotation.Data = res.Previous.Data.Clone()
		p.view.NotifyUpdated(res.Annotation)
		if err := p.repo.Update(ctx, p.view.ID, res.Annotation); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("while persisting mask %s: %w", res.Annotation.ID, err))
		}
	}
	for _, a := range res.Removed {
		p.view.Insert(a)
		if err := p.repo.Create(ctx, p.view.ID, a); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("while restoring mask %s: %w", a.ID, err))
		}
	}
	return Result{Success: true, Err: errs.ErrorOrNil()}
}

func (p *Paint) redo(ctx context.Context) Result {
	res := p.result
	r := p.view.Raster()
	r.SetRegion(res.Rect, res.After)
	r.SetLabels(res.LabelsAfter)

	var errs *multierror.Error
	switch {
	case res.Created:
		res.Annotation.Data = p.afterData.Clone()
		p.view.Insert(res.Annotation)
		if err := p.repo.Create(ctx, p.view.ID, res.Annotation); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("while persisting mask %s: %w", res.Annotation.ID, err))
		}
	case res.Annotation != nil:
		res.Annotation.Data = p.afterData.Clone()
		p.view.NotifyUpdated(res.Annotation)
		if err := p.repo.Update(ctx, p.view.ID, res.Annotation); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("while persisting mask %s: %w", res.Annotation.ID, err))
		}
	}
	for _, a := range res.Removed {
		p.view.Remove(a.ID)
		if err := p.repo.Delete(ctx, a.ID); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("while deleting mask %s: %w", a.ID, err))
		}
	}
	return Result{Success: true, Err: errs.ErrorOrNil()}
}
