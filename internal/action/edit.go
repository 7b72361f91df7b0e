package action

import (
	"context"
	"fmt"

	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/logging"
)

// state is an immutable copy of everything an edit may change on an annotation
type state struct {
	data      domain.Data
	video     *domain.VideoAnnotationData
	subs      []*domain.Annotation
	videoSubs *domain.VideoSubAnnotations
}

func capture(a *domain.Annotation) state {
	s := state{
		video:     a.Video.Clone(),
		subs:      domain.CloneAnnotations(a.SubAnnotations),
		videoSubs: a.VideoSubAnnotations.Clone(),
	}
	if a.Data != nil {
		s.data = a.Data.Clone()
	}
	return s
}

func (s state) restore(a *domain.Annotation) {
	a.Data = nil
	if s.data != nil {
		a.Data = s.data.Clone()
	}
	a.Video = s.video.Clone()
	a.SubAnnotations = domain.CloneAnnotations(s.subs)
	a.VideoSubAnnotations = s.videoSubs.Clone()
}

// Edit swaps an annotation between two snapshots taken when the edit was
// built. Parent and sub-annotation changes live in the same snapshot, so a
// composite edit is undone at once.
type Edit struct {
	name   string
	view   *domain.View
	target *domain.Annotation
	repo   domain.AnnotationRepository
	before state
	after  state
}

func newEdit(name string, view *domain.View, target *domain.Annotation, repo domain.AnnotationRepository, mutate func(after *domain.Annotation) error) (*Edit, error) {
	scratch := target.Clone()
	if err := mutate(scratch); err != nil {
		return nil, err
	}
	return &Edit{
		name:   name,
		view:   view,
		target: target,
		repo:   repo,
		before: capture(target),
		after:  capture(scratch),
	}, nil
}

// Name describes the edit, for history listings
func (e *Edit) Name() string {
	return e.name
}

func (e *Edit) Do(ctx context.Context) Result {
	return e.apply(ctx, e.after)
}

func (e *Edit) Undo(ctx context.Context) Result {
	return e.apply(ctx, e.before)
}

func (e *Edit) apply(ctx context.Context, s state) Result {
	s.restore(e.target)
	e.view.NotifyUpdated(e.target)
	if err := e.repo.Update(ctx, e.view.ID, e.target); err != nil {
		logging.Logger().Warn("actions: persistence failed", "action", e.name, "annotation", e.target.ID, "err", err)
		return Result{Success: true, Err: fmt.Errorf("while persisting annotation %s: %w", e.target.ID, err)}
	}
	return Result{Success: true}
}
