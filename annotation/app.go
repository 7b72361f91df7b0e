package annotation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/go-git/go-billy/v6"
	"github.com/hashicorp/go-multierror"

	"github.com/lewtec/rotulador-editor/internal/action"
	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/frames"
	"github.com/lewtec/rotulador-editor/internal/overlay"
	"github.com/lewtec/rotulador-editor/internal/renderer"
	"github.com/lewtec/rotulador-editor/internal/repository"
)

// Workstation is one editing surface: a view with its annotations, the
// undo history, the frame loader and everything listening to them
type Workstation struct {
	Database    *sql.DB
	Config      *Config
	Registry    *renderer.Registry
	Views       domain.ViewRepository
	Annotations domain.AnnotationRepository

	View    *domain.View
	Actions *action.Manager
	Frames  *frames.Loader
	Cache   *FrameCache
	Overlay *overlay.Manager
}

// NewView creates and stores a view sized as configured
func NewView(ctx context.Context, db *sql.DB, cfg *Config) (*domain.View, error) {
	view := domain.NewVideoView(cfg.View.Width, cfg.View.Height, cfg.View.TotalFrames)
	view.FirstFrameIndex = cfg.View.FirstFrameIndex
	if err := repository.NewViewRepository(db).Create(ctx, view); err != nil {
		return nil, err
	}
	log.Printf("NewView: created view %s (%dx%d, %d frames)", view.ID, view.Width, view.Height, view.TotalFrames)
	return view, nil
}

// OpenWorkstation loads a stored view with its annotations and raster
func OpenWorkstation(ctx context.Context, db *sql.DB, cfg *Config, viewID string) (*Workstation, error) {
	reg := renderer.Default()
	views := repository.NewViewRepository(db)
	annotations := repository.NewAnnotationRepository(db, reg)

	view, err := views.Get(ctx, viewID)
	if err != nil {
		return nil, fmt.Errorf("while loading view '%s': %w", viewID, err)
	}
	if view == nil {
		return nil, fmt.Errorf("while loading view '%s': %w", viewID, domain.ErrNotFound)
	}
	list, err := annotations.ListForView(ctx, viewID)
	if err != nil {
		return nil, fmt.Errorf("while loading annotations of view '%s': %w", viewID, err)
	}
	for _, ann := range list {
		view.Insert(ann)
	}
	raster, err := views.LoadRaster(ctx, viewID)
	if err != nil {
		return nil, fmt.Errorf("while loading raster of view '%s': %w", viewID, err)
	}
	if raster != nil {
		view.SetRaster(raster)
	}

	loader := frames.NewLoader(ctx, cfg.Frames.Concurrency)
	return &Workstation{
		Database:    db,
		Config:      cfg,
		Registry:    reg,
		Views:       views,
		Annotations: annotations,
		View:        view,
		Actions:     action.NewManager(),
		Frames:      loader,
		Cache:       NewFrameCache(loader),
		Overlay:     overlay.NewManager(view, reg),
	}, nil
}

// LoadFrames queues every frame of fs matching pattern
func (w *Workstation) LoadFrames(fs billy.Filesystem, pattern string) (int, error) {
	sources, err := frames.SourcesFromGlob(fs, pattern)
	if err != nil {
		return 0, fmt.Errorf("while listing frames '%s': %w", pattern, err)
	}
	w.Frames.SetFramesToLoad(sources)
	return len(sources), nil
}

// Seek moves the playhead and asks the loader for that frame first
func (w *Workstation) Seek(index int) *frames.Pending {
	w.View.SetCurrentFrame(index)
	return w.Frames.SetNextFrameToLoad(index)
}

func (w *Workstation) Do(ctx context.Context, a action.Action) action.Result {
	return w.report(w.Actions.Do(ctx, a))
}

func (w *Workstation) Undo(ctx context.Context) action.Result {
	return w.report(w.Actions.Undo(ctx))
}

func (w *Workstation) Redo(ctx context.Context) action.Result {
	return w.report(w.Actions.Redo(ctx))
}

func (w *Workstation) report(res action.Result) action.Result {
	if res.Err != nil {
		log.Printf("warning: changes were applied but not saved: %s", res.Err)
	}
	return res
}

// Save persists the raster of the view and its masks in one transaction.
// Other annotations are saved by each action. Masks whose save failed earlier
// are written again and stored masks no longer in the view are deleted, so
// the labels of the raster always point at stored annotations.
func (w *Workstation) Save(ctx context.Context) error {
	if !w.View.HasRaster() {
		return nil
	}
	tx, err := w.Database.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("while saving view %s: %w", w.View.ID, err)
	}
	defer tx.Rollback()

	views := repository.NewViewRepositoryWithTx(tx)
	annotations := repository.NewAnnotationRepositoryWithTx(tx, w.Registry)
	if err := views.SaveRaster(ctx, w.View.ID, w.View.Raster()); err != nil {
		return err
	}

	stored, err := annotations.ListForView(ctx, w.View.ID)
	if err != nil {
		return err
	}
	for _, ann := range stored {
		if ann.Type == domain.TypeMask && w.View.Annotation(ann.ID) == nil {
			log.Printf("Save: deleting stale mask %s", ann.ID)
			if err := annotations.Delete(ctx, ann.ID); err != nil {
				return err
			}
		}
	}
	for _, ann := range w.View.Annotations() {
		if ann.Type != domain.TypeMask {
			continue
		}
		err := annotations.Update(ctx, w.View.ID, ann)
		if errors.Is(err, domain.ErrNotFound) {
			err = annotations.Create(ctx, w.View.ID, ann)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close saves and detaches every listener
func (w *Workstation) Close(ctx context.Context) error {
	var errs *multierror.Error
	if err := w.Save(ctx); err != nil {
		errs = multierror.Append(errs, err)
	}
	w.Frames.Cleanup()
	w.Cache.Close()
	w.Overlay.Close()
	w.Actions.Clear()
	return errs.ErrorOrNil()
}
