package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/renderer"
)

// AnnotationRepository implements domain.AnnotationRepository on sqlite
type AnnotationRepository struct {
	queries  *Queries
	registry *renderer.Registry
}

// NewAnnotationRepository creates a new AnnotationRepository. Payloads are
// decoded with the renderers of reg.
func NewAnnotationRepository(db *sql.DB, reg *renderer.Registry) *AnnotationRepository {
	return &AnnotationRepository{queries: New(db), registry: reg}
}

// NewAnnotationRepositoryWithTx creates a new AnnotationRepository with a transaction
func NewAnnotationRepositoryWithTx(tx *sql.Tx, reg *renderer.Registry) *AnnotationRepository {
	return &AnnotationRepository{queries: New(tx), registry: reg}
}

// Create stores a new annotation for a view
func (r *AnnotationRepository) Create(ctx context.Context, viewID string, ann *domain.Annotation) error {
	row, err := toAnnotationRow(viewID, ann)
	if err != nil {
		return err
	}
	if err := r.queries.CreateAnnotation(ctx, row); err != nil {
		return fmt.Errorf("while inserting annotation %s: %w", ann.ID, err)
	}
	return nil
}

// Update persists the current state of an annotation
func (r *AnnotationRepository) Update(ctx context.Context, viewID string, ann *domain.Annotation) error {
	row, err := toAnnotationRow(viewID, ann)
	if err != nil {
		return err
	}
	n, err := r.queries.UpdateAnnotation(ctx, row)
	if err != nil {
		return fmt.Errorf("while updating annotation %s: %w", ann.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("while updating annotation %s: %w", ann.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes an annotation by ID
func (r *AnnotationRepository) Delete(ctx context.Context, id string) error {
	return r.queries.DeleteAnnotation(ctx, id)
}

// Get retrieves an annotation by ID
func (r *AnnotationRepository) Get(ctx context.Context, id string) (*domain.Annotation, error) {
	row, err := r.queries.GetAnnotation(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomainAnnotation(row)
}

// ListForView retrieves every annotation of a view ordered by z index
func (r *AnnotationRepository) ListForView(ctx context.Context, viewID string) ([]*domain.Annotation, error) {
	rows, err := r.queries.ListAnnotationsForView(ctx, viewID)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Annotation, len(rows))
	for i, row := range rows {
		if result[i], err = r.toDomainAnnotation(row); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// CountByClass returns how many annotations each class has on a view
func (r *AnnotationRepository) CountByClass(ctx context.Context, viewID string) (map[int64]int64, error) {
	return r.queries.CountAnnotationsByClass(ctx, viewID)
}

func toAnnotationRow(viewID string, ann *domain.Annotation) (annotationRow, error) {
	doc, err := encodeAnnotation(ann)
	if err != nil {
		return annotationRow{}, err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return annotationRow{}, fmt.Errorf("while encoding annotation %s: %w", ann.ID, err)
	}
	return annotationRow{
		ID:      ann.ID,
		ViewID:  viewID,
		Type:    ann.Type,
		ClassID: ann.ClassID,
		ZIndex:  int64(ann.ZIndex),
		Kind:    int64(ann.Kind),
		Payload: string(payload),
	}, nil
}

func (r *AnnotationRepository) toDomainAnnotation(row annotationRow) (*domain.Annotation, error) {
	var doc annotationDoc
	if err := json.Unmarshal([]byte(row.Payload), &doc); err != nil {
		return nil, fmt.Errorf("while parsing annotation %s: %w", row.ID, err)
	}
	// columns win over the document, they are what queries filter on
	doc.ID = row.ID
	doc.Type = row.Type
	doc.ClassID = row.ClassID
	doc.ZIndex = int(row.ZIndex)
	doc.Kind = domain.Kind(row.Kind)
	return decodeAnnotation(r.registry, doc)
}

// Verify that AnnotationRepository implements domain.AnnotationRepository
var _ domain.AnnotationRepository = (*AnnotationRepository)(nil)
