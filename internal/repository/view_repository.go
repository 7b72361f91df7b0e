package repository

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lewtec/rotulador-editor/internal/domain"
)

// ViewRepository implements domain.ViewRepository on sqlite
type ViewRepository struct {
	queries *Queries
}

// NewViewRepository creates a new ViewRepository
func NewViewRepository(db *sql.DB) *ViewRepository {
	return &ViewRepository{queries: New(db)}
}

// NewViewRepositoryWithTx creates a new ViewRepository with a transaction
func NewViewRepositoryWithTx(tx *sql.Tx) *ViewRepository {
	return &ViewRepository{queries: New(tx)}
}

// Create stores a new view
func (r *ViewRepository) Create(ctx context.Context, view *domain.View) error {
	err := r.queries.CreateView(ctx, viewRow{
		ID:              view.ID,
		Width:           int64(view.Width),
		Height:          int64(view.Height),
		TotalFrames:     int64(view.TotalFrames),
		FirstFrameIndex: int64(view.FirstFrameIndex),
		CreatedAt:       view.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("while inserting view %s: %w", view.ID, err)
	}
	return nil
}

// Get retrieves a view by its ID
func (r *ViewRepository) Get(ctx context.Context, id string) (*domain.View, error) {
	row, err := r.queries.GetView(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return toDomainView(row), nil
}

// List retrieves all views
func (r *ViewRepository) List(ctx context.Context) ([]*domain.View, error) {
	rows, err := r.queries.ListViews(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.View, len(rows))
	for i, row := range rows {
		result[i] = toDomainView(row)
	}
	return result, nil
}

// Delete removes a view by ID, its annotations and raster with it
func (r *ViewRepository) Delete(ctx context.Context, id string) error {
	return r.queries.DeleteView(ctx, id)
}

// SaveRaster stores the label buffer and label table of a view
func (r *ViewRepository) SaveRaster(ctx context.Context, viewID string, raster *domain.Raster) error {
	buf := make([]byte, 2*len(raster.Buffer))
	for i, v := range raster.Buffer {
		binary.LittleEndian.PutUint16(buf[2*i:], v)
	}
	labels, err := json.Marshal(raster.Labels())
	if err != nil {
		return fmt.Errorf("while encoding labels of raster %s: %w", raster.ID, err)
	}
	err = r.queries.UpsertRaster(ctx, rasterRow{
		ViewID: viewID,
		ID:     raster.ID,
		Width:  int64(raster.Width),
		Height: int64(raster.Height),
		Buffer: buf,
		Labels: string(labels),
	})
	if err != nil {
		return fmt.Errorf("while saving raster of view %s: %w", viewID, err)
	}
	return nil
}

// LoadRaster retrieves the raster of a view, nil when it was never saved
func (r *ViewRepository) LoadRaster(ctx context.Context, viewID string) (*domain.Raster, error) {
	row, err := r.queries.GetRaster(ctx, viewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	raster := domain.NewRaster(int(row.Width), int(row.Height))
	raster.ID = row.ID
	if len(row.Buffer) != 2*len(raster.Buffer) {
		return nil, fmt.Errorf("while loading raster of view %s: buffer has %d bytes, want %d", viewID, len(row.Buffer), 2*len(raster.Buffer))
	}
	for i := range raster.Buffer {
		raster.Buffer[i] = binary.LittleEndian.Uint16(row.Buffer[2*i:])
	}
	var labels map[uint16]string
	if err := json.Unmarshal([]byte(row.Labels), &labels); err != nil {
		return nil, fmt.Errorf("while parsing labels of raster %s: %w", row.ID, err)
	}
	raster.SetLabels(labels)
	return raster, nil
}

// toDomainView converts a stored row to domain.View
func toDomainView(row viewRow) *domain.View {
	return &domain.View{
		ID:              row.ID,
		Width:           int(row.Width),
		Height:          int(row.Height),
		TotalFrames:     int(row.TotalFrames),
		FirstFrameIndex: int(row.FirstFrameIndex),
		CreatedAt:       row.CreatedAt,
	}
}

// Verify that ViewRepository implements domain.ViewRepository
var _ domain.ViewRepository = (*ViewRepository)(nil)
