package repository

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the statements used by the repositories
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type viewRow struct {
	ID              string
	Width           int64
	Height          int64
	TotalFrames     int64
	FirstFrameIndex int64
	CreatedAt       time.Time
}

type annotationRow struct {
	ID      string
	ViewID  string
	Type    string
	ClassID int64
	ZIndex  int64
	Kind    int64
	Payload string
}

type rasterRow struct {
	ViewID string
	ID     string
	Width  int64
	Height int64
	Buffer []byte
	Labels string
}

const createView = `
INSERT INTO views (id, width, height, total_frames, first_frame_index, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateView(ctx context.Context, v viewRow) error {
	_, err := q.db.ExecContext(ctx, createView, v.ID, v.Width, v.Height, v.TotalFrames, v.FirstFrameIndex, v.CreatedAt)
	return err
}

const getView = `
SELECT id, width, height, total_frames, first_frame_index, created_at
FROM views WHERE id = ?
`

func (q *Queries) GetView(ctx context.Context, id string) (viewRow, error) {
	var v viewRow
	err := q.db.QueryRowContext(ctx, getView, id).Scan(&v.ID, &v.Width, &v.Height, &v.TotalFrames, &v.FirstFrameIndex, &v.CreatedAt)
	return v, err
}

const listViews = `
SELECT id, width, height, total_frames, first_frame_index, created_at
FROM views ORDER BY created_at, id
`

func (q *Queries) ListViews(ctx context.Context) ([]viewRow, error) {
	rows, err := q.db.QueryContext(ctx, listViews)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []viewRow
	for rows.Next() {
		var v viewRow
		if err := rows.Scan(&v.ID, &v.Width, &v.Height, &v.TotalFrames, &v.FirstFrameIndex, &v.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

const deleteView = `DELETE FROM views WHERE id = ?`

func (q *Queries) DeleteView(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteView, id)
	return err
}

const createAnnotation = `
INSERT INTO annotations (id, view_id, type, class_id, z_index, kind, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateAnnotation(ctx context.Context, a annotationRow) error {
	_, err := q.db.ExecContext(ctx, createAnnotation, a.ID, a.ViewID, a.Type, a.ClassID, a.ZIndex, a.Kind, a.Payload)
	return err
}

const updateAnnotation = `
UPDATE annotations
SET type = ?, class_id = ?, z_index = ?, kind = ?, payload = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND view_id = ?
`

func (q *Queries) UpdateAnnotation(ctx context.Context, a annotationRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateAnnotation, a.Type, a.ClassID, a.ZIndex, a.Kind, a.Payload, a.ID, a.ViewID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteAnnotation = `DELETE FROM annotations WHERE id = ?`

func (q *Queries) DeleteAnnotation(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteAnnotation, id)
	return err
}

const getAnnotation = `
SELECT id, view_id, type, class_id, z_index, kind, payload
FROM annotations WHERE id = ?
`

func (q *Queries) GetAnnotation(ctx context.Context, id string) (annotationRow, error) {
	var a annotationRow
	err := q.db.QueryRowContext(ctx, getAnnotation, id).Scan(&a.ID, &a.ViewID, &a.Type, &a.ClassID, &a.ZIndex, &a.Kind, &a.Payload)
	return a, err
}

const listAnnotationsForView = `
SELECT id, view_id, type, class_id, z_index, kind, payload
FROM annotations WHERE view_id = ? ORDER BY z_index, id
`

func (q *Queries) ListAnnotationsForView(ctx context.Context, viewID string) ([]annotationRow, error) {
	rows, err := q.db.QueryContext(ctx, listAnnotationsForView, viewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []annotationRow
	for rows.Next() {
		var a annotationRow
		if err := rows.Scan(&a.ID, &a.ViewID, &a.Type, &a.ClassID, &a.ZIndex, &a.Kind, &a.Payload); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const countAnnotationsByClass = `
SELECT class_id, COUNT(*) FROM annotations WHERE view_id = ? GROUP BY class_id ORDER BY class_id
`

func (q *Queries) CountAnnotationsByClass(ctx context.Context, viewID string) (map[int64]int64, error) {
	rows, err := q.db.QueryContext(ctx, countAnnotationsByClass, viewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64]int64{}
	for rows.Next() {
		var class, n int64
		if err := rows.Scan(&class, &n); err != nil {
			return nil, err
		}
		out[class] = n
	}
	return out, rows.Err()
}

const upsertRaster = `
INSERT INTO rasters (view_id, id, width, height, buffer, labels)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(view_id) DO UPDATE SET
  id = excluded.id, width = excluded.width, height = excluded.height,
  buffer = excluded.buffer, labels = excluded.labels
`

func (q *Queries) UpsertRaster(ctx context.Context, r rasterRow) error {
	_, err := q.db.ExecContext(ctx, upsertRaster, r.ViewID, r.ID, r.Width, r.Height, r.Buffer, r.Labels)
	return err
}

const getRaster = `
SELECT view_id, id, width, height, buffer, labels FROM rasters WHERE view_id = ?
`

func (q *Queries) GetRaster(ctx context.Context, viewID string) (rasterRow, error) {
	var r rasterRow
	err := q.db.QueryRowContext(ctx, getRaster, viewID).Scan(&r.ViewID, &r.ID, &r.Width, &r.Height, &r.Buffer, &r.Labels)
	return r, err
}
