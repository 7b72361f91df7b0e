package domain

import (
	"image"
	"maps"

	"github.com/google/uuid"
)

// Raster is a per-pixel label index buffer shared by every mask annotation
// of a view. Label 0 is background.
type Raster struct {
	ID     string
	Width  int
	Height int
	Buffer []uint16

	labelToAnnotation map[uint16]string
	annotationToLabel map[string]uint16
	invalidated       image.Rectangle
}

// NewRaster allocates an empty width*height raster
func NewRaster(width, height int) *Raster {
	return &Raster{
		ID:                uuid.NewString(),
		Width:             width,
		Height:            height,
		Buffer:            make([]uint16, width*height),
		labelToAnnotation: map[uint16]string{},
		annotationToLabel: map[string]uint16{},
	}
}

// Bounds is the pixel rectangle covered by the raster
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// At returns the label of pixel (x, y)
func (r *Raster) At(x, y int) uint16 {
	return r.Buffer[y*r.Width+x]
}

// GetLabelIndexForAnnotationID returns the label owned by an annotation
func (r *Raster) GetLabelIndexForAnnotationID(id string) (uint16, bool) {
	l, ok := r.annotationToLabel[id]
	return l, ok
}

// AnnotationIDForLabel returns the annotation owning a label
func (r *Raster) AnnotationIDForLabel(label uint16) (string, bool) {
	id, ok := r.labelToAnnotation[label]
	return id, ok
}

// GetNextAvailableLabelIndex returns the lowest label not referenced by any
// annotation, so labels vacated by erasure are reused first
func (r *Raster) GetNextAvailableLabelIndex() (uint16, error) {
	for l := 1; l <= 0xffff; l++ {
		if _, used := r.labelToAnnotation[uint16(l)]; !used {
			return uint16(l), nil
		}
	}
	return 0, ErrRasterFull
}

// AssignLabel binds label to an annotation, dropping any previous binding of either side
func (r *Raster) AssignLabel(label uint16, annotationID string) {
	if old, ok := r.annotationToLabel[annotationID]; ok {
		delete(r.labelToAnnotation, old)
	}
	if old, ok := r.labelToAnnotation[label]; ok {
		delete(r.annotationToLabel, old)
	}
	r.labelToAnnotation[label] = annotationID
	r.annotationToLabel[annotationID] = label
}

// ReleaseLabel frees a label for reuse
func (r *Raster) ReleaseLabel(label uint16) {
	if id, ok := r.labelToAnnotation[label]; ok {
		delete(r.annotationToLabel, id)
	}
	delete(r.labelToAnnotation, label)
}

// Labels returns a copy of the label table
func (r *Raster) Labels() map[uint16]string {
	return maps.Clone(r.labelToAnnotation)
}

// SetLabels replaces the label table
func (r *Raster) SetLabels(labels map[uint16]string) {
	r.labelToAnnotation = make(map[uint16]string, len(labels))
	r.annotationToLabel = make(map[string]uint16, len(labels))
	for l, id := range labels {
		r.labelToAnnotation[l] = id
		r.annotationToLabel[id] = l
	}
}

// CountPixels counts the pixels holding label
func (r *Raster) CountPixels(label uint16) int {
	n := 0
	for _, v := range r.Buffer {
		if v == label {
			n++
		}
	}
	return n
}

// Region copies the labels inside rect, row by row
func (r *Raster) Region(rect image.Rectangle) []uint16 {
	rect = rect.Intersect(r.Bounds())
	out := make([]uint16, 0, rect.Dx()*rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := y * r.Width
		out = append(out, r.Buffer[row+rect.Min.X:row+rect.Max.X]...)
	}
	return out
}

// SetRegion writes back labels previously read with Region and invalidates rect
func (r *Raster) SetRegion(rect image.Rectangle, pixels []uint16) {
	rect = rect.Intersect(r.Bounds())
	w := rect.Dx()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := y * r.Width
		off := (y - rect.Min.Y) * w
		copy(r.Buffer[row+rect.Min.X:row+rect.Max.X], pixels[off:off+w])
	}
	r.Invalidate(rect)
}

// Invalidate marks rect as needing a redraw
func (r *Raster) Invalidate(rect image.Rectangle) {
	r.invalidated = r.invalidated.Union(rect.Intersect(r.Bounds()))
}

// TakeInvalidated returns the accumulated dirty rectangle and resets it
func (r *Raster) TakeInvalidated() image.Rectangle {
	rect := r.invalidated
	r.invalidated = image.Rectangle{}
	return rect
}
