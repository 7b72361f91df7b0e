package renderer

import "github.com/lewtec/rotulador-editor/internal/domain"

// Polygon renders closed paths. Keyframes with the same vertex count are
// blended vertex by vertex.
type Polygon struct{}

func (Polygon) Type() string { return domain.TypePolygon }

func (Polygon) BoundingBox(d domain.Data) (domain.BoundingBox, bool) {
	p, ok := d.(*domain.PolygonData)
	if !ok || len(p.Path) == 0 {
		return domain.BoundingBox{}, false
	}
	return domain.BoundingBoxOf(p.Path), true
}

func (Polygon) Path(d domain.Data) []domain.Point {
	if p, ok := d.(*domain.PolygonData); ok {
		return p.Path
	}
	return nil
}

func (Polygon) Interpolate(prev, next domain.Data, params InterpolationParams) domain.Data {
	a, okA := prev.(*domain.PolygonData)
	b, okB := next.(*domain.PolygonData)
	if !okA || !okB || len(a.Path) != len(b.Path) {
		return prev.Clone()
	}
	path := make([]domain.Point, len(a.Path))
	for i := range a.Path {
		path[i] = domain.Point{
			X: lerp(a.Path[i].X, b.Path[i].X, params.Ratio),
			Y: lerp(a.Path[i].Y, b.Path[i].Y, params.Ratio),
		}
	}
	return &domain.PolygonData{Path: path}
}

func (Polygon) Decode(raw []byte) (domain.Data, error) {
	return decodeInto[domain.PolygonData](raw)
}

// BoundingBox renders axis aligned boxes
type BoundingBox struct{}

func (BoundingBox) Type() string { return domain.TypeBoundingBox }

func (BoundingBox) BoundingBox(d domain.Data) (domain.BoundingBox, bool) {
	b, ok := d.(*domain.BoundingBoxData)
	if !ok {
		return domain.BoundingBox{}, false
	}
	return b.BoundingBox, true
}

func (BoundingBox) Path(d domain.Data) []domain.Point {
	b, ok := d.(*domain.BoundingBoxData)
	if !ok {
		return nil
	}
	return []domain.Point{
		{X: b.X, Y: b.Y},
		{X: b.X + b.W, Y: b.Y},
		{X: b.X + b.W, Y: b.Y + b.H},
		{X: b.X, Y: b.Y + b.H},
	}
}

func (BoundingBox) Interpolate(prev, next domain.Data, params InterpolationParams) domain.Data {
	a, okA := prev.(*domain.BoundingBoxData)
	b, okB := next.(*domain.BoundingBoxData)
	if !okA || !okB {
		return prev.Clone()
	}
	t := params.Ratio
	return &domain.BoundingBoxData{BoundingBox: domain.BoundingBox{
		X: lerp(a.X, b.X, t),
		Y: lerp(a.Y, b.Y, t),
		W: lerp(a.W, b.W, t),
		H: lerp(a.H, b.H, t),
	}}
}

func (BoundingBox) Decode(raw []byte) (domain.Data, error) {
	return decodeInto[domain.BoundingBoxData](raw)
}

// Mask renders raster masks through their stored bounding box
type Mask struct{}

func (Mask) Type() string { return domain.TypeMask }

func (Mask) BoundingBox(d domain.Data) (domain.BoundingBox, bool) {
	m, ok := d.(*domain.MaskData)
	if !ok || m.BoundingBox.Empty() {
		return domain.BoundingBox{}, false
	}
	return m.BoundingBox, true
}

func (m Mask) Path(d domain.Data) []domain.Point {
	box, ok := m.BoundingBox(d)
	if !ok {
		return nil
	}
	return BoundingBox{}.Path(&domain.BoundingBoxData{BoundingBox: box})
}

func (Mask) Interpolate(prev, _ domain.Data, _ InterpolationParams) domain.Data {
	return prev.Clone()
}

func (Mask) Decode(raw []byte) (domain.Data, error) {
	return decodeInto[domain.MaskData](raw)
}

// Text holds values, it has no geometry
type Text struct{}

func (Text) Type() string { return domain.TypeText }

func (Text) BoundingBox(domain.Data) (domain.BoundingBox, bool) { return domain.BoundingBox{}, false }

func (Text) Path(domain.Data) []domain.Point { return nil }

func (Text) Interpolate(prev, _ domain.Data, _ InterpolationParams) domain.Data {
	return prev.Clone()
}

func (Text) Decode(raw []byte) (domain.Data, error) {
	return decodeInto[domain.TextData](raw)
}

// InstanceID holds tracking ids, it has no geometry
type InstanceID struct{}

func (InstanceID) Type() string { return domain.TypeInstanceID }

func (InstanceID) BoundingBox(domain.Data) (domain.BoundingBox, bool) {
	return domain.BoundingBox{}, false
}

func (InstanceID) Path(domain.Data) []domain.Point { return nil }

func (InstanceID) Interpolate(prev, _ domain.Data, _ InterpolationParams) domain.Data {
	return prev.Clone()
}

func (InstanceID) Decode(raw []byte) (domain.Data, error) {
	return decodeInto[domain.InstanceIDData](raw)
}
