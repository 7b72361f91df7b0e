package domain

import "math"

// Annotation type tags
const (
	TypePolygon     = "polygon"
	TypeBoundingBox = "bounding_box"
	TypeMask        = "mask"
	TypeText        = "text"
	TypeInstanceID  = "instance_id"
)

// Data is the type tagged payload of an annotation or of a single keyframe
type Data interface {
	DataType() string
	Clone() Data
}

// Point is a vertex in image coordinates
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is an axis aligned rectangle in image coordinates
type BoundingBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Empty reports whether the box has no area
func (b BoundingBox) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Union returns the smallest box containing b and o. Empty boxes are ignored.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	x0 := math.Min(b.X, o.X)
	y0 := math.Min(b.Y, o.Y)
	x1 := math.Max(b.X+b.W, o.X+o.W)
	y1 := math.Max(b.Y+b.H, o.Y+o.H)
	return BoundingBox{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// BoundingBoxOf returns the box enclosing every point of path
func BoundingBoxOf(path []Point) BoundingBox {
	if len(path) == 0 {
		return BoundingBox{}
	}
	minX, minY := path[0].X, path[0].Y
	maxX, maxY := minX, minY
	for _, p := range path[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return BoundingBox{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// PolygonData is a closed path
type PolygonData struct {
	Path []Point `json:"path"`
}

func (d *PolygonData) DataType() string { return TypePolygon }

func (d *PolygonData) Clone() Data {
	return &PolygonData{Path: append([]Point(nil), d.Path...)}
}

// BoundingBoxData is a box annotation
type BoundingBoxData struct {
	BoundingBox
}

func (d *BoundingBoxData) DataType() string { return TypeBoundingBox }

func (d *BoundingBoxData) Clone() Data {
	c := *d
	return &c
}

// MaskData refers to the pixels of a raster labeled for the annotation.
// BoundingBox covers the region of the raster the mask occupies.
type MaskData struct {
	RasterID    string      `json:"raster_id"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

func (d *MaskData) DataType() string { return TypeMask }

func (d *MaskData) Clone() Data {
	c := *d
	return &c
}

// TextData is a free text value, usually a sub-annotation
type TextData struct {
	Text string `json:"text"`
}

func (d *TextData) DataType() string { return TypeText }

func (d *TextData) Clone() Data {
	c := *d
	return &c
}

// InstanceIDData identifies the tracked object instance, usually a sub-annotation
type InstanceIDData struct {
	Value int64 `json:"value"`
}

func (d *InstanceIDData) DataType() string { return TypeInstanceID }

func (d *InstanceIDData) Clone() Data {
	c := *d
	return &c
}
