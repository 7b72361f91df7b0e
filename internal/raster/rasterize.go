// Package raster paints vector shapes into the label buffer of a view and
// keeps the mask annotations owning those labels consistent.
package raster

import (
	"image"
	"math"

	"golang.org/x/image/vector"

	"github.com/lewtec/rotulador-editor/internal/domain"
)

// coverageThreshold is the alpha at which a pixel counts as inside the polygon
const coverageThreshold = 0x80

// rasterizePolygon returns the pixel rectangle enclosing polygon, clipped to
// bounds, and the coverage of the polygon over that rectangle
func rasterizePolygon(polygon []domain.Point, bounds image.Rectangle) (image.Rectangle, *image.Alpha) {
	if len(polygon) < 3 {
		return image.Rectangle{}, nil
	}
	box := domain.BoundingBoxOf(polygon)
	rect := image.Rect(
		int(math.Floor(box.X)), int(math.Floor(box.Y)),
		int(math.Ceil(box.X+box.W)), int(math.Ceil(box.Y+box.H)),
	).Intersect(bounds)
	if rect.Empty() {
		return image.Rectangle{}, nil
	}

	z := vector.NewRasterizer(rect.Dx(), rect.Dy())
	ox, oy := float64(rect.Min.X), float64(rect.Min.Y)
	z.MoveTo(float32(polygon[0].X-ox), float32(polygon[0].Y-oy))
	for _, p := range polygon[1:] {
		z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	z.ClosePath()

	cover := image.NewAlpha(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	z.Draw(cover, cover.Bounds(), image.Opaque, image.Point{})
	return rect, cover
}

// BoundingBoxOfRect converts a pixel rectangle to image coordinates
func BoundingBoxOfRect(r image.Rectangle) domain.BoundingBox {
	if r.Empty() {
		return domain.BoundingBox{}
	}
	return domain.BoundingBox{
		X: float64(r.Min.X),
		Y: float64(r.Min.Y),
		W: float64(r.Dx()),
		H: float64(r.Dy()),
	}
}
