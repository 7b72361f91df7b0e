package annotation

import (
	"crypto/sha256"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path"

	"github.com/go-git/go-billy/v6"
	"github.com/google/uuid"

	"github.com/lewtec/rotulador-editor/internal/domain"
	"github.com/lewtec/rotulador-editor/internal/frames"
)

func DecodeImage(fs billy.Filesystem, filepath string) (image.Image, error) {
	return frames.DecodeFile(fs, filepath)
}

// MaskImage returns the label buffer of r as a 16 bit grayscale image.
// Pixel values are label indices.
func MaskImage(r *domain.Raster) *image.Gray16 {
	img := image.NewGray16(r.Bounds())
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: r.At(x, y)})
		}
	}
	return img
}

// ExportMask writes the raster as a PNG in outputDir, named by the sha256 of
// the encoded file, and returns that name
func ExportMask(fs billy.Filesystem, r *domain.Raster, outputDir string) (string, error) {
	if err := fs.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("while creating '%s': %w", outputDir, err)
	}
	tempFile := path.Join(outputDir, fmt.Sprintf("%s.png", uuid.New()))
	f, err := fs.Create(tempFile)
	if err != nil {
		return "", err
	}
	hasher := sha256.New()
	w := io.MultiWriter(f, hasher)
	err = png.Encode(w, MaskImage(r))
	if err != nil {
		f.Close()
		fs.Remove(tempFile)
		return "", err
	}
	err = f.Close()
	if err != nil {
		return "", err
	}
	name := path.Join(outputDir, fmt.Sprintf("%x.png", hasher.Sum(nil)))
	err = fs.Rename(tempFile, name)
	if err != nil {
		fs.Remove(tempFile)
		return "", err
	}
	return name, nil
}
