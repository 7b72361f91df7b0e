package frames

import (
	"cmp"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"slices"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// FileSource loads a frame stored as an image file. When LowQualityPath is
// set and the high quality file can not be read, the low quality file is used.
type FileSource struct {
	FS             billy.Filesystem
	Path           string
	LowQualityPath string
}

// LoadFrame decodes the frame file
func (s FileSource) LoadFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := DecodeFile(s.FS, s.Path)
	if err != nil && s.LowQualityPath != "" {
		return DecodeFile(s.FS, s.LowQualityPath)
	}
	return img, err
}

// DecodeFile decodes any registered image format
func DecodeFile(fs billy.Filesystem, filename string) (image.Image, error) {
	f, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes any registered image format
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

// SourcesFromGlob maps every file matching pattern to a frame index. Shorter
// base names sort first so frame_2 comes before frame_10.
func SourcesFromGlob(fs billy.Filesystem, pattern string) (map[int]Source, error) {
	matches, err := util.Glob(fs, pattern)
	if err != nil {
		return nil, fmt.Errorf("while listing frames matching '%s': %w", pattern, err)
	}
	slices.SortFunc(matches, func(a, b string) int {
		if c := cmp.Compare(len(path.Base(a)), len(path.Base(b))); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	sources := make(map[int]Source, len(matches))
	for i, m := range matches {
		sources[i] = FileSource{FS: fs, Path: m}
	}
	return sources, nil
}
