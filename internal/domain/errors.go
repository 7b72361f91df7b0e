package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrNotVideoAnnotation     = errors.New("annotation is not a video annotation")
	ErrNotImageAnnotation     = errors.New("annotation is not an image annotation")
	ErrNoVideoLoaded          = errors.New("view has no video loaded")
	ErrSegmentIndexOutOfRange = errors.New("segment index out of range")
	ErrUnknownAnnotationType  = errors.New("unknown annotation type")
	ErrRasterFull             = errors.New("raster has no free label index")

	// ErrKeyframesOutOfRangeBothWays means a single translation pushed keyframes
	// below the first frame and past the last one at once. Callers can not build
	// such a drag, so it is a bug.
	ErrKeyframesOutOfRangeBothWays = errors.New("keyframes moved out of range in both directions")
)
