package analyzer

import "image"

// Masker derives a trail silhouette for a pose that has no mask layer.
type Masker interface {
	Mask(frame *image.RGBA) *image.RGBA
}
