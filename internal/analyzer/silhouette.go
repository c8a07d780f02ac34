package analyzer

import (
	"image"
	"image/color"
)

// AlphaMasker turns every visible pixel of a pose into a solid silhouette.
type AlphaMasker struct {
	Color     color.RGBA // silhouette colour, alpha is taken from the frame
	Threshold uint8      // pixels with alpha at or below this are ignored
}

// NewAlphaMasker creates a black silhouette masker
func NewAlphaMasker() *AlphaMasker {
	return &AlphaMasker{
		Color:     color.RGBA{0, 0, 0, 255},
		Threshold: 0,
	}
}

func (m *AlphaMasker) Mask(frame *image.RGBA) *image.RGBA {
	return paint(coverage(frame, m.Threshold), m.Color)
}

// OutlineMasker grows the silhouette so the trail reads as a halo around the pose.
type OutlineMasker struct {
	Color      color.RGBA
	KernelSize int // dilation kernel, odd
	Iterations int
}

// NewOutlineMasker creates an outline masker with default settings
func NewOutlineMasker() *OutlineMasker {
	return &OutlineMasker{
		Color:      color.RGBA{0, 0, 0, 255},
		KernelSize: 3,
		Iterations: 2,
	}
}

func (m *OutlineMasker) Mask(frame *image.RGBA) *image.RGBA {
	return paint(dilate(coverage(frame, 0), m.KernelSize, m.Iterations), m.Color)
}

// coverage extracts the alpha channel, dropping pixels at or below threshold
func coverage(img *image.RGBA, threshold uint8) *image.Alpha {
	bounds := img.Bounds()
	a := image.NewAlpha(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := img.RGBAAt(x, y).A
			if v > threshold {
				a.SetAlpha(x, y, color.Alpha{A: v})
			}
		}
	}

	return a
}

// dilate performs morphological dilation of the coverage
func dilate(img *image.Alpha, kernelSize, iterations int) *image.Alpha {
	bounds := img.Bounds()
	result := image.NewAlpha(bounds)
	copy(result.Pix, img.Pix)

	half := kernelSize / 2

	for iter := 0; iter < iterations; iter++ {
		temp := image.NewAlpha(bounds)

		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				maxVal := uint8(0)

				// Neighbourhood clipped to the image
				for ky := -half; ky <= half; ky++ {
					for kx := -half; kx <= half; kx++ {
						p := image.Pt(x+kx, y+ky)
						if !p.In(bounds) {
							continue
						}
						if val := result.AlphaAt(p.X, p.Y).A; val > maxVal {
							maxVal = val
						}
					}
				}

				temp.SetAlpha(x, y, color.Alpha{A: maxVal})
			}
		}

		result = temp
	}

	return result
}

// paint fills the coverage with a colour, keeping coverage as alpha
func paint(a *image.Alpha, c color.RGBA) *image.RGBA {
	bounds := a.Bounds()
	out := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := a.AlphaAt(x, y).A
			if v == 0 {
				continue
			}
			// premultiplied
			out.SetRGBA(x, y, color.RGBA{
				R: uint8(uint32(c.R) * uint32(v) / 255),
				G: uint8(uint32(c.G) * uint32(v) / 255),
				B: uint8(uint32(c.B) * uint32(v) / 255),
				A: v,
			})
		}
	}

	return out
}
