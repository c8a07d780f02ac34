package canvas

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// CropBox is an axis-aligned rectangle in scene coordinates.
type CropBox struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w"`
	H int `yaml:"h"`
}

// Rect returns the (left, top, right, bottom) box.
func (c CropBox) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.W, c.Y+c.H)
}

// Region is the part of a source image that lands on a target after clipping.
type Region struct {
	Dst image.Rectangle // target coordinates
	Src image.Point     // top-left of the copied area in source-local coordinates
}

// Empty reports whether compositing the region would touch no pixels.
func (r Region) Empty() bool {
	return r.Dst.Empty()
}

// Clip intersects the paint rectangle of an image of the given size placed at
// `at` with the crop box (nil means the whole plane) and the target bounds.
func Clip(at image.Point, size image.Point, crop *CropBox, bounds image.Rectangle) Region {
	paint := image.Rectangle{Min: at, Max: at.Add(size)}
	if crop != nil {
		paint = paint.Intersect(crop.Rect())
	}
	paint = paint.Intersect(bounds)
	if paint.Empty() {
		return Region{}
	}
	return Region{Dst: paint, Src: paint.Min.Sub(at)}
}

// Composite alpha-composites the clipped part of src over dst.
// An empty region leaves dst untouched and returns false.
func Composite(dst draw.Image, src image.Image, r Region) bool {
	if r.Empty() {
		return false
	}
	draw.Draw(dst, r.Dst, src, src.Bounds().Min.Add(r.Src), draw.Over)
	return true
}

// Over composites src over dst with both anchored at their top-left corners.
func Over(dst draw.Image, src image.Image) {
	b := dst.Bounds()
	draw.Draw(dst, b, src, src.Bounds().Min, draw.Over)
}

// PasteMasked replaces dst with src in proportion to the mask coverage:
// dst = src*m + dst*(1-m).
func PasteMasked(dst draw.Image, src image.Image, mask image.Image) {
	b := dst.Bounds()
	draw.DrawMask(dst, b, src, src.Bounds().Min, mask, mask.Bounds().Min, draw.Src)
}

// Fade blends src toward fully transparent black. Every channel, alpha
// included, is scaled by weight; weight 1 keeps the image, 0 erases it.
func Fade(src image.Image, weight float64) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(b)
	if weight <= 0 {
		return out
	}
	if weight > 1 {
		weight = 1
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			out.SetNRGBA(x, y, color.NRGBA{
				R: scale(c.R, weight),
				G: scale(c.G, weight),
				B: scale(c.B, weight),
				A: scale(c.A, weight),
			})
		}
	}
	return out
}

func scale(v uint8, w float64) uint8 {
	return uint8(float64(v) * w)
}

// Clone copies src into a fresh RGBA image with the same bounds.
func Clone(src image.Image) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, src, b.Min, draw.Src)
	return out
}

// ToRGBA returns src itself when it already is an *image.RGBA.
func ToRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	return Clone(src)
}

// Crop cuts box out of src into a new image anchored at the origin.
// Parts of the box outside src stay transparent.
func Crop(src image.Image, box CropBox) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, box.W, box.H))
	draw.Draw(out, out.Bounds(), src, box.Rect().Min, draw.Src)
	return out
}

// ResizeWidth scales src to the given width, keeping the aspect ratio.
// The height is truncated.
func ResizeWidth(src image.Image, width int) *image.RGBA {
	b := src.Bounds()
	if b.Dx() == 0 {
		return image.NewRGBA(image.Rectangle{})
	}
	height := b.Dy() * width / b.Dx()
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(out, out.Bounds(), src, b, draw.Src, nil)
	return out
}

// Clear makes every pixel of img fully transparent.
func Clear(img *image.RGBA) {
	for i := range img.Pix {
		img.Pix[i] = 0
	}
}
