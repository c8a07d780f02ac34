package source

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI renders one PDF point as one pixel.
const DefaultDPI = 72

// Source is a layered document: an ordered set of named raster layers.
type Source interface {
	LayerCount() int
	LayerName(index int) string
	RenderLayer(index int) (image.Image, error)
	Close() error
}

// FitzPDFSource reads a PDF where every page is a layer. Pages are named by the
// outline entry pointing at them.
type FitzPDFSource struct {
	doc   *fitz.Document
	path  string
	dpi   int
	names map[int]string
}

func NewFitzPDFSource(path string, dpi int) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}

	names := make(map[int]string)
	outline, err := doc.ToC()
	if err == nil {
		for _, o := range outline {
			if _, taken := names[o.Page]; !taken && o.Title != "" {
				names[o.Page] = o.Title
			}
		}
	}

	return &FitzPDFSource{doc: doc, path: path, dpi: dpi, names: names}, nil
}

func (f *FitzPDFSource) LayerCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) LayerName(index int) string {
	if name, ok := f.names[index]; ok {
		return name
	}
	return fmt.Sprintf("page%d", index)
}

// RenderLayer rasterises a page. MuPDF renders onto white, so pure white is
// keyed out to transparent.
func (f *FitzPDFSource) RenderLayer(index int) (image.Image, error) {
	img, err := f.doc.ImageDPI(index, float64(f.dpi))
	if err != nil {
		return nil, err
	}
	knockoutWhite(img)
	return img, nil
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

func knockoutWhite(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y) == (color.RGBA{255, 255, 255, 255}) {
				img.SetRGBA(x, y, color.RGBA{})
			}
		}
	}
}
