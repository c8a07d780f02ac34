package effects

import (
	"fmt"
	"image"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

// Effect post-processes an exported still in place.
type Effect interface {
	Apply(img *image.RGBA) error
}

// QRStamp paints a QR code at a fixed position, e.g. a link back to the page
// the animation belongs to.
type QRStamp struct {
	Text string
	Size int
	At   image.Point
}

func NewQRStamp(text string, size int, at image.Point) *QRStamp {
	return &QRStamp{Text: text, Size: size, At: at}
}

func (e *QRStamp) Apply(img *image.RGBA) error {
	q, err := qrcode.New(e.Text, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr: %w", err)
	}
	code := q.Image(e.Size)
	r := image.Rectangle{Min: e.At, Max: e.At.Add(code.Bounds().Size())}
	draw.Draw(img, r, code, code.Bounds().Min, draw.Src)
	return nil
}

// Chain applies effects in order and stops at the first error.
type Chain []Effect

func (c Chain) Apply(img *image.RGBA) error {
	for _, e := range c {
		if err := e.Apply(img); err != nil {
			return err
		}
	}
	return nil
}
