package effects

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestQRStamp(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}

	stamp := NewQRStamp("https://example.org/page8", 64, image.Pt(100, 100))
	if err := stamp.Apply(img); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// quiet zone is white, the rest of the canvas untouched
	if got := img.RGBAAt(100, 100); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("corner of code = %v", got)
	}
	if got := img.RGBAAt(99, 99); got != (color.RGBA{0x80, 0x80, 0x80, 0x80}) {
		t.Errorf("pixel outside code changed: %v", got)
	}

	dark := 0
	for y := 100; y < 164; y++ {
		for x := 100; x < 164; x++ {
			if img.RGBAAt(x, y).R == 0 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("no dark modules painted")
	}
}

type failing struct{ calls *int }

func (f failing) Apply(img *image.RGBA) error {
	*f.calls++
	return errors.New("boom")
}

func TestChainStopsOnError(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	calls := 0
	chain := Chain{failing{&calls}, failing{&calls}}
	if err := chain.Apply(img); err == nil {
		t.Error("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
