package preview

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Still is one image shown by the viewer.
type Still struct {
	Label string
	Image image.Image
}

// Viewer is a small window flipping between the exported stills.
// Left/Right switch the still, Q or Escape closes the window.
type Viewer struct {
	stills  []Still
	images  []*ebiten.Image
	current int
	width   int
	height  int
}

func NewViewer(stills ...Still) *Viewer {
	v := &Viewer{stills: stills, images: make([]*ebiten.Image, len(stills))}
	for _, s := range stills {
		b := s.Image.Bounds()
		v.width = max(v.width, b.Dx())
		v.height = max(v.height, b.Dy())
	}
	return v
}

// Current returns the index of the still on screen.
func (v *Viewer) Current() int { return v.current }

// step moves the selection; returns ebiten.Termination when quit is set.
func (v *Viewer) step(prev, next, quit bool) error {
	if quit {
		return ebiten.Termination
	}
	if len(v.stills) == 0 {
		return nil
	}
	if next {
		v.current = (v.current + 1) % len(v.stills)
	}
	if prev {
		v.current = (v.current - 1 + len(v.stills)) % len(v.stills)
	}
	return nil
}

func (v *Viewer) Update() error {
	return v.step(
		inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft),
		inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) || inpututil.IsKeyJustPressed(ebiten.KeySpace),
		inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape),
	)
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	if len(v.stills) == 0 {
		ebitenutil.DebugPrintAt(screen, "nothing to show", 10, 10)
		return
	}
	if v.images[v.current] == nil {
		v.images[v.current] = ebiten.NewImageFromImage(v.stills[v.current].Image)
	}
	screen.DrawImage(v.images[v.current], nil)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s (%d/%d)", v.stills[v.current].Label, v.current+1, len(v.stills)), 10, 10)
}

func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	if v.width == 0 || v.height == 0 {
		return 320, 240
	}
	return v.width, v.height
}

// Show opens the preview window and blocks until it is closed.
func Show(title string, stills ...Still) error {
	v := NewViewer(stills...)
	w, h := v.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(title)
	if err := ebiten.RunGame(v); err != nil && err != ebiten.Termination {
		return err
	}
	return nil
}
