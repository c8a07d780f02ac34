package video

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
)

// GIFEncoder writes a looping animated GIF.
//
// Sequences with at most 256 distinct colours are stored losslessly with one
// shared palette. Anything richer is dithered onto the Plan9 palette, which
// is lossy.
type GIFEncoder struct{}

func (e *GIFEncoder) EncodeAnimation(ctx context.Context, frames []*image.RGBA, path string, delay time.Duration) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}

	g := &gif.GIF{
		Image:     Palettize(frames),
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
	}
	for i := range g.Delay {
		g.Delay[i] = int(delay / (10 * time.Millisecond))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gif.EncodeAll(f, g); err != nil {
		f.Close()
		return fmt.Errorf("gif encode: %w", err)
	}
	return f.Close()
}

// Palettize converts frames to paletted images for GIF encoding.
func Palettize(frames []*image.RGBA) []*image.Paletted {
	out := make([]*image.Paletted, len(frames))

	if pal, index := exactPalette(frames, 256); pal != nil {
		for i, f := range frames {
			b := f.Bounds()
			p := image.NewPaletted(b, pal)
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					p.SetColorIndex(x, y, index[f.RGBAAt(x, y)])
				}
			}
			out[i] = p
		}
		return out
	}

	for i, f := range frames {
		p := image.NewPaletted(f.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(p, f.Bounds(), f, f.Bounds().Min)
		out[i] = p
	}
	return out
}

// exactPalette collects the distinct colours of all frames, giving up once
// there are more than limit.
func exactPalette(frames []*image.RGBA, limit int) (color.Palette, map[color.RGBA]uint8) {
	index := make(map[color.RGBA]uint8)
	var pal color.Palette

	for _, f := range frames {
		b := f.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := f.RGBAAt(x, y)
				if _, ok := index[c]; ok {
					continue
				}
				if len(pal) == limit {
					return nil, nil
				}
				index[c] = uint8(len(pal))
				pal = append(pal, c)
			}
		}
	}
	return pal, index
}

// WritePNG saves a still frame.
func WritePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
