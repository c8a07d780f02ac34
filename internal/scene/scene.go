// Package scene composites actors between static scene layers and assembles
// the looping frame sequence.
package scene

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/walkgif/internal/canvas"
	"github.com/ivlev/walkgif/internal/source"
	"github.com/ivlev/walkgif/internal/system"
)

// Stamper is what a scene needs from an actor.
type Stamper interface {
	StampOutline(gidx int, target draw.Image) int
	StampFrame(gidx int, target draw.Image) bool
}

// Scene holds the static layers and the sequencing policy. It is read-only
// while frames render.
type Scene struct {
	Background *image.RGBA
	Bottom     *image.RGBA
	Top        *image.RGBA

	Length      int
	Split       int
	First       int
	Crop        *canvas.CropBox
	ResizeWidth int
	Output      string

	pool *system.ImagePool
}

// Options are the sequencing and post-processing settings of a scene.
type Options struct {
	Length      int
	Split       int
	First       int
	Crop        *canvas.CropBox
	ResizeWidth int
	Output      string
}

// New builds a scene from resolved layers.
func New(layers *source.SceneLayers, opts Options) (*Scene, error) {
	if opts.Length <= 0 {
		return nil, fmt.Errorf("scene length must be positive, got %d", opts.Length)
	}
	if opts.First < 0 || opts.First >= opts.Length {
		return nil, fmt.Errorf("first frame %d outside [0, %d)", opts.First, opts.Length)
	}
	if opts.Split < 0 || opts.Split > opts.Length {
		return nil, fmt.Errorf("split %d outside [0, %d]", opts.Split, opts.Length)
	}

	return &Scene{
		Background:  layers.Background,
		Bottom:      layers.Bottom,
		Top:         layers.Top,
		Length:      opts.Length,
		Split:       opts.Split,
		First:       opts.First,
		Crop:        opts.Crop,
		ResizeWidth: opts.ResizeWidth,
		Output:      opts.Output,
		pool:        system.NewImagePool(),
	}, nil
}

// StampFrame renders global frame idx into a new canvas.
func (s *Scene) StampFrame(idx int, actors []Stamper) *image.RGBA {
	frame := canvas.Clone(s.Background)

	mask := s.pool.Get(frame.Bounds())
	for _, a := range actors {
		a.StampOutline(idx, mask)
	}
	canvas.PasteMasked(frame, s.Bottom, mask)
	s.pool.Put(mask)

	for _, a := range actors {
		a.StampFrame(idx, frame)
	}
	canvas.Over(frame, s.Top)

	return s.finish(frame)
}

func (s *Scene) finish(frame *image.RGBA) *image.RGBA {
	if s.Crop != nil {
		frame = canvas.Crop(frame, *s.Crop)
	}
	if s.ResizeWidth > 0 {
		frame = canvas.ResizeWidth(frame, s.ResizeWidth)
	}
	return frame
}

// Frames is a rendered, reordered sequence plus the stills captured before
// reordering.
type Frames struct {
	Sequence []*image.RGBA
	First    *image.RGBA
	Last     *image.RGBA
}

// MakeFrames renders every index in [0, Length) with up to workers frames in
// flight and rotates the result for seamless looping.
func (s *Scene) MakeFrames(ctx context.Context, actors []Stamper, workers int) (*Frames, error) {
	frames := make([]*image.RGBA, s.Length)

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := 0; i < s.Length; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			frames[i] = s.StampFrame(i, actors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Frames{
		Sequence: Rotate(frames, s.Split, s.First),
		First:    frames[s.First],
		Last:     frames[s.Length-1],
	}, nil
}

// Rotate returns frames[split:] followed by frames[first:split]. The second
// part is empty when first >= split.
func Rotate[T any](frames []T, split, first int) []T {
	out := make([]T, 0, len(frames))
	out = append(out, frames[split:]...)
	if first < split {
		out = append(out, frames[first:split]...)
	}
	return out
}
