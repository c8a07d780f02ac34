// Package actor stamps an animated sprite and its fading trail onto canvases.
package actor

import (
	"fmt"
	"image"
	"log"
	"os"

	"golang.org/x/image/draw"

	"github.com/ivlev/walkgif/internal/analyzer"
	"github.com/ivlev/walkgif/internal/canvas"
	"github.com/ivlev/walkgif/internal/motion"
	"github.com/ivlev/walkgif/internal/source"
)

// Actor is immutable after New; stamping only mutates the target canvas.
type Actor struct {
	Name   string
	Params motion.Params
	Crop   *canvas.CropBox
	Log    *log.Logger

	frames []*image.RGBA
	// faded[oidx][idx] is mask idx at trail step oidx, nil when the pose has no mask
	faded [][]*image.NRGBA
}

// New builds an actor from its poses. A nil masker leaves poses without a
// mask layer maskless.
func New(name string, layers *source.ActorLayers, params motion.Params, crop *canvas.CropBox, masker analyzer.Masker) (*Actor, error) {
	n := len(layers.Frames)
	if err := params.Validate(n); err != nil {
		return nil, fmt.Errorf("actor %s: %w", name, err)
	}

	masks := make([]*image.RGBA, n)
	copy(masks, layers.Masks)
	if masker != nil {
		for i, m := range masks {
			if m == nil {
				masks[i] = masker.Mask(layers.Frames[i])
			}
		}
	}

	faded := make([][]*image.NRGBA, params.Trail)
	for oidx := range faded {
		weight := motion.DecayWeight(oidx, params.Decay)
		faded[oidx] = make([]*image.NRGBA, n)
		for i, m := range masks {
			if m != nil {
				faded[oidx][i] = canvas.Fade(m, weight)
			}
		}
	}

	return &Actor{
		Name:   name,
		Params: params,
		Crop:   crop,
		Log:    log.New(os.Stdout, "", 0),
		frames: layers.Frames,
		faded:  faded,
	}, nil
}

// FrameCount is the number of poses in one cycle.
func (a *Actor) FrameCount() int {
	return len(a.frames)
}

func (a *Actor) region(at image.Point, img image.Image, target draw.Image) canvas.Region {
	return canvas.Clip(at, img.Bounds().Size(), a.Crop, target.Bounds())
}

// StampFrame composites the pose for gidx onto target. It reports whether any
// pixel was painted.
func (a *Actor) StampFrame(gidx int, target draw.Image) bool {
	idx, at := a.Params.Locate(gidx, len(a.frames))
	frame := a.frames[idx]
	return canvas.Composite(target, frame, a.region(at, frame, target))
}

// StampOutline composites the trail for gidx onto target, oldest step first so
// newer steps sit on top. It returns the number of steps that painted.
// Poses without a mask contribute nothing and are not reported.
func (a *Actor) StampOutline(gidx int, target draw.Image) int {
	painted, masked := 0, 0
	for oidx := a.Params.Trail - 1; oidx >= 0; oidx-- {
		idx, at := a.Params.Locate(gidx-oidx, len(a.frames))
		mask := a.faded[oidx][idx]
		if mask == nil {
			continue
		}
		masked++
		if canvas.Composite(target, mask, a.region(at, mask, target)) {
			painted++
		}
	}

	if masked > 0 && painted == 0 {
		a.Log.Printf("[!] %s: trail out of bounds at frame %d", a.Name, gidx)
	}
	return painted
}
