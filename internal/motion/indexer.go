// Package motion maps global frame indices onto actor poses and placements.
package motion

import (
	"fmt"
	"image"
	"math"
)

// Decay is the falloff exponent applied per trailing step.
const Decay = 0.5

// Params describe how an actor moves through the scene.
type Params struct {
	XBase, YBase       int
	XOffsets, YOffsets []int // per-pose displacement; the last element is the full-cycle travel
	XSpeed, YSpeed     float64
	Phase              int
	Trail              int
	Decay              float64
}

// Decode resolves a global frame index into the local pose index and the
// signed number of completed cycles. Floor division keeps idx in [0, n)
// for negative indices too.
func Decode(gidx, phase, frameCount int) (idx, cidx int) {
	g := gidx + phase
	cidx = g / frameCount
	idx = g % frameCount
	if idx < 0 {
		idx += frameCount
		cidx--
	}
	return idx, cidx
}

// Displacement is the offset of pose idx after cidx cycles, relative to the
// pose at phase. Displacement(o, phase, 0, phase) is always zero.
func Displacement(offsets []int, idx, cidx, phase int) int {
	return offsets[idx] + cidx*offsets[len(offsets)-1] - offsets[phase]
}

// DecayWeight is the opacity of the trail step oidx frames behind the current one.
func DecayWeight(oidx int, decay float64) float64 {
	return math.Pow(0.5, float64(oidx)*decay)
}

// Locate returns the pose index and the top-left placement for gidx.
// Fractional displacement is kept until the final truncation.
func (p Params) Locate(gidx, frameCount int) (int, image.Point) {
	idx, cidx := Decode(gidx, p.Phase, frameCount)
	dx := p.XSpeed * float64(Displacement(p.XOffsets, idx, cidx, p.Phase))
	dy := p.YSpeed * float64(Displacement(p.YOffsets, idx, cidx, p.Phase))
	return idx, image.Pt(int(float64(p.XBase)+dx), int(float64(p.YBase)+dy))
}

// Validate checks the parameters against the number of poses an actor owns.
func (p Params) Validate(frameCount int) error {
	if frameCount <= 0 {
		return fmt.Errorf("no frames")
	}
	if len(p.XOffsets) < frameCount {
		return fmt.Errorf("frame_xoffsets has %d entries, need at least %d", len(p.XOffsets), frameCount)
	}
	if len(p.YOffsets) < frameCount {
		return fmt.Errorf("frame_yoffsets has %d entries, need at least %d", len(p.YOffsets), frameCount)
	}
	if p.Phase < 0 || p.Phase >= frameCount {
		return fmt.Errorf("phase %d outside [0, %d)", p.Phase, frameCount)
	}
	if p.Trail < 1 {
		return fmt.Errorf("trail must be at least 1, got %d", p.Trail)
	}
	return nil
}
