package motion

import (
	"image"
	"testing"
)

func TestDecodeFloorIdentity(t *testing.T) {
	for _, n := range []int{1, 4, 7} {
		for phase := 0; phase < n; phase++ {
			for gidx := -30; gidx <= 30; gidx++ {
				idx, cidx := Decode(gidx, phase, n)
				if idx < 0 || idx >= n {
					t.Fatalf("n=%d phase=%d gidx=%d: idx %d out of range", n, phase, gidx, idx)
				}
				if gidx+phase != cidx*n+idx {
					t.Fatalf("n=%d phase=%d gidx=%d: %d != %d*%d+%d", n, phase, gidx, gidx+phase, cidx, n, idx)
				}
			}
		}
	}
}

func TestDecodeNegative(t *testing.T) {
	tests := []struct {
		gidx, phase, n int
		idx, cidx      int
	}{
		{-1, 0, 4, 3, -1},
		{-4, 0, 4, 0, -1},
		{-5, 0, 4, 3, -2},
		{-1, 2, 4, 1, 0},
		{5, 3, 4, 0, 2},
	}
	for _, tt := range tests {
		idx, cidx := Decode(tt.gidx, tt.phase, tt.n)
		if idx != tt.idx || cidx != tt.cidx {
			t.Errorf("Decode(%d, %d, %d) = (%d, %d), want (%d, %d)", tt.gidx, tt.phase, tt.n, idx, cidx, tt.idx, tt.cidx)
		}
	}
}

func TestDisplacementAnchoredAtPhase(t *testing.T) {
	offsets := []int{0, 9, 20, 30, 43, 57, 73}
	for phase := 0; phase < len(offsets); phase++ {
		if d := Displacement(offsets, phase, 0, phase); d != 0 {
			t.Errorf("phase %d: displacement %d, want 0", phase, d)
		}
	}
}

func TestDisplacementAccumulatesCycles(t *testing.T) {
	offsets := []int{0, 9, 20, 30, 43, 57, 73}
	// idx 1 two cycles later: 9 + 2*73 - 20
	if d := Displacement(offsets, 1, 2, 2); d != 135 {
		t.Errorf("got %d, want 135", d)
	}
	if d := Displacement(offsets, 0, -1, 0); d != -73 {
		t.Errorf("got %d, want -73", d)
	}
}

func TestDecayWeightMonotonic(t *testing.T) {
	if w := DecayWeight(0, Decay); w != 1.0 {
		t.Fatalf("weight at 0 = %f", w)
	}
	prev := DecayWeight(0, Decay)
	for oidx := 1; oidx < 16; oidx++ {
		w := DecayWeight(oidx, Decay)
		if w > prev {
			t.Errorf("weight increased at %d: %f > %f", oidx, w, prev)
		}
		prev = w
	}
}

func TestLocate(t *testing.T) {
	p := Params{
		XBase:    -13,
		YBase:    80,
		XOffsets: []int{0, 9, 20, 30, 43, 57, 73},
		YOffsets: make([]int, 7),
		XSpeed:   1,
		YSpeed:   1,
		Phase:    2,
		Trail:    1,
		Decay:    Decay,
	}

	idx, at := p.Locate(0, 6)
	if idx != 2 || at != image.Pt(-13, 80) {
		t.Errorf("gidx 0: idx=%d at=%v", idx, at)
	}

	// gidx 5 -> g=7 -> idx 1, cidx 1: 9 + 73 - 20 = 62
	idx, at = p.Locate(5, 6)
	if idx != 1 || at != image.Pt(-13+62, 80) {
		t.Errorf("gidx 5: idx=%d at=%v", idx, at)
	}
}

func TestLocateTruncatesLate(t *testing.T) {
	p := Params{
		XOffsets: []int{0, 1, 3},
		YOffsets: []int{0, 0, 0},
		XSpeed:   0.5,
		YSpeed:   1,
		Trail:    1,
	}
	// gidx 1: 0.5*1 = 0.5 -> 0
	if _, at := p.Locate(1, 2); at.X != 0 {
		t.Errorf("gidx 1: x=%d", at.X)
	}
	// gidx 3: idx 1, cidx 1 -> 0.5*(1+3) = 2
	if _, at := p.Locate(3, 2); at.X != 2 {
		t.Errorf("gidx 3: x=%d", at.X)
	}
	// gidx -1: idx 1, cidx -1 -> 0.5*(1-3) = -1
	if _, at := p.Locate(-1, 2); at.X != -1 {
		t.Errorf("gidx -1: x=%d", at.X)
	}
}

func TestValidate(t *testing.T) {
	base := Params{XOffsets: make([]int, 4), YOffsets: make([]int, 4), Trail: 1}

	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr bool
	}{
		{"ok", func(p *Params) {}, false},
		{"short x", func(p *Params) { p.XOffsets = p.XOffsets[:3] }, true},
		{"phase too big", func(p *Params) { p.Phase = 4 }, true},
		{"negative phase", func(p *Params) { p.Phase = -1 }, true},
		{"zero trail", func(p *Params) { p.Trail = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			err := p.Validate(4)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
