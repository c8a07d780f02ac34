package source

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

func writePNG(t *testing.T, dir, name string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(dir, name+".png"))
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
}

func TestInferManifest(t *testing.T) {
	m := InferManifest([]string{"frame0", "frame1", "mask1", "Top", "BOTTOM", "background", "sketch", "frame", "maskX", "frame02"})

	if got := len(m.Indexed(RoleFrame)); got != 3 {
		t.Errorf("frames = %d, want 3", got)
	}
	if got := m.Indexed(RoleFrame)[2]; got.Layer != "frame02" || got.Index != 2 {
		t.Errorf("frame02 parsed as %+v", got)
	}
	if got := m.Indexed(RoleMask); len(got) != 1 || got[0].Index != 1 {
		t.Errorf("masks = %+v", got)
	}
	for _, role := range []Role{RoleTop, RoleBottom, RoleBackground} {
		if got := len(m.Indexed(role)); got != 1 {
			t.Errorf("%s layers = %d, want 1", role, got)
		}
	}
}

func TestManifestValidate(t *testing.T) {
	names := []string{"a", "b", "c"}

	tests := []struct {
		name    string
		entries []Entry
		wantErr bool
	}{
		{"ok", []Entry{{"a", RoleFrame, 0}, {"b", RoleFrame, 1}, {"c", RoleMask, 0}}, false},
		{"unknown layer", []Entry{{"z", RoleFrame, 0}}, true},
		{"duplicate key", []Entry{{"a", RoleFrame, 0}, {"b", RoleFrame, 0}}, true},
		{"layer twice", []Entry{{"a", RoleFrame, 0}, {"a", RoleMask, 0}}, true},
		{"negative index", []Entry{{"a", RoleFrame, -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Manifest{Layers: tt.entries}
			err := m.Validate(names)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrManifest) {
				t.Errorf("error %v does not wrap ErrManifest", err)
			}
		})
	}
}

func TestOpenDirectoryActor(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "frame0", color.RGBA{255, 0, 0, 255})
	writePNG(t, dir, "frame1", color.RGBA{0, 255, 0, 255})
	writePNG(t, dir, "mask0", color.RGBA{0, 0, 0, 255})
	writePNG(t, dir, "notes", color.RGBA{1, 1, 1, 255})

	doc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	set, err := doc.ActorLayers()
	if err != nil {
		t.Fatalf("ActorLayers: %v", err)
	}
	if len(set.Frames) != 2 {
		t.Fatalf("frames = %d", len(set.Frames))
	}
	if got := set.Frames[1].RGBAAt(0, 0); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("frame1 pixel = %v", got)
	}
	if set.Masks[0] == nil || set.Masks[1] != nil {
		t.Errorf("masks = %v", set.Masks)
	}
}

func TestActorLayersRejectsGaps(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "frame0", color.RGBA{255, 0, 0, 255})
	writePNG(t, dir, "frame1", color.RGBA{255, 0, 0, 255})
	writePNG(t, dir, "frame3", color.RGBA{255, 0, 0, 255})

	doc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := doc.ActorLayers(); !errors.Is(err, ErrManifest) {
		t.Errorf("expected ErrManifest for sparse frames, got %v", err)
	}
}

func TestActorLayersRejectsOrphanMask(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "frame0", color.RGBA{255, 0, 0, 255})
	writePNG(t, dir, "mask4", color.RGBA{0, 0, 0, 255})

	doc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := doc.ActorLayers(); !errors.Is(err, ErrManifest) {
		t.Errorf("expected ErrManifest for orphan mask, got %v", err)
	}
}

func TestExplicitManifestWins(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "sky", color.RGBA{0, 0, 255, 255})
	writePNG(t, dir, "ground", color.RGBA{0, 255, 0, 255})
	writePNG(t, dir, "trees", color.RGBA{0, 128, 0, 255})

	m := &Manifest{Layers: []Entry{
		{Layer: "sky", Role: RoleBackground},
		{Layer: "ground", Role: RoleBottom},
		{Layer: "trees", Role: RoleTop},
	}}
	if err := WriteManifest(m, ManifestPath(dir)); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	doc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	set, err := doc.SceneLayers()
	if err != nil {
		t.Fatalf("SceneLayers: %v", err)
	}
	if got := set.Background.RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("background = %v", got)
	}
	if got := set.Top.RGBAAt(0, 0); got != (color.RGBA{0, 128, 0, 255}) {
		t.Errorf("top = %v", got)
	}
}

func TestSceneLayersRequiresEachRole(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "background", color.RGBA{0, 0, 255, 255})
	writePNG(t, dir, "top", color.RGBA{0, 0, 255, 255})

	doc, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := doc.SceneLayers(); !errors.Is(err, ErrManifest) {
		t.Errorf("expected ErrManifest for missing bottom, got %v", err)
	}
}

func TestCacheDeduplicatesLoads(t *testing.T) {
	var loads int32
	release := make(chan struct{})
	cache := NewCacheWith(func(path string) (*Document, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return &Document{Path: path}, nil
	})

	var wg sync.WaitGroup
	docs := make([]*Document, 8)
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := cache.Get("walk.pdf")
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			docs[i] = doc
		}(i)
	}
	close(release)
	wg.Wait()

	if _, err := cache.Get("walk.pdf"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Errorf("document parsed %d times, want 1", n)
	}
	for i := 1; i < len(docs); i++ {
		if docs[i] != docs[0] {
			t.Errorf("goroutine %d got a different document", i)
		}
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d", cache.Len())
	}
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	calls := 0
	cache := NewCacheWith(func(path string) (*Document, error) {
		calls++
		return nil, errors.New("boom")
	})
	for i := 0; i < 2; i++ {
		if _, err := cache.Get("x"); err == nil {
			t.Fatal("expected error")
		}
	}
	if calls != 2 || cache.Len() != 0 {
		t.Errorf("calls=%d len=%d", calls, cache.Len())
	}
}
