package source

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/walkgif/internal/canvas"
)

// Layer is one named raster layer of a document.
type Layer struct {
	Name  string
	Image *image.RGBA
}

// Document is a fully decoded layered document with its role manifest.
type Document struct {
	Path     string
	Layers   []Layer
	Manifest *Manifest
}

// ActorLayers are the indexed poses of an actor. Masks is parallel to Frames;
// a nil entry means the pose has no mask.
type ActorLayers struct {
	Frames []*image.RGBA
	Masks  []*image.RGBA
}

// SceneLayers are the static layers of a scene.
type SceneLayers struct {
	Background *image.RGBA
	Bottom     *image.RGBA
	Top        *image.RGBA
}

// ManifestPath is where an explicit manifest for a document lives.
func ManifestPath(path string) string {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return filepath.Join(path, "manifest.yaml")
	}
	return path + ".manifest.yaml"
}

// NewSource picks the reader for a document path.
func NewSource(path string) (Source, error) {
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return NewFitzPDFSource(path, DefaultDPI)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s: unsupported document type", path)
	}
	return NewDirSource(path)
}

// Open decodes the document at path and resolves its manifest.
func Open(path string) (*Document, error) {
	src, err := NewSource(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return Load(path, src)
}

// Load decodes every layer of src. An explicit manifest next to the document
// wins over names.
func Load(path string, src Source) (*Document, error) {
	doc := &Document{Path: path}
	names := make([]string, 0, src.LayerCount())

	for i := 0; i < src.LayerCount(); i++ {
		img, err := src.RenderLayer(i)
		if err != nil {
			return nil, fmt.Errorf("%s: layer %d: %w", path, i, err)
		}
		name := src.LayerName(i)
		names = append(names, name)
		doc.Layers = append(doc.Layers, Layer{Name: name, Image: canvas.ToRGBA(img)})
	}

	m, err := ReadManifest(ManifestPath(path))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m = InferManifest(names)
	case err != nil:
		return nil, err
	}

	if err := m.Validate(names); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Manifest = m
	return doc, nil
}

// Layer returns the named layer image or nil.
func (d *Document) Layer(name string) *image.RGBA {
	for _, l := range d.Layers {
		if l.Name == name {
			return l.Image
		}
	}
	return nil
}

// ActorLayers resolves the frame and mask sets. Frame indices must be
// contiguous from zero and every mask must belong to a frame.
func (d *Document) ActorLayers() (*ActorLayers, error) {
	frames := d.Manifest.Indexed(RoleFrame)
	if len(frames) == 0 {
		return nil, fmt.Errorf("%s: %w: no frame layers", d.Path, ErrManifest)
	}

	set := &ActorLayers{
		Frames: make([]*image.RGBA, len(frames)),
		Masks:  make([]*image.RGBA, len(frames)),
	}
	for i, e := range frames {
		if e.Index != i {
			return nil, fmt.Errorf("%s: %w: frame indices must be contiguous from 0, missing frame %d", d.Path, ErrManifest, i)
		}
		set.Frames[i] = d.Layer(e.Layer)
	}

	for _, e := range d.Manifest.Indexed(RoleMask) {
		if e.Index >= len(frames) {
			return nil, fmt.Errorf("%s: %w: mask %d has no frame", d.Path, ErrManifest, e.Index)
		}
		set.Masks[e.Index] = d.Layer(e.Layer)
	}
	return set, nil
}

// SceneLayers resolves the background, bottom and top layers; each must be
// present exactly once.
func (d *Document) SceneLayers() (*SceneLayers, error) {
	pick := func(role Role) (*image.RGBA, error) {
		entries := d.Manifest.Indexed(role)
		if len(entries) != 1 {
			return nil, fmt.Errorf("%s: %w: want exactly one %s layer, found %d", d.Path, ErrManifest, role, len(entries))
		}
		return d.Layer(entries[0].Layer), nil
	}

	var set SceneLayers
	var err error
	if set.Background, err = pick(RoleBackground); err != nil {
		return nil, err
	}
	if set.Bottom, err = pick(RoleBottom); err != nil {
		return nil, err
	}
	if set.Top, err = pick(RoleTop); err != nil {
		return nil, err
	}
	return &set, nil
}
