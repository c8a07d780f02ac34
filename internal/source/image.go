package source

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirSource is a directory of image files, one layer per file, named by the
// file name without extension.
type DirSource struct {
	paths []string
}

func NewDirSource(path string) (*DirSource, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() {
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
	}
	sort.Strings(paths)

	return &DirSource{paths: paths}, nil
}

func (s *DirSource) LayerCount() int {
	return len(s.paths)
}

func (s *DirSource) LayerName(index int) string {
	base := filepath.Base(s.paths[index])
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (s *DirSource) RenderLayer(index int) (image.Image, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (s *DirSource) Close() error {
	return nil
}
