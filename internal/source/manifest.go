package source

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrManifest marks a document whose layers cannot be mapped to roles.
var ErrManifest = errors.New("invalid layer manifest")

// Role is what a layer is used for.
type Role string

const (
	RoleFrame      Role = "frame"
	RoleMask       Role = "mask"
	RoleTop        Role = "top"
	RoleBottom     Role = "bottom"
	RoleBackground Role = "background"
)

func (r *Role) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch Role(strings.ToLower(s)) {
	case RoleFrame, RoleMask, RoleTop, RoleBottom, RoleBackground:
		*r = Role(strings.ToLower(s))
		return nil
	}
	return fmt.Errorf("line %d: unknown layer role %q", value.Line, s)
}

// Entry assigns a role and index to one named layer.
type Entry struct {
	Layer string `yaml:"layer"`
	Role  Role   `yaml:"role"`
	Index int    `yaml:"index"`
}

// Manifest is the explicit role mapping of a document's layers.
type Manifest struct {
	Layers []Entry `yaml:"layers"`
}

var indexedName = regexp.MustCompile(`^(frame|mask)(\d+)$`)

// InferManifest derives a manifest from layer names: frame<N>, mask<N> and
// case-insensitive top, bottom and background. Other names are ignored.
func InferManifest(names []string) *Manifest {
	m := &Manifest{}
	for _, name := range names {
		if sub := indexedName.FindStringSubmatch(name); sub != nil {
			index, err := strconv.Atoi(sub[2])
			if err != nil {
				continue
			}
			m.Layers = append(m.Layers, Entry{Layer: name, Role: Role(sub[1]), Index: index})
			continue
		}
		switch Role(strings.ToLower(name)) {
		case RoleTop, RoleBottom, RoleBackground:
			m.Layers = append(m.Layers, Entry{Layer: name, Role: Role(strings.ToLower(name))})
		}
	}
	return m
}

// Validate checks the manifest against the layer names present in a document.
func (m *Manifest) Validate(names []string) error {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	type key struct {
		role  Role
		index int
	}
	seenKey := make(map[key]string)
	seenLayer := make(map[string]bool)

	for _, e := range m.Layers {
		if !present[e.Layer] {
			return fmt.Errorf("%w: layer %q not found in document", ErrManifest, e.Layer)
		}
		if seenLayer[e.Layer] {
			return fmt.Errorf("%w: layer %q mapped more than once", ErrManifest, e.Layer)
		}
		seenLayer[e.Layer] = true

		if e.Index < 0 {
			return fmt.Errorf("%w: layer %q has negative index %d", ErrManifest, e.Layer, e.Index)
		}
		k := key{e.Role, e.Index}
		if prev, ok := seenKey[k]; ok {
			return fmt.Errorf("%w: %s %d assigned to both %q and %q", ErrManifest, e.Role, e.Index, prev, e.Layer)
		}
		seenKey[k] = e.Layer
	}
	return nil
}

// Indexed returns layer names of a role ordered by index.
func (m *Manifest) Indexed(role Role) []Entry {
	var out []Entry
	for _, e := range m.Layers {
		if e.Role == role {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ReadManifest reads a manifest from a YAML file
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrManifest, path, err)
	}

	return &m, nil
}

// WriteManifest writes a manifest to a YAML file
func WriteManifest(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
