// Package manifest reads scene manifests: YAML files listing models and
// where to place them, compiled into one document.
package manifest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshforge/pkg/formats"
)

// ErrInvalidManifest is wrapped by every validation failure.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest describes one output scene.
type Manifest struct {
	Name   string  `yaml:"name"`
	Output string  `yaml:"output"` // file name without extension; defaults to Name
	Models []Model `yaml:"models"`
}

// Model is one model file and its copies.
type Model struct {
	Path       string      `yaml:"path"` // relative to data/model
	Placements []Placement `yaml:"placements"`
}

// Placement follows world file conventions: Y grows downward and
// rotations are degrees applied Y, X, then Z.
type Placement struct {
	Name     string      `yaml:"name"`
	Position [3]float32  `yaml:"position"`
	Rotation [3]float32  `yaml:"rotation"`
	Scale    *[3]float32 `yaml:"scale"` // defaults to 1
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.Output == "" {
		m.Output = m.Name
	}
	return &m, nil
}

// Validate checks required fields.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidManifest)
	}
	if len(m.Models) == 0 {
		return fmt.Errorf("%w: no models", ErrInvalidManifest)
	}
	for i, mod := range m.Models {
		if mod.Path == "" {
			return fmt.Errorf("%w: model %d has no path", ErrInvalidManifest, i)
		}
	}
	return nil
}

// World converts the manifest into world placements. A model listed
// without placements is placed once at the origin.
func (m *Manifest) World() *formats.RSW {
	w := &formats.RSW{Skipped: map[formats.ObjectType]int{}}
	for _, mod := range m.Models {
		placements := mod.Placements
		if len(placements) == 0 {
			placements = []Placement{{}}
		}
		for _, p := range placements {
			scale := [3]float32{1, 1, 1}
			if p.Scale != nil {
				scale = *p.Scale
			}
			w.Placements = append(w.Placements, formats.Placement{
				Name:      p.Name,
				ModelName: mod.Path,
				Position:  p.Position,
				Rotation:  p.Rotation,
				Scale:     scale,
			})
		}
	}
	return w
}
