package formats

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrInvalidRSWMagic       = errors.New("invalid RSW magic: expected 'GRSW'")
	ErrUnsupportedRSWVersion = errors.New("unsupported RSW version")
	ErrTruncatedRSWData      = errors.New("truncated RSW data")
	ErrUnknownObjectType     = errors.New("unknown RSW object type")
)

const maxObjects = 100000

// ObjectType is the kind of an RSW world object.
type ObjectType int32

const (
	ObjectModel  ObjectType = 1
	ObjectLight  ObjectType = 2
	ObjectSound  ObjectType = 3
	ObjectEffect ObjectType = 4
)

func (t ObjectType) String() string {
	switch t {
	case ObjectModel:
		return "Model"
	case ObjectLight:
		return "Light"
	case ObjectSound:
		return "Sound"
	case ObjectEffect:
		return "Effect"
	}
	return fmt.Sprintf("Unknown(%d)", int32(t))
}

// Placement is one model instance placed in the world.
type Placement struct {
	Name      string
	AnimType  int32
	AnimSpeed float32
	BlockType int32
	ModelName string // RSM file name relative to data/model/
	NodeName  string
	Position  [3]float32
	Rotation  [3]float32 // degrees
	Scale     [3]float32
}

// RSW holds the parts of a world file needed to place models. Lights,
// sounds and effects are skipped and only counted.
type RSW struct {
	Version     Version
	BuildNumber uint32 // 2.2+
	IniFile     string
	GndFile     string
	GatFile     string // 1.4+
	SrcFile     string // 1.4+
	Placements  []Placement
	Skipped     map[ObjectType]int
}

// ParseRSW parses RSW versions 1.2 through 2.6.
func ParseRSW(data []byte) (*RSW, error) {
	r := newReader(data, ErrTruncatedRSWData)
	if r.str(4) != "GRSW" {
		if r.err != nil {
			return nil, r.err
		}
		return nil, ErrInvalidRSWMagic
	}

	w := &RSW{
		Version: Version{Major: r.u8(), Minor: r.u8()},
		Skipped: make(map[ObjectType]int),
	}
	if r.err != nil {
		return nil, r.err
	}
	v := w.Version
	if !v.AtLeast(1, 2) || v.AtLeast(2, 7) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSWVersion, v)
	}

	switch {
	case v.AtLeast(2, 5):
		w.BuildNumber = r.u32()
		r.skip(1) // render flag
	case v.AtLeast(2, 2):
		w.BuildNumber = uint32(r.u8())
	}

	w.IniFile = r.str(40)
	w.GndFile = r.str(40)
	if v.AtLeast(1, 4) {
		w.GatFile = r.str(40)
		w.SrcFile = r.str(40)
	}

	// Water moved to the ground file in 2.6.
	if v.AtLeast(1, 3) && !v.AtLeast(2, 6) {
		r.skip(24)
	}
	if v.AtLeast(1, 5) {
		r.skip(32) // longitude, latitude, diffuse, ambient
	}
	if v.AtLeast(1, 7) {
		r.skip(4) // shadow opacity
	}
	if v.AtLeast(1, 6) {
		r.skip(16) // ground bounds
	}
	if r.err != nil {
		return nil, fmt.Errorf("header: %w", r.err)
	}

	n := r.count(maxObjects, ErrInvalidCount)
	for i := 0; i < n; i++ {
		if err := w.readObject(r); err != nil {
			return nil, fmt.Errorf("object %d: %w", i, err)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return w, nil
}

func (w *RSW) readObject(r *reader) error {
	t := ObjectType(r.i32())
	v := w.Version
	switch t {
	case ObjectModel:
		var p Placement
		p.Name = r.str(40)
		p.AnimType = r.i32()
		p.AnimSpeed = r.f32()
		p.BlockType = r.i32()
		if v.AtLeast(2, 6) && w.BuildNumber >= 162 {
			r.skip(1)
		}
		p.ModelName = r.str(80)
		p.NodeName = r.str(80)
		p.Position = r.vec3()
		p.Rotation = r.vec3()
		p.Scale = r.vec3()
		if r.err == nil {
			w.Placements = append(w.Placements, p)
		}
	case ObjectLight:
		r.skip(80 + 12 + 12 + 4)
	case ObjectSound:
		size := 80 + 80 + 12 + 4*4
		if v.AtLeast(2, 0) {
			size += 4
		}
		r.skip(size)
	case ObjectEffect:
		r.skip(80 + 12 + 4 + 4 + 16)
	default:
		if r.err != nil {
			return r.err
		}
		return fmt.Errorf("%w: %d", ErrUnknownObjectType, int32(t))
	}
	if r.err != nil {
		return r.err
	}
	if t != ObjectModel {
		w.Skipped[t]++
	}
	return nil
}

// ParseRSWFile reads and parses an RSW file.
func ParseRSWFile(path string) (*RSW, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RSW file: %w", err)
	}
	return ParseRSW(data)
}

// ModelNames returns the distinct model file names in first-use order.
func (w *RSW) ModelNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range w.Placements {
		if !seen[p.ModelName] {
			seen[p.ModelName] = true
			out = append(out, p.ModelName)
		}
	}
	return out
}
