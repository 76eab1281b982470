package vertex

import (
	"iter"

	"github.com/Faultbox/meshforge/pkg/math"
)

// Largest slot counts a Delta produced by Zero carries.
const (
	MaxDeltaColors    = 2
	MaxDeltaTexCoords = 4
)

// Delta is the difference between a base fragment and a morphed one. Its
// shape is fixed when it is created.
type Delta struct {
	Colors    []math.Vec4
	TexCoords []math.Vec2
}

var (
	_ Material = (*Delta)(nil)
	_ Encoder  = (*Delta)(nil)
)

// NewDelta returns a zero delta with the given slot counts.
func NewDelta(colors, texCoords int) *Delta {
	return &Delta{
		Colors:    make([]math.Vec4, colors),
		TexCoords: make([]math.Vec2, texCoords),
	}
}

// Zero returns the neutral delta shaped to MaxDeltaColors and
// MaxDeltaTexCoords.
func Zero() *Delta {
	return NewDelta(MaxDeltaColors, MaxDeltaTexCoords)
}

// ZeroLike returns a zero delta with the shape of m.
func ZeroLike(m Material) *Delta {
	return NewDelta(m.MaxColors(), m.MaxTexCoords())
}

// Subtract returns target - base, slot by slot.
func Subtract(base, target Material) (*Delta, error) {
	if isNil(base) || isNil(target) {
		return nil, ErrNullSource
	}
	if !SameShape(base, target) {
		return nil, shapeError(base, target)
	}

	d := ZeroLike(base)
	for i := range d.Colors {
		b, err := base.Color(i)
		if err != nil {
			return nil, err
		}
		t, err := target.Color(i)
		if err != nil {
			return nil, err
		}
		d.Colors[i] = t.Sub(b)
	}
	for i := range d.TexCoords {
		b, err := base.TexCoord(i)
		if err != nil {
			return nil, err
		}
		t, err := target.TexCoord(i)
		if err != nil {
			return nil, err
		}
		d.TexCoords[i] = t.Sub(b)
	}
	return d, nil
}

// Apply adds d into dst in place. dst keeps its concrete type.
func Apply(dst Material, d *Delta) error {
	if isNil(dst) || d == nil {
		return ErrNullSource
	}
	if !SameShape(dst, d) {
		return shapeError(dst, d)
	}
	for i, dc := range d.Colors {
		c, err := dst.Color(i)
		if err != nil {
			return err
		}
		if err := dst.SetColor(i, c.Add(dc)); err != nil {
			return err
		}
	}
	for i, duv := range d.TexCoords {
		uv, err := dst.TexCoord(i)
		if err != nil {
			return err
		}
		if err := dst.SetTexCoord(i, uv.Add(duv)); err != nil {
			return err
		}
	}
	return nil
}

// Add accumulates other into d in place.
func (d *Delta) Add(other *Delta) error {
	if other == nil {
		return ErrNullSource
	}
	return Apply(d, other)
}

// Scaled returns a copy of d with every slot multiplied by w.
func (d *Delta) Scaled(w float32) *Delta {
	out := NewDelta(len(d.Colors), len(d.TexCoords))
	for i, c := range d.Colors {
		out.Colors[i] = c.Scale(w)
	}
	for i, uv := range d.TexCoords {
		out.TexCoords[i] = uv.Scale(w)
	}
	return out
}

// IsZero reports whether every slot is zero.
func (d *Delta) IsZero() bool {
	for _, c := range d.Colors {
		if c != (math.Vec4{}) {
			return false
		}
	}
	for _, uv := range d.TexCoords {
		if uv != (math.Vec2{}) {
			return false
		}
	}
	return true
}

// Equal reports elementwise equality over both slot arrays.
func (d *Delta) Equal(other *Delta) bool {
	if d == nil || other == nil {
		return d == other
	}
	if len(d.Colors) != len(other.Colors) || len(d.TexCoords) != len(other.TexCoords) {
		return false
	}
	for i := range d.Colors {
		if d.Colors[i] != other.Colors[i] {
			return false
		}
	}
	for i := range d.TexCoords {
		if d.TexCoords[i] != other.TexCoords[i] {
			return false
		}
	}
	return true
}

// ApproxEqual is Equal with a per-component tolerance.
func (d *Delta) ApproxEqual(other *Delta, tol float32) bool {
	if d == nil || other == nil {
		return d == other
	}
	if len(d.Colors) != len(other.Colors) || len(d.TexCoords) != len(other.TexCoords) {
		return false
	}
	for i := range d.Colors {
		if !d.Colors[i].ApproxEqual(other.Colors[i], tol) {
			return false
		}
	}
	for i := range d.TexCoords {
		if !d.TexCoords[i].ApproxEqual(other.TexCoords[i], tol) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (d *Delta) Clone() Material {
	out := NewDelta(len(d.Colors), len(d.TexCoords))
	copy(out.Colors, d.Colors)
	copy(out.TexCoords, d.TexCoords)
	return out
}

func (d *Delta) MaxColors() int { return len(d.Colors) }

func (d *Delta) MaxTexCoords() int { return len(d.TexCoords) }

func (d *Delta) Color(i int) (math.Vec4, error) {
	if i < 0 || i >= len(d.Colors) {
		return math.Vec4{}, colorIndexError(i, len(d.Colors))
	}
	return d.Colors[i], nil
}

func (d *Delta) SetColor(i int, c math.Vec4) error {
	if i < 0 || i >= len(d.Colors) {
		return colorIndexError(i, len(d.Colors))
	}
	d.Colors[i] = c
	return nil
}

func (d *Delta) TexCoord(i int) (math.Vec2, error) {
	if i < 0 || i >= len(d.TexCoords) {
		return math.Vec2{}, texCoordIndexError(i, len(d.TexCoords))
	}
	return d.TexCoords[i], nil
}

func (d *Delta) SetTexCoord(i int, uv math.Vec2) error {
	if i < 0 || i >= len(d.TexCoords) {
		return texCoordIndexError(i, len(d.TexCoords))
	}
	d.TexCoords[i] = uv
	return nil
}

// EncodingAttributes yields COLOR_iDELTA (normalized short VEC4) for every
// color slot, then TEXCOORD_iDELTA (float VEC2) for every texcoord slot.
func (d *Delta) EncodingAttributes() iter.Seq[Attribute] {
	return slotAttributes(len(d.Colors), len(d.TexCoords), "DELTA", ColorDeltaFormat, TexCoordDeltaFormat)
}
