package vertex

import (
	"encoding/binary"
	"fmt"
	"iter"
	gomath "math"
	"strings"

	"github.com/qmuntal/gltf"
)

// Slot identifies which attribute family an Attribute reads.
type Slot uint8

const (
	SlotColor Slot = iota
	SlotTexCoord
)

// Format describes how one attribute is packed into a vertex buffer.
type Format struct {
	Type       gltf.AccessorType
	Component  gltf.ComponentType
	Normalized bool
}

// Default packing conventions.
var (
	ColorFormat         = Format{Type: gltf.AccessorVec4, Component: gltf.ComponentUbyte, Normalized: true}
	TexCoordFormat      = Format{Type: gltf.AccessorVec2, Component: gltf.ComponentFloat}
	ColorDeltaFormat    = Format{Type: gltf.AccessorVec4, Component: gltf.ComponentShort, Normalized: true}
	TexCoordDeltaFormat = Format{Type: gltf.AccessorVec2, Component: gltf.ComponentFloat}

	JointsFormat  = Format{Type: gltf.AccessorVec4, Component: gltf.ComponentUshort}
	WeightsFormat = Format{Type: gltf.AccessorVec4, Component: gltf.ComponentFloat}
)

// Components returns the number of components per element.
func (f Format) Components() int {
	switch f.Type {
	case gltf.AccessorScalar:
		return 1
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4, gltf.AccessorMat2:
		return 4
	case gltf.AccessorMat3:
		return 9
	case gltf.AccessorMat4:
		return 16
	}
	return 0
}

// ComponentSize returns the size in bytes of one component.
func (f Format) ComponentSize() int {
	switch f.Component {
	case gltf.ComponentByte, gltf.ComponentUbyte:
		return 1
	case gltf.ComponentShort, gltf.ComponentUshort:
		return 2
	}
	return 4
}

// ByteSize returns the packed size of one element.
func (f Format) ByteSize() int {
	return f.Components() * f.ComponentSize()
}

// AlignedSize returns ByteSize rounded up to 4 bytes, the alignment every
// vertex attribute needs inside an interleaved buffer.
func (f Format) AlignedSize() int {
	return (f.ByteSize() + 3) &^ 3
}

// String returns a compact "type/component[n]" description built from the
// gltf enum values, for example "3/2n" for normalized unsigned byte VEC4.
func (f Format) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d", f.Type, f.Component)
	if f.Normalized {
		b.WriteByte('n')
	}
	return b.String()
}

// Encode writes values into dst using the format's component encoding.
// dst must hold at least ByteSize bytes. Missing values are written as 0.
func (f Format) Encode(dst []byte, values []float32) {
	size := f.ComponentSize()
	for i := 0; i < f.Components(); i++ {
		var v float32
		if i < len(values) {
			v = values[i]
		}
		out := dst[i*size:]
		switch f.Component {
		case gltf.ComponentUbyte:
			out[0] = uint8(f.quantize(v, 0, 255))
		case gltf.ComponentByte:
			out[0] = uint8(int8(f.quantize(v, -127, 127)))
		case gltf.ComponentUshort:
			binary.LittleEndian.PutUint16(out, uint16(f.quantize(v, 0, 65535)))
		case gltf.ComponentShort:
			binary.LittleEndian.PutUint16(out, uint16(int16(f.quantize(v, -32767, 32767))))
		case gltf.ComponentUint:
			binary.LittleEndian.PutUint32(out, uint32(f.quantize(v, 0, gomath.MaxUint32)))
		default:
			binary.LittleEndian.PutUint32(out, gomath.Float32bits(v))
		}
	}
}

// quantize maps v onto [lo, hi]. Normalized values are scaled from [-1, 1]
// or [0, 1] first.
func (f Format) quantize(v float32, lo, hi float64) float64 {
	x := float64(v)
	if f.Normalized {
		x *= hi
	}
	x = gomath.Round(x)
	return gomath.Max(lo, gomath.Min(hi, x))
}

// Attribute names one packed attribute and where its values come from.
type Attribute struct {
	Name   string
	Format Format
	Slot   Slot
	Index  int
}

// Values reads the attribute's components from m.
func (a Attribute) Values(m Material) ([]float32, error) {
	switch a.Slot {
	case SlotColor:
		c, err := m.Color(a.Index)
		if err != nil {
			return nil, err
		}
		return c[:], nil
	case SlotTexCoord:
		uv, err := m.TexCoord(a.Index)
		if err != nil {
			return nil, err
		}
		return []float32{uv.X, uv.Y}, nil
	}
	return nil, fmt.Errorf("unknown attribute slot %d", a.Slot)
}

// Encoder is implemented by fragments that choose their own packing.
// The returned sequence must be finite and restartable.
type Encoder interface {
	EncodingAttributes() iter.Seq[Attribute]
}

// Attributes returns the packing description of m. Fragments that do not
// implement Encoder use the default convention: COLOR_i as normalized
// unsigned byte VEC4, then TEXCOORD_i as float VEC2.
func Attributes(m Material) iter.Seq[Attribute] {
	if e, ok := m.(Encoder); ok {
		return e.EncodingAttributes()
	}
	return slotAttributes(m.MaxColors(), m.MaxTexCoords(), "", ColorFormat, TexCoordFormat)
}

func slotAttributes(colors, texCoords int, suffix string, cf, tf Format) iter.Seq[Attribute] {
	return func(yield func(Attribute) bool) {
		for i := 0; i < colors; i++ {
			a := Attribute{Name: fmt.Sprintf("COLOR_%d%s", i, suffix), Format: cf, Slot: SlotColor, Index: i}
			if !yield(a) {
				return
			}
		}
		for i := 0; i < texCoords; i++ {
			a := Attribute{Name: fmt.Sprintf("TEXCOORD_%d%s", i, suffix), Format: tf, Slot: SlotTexCoord, Index: i}
			if !yield(a) {
				return
			}
		}
	}
}

// Layout is a comparable key for the structural vertex layout of a
// fragment: its attribute names and formats in order, independent of
// content.
type Layout string

// Append returns l extended by one attribute.
func (l Layout) Append(name string, f Format) Layout {
	entry := name + ":" + f.String()
	if l == "" {
		return Layout(entry)
	}
	return l + ";" + Layout(entry)
}

// LayoutOf computes the layout key of m.
func LayoutOf(m Material) Layout {
	var b strings.Builder
	for a := range Attributes(m) {
		if b.Len() > 0 {
			b.WriteByte(';')
		}
		b.WriteString(a.Name)
		b.WriteByte(':')
		b.WriteString(a.Format.String())
	}
	return Layout(b.String())
}
