// Package vertex implements the per-vertex material attributes (colors and
// texture coordinates) carried by mesh builders, the delta algebra used for
// morph targets, and the reflection surface the buffer packer uses to lay
// out interleaved vertex buffers.
package vertex

import (
	"reflect"

	"github.com/Faultbox/meshforge/pkg/math"
)

// Material is a per-vertex fragment carrying a fixed number of color slots
// and texture coordinate slots. Slot counts never change for a value.
//
// Index arguments outside [0, MaxColors) or [0, MaxTexCoords) fail with
// ErrIndexOutOfRange.
type Material interface {
	MaxColors() int
	MaxTexCoords() int

	Color(i int) (math.Vec4, error)
	SetColor(i int, c math.Vec4) error

	TexCoord(i int) (math.Vec2, error)
	SetTexCoord(i int, uv math.Vec2) error
}

// SameShape reports whether a and b have identical slot counts.
func SameShape(a, b Material) bool {
	return a.MaxColors() == b.MaxColors() && a.MaxTexCoords() == b.MaxTexCoords()
}

// Equal reports whether a and b have the same shape and identical slots.
func Equal(a, b Material) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	if !SameShape(a, b) {
		return false
	}
	for i := 0; i < a.MaxColors(); i++ {
		ca, errA := a.Color(i)
		cb, errB := b.Color(i)
		if errA != nil || errB != nil || ca != cb {
			return false
		}
	}
	for i := 0; i < a.MaxTexCoords(); i++ {
		ta, errA := a.TexCoord(i)
		tb, errB := b.TexCoord(i)
		if errA != nil || errB != nil || ta != tb {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of m. Values implementing
// interface{ Clone() Material } copy themselves; pointers to plain structs
// are copied by value.
func Clone(m Material) Material {
	if isNil(m) {
		return nil
	}
	if c, ok := m.(interface{ Clone() Material }); ok {
		return c.Clone()
	}
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Pointer {
		return m
	}
	cp := reflect.New(v.Elem().Type())
	cp.Elem().Set(v.Elem())
	return cp.Interface().(Material)
}

func isNil(m Material) bool {
	if m == nil {
		return true
	}
	v := reflect.ValueOf(m)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
