package gltfdoc

import (
	"iter"
	"strings"

	"github.com/qmuntal/gltf"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
	"github.com/Faultbox/meshforge/pkg/vertex"
)

var vec3Float = vertex.Format{Type: gltf.AccessorVec3, Component: gltf.ComponentFloat}

// sample is one row of an interleaved buffer: a vertex, or the deltas of
// one morph target vertex.
type sample struct {
	position math.Vec3
	normal   math.Vec3
	material vertex.Material
	skin     *mesh.Skin
}

type column struct {
	name   string
	format vertex.Format
	offset int
	values func(s sample) ([]float32, error)
}

// layout is the interleaved row format: POSITION and NORMAL, then
// whatever the material reflects. Every column starts 4-byte aligned.
type layout struct {
	columns []column
	stride  int
}

func newLayout(attrs iter.Seq[vertex.Attribute], rename func(string) string) layout {
	var l layout
	l.add(gltf.POSITION, vec3Float, func(s sample) ([]float32, error) {
		a := s.position.Array()
		return a[:], nil
	})
	l.add(gltf.NORMAL, vec3Float, func(s sample) ([]float32, error) {
		a := s.normal.Array()
		return a[:], nil
	})
	for a := range attrs {
		l.add(rename(a.Name), a.Format, func(s sample) ([]float32, error) {
			return a.Values(s.material)
		})
	}
	return l
}

// vertexLayout packs base vertices of fragments shaped like shape. Skinned
// layouts end with JOINTS_0 and WEIGHTS_0.
func vertexLayout(shape vertex.Material, skinned bool) layout {
	l := newLayout(vertex.Attributes(shape), func(name string) string { return name })
	if skinned {
		l.add(mesh.JointsAttribute, vertex.JointsFormat, func(s sample) ([]float32, error) {
			if s.skin == nil {
				return nil, mesh.ErrInvalidWeights
			}
			out := make([]float32, 4)
			for i, j := range s.skin.Joints {
				out[i] = float32(j)
			}
			return out, nil
		})
		l.add(mesh.WeightsAttribute, vertex.WeightsFormat, func(s sample) ([]float32, error) {
			if s.skin == nil {
				return nil, mesh.ErrInvalidWeights
			}
			return s.skin.Weights[:], nil
		})
	}
	return l
}

// morphLayout packs morph target deltas. Delta semantics drop their DELTA
// suffix since the target itself marks them as differences.
func morphLayout(shape vertex.Material) layout {
	return newLayout(vertex.Attributes(vertex.ZeroLike(shape)), func(name string) string {
		return strings.TrimSuffix(name, "DELTA")
	})
}

func (l *layout) add(name string, f vertex.Format, fn func(sample) ([]float32, error)) {
	l.columns = append(l.columns, column{name: name, format: f, offset: l.stride, values: fn})
	l.stride += f.AlignedSize()
}

// pack encodes rows into one interleaved byte slice.
func (l layout) pack(rows []sample) ([]byte, error) {
	out := make([]byte, len(rows)*l.stride)
	for i, s := range rows {
		row := out[i*l.stride:]
		for _, c := range l.columns {
			vals, err := c.values(s)
			if err != nil {
				return nil, err
			}
			c.format.Encode(row[c.offset:], vals)
		}
	}
	return out, nil
}

func bounds(rows []sample) (lo, hi []float32) {
	if len(rows) == 0 {
		return nil, nil
	}
	mn, mx := rows[0].position, rows[0].position
	for _, r := range rows[1:] {
		p := r.position
		mn = math.Vec3{X: min(mn.X, p.X), Y: min(mn.Y, p.Y), Z: min(mn.Z, p.Z)}
		mx = math.Vec3{X: max(mx.X, p.X), Y: max(mx.Y, p.Y), Z: max(mx.Z, p.Z)}
	}
	return []float32{mn.X, mn.Y, mn.Z}, []float32{mx.X, mx.Y, mx.Z}
}
