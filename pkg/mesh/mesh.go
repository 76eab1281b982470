// Package mesh provides the mutable mesh builder compiled into document
// meshes. A builder is identified by a stable ID handle assigned at
// construction, not by its contents.
package mesh

import (
	"encoding/binary"
	"fmt"
	gomath "math"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/vertex"
)

// ID is the identity handle of a Builder.
type ID uint64

var lastID atomic.Uint64

// Vertex is one mesh vertex: geometry plus a material fragment. A nil
// Material is treated as vertex.Empty. Skin is set on every vertex of a
// skinned mesh and on none of an unskinned one.
type Vertex struct {
	Position math.Vec3
	Normal   math.Vec3
	Material vertex.Material
	Skin     *Skin
}

// Builder collects primitives for one mesh. Every vertex of a builder has
// the same material shape, so the whole mesh packs into one vertex layout.
type Builder struct {
	id         ID
	name       string
	primitives []*Primitive
	shape      vertex.Material
	skinned    bool
}

// New returns an empty mesh builder with a fresh ID.
func New(name string) *Builder {
	return &Builder{id: ID(lastID.Add(1)), name: name}
}

// ID returns the builder's identity handle.
func (b *Builder) ID() ID { return b.id }

// Name returns the mesh name.
func (b *Builder) Name() string { return b.name }

// SetName renames the mesh.
func (b *Builder) SetName(name string) { b.name = name }

// Primitive returns the primitive drawn with the named material, creating
// it on first use. Primitives keep creation order.
func (b *Builder) Primitive(material string) *Primitive {
	for _, p := range b.primitives {
		if p.material == material {
			return p
		}
	}
	p := &Primitive{owner: b, material: material, weld: make(map[string]int)}
	b.primitives = append(b.primitives, p)
	return p
}

// Primitives returns the primitives in creation order.
func (b *Builder) Primitives() []*Primitive {
	return slices.Clone(b.primitives)
}

// Layout returns the vertex layout shared by every vertex, including the
// skinning attributes of skinned meshes. ok is false while the builder
// has no vertices.
func (b *Builder) Layout() (layout vertex.Layout, ok bool) {
	if b.shape == nil {
		return "", false
	}
	layout = vertex.LayoutOf(b.shape)
	if b.skinned {
		layout = layout.Append(JointsAttribute, vertex.JointsFormat).Append(WeightsAttribute, vertex.WeightsFormat)
	}
	return layout, true
}

// Skinned reports whether the vertices carry joints and weights.
func (b *Builder) Skinned() bool { return b.skinned }

// JointCount returns one more than the largest joint index any vertex
// weights, or 0 for unskinned meshes.
func (b *Builder) JointCount() int {
	n := 0
	for _, p := range b.primitives {
		for _, v := range p.vertices {
			if v.Skin == nil {
				continue
			}
			for i, j := range v.Skin.Joints {
				if v.Skin.Weights[i] > 0 {
					n = max(n, int(j)+1)
				}
			}
		}
	}
	return n
}

// Shape returns a zero fragment with the mesh's material shape, or nil
// while the builder has no vertices.
func (b *Builder) Shape() vertex.Material {
	return b.shape
}

// VertexCount returns the number of distinct vertices over all primitives.
func (b *Builder) VertexCount() int {
	n := 0
	for _, p := range b.primitives {
		n += len(p.vertices)
	}
	return n
}

// TriangleCount returns the number of triangles over all primitives.
func (b *Builder) TriangleCount() int {
	n := 0
	for _, p := range b.primitives {
		n += len(p.indices) / 3
	}
	return n
}

// MorphTargetCount returns the largest morph target count of any primitive.
func (b *Builder) MorphTargetCount() int {
	n := 0
	for _, p := range b.primitives {
		n = max(n, len(p.targets))
	}
	return n
}

// IsEmpty reports whether the builder has no triangles.
func (b *Builder) IsEmpty() bool {
	return b.TriangleCount() == 0
}

// checkCorners verifies that the corners agree with each other and with
// the mesh. It changes nothing.
func (b *Builder) checkCorners(corners [3]Vertex) error {
	shape, skinned := b.shape, b.skinned
	if shape == nil {
		shape, skinned = corners[0].Material, corners[0].Skin != nil
	}
	for _, v := range corners {
		if !vertex.SameShape(shape, v.Material) {
			return fmt.Errorf("mesh %q: %w: %d colors/%d texcoords, mesh uses %d/%d",
				b.name, vertex.ErrShapeMismatch, v.Material.MaxColors(), v.Material.MaxTexCoords(), shape.MaxColors(), shape.MaxTexCoords())
		}
		if (v.Skin != nil) != skinned {
			return fmt.Errorf("mesh %q: %w: skinned and unskinned vertices", b.name, vertex.ErrShapeMismatch)
		}
	}
	return nil
}

// Primitive is the part of a mesh drawn with one material.
type Primitive struct {
	owner    *Builder
	material string
	vertices []Vertex
	indices  []uint32
	weld     map[string]int
	targets  []*MorphTarget
}

// Material returns the material name.
func (p *Primitive) Material() string { return p.material }

// Vertices returns the welded vertex list.
func (p *Primitive) Vertices() []Vertex { return slices.Clone(p.vertices) }

// Vertex returns vertex i.
func (p *Primitive) Vertex(i int) (Vertex, error) {
	if i < 0 || i >= len(p.vertices) {
		return Vertex{}, fmt.Errorf("%w: vertex %d of %d", vertex.ErrIndexOutOfRange, i, len(p.vertices))
	}
	return p.vertices[i], nil
}

// VertexCount returns the number of welded vertices.
func (p *Primitive) VertexCount() int { return len(p.vertices) }

// Indices returns the triangle list indices.
func (p *Primitive) Indices() []uint32 { return slices.Clone(p.indices) }

// AddTriangle appends a triangle, welding identical vertices. It returns
// the vertex indices used. A triangle that collapses after welding is
// dropped and reported as -1 indices with no error. A rejected or dropped
// triangle leaves the mesh unchanged.
func (p *Primitive) AddTriangle(a, b, c Vertex) ([3]int, error) {
	none := [3]int{-1, -1, -1}
	corners := [3]Vertex{a, b, c}
	for i := range corners {
		if corners[i].Material == nil {
			corners[i].Material = vertex.NewEmpty()
		}
		if corners[i].Skin != nil {
			s, err := corners[i].Skin.normalized()
			if err != nil {
				return none, fmt.Errorf("mesh %q corner %d: %w", p.owner.name, i, err)
			}
			corners[i].Skin = &s
		}
	}
	if err := p.owner.checkCorners(corners); err != nil {
		return none, err
	}

	var keys [3]string
	for i, v := range corners {
		k, err := weldKey(v)
		if err != nil {
			return none, err
		}
		keys[i] = k
	}
	if keys[0] == keys[1] || keys[1] == keys[2] || keys[0] == keys[2] {
		return none, nil
	}

	if p.owner.shape == nil {
		p.owner.shape = vertex.Clone(corners[0].Material)
		p.owner.skinned = corners[0].Skin != nil
	}
	var idx [3]int
	for i, v := range corners {
		idx[i] = p.useVertex(v, keys[i])
	}
	p.indices = append(p.indices, uint32(idx[0]), uint32(idx[1]), uint32(idx[2]))
	return idx, nil
}

func (p *Primitive) useVertex(v Vertex, key string) int {
	if i, ok := p.weld[key]; ok {
		return i
	}
	v.Material = vertex.Clone(v.Material)
	p.vertices = append(p.vertices, v)
	p.weld[key] = len(p.vertices) - 1
	return len(p.vertices) - 1
}

func weldKey(v Vertex) (string, error) {
	var b strings.Builder
	var buf [4]byte
	put := func(f float32) {
		binary.LittleEndian.PutUint32(buf[:], gomath.Float32bits(f))
		b.Write(buf[:])
	}
	for _, f := range [6]float32{v.Position.X, v.Position.Y, v.Position.Z, v.Normal.X, v.Normal.Y, v.Normal.Z} {
		put(f)
	}
	if v.Skin != nil {
		for i, j := range v.Skin.Joints {
			put(float32(j))
			put(v.Skin.Weights[i])
		}
	}
	for a := range vertex.Attributes(v.Material) {
		vals, err := a.Values(v.Material)
		if err != nil {
			return "", err
		}
		for _, f := range vals {
			put(f)
		}
	}
	return b.String(), nil
}

// MorphTarget returns morph target i, growing the target list as needed.
func (p *Primitive) MorphTarget(i int) *MorphTarget {
	for len(p.targets) <= i {
		p.targets = append(p.targets, &MorphTarget{prim: p})
	}
	return p.targets[i]
}

// MorphTargets returns the morph targets in index order.
func (p *Primitive) MorphTargets() []*MorphTarget {
	return slices.Clone(p.targets)
}
