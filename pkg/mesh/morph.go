package mesh

import (
	"fmt"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/vertex"
)

// MorphTarget stores per-vertex differences from a primitive's base
// vertices. Vertices without an entry are unchanged by the target.
type MorphTarget struct {
	prim      *Primitive
	positions map[int]math.Vec3
	normals   map[int]math.Vec3
	materials map[int]*vertex.Delta
}

// SetVertex records the morphed shape of base vertex i. The stored deltas
// are morphed - base.
func (t *MorphTarget) SetVertex(i int, morphed Vertex) error {
	base, err := t.prim.Vertex(i)
	if err != nil {
		return err
	}
	if morphed.Material == nil {
		morphed.Material = vertex.NewEmpty()
	}
	d, err := vertex.Subtract(base.Material, morphed.Material)
	if err != nil {
		return fmt.Errorf("morph vertex %d: %w", i, err)
	}
	t.set(i, morphed.Position.Sub(base.Position), morphed.Normal.Sub(base.Normal), d)
	return nil
}

// SetVertexDelta records explicit deltas for base vertex i. A nil material
// delta leaves the material unchanged.
func (t *MorphTarget) SetVertexDelta(i int, position, normal math.Vec3, material *vertex.Delta) error {
	base, err := t.prim.Vertex(i)
	if err != nil {
		return err
	}
	if material == nil {
		material = vertex.ZeroLike(base.Material)
	}
	if !vertex.SameShape(base.Material, material) {
		return fmt.Errorf("morph vertex %d: %w", i, vertex.ErrShapeMismatch)
	}
	t.set(i, position, normal, material.Clone().(*vertex.Delta))
	return nil
}

func (t *MorphTarget) set(i int, position, normal math.Vec3, material *vertex.Delta) {
	if t.positions == nil {
		t.positions = make(map[int]math.Vec3)
		t.normals = make(map[int]math.Vec3)
		t.materials = make(map[int]*vertex.Delta)
	}
	t.positions[i] = position
	t.normals[i] = normal
	t.materials[i] = material
}

// PositionDelta returns the position delta of vertex i.
func (t *MorphTarget) PositionDelta(i int) math.Vec3 { return t.positions[i] }

// NormalDelta returns the normal delta of vertex i.
func (t *MorphTarget) NormalDelta(i int) math.Vec3 { return t.normals[i] }

// MaterialDelta returns the material delta of vertex i, a zero delta of
// the mesh shape when none was recorded.
func (t *MorphTarget) MaterialDelta(i int) *vertex.Delta {
	if d, ok := t.materials[i]; ok {
		return d
	}
	if shape := t.prim.owner.Shape(); shape != nil {
		return vertex.ZeroLike(shape)
	}
	return vertex.NewDelta(0, 0)
}

// Len returns the number of vertices the target moves.
func (t *MorphTarget) Len() int { return len(t.positions) }

// Vertex reconstructs the morphed vertex i at full weight.
func (t *MorphTarget) Vertex(i int) (Vertex, error) {
	base, err := t.prim.Vertex(i)
	if err != nil {
		return Vertex{}, err
	}
	out := Vertex{
		Position: base.Position.Add(t.positions[i]),
		Normal:   base.Normal.Add(t.normals[i]),
		Material: vertex.Clone(base.Material),
		Skin:     base.Skin,
	}
	if err := vertex.Apply(out.Material, t.MaterialDelta(i)); err != nil {
		return Vertex{}, err
	}
	return out, nil
}
