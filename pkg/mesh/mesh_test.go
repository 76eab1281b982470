package mesh

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/vertex"
)

func v(x, y, z float32, m vertex.Material) Vertex {
	return Vertex{Position: math.Vec3{X: x, Y: y, Z: z}, Normal: math.Vec3{Z: 1}, Material: m}
}

func uv(u, w float32) vertex.Material {
	return vertex.NewTexture1(math.Vec2{X: u, Y: w})
}

func TestNewAssignsDistinctIDs(t *testing.T) {
	a := New("a")
	b := New("a")
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "a", a.Name())
}

func TestPrimitiveGetOrCreate(t *testing.T) {
	b := New("m")
	p1 := b.Primitive("stone")
	p2 := b.Primitive("wood")
	assert.Same(t, p1, b.Primitive("stone"))
	prims := b.Primitives()
	require.Len(t, prims, 2)
	assert.Same(t, p1, prims[0])
	assert.Same(t, p2, prims[1])
}

func TestAddTriangleWeldsVertices(t *testing.T) {
	b := New("quad")
	p := b.Primitive("mat")

	i1, err := p.AddTriangle(v(0, 0, 0, uv(0, 0)), v(1, 0, 0, uv(1, 0)), v(1, 1, 0, uv(1, 1)))
	require.NoError(t, err)
	i2, err := p.AddTriangle(v(0, 0, 0, uv(0, 0)), v(1, 1, 0, uv(1, 1)), v(0, 1, 0, uv(0, 1)))
	require.NoError(t, err)

	assert.Equal(t, [3]int{0, 1, 2}, i1)
	assert.Equal(t, [3]int{0, 2, 3}, i2)
	assert.Equal(t, 4, b.VertexCount())
	assert.Equal(t, 2, b.TriangleCount())
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, p.Indices())
}

func TestAddTriangleSeparatesDifferentMaterials(t *testing.T) {
	b := New("seam")
	p := b.Primitive("mat")
	_, err := p.AddTriangle(v(0, 0, 0, uv(0, 0)), v(1, 0, 0, uv(1, 0)), v(1, 1, 0, uv(1, 1)))
	require.NoError(t, err)
	_, err = p.AddTriangle(v(0, 0, 0, uv(0.5, 0)), v(1, 0, 0, uv(1, 0)), v(1, 1, 0, uv(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 4, b.VertexCount())
}

func TestAddTriangleDropsDegenerate(t *testing.T) {
	b := New("m")
	p := b.Primitive("mat")
	idx, err := p.AddTriangle(v(0, 0, 0, nil), v(0, 0, 0, nil), v(1, 0, 0, nil))
	require.NoError(t, err)
	assert.Equal(t, [3]int{-1, -1, -1}, idx)
	assert.Equal(t, 0, b.TriangleCount())
	assert.True(t, b.IsEmpty())
}

func TestAddTriangleShapeMismatch(t *testing.T) {
	b := New("m")
	_, err := b.Primitive("a").AddTriangle(v(0, 0, 0, uv(0, 0)), v(1, 0, 0, uv(1, 0)), v(1, 1, 0, uv(1, 1)))
	require.NoError(t, err)

	c := vertex.NewColor1(math.Vec4{1, 1, 1, 1})
	_, err = b.Primitive("b").AddTriangle(v(0, 0, 0, c), v(1, 0, 0, c), v(1, 1, 0, c))
	assert.ErrorIs(t, err, vertex.ErrShapeMismatch)
	assert.Equal(t, 1, b.TriangleCount())
}

func TestRejectedFirstTriangleLeavesMeshEmpty(t *testing.T) {
	b := New("m")
	p := b.Primitive("a")
	c := vertex.NewColor1(math.Vec4{1, 1, 1, 1})

	_, err := p.AddTriangle(v(0, 0, 0, c), v(1, 0, 0, uv(1, 0)), v(1, 1, 0, uv(1, 1)))
	require.ErrorIs(t, err, vertex.ErrShapeMismatch)
	assert.Equal(t, 0, b.VertexCount())
	assert.Equal(t, 0, p.VertexCount())
	assert.True(t, b.IsEmpty())
	_, ok := b.Layout()
	assert.False(t, ok)
	assert.Nil(t, b.Shape())

	// The mesh still accepts any shape afterwards.
	idx, err := p.AddTriangle(v(0, 0, 0, uv(0, 0)), v(1, 0, 0, uv(1, 0)), v(1, 1, 0, uv(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, [3]int{0, 1, 2}, idx)
}

func TestRejectedTriangleKeepsExistingVertices(t *testing.T) {
	b := New("m")
	p := b.Primitive("a")
	_, err := p.AddTriangle(v(0, 0, 0, uv(0, 0)), v(1, 0, 0, uv(1, 0)), v(1, 1, 0, uv(1, 1)))
	require.NoError(t, err)

	c := vertex.NewColor1(math.Vec4{})
	_, err = p.AddTriangle(v(5, 0, 0, uv(0, 0)), v(6, 0, 0, uv(1, 0)), v(6, 1, 0, c))
	require.ErrorIs(t, err, vertex.ErrShapeMismatch)
	assert.Equal(t, 3, b.VertexCount())
	assert.Equal(t, []uint32{0, 1, 2}, p.Indices())
}

func TestDegenerateTriangleAddsNoVertices(t *testing.T) {
	b := New("m")
	p := b.Primitive("a")
	_, err := p.AddTriangle(v(0, 0, 0, nil), v(0, 0, 0, nil), v(1, 0, 0, nil))
	require.NoError(t, err)
	assert.Equal(t, 0, b.VertexCount())
	_, ok := b.Layout()
	assert.False(t, ok)
}

func skinned(x, y, z float32, joint uint16, w float32) Vertex {
	out := v(x, y, z, nil)
	out.Skin = &Skin{Joints: [4]uint16{joint, joint + 1}, Weights: [4]float32{w, 1 - w}}
	return out
}

func TestSkinnedVertices(t *testing.T) {
	b := New("arm")
	p := b.Primitive("skin")
	_, err := p.AddTriangle(skinned(0, 0, 0, 0, 1), skinned(1, 0, 0, 0, 0.5), skinned(1, 1, 0, 2, 0.25))
	require.NoError(t, err)

	assert.True(t, b.Skinned())
	assert.Equal(t, 4, b.JointCount())
	layout, ok := b.Layout()
	require.True(t, ok)
	assert.Equal(t, vertex.Layout("JOINTS_0:3/4;WEIGHTS_0:3/0"), layout)

	got, err := p.Vertex(0)
	require.NoError(t, err)
	assert.Equal(t, [4]uint16{0, 0}, got.Skin.Joints, "zero weight joints are cleared")
	assert.Equal(t, [4]float32{1, 0}, got.Skin.Weights)

	_, err = p.AddTriangle(v(0, 0, 0, nil), v(1, 0, 0, nil), v(1, 1, 0, nil))
	assert.ErrorIs(t, err, vertex.ErrShapeMismatch)
	assert.Equal(t, 1, b.TriangleCount())
}

func TestSkinWeightsNormalized(t *testing.T) {
	b := New("m")
	p := b.Primitive("a")
	heavy := v(0, 0, 0, nil)
	heavy.Skin = &Skin{Joints: [4]uint16{0, 1}, Weights: [4]float32{2, 2}}
	_, err := p.AddTriangle(heavy, skinned(1, 0, 0, 0, 1), skinned(1, 1, 0, 0, 1))
	require.NoError(t, err)

	got, err := p.Vertex(0)
	require.NoError(t, err)
	assert.Equal(t, [4]float32{0.5, 0.5}, got.Skin.Weights)
	assert.Equal(t, [4]float32{2, 2}, heavy.Skin.Weights, "caller's skin is not modified")
}

func TestSkinWeightsInvalid(t *testing.T) {
	for name, w := range map[string][4]float32{
		"zero":     {},
		"negative": {1, -0.5},
		"nan":      {float32(gomath.NaN())},
	} {
		t.Run(name, func(t *testing.T) {
			b := New("m")
			bad := v(0, 0, 0, nil)
			bad.Skin = &Skin{Weights: w}
			_, err := b.Primitive("a").AddTriangle(bad, skinned(1, 0, 0, 0, 1), skinned(1, 1, 0, 0, 1))
			assert.ErrorIs(t, err, ErrInvalidWeights)
			assert.Equal(t, 0, b.VertexCount())
		})
	}
}

func TestLayout(t *testing.T) {
	b := New("m")
	_, ok := b.Layout()
	assert.False(t, ok)

	_, err := b.Primitive("a").AddTriangle(v(0, 0, 0, uv(0, 0)), v(1, 0, 0, uv(1, 0)), v(1, 1, 0, uv(1, 1)))
	require.NoError(t, err)
	layout, ok := b.Layout()
	require.True(t, ok)
	assert.Equal(t, vertex.LayoutOf(vertex.NewTexture1(math.Vec2{})), layout)
}

func TestVerticesAreCopiedOnAdd(t *testing.T) {
	b := New("m")
	p := b.Primitive("a")
	m := vertex.NewTexture1(math.Vec2{X: 0.25})
	_, err := p.AddTriangle(v(0, 0, 0, m), v(1, 0, 0, uv(1, 0)), v(1, 1, 0, uv(1, 1)))
	require.NoError(t, err)

	require.NoError(t, m.SetTexCoord(0, math.Vec2{X: 0.75}))
	got, err := p.Vertex(0)
	require.NoError(t, err)
	tc, err := got.Material.TexCoord(0)
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), tc.X)
}

func TestMorphTargetSetVertex(t *testing.T) {
	b := New("m")
	p := b.Primitive("a")
	_, err := p.AddTriangle(v(0, 0, 0, uv(0, 0)), v(1, 0, 0, uv(1, 0)), v(1, 1, 0, uv(1, 1)))
	require.NoError(t, err)

	morph := p.MorphTarget(1)
	assert.Len(t, p.MorphTargets(), 2)
	assert.Equal(t, 2, b.MorphTargetCount())

	target := v(1, 2, 0, uv(1, 0.5))
	require.NoError(t, morph.SetVertex(1, target))
	assert.Equal(t, math.Vec3{Y: 2}, morph.PositionDelta(1))

	d := morph.MaterialDelta(1)
	require.Equal(t, 1, d.MaxTexCoords())
	assert.InDelta(t, 0.5, d.TexCoords[0].Y, 1e-6)

	got, err := morph.Vertex(1)
	require.NoError(t, err)
	assert.True(t, got.Position.ApproxEqual(target.Position, 1e-6))
	assert.True(t, vertex.Equal(got.Material, target.Material))

	unchanged := morph.MaterialDelta(0)
	assert.True(t, unchanged.IsZero())
	assert.Equal(t, 1, unchanged.MaxTexCoords())
}

func TestMorphTargetErrors(t *testing.T) {
	b := New("m")
	p := b.Primitive("a")
	_, err := p.AddTriangle(v(0, 0, 0, uv(0, 0)), v(1, 0, 0, uv(1, 0)), v(1, 1, 0, uv(1, 1)))
	require.NoError(t, err)
	morph := p.MorphTarget(0)

	assert.ErrorIs(t, morph.SetVertex(7, v(0, 0, 0, uv(0, 0))), vertex.ErrIndexOutOfRange)

	c := vertex.NewColor1(math.Vec4{})
	assert.ErrorIs(t, morph.SetVertex(0, v(0, 0, 0, c)), vertex.ErrShapeMismatch)
	assert.ErrorIs(t, morph.SetVertexDelta(0, math.Vec3{}, math.Vec3{}, vertex.NewDelta(1, 0)), vertex.ErrShapeMismatch)
	assert.Equal(t, 0, morph.Len())

	require.NoError(t, morph.SetVertexDelta(0, math.Vec3{X: 1}, math.Vec3{}, nil))
	assert.Equal(t, 1, morph.Len())
	assert.True(t, morph.MaterialDelta(0).IsZero())
}
