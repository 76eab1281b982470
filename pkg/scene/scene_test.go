package scene

import (
	gomath "math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
	"github.com/Faultbox/meshforge/pkg/target"
	"github.com/Faultbox/meshforge/pkg/target/targettest"
)

// mapLookup resolves builders from maps filled by the test.
type mapLookup struct {
	meshes map[mesh.ID]target.Mesh
	nodes  map[NodeID]target.Node
}

func (l mapLookup) Mesh(m *mesh.Builder) target.Mesh {
	if m == nil {
		return nil
	}
	return l.meshes[m.ID()]
}

func (l mapLookup) Node(n *NodeBuilder) target.Node {
	if n == nil {
		return nil
	}
	return l.nodes[n.ID()]
}

func triangleMesh(name string) *mesh.Builder {
	b := mesh.New(name)
	_, _ = b.Primitive("m").AddTriangle(
		mesh.Vertex{Position: math.Vec3{}},
		mesh.Vertex{Position: math.Vec3{X: 1}},
		mesh.Vertex{Position: math.Vec3{Y: 1}},
	)
	return b
}

// skinnedTriangle weights every corner fully to joint.
func skinnedTriangle(name string, joint uint16) *mesh.Builder {
	b := mesh.New(name)
	skin := &mesh.Skin{Joints: [4]uint16{joint}, Weights: [4]float32{1}}
	_, _ = b.Primitive("m").AddTriangle(
		mesh.Vertex{Position: math.Vec3{}, Skin: skin},
		mesh.Vertex{Position: math.Vec3{X: 1}, Skin: skin},
		mesh.Vertex{Position: math.Vec3{Y: 1}, Skin: skin},
	)
	return b
}

func TestHierarchy(t *testing.T) {
	root := NewNode("root")
	a := root.CreateNode("a")
	b := a.CreateNode("b")
	c := root.CreateNode("c")

	assert.Same(t, root, b.Root())
	assert.Same(t, a, b.Parent())
	assert.Nil(t, root.Parent())
	assert.Equal(t, []*NodeBuilder{a, c}, root.Children())
	assert.NotEqual(t, a.ID(), b.ID())

	var order []string
	for n := range root.All() {
		order = append(order, n.Name())
	}
	assert.Equal(t, []string{"root", "a", "b", "c"}, order)
	assert.Same(t, b, root.Find("b"))
	assert.Nil(t, root.Find("missing"))
}

func TestWorldMatrix(t *testing.T) {
	root := NewNode("root")
	root.SetLocalMatrix(math.Translate(1, 0, 0))
	child := root.CreateNode("child")
	child.SetLocalTransform(math.Transform{
		Scale:       math.Vec3{X: 2, Y: 2, Z: 2},
		Rotation:    math.QuatIdentity(),
		Translation: math.Vec3{Y: 3},
	})

	p := child.WorldMatrix().TransformPoint(math.Vec3{X: 1})
	assert.True(t, p.ApproxEqual(math.Vec3{X: 3, Y: 3}, 1e-5), "got %v", p)
}

func TestSetLocalMatrixDecomposes(t *testing.T) {
	n := NewNode("n")
	n.SetLocalMatrix(math.Translate(4, 5, 6).Mul(math.Scale(2, 2, 2)))
	tr := n.LocalTransform()
	assert.True(t, tr.Translation.ApproxEqual(math.Vec3{X: 4, Y: 5, Z: 6}, 1e-5))
	assert.True(t, tr.Scale.ApproxEqual(math.Vec3{X: 2, Y: 2, Z: 2}, 1e-5))

	n.SetLocalTransform(math.IdentityTransform())
	assert.True(t, n.LocalMatrix().ApproxEqual(math.Identity(), 0))
}

func TestHasAnimations(t *testing.T) {
	n := NewNode("n")
	assert.False(t, n.HasAnimations())

	n.Rotation().Track("Walk")
	assert.False(t, n.HasAnimations(), "empty track does not count")

	n.Rotation().Track("Walk").SetPoint(0, math.QuatIdentity())
	n.Translation().Track("Idle").SetPoint(1, math.Vec3{X: 1})
	assert.True(t, n.HasAnimations())
	assert.Equal(t, []string{"Idle", "Walk"}, n.AnimationNames())
}

func TestLocalTransformAtKeepsStaticChannels(t *testing.T) {
	n := NewNode("n")
	n.SetLocalTransform(math.Transform{
		Scale:       math.Vec3{X: 3, Y: 3, Z: 3},
		Rotation:    math.QuatIdentity(),
		Translation: math.Vec3{X: 7},
	})
	quarter := math.QuatFromAxisAngle(math.Vec3{Y: 1}, gomath.Pi/2)
	n.Rotation().Track("Spin").SetPoint(0, math.QuatIdentity()).SetPoint(1, quarter)

	got := n.LocalTransformAt("Spin", 1)
	assert.True(t, got.Rotation.ApproxEqual(quarter, 1e-5))
	assert.Equal(t, math.Vec3{X: 3, Y: 3, Z: 3}, got.Scale)
	assert.Equal(t, math.Vec3{X: 7}, got.Translation)

	static := NewNode("static")
	static.SetLocalMatrix(math.Translate(1, 2, 3))
	assert.Equal(t, math.Translate(1, 2, 3), static.LocalMatrixAt("Spin", 0.5))
}

func TestRigidInstanceSetup(t *testing.T) {
	doc := targettest.New()
	root := doc.UseScene(0).CreateNode("root")
	src := NewNode("root")
	m1, m2 := triangleMesh("a"), triangleMesh("b")
	compiled, err := doc.CreateMeshes([]*mesh.Builder{m1, m2})
	require.NoError(t, err)

	lookup := mapLookup{
		meshes: map[mesh.ID]target.Mesh{m1.ID(): compiled[0], m2.ID(): compiled[1]},
		nodes:  map[NodeID]target.Node{src.ID(): root},
	}

	require.NoError(t, (&RigidInstance{Mesh: m1, Node: src}).Setup(doc.UseScene(0), lookup))
	require.NoError(t, (&RigidInstance{Mesh: m2, Node: src}).Setup(doc.UseScene(0), lookup))

	assert.Equal(t, compiled[0], root.Mesh())
	rec := doc.NodeByName("root")
	require.Len(t, rec.Children, 1)
	assert.Equal(t, "b", rec.Children[0].Name())
	assert.Equal(t, compiled[1], rec.Children[0].Mesh())
}

func TestInstanceUnresolved(t *testing.T) {
	doc := targettest.New()
	empty := mapLookup{}
	m := triangleMesh("m")
	n := NewNode("n")

	err := (&RigidInstance{Mesh: m, Node: n}).Setup(doc.UseScene(0), empty)
	assert.ErrorIs(t, err, ErrUnresolvedMesh)

	compiled, err := doc.CreateMeshes([]*mesh.Builder{m})
	require.NoError(t, err)
	withMesh := mapLookup{meshes: map[mesh.ID]target.Mesh{m.ID(): compiled[0]}}
	err = (&RigidInstance{Mesh: m, Node: n}).Setup(doc.UseScene(0), withMesh)
	assert.ErrorIs(t, err, ErrUnresolvedNode)

	assert.NoError(t, (&RigidInstance{Node: n}).Setup(doc.UseScene(0), empty), "no geometry is not an error")
}

func TestFixedInstanceSetup(t *testing.T) {
	doc := targettest.New()
	m := triangleMesh("rock")
	compiled, err := doc.CreateMeshes([]*mesh.Builder{m})
	require.NoError(t, err)
	lookup := mapLookup{meshes: map[mesh.ID]target.Mesh{m.ID(): compiled[0]}}

	f := &FixedInstance{Mesh: m, Name: "rock01", World: math.Translate(0, 1, 0)}
	assert.Nil(t, f.ArmatureAsset())
	require.NoError(t, f.Setup(doc.UseScene(0), lookup))

	n := doc.NodeByName("rock01")
	require.NotNil(t, n)
	assert.Nil(t, n.Parent)
	assert.Equal(t, math.Translate(0, 1, 0), n.LocalMatrix())
	assert.Equal(t, compiled[0], n.Mesh())
}

func TestSkinnedInstanceSetup(t *testing.T) {
	doc := targettest.New()
	scn := doc.UseScene(0)

	hip := NewNode("hip")
	hip.SetLocalMatrix(math.Translate(0, 1, 0))
	knee := hip.CreateNode("knee")
	knee.SetLocalMatrix(math.Translate(0, -0.5, 0))

	cHip := scn.CreateNode("hip")
	cKnee := cHip.CreateNode("knee")
	m := skinnedTriangle("leg", 1)
	compiled, err := doc.CreateMeshes([]*mesh.Builder{m})
	require.NoError(t, err)
	lookup := mapLookup{
		meshes: map[mesh.ID]target.Mesh{m.ID(): compiled[0]},
		nodes:  map[NodeID]target.Node{hip.ID(): cHip, knee.ID(): cKnee},
	}

	sk := &SkinnedInstance{Mesh: m, Name: "leg", Armature: knee}
	assert.Equal(t, []*NodeBuilder{hip, knee}, sk.JointList())
	require.NoError(t, sk.Setup(scn, lookup))

	n := doc.NodeByName("leg")
	require.NotNil(t, n)
	assert.Equal(t, []target.Node{cHip, cKnee}, n.Joints)
	require.Len(t, n.InverseBindMatrices, 2)
	assert.True(t, n.InverseBindMatrices[1].ApproxEqual(math.Translate(0, -0.5, 0), 1e-6))
}

func TestSkinnedInstanceRequiresSkinnedMesh(t *testing.T) {
	doc := targettest.New()
	scn := doc.UseScene(0)
	hip := NewNode("hip")
	cHip := scn.CreateNode("hip")

	plain := triangleMesh("plain")
	wide := skinnedTriangle("wide", 3)
	compiled, err := doc.CreateMeshes([]*mesh.Builder{plain, wide})
	require.NoError(t, err)
	lookup := mapLookup{
		meshes: map[mesh.ID]target.Mesh{plain.ID(): compiled[0], wide.ID(): compiled[1]},
		nodes:  map[NodeID]target.Node{hip.ID(): cHip},
	}

	err = (&SkinnedInstance{Mesh: plain, Name: "plain", Armature: hip}).Setup(scn, lookup)
	assert.ErrorIs(t, err, ErrNotSkinned)
	err = (&SkinnedInstance{Mesh: wide, Name: "wide", Armature: hip}).Setup(scn, lookup)
	assert.ErrorIs(t, err, ErrJointRange)
	assert.Nil(t, doc.NodeByName("plain"))
	assert.Nil(t, doc.NodeByName("wide"))
}

func TestSceneBuilder(t *testing.T) {
	sc := New("level")
	m := triangleMesh("m")
	root := NewNode("root")

	sc.AddRigidMesh(m, root)
	sc.AddFixedMesh(m, "fixed", math.Identity())
	sc.AddSkinnedMesh(m, "skin", root)
	sc.AddArmature(root)

	insts := sc.Instances()
	require.Len(t, insts, 4)
	assert.Equal(t, "level", sc.Name())
	geoms := slices.Collect(func(yield func(*mesh.Builder) bool) {
		for _, in := range insts {
			if !yield(in.GeometryAsset()) {
				return
			}
		}
	})
	assert.Equal(t, []*mesh.Builder{m, m, m, nil}, geoms)
	assert.Nil(t, insts[1].ArmatureAsset())
	assert.Same(t, root, insts[3].ArmatureAsset())
}
