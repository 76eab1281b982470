package gltfdoc

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshforge/pkg/anim"
	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/target"
)

type sceneContainer struct {
	doc   *Document
	index uint32
}

func (s *sceneContainer) CreateNode(name string) target.Node {
	n := s.doc.newNode(name)
	sc := s.doc.doc.Scenes[s.index]
	sc.Nodes = append(sc.Nodes, n.index)
	return n
}

// Node is a compiled glTF node.
type Node struct {
	doc   *Document
	index uint32
}

var _ target.Node = (*Node)(nil)

func (d *Document) newNode(name string) *Node {
	d.doc.Nodes = append(d.doc.Nodes, &gltf.Node{
		Name:     name,
		Matrix:   gltf.DefaultMatrix,
		Rotation: gltf.DefaultRotation,
		Scale:    gltf.DefaultScale,
	})
	return &Node{doc: d, index: uint32(len(d.doc.Nodes) - 1)}
}

func (n *Node) node() *gltf.Node { return n.doc.doc.Nodes[n.index] }

// CreateNode adds a child node.
func (n *Node) CreateNode(name string) target.Node {
	c := n.doc.newNode(name)
	gn := n.node()
	gn.Children = append(gn.Children, c.index)
	return c
}

func (n *Node) Index() int   { return int(n.index) }
func (n *Node) Name() string { return n.node().Name }

// SetLocalMatrix stores m as the node matrix, resetting TRS.
func (n *Node) SetLocalMatrix(m math.Mat4) {
	gn := n.node()
	gn.Matrix = [16]float32(m)
	gn.Rotation = gltf.DefaultRotation
	gn.Scale = gltf.DefaultScale
	gn.Translation = [3]float32{}
}

// SetLocalTransform stores t as TRS, resetting the matrix.
func (n *Node) SetLocalTransform(t math.Transform) {
	gn := n.node()
	gn.Matrix = gltf.DefaultMatrix
	gn.Scale = t.Scale.Array()
	gn.Rotation = t.Rotation.Array()
	gn.Translation = t.Translation.Array()
}

func (n *Node) usesMatrix() bool {
	return n.node().Matrix != gltf.DefaultMatrix
}

func (n *Node) LocalMatrix() math.Mat4 {
	if n.usesMatrix() {
		return math.Mat4(n.node().Matrix)
	}
	return n.LocalTransform().Matrix()
}

func (n *Node) LocalTransform() math.Transform {
	gn := n.node()
	if n.usesMatrix() {
		return math.Decompose(math.Mat4(gn.Matrix))
	}
	return math.Transform{
		Scale:       math.Vec3FromArray(gn.Scale),
		Rotation:    math.QuatFromArray(gn.Rotation),
		Translation: math.Vec3FromArray(gn.Translation),
	}
}

// Animated channels only work on TRS nodes, so a matrix is decomposed
// before the first track is attached.
func (n *Node) toTRS() {
	if n.usesMatrix() {
		n.SetLocalTransform(n.LocalTransform())
	}
}

func (n *Node) WithScaleAnimation(name string, track *anim.Track[math.Vec3]) target.Node {
	out := make([][3]float32, 0, track.Len())
	for _, v := range track.Values() {
		out = append(out, v.Array())
	}
	n.attach(name, gltf.TRSScale, track.Times(), out)
	return n
}

func (n *Node) WithRotationAnimation(name string, track *anim.Track[math.Quat]) target.Node {
	out := make([][4]float32, 0, track.Len())
	for _, q := range track.Values() {
		out = append(out, q.Normalize().Array())
	}
	n.attach(name, gltf.TRSRotation, track.Times(), out)
	return n
}

func (n *Node) WithTranslationAnimation(name string, track *anim.Track[math.Vec3]) target.Node {
	out := make([][3]float32, 0, track.Len())
	for _, v := range track.Values() {
		out = append(out, v.Array())
	}
	n.attach(name, gltf.TRSTranslation, track.Times(), out)
	return n
}

// attach adds one sampler and channel to the animation called name.
// Empty tracks are ignored.
func (n *Node) attach(name string, path gltf.TRSProperty, times []float32, values any) {
	if len(times) == 0 {
		return
	}
	n.toTRS()
	d := n.doc

	input := modeler.WriteAccessor(d.doc, gltf.TargetNone, times)
	in := d.doc.Accessors[input]
	in.Min = []float32{times[0]}
	in.Max = []float32{times[len(times)-1]}
	output := modeler.WriteAccessor(d.doc, gltf.TargetNone, values)

	a := d.animation(name)
	a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
		Input:         gltf.Index(input),
		Output:        gltf.Index(output),
		Interpolation: gltf.InterpolationLinear,
	})
	a.Channels = append(a.Channels, &gltf.Channel{
		Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
		Target:  gltf.ChannelTarget{Node: gltf.Index(n.index), Path: path},
	})
}

func (d *Document) animation(name string) *gltf.Animation {
	if a, ok := d.animations[name]; ok {
		return a
	}
	a := &gltf.Animation{Name: name}
	d.doc.Animations = append(d.doc.Animations, a)
	d.animations[name] = a
	return a
}

func (n *Node) Mesh() target.Mesh {
	gn := n.node()
	if gn.Mesh == nil {
		return nil
	}
	for _, m := range n.doc.meshes {
		if m.index == *gn.Mesh {
			return m
		}
	}
	return nil
}

// SetMesh binds m, which must come from the same document. Meshes of
// other documents are ignored.
func (n *Node) SetMesh(m target.Mesh) {
	gm, ok := m.(*Mesh)
	if !ok || gm.doc != n.doc {
		n.doc.log.Warn(ErrForeignEntity.Error())
		return
	}
	n.node().Mesh = gltf.Index(gm.index)
}

// SetSkin adds a skin over joints and binds it to the node.
func (n *Node) SetSkin(joints []target.Node, inverseBindMatrices []math.Mat4) error {
	if len(joints) != len(inverseBindMatrices) {
		return fmt.Errorf("%w: %d joints, %d matrices", ErrSkinLength, len(joints), len(inverseBindMatrices))
	}
	skin := &gltf.Skin{Name: n.Name(), Joints: make([]uint32, len(joints))}
	for i, j := range joints {
		jn, ok := j.(*Node)
		if !ok || jn.doc != n.doc {
			return fmt.Errorf("joint %d: %w", i, ErrForeignEntity)
		}
		skin.Joints[i] = jn.index
	}
	if len(joints) > 0 {
		ibm := make([][4][4]float32, len(inverseBindMatrices))
		for i, m := range inverseBindMatrices {
			ibm[i] = m.Array()
		}
		skin.InverseBindMatrices = gltf.Index(modeler.WriteAccessor(n.doc.doc, gltf.TargetNone, ibm))
		skin.Skeleton = gltf.Index(skin.Joints[0])
	}
	n.doc.doc.Skins = append(n.doc.doc.Skins, skin)
	n.node().Skin = gltf.Index(uint32(len(n.doc.doc.Skins) - 1))
	return nil
}
