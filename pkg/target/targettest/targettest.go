// Package targettest provides an in-memory target.Document that records
// everything created in it, for tests of code that compiles into a
// document.
package targettest

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshforge/pkg/anim"
	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
	"github.com/Faultbox/meshforge/pkg/target"
)

// ErrSkinLength is returned by SetSkin when joints and matrices differ in
// length.
var ErrSkinLength = errors.New("joint and inverse bind matrix counts differ")

// Document records meshes, nodes and batches.
type Document struct {
	Meshes  []*Mesh
	Nodes   []*Node
	Scenes  []*Scene
	Batches [][]*mesh.Builder

	// FailBatch, when set, is returned by CreateMeshes for the batch with
	// that index (counting from 1).
	FailBatch int
	// ShortBatch makes CreateMeshes drop the last mesh of every batch.
	ShortBatch bool
}

var _ target.Document = (*Document)(nil)

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// CreateMeshes records the batch and returns one Mesh per builder.
func (d *Document) CreateMeshes(batch []*mesh.Builder) ([]target.Mesh, error) {
	d.Batches = append(d.Batches, batch)
	if d.FailBatch == len(d.Batches) {
		return nil, fmt.Errorf("batch %d rejected", d.FailBatch)
	}
	out := make([]target.Mesh, 0, len(batch))
	for _, b := range batch {
		m := &Mesh{index: len(d.Meshes), Source: b}
		d.Meshes = append(d.Meshes, m)
		out = append(out, m)
	}
	if d.ShortBatch && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// UseScene returns scene i.
func (d *Document) UseScene(i int) target.Container {
	for len(d.Scenes) <= i {
		d.Scenes = append(d.Scenes, &Scene{doc: d})
	}
	return d.Scenes[i]
}

// NodeByName returns the first node called name, or nil.
func (d *Document) NodeByName(name string) *Node {
	for _, n := range d.Nodes {
		if n.name == name {
			return n
		}
	}
	return nil
}

func (d *Document) newNode(name string, parent *Node) *Node {
	n := &Node{
		doc:       d,
		index:     len(d.Nodes),
		name:      name,
		Parent:    parent,
		transform: math.IdentityTransform(),
		Scale:     map[string]*anim.Track[math.Vec3]{},
		Rotation:  map[string]*anim.Track[math.Quat]{},
		Translate: map[string]*anim.Track[math.Vec3]{},
	}
	d.Nodes = append(d.Nodes, n)
	return n
}

// Scene is a recorded scene.
type Scene struct {
	doc   *Document
	Roots []*Node
}

// CreateNode adds a root node.
func (s *Scene) CreateNode(name string) target.Node {
	n := s.doc.newNode(name, nil)
	s.Roots = append(s.Roots, n)
	return n
}

// Mesh is a recorded mesh.
type Mesh struct {
	index  int
	Source *mesh.Builder
}

// Index returns the creation index.
func (m *Mesh) Index() int { return m.index }

// Name returns the source mesh name.
func (m *Mesh) Name() string { return m.Source.Name() }

// Node is a recorded node. Calls records every mutating call in order,
// e.g. "SetLocalMatrix" or "WithRotationAnimation:Default".
type Node struct {
	doc      *Document
	index    int
	name     string
	Parent   *Node
	Children []*Node

	matrix    *math.Mat4
	transform math.Transform
	mesh      target.Mesh

	Scale     map[string]*anim.Track[math.Vec3]
	Rotation  map[string]*anim.Track[math.Quat]
	Translate map[string]*anim.Track[math.Vec3]

	Joints              []target.Node
	InverseBindMatrices []math.Mat4

	Calls []string
}

var _ target.Node = (*Node)(nil)

// CreateNode adds a child node.
func (n *Node) CreateNode(name string) target.Node {
	c := n.doc.newNode(name, n)
	n.Children = append(n.Children, c)
	return c
}

func (n *Node) Index() int   { return n.index }
func (n *Node) Name() string { return n.name }

func (n *Node) SetLocalMatrix(m math.Mat4) {
	n.Calls = append(n.Calls, "SetLocalMatrix")
	n.matrix = &m
}

func (n *Node) SetLocalTransform(t math.Transform) {
	n.Calls = append(n.Calls, "SetLocalTransform")
	n.matrix = nil
	n.transform = t
}

func (n *Node) LocalMatrix() math.Mat4 {
	if n.matrix != nil {
		return *n.matrix
	}
	return n.transform.Matrix()
}

func (n *Node) LocalTransform() math.Transform {
	if n.matrix != nil {
		return math.Decompose(*n.matrix)
	}
	return n.transform
}

func (n *Node) WithScaleAnimation(name string, track *anim.Track[math.Vec3]) target.Node {
	n.Calls = append(n.Calls, "WithScaleAnimation:"+name)
	n.Scale[name] = track
	return n
}

func (n *Node) WithRotationAnimation(name string, track *anim.Track[math.Quat]) target.Node {
	n.Calls = append(n.Calls, "WithRotationAnimation:"+name)
	n.Rotation[name] = track
	return n
}

func (n *Node) WithTranslationAnimation(name string, track *anim.Track[math.Vec3]) target.Node {
	n.Calls = append(n.Calls, "WithTranslationAnimation:"+name)
	n.Translate[name] = track
	return n
}

// Animated reports whether any track was attached.
func (n *Node) Animated() bool {
	return len(n.Scale)+len(n.Rotation)+len(n.Translate) > 0
}

func (n *Node) Mesh() target.Mesh { return n.mesh }

func (n *Node) SetMesh(m target.Mesh) {
	n.Calls = append(n.Calls, "SetMesh")
	n.mesh = m
}

func (n *Node) SetSkin(joints []target.Node, inverseBindMatrices []math.Mat4) error {
	if len(joints) != len(inverseBindMatrices) {
		return ErrSkinLength
	}
	n.Calls = append(n.Calls, "SetSkin")
	n.Joints = joints
	n.InverseBindMatrices = inverseBindMatrices
	return nil
}
