// Package scene holds the mutable source scene graph: node hierarchies
// (armatures) with keyframe channels, and the instances that place meshes
// on them. Builders are identified by handles assigned at construction.
package scene

import (
	"iter"
	"slices"
	"sync/atomic"

	"github.com/Faultbox/meshforge/pkg/anim"
	"github.com/Faultbox/meshforge/pkg/math"
)

// NodeID is the identity handle of a NodeBuilder.
type NodeID uint64

var lastNodeID atomic.Uint64

// NodeBuilder is one node of an armature.
type NodeBuilder struct {
	id       NodeID
	name     string
	parent   *NodeBuilder
	children []*NodeBuilder

	transform math.Transform
	matrix    *math.Mat4

	scale       *anim.Channel[math.Vec3]
	rotation    *anim.Channel[math.Quat]
	translation *anim.Channel[math.Vec3]
}

// NewNode returns a root node with an identity transform.
func NewNode(name string) *NodeBuilder {
	return &NodeBuilder{
		id:          NodeID(lastNodeID.Add(1)),
		name:        name,
		transform:   math.IdentityTransform(),
		scale:       anim.NewChannel(anim.NewVec3Track),
		rotation:    anim.NewChannel(anim.NewQuatTrack),
		translation: anim.NewChannel(anim.NewVec3Track),
	}
}

// ID returns the node's identity handle.
func (n *NodeBuilder) ID() NodeID { return n.id }

// Name returns the node name.
func (n *NodeBuilder) Name() string { return n.name }

// SetName renames the node.
func (n *NodeBuilder) SetName(name string) { n.name = name }

// CreateNode appends a new child and returns it.
func (n *NodeBuilder) CreateNode(name string) *NodeBuilder {
	c := NewNode(name)
	c.parent = n
	n.children = append(n.children, c)
	return c
}

// Parent returns the parent node, nil for a root.
func (n *NodeBuilder) Parent() *NodeBuilder { return n.parent }

// Root returns the topmost ancestor, n itself for a root.
func (n *NodeBuilder) Root() *NodeBuilder {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Children returns the children in creation order.
func (n *NodeBuilder) Children() []*NodeBuilder {
	return slices.Clone(n.children)
}

// All yields n and its descendants depth first, parents before children.
func (n *NodeBuilder) All() iter.Seq[*NodeBuilder] {
	return func(yield func(*NodeBuilder) bool) {
		stack := []*NodeBuilder{n}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(cur) {
				return
			}
			for i := len(cur.children) - 1; i >= 0; i-- {
				stack = append(stack, cur.children[i])
			}
		}
	}
}

// Find returns the first node in n's subtree called name, or nil.
func (n *NodeBuilder) Find(name string) *NodeBuilder {
	for c := range n.All() {
		if c.name == name {
			return c
		}
	}
	return nil
}

// SetLocalTransform sets the static local transform, replacing any
// explicit matrix.
func (n *NodeBuilder) SetLocalTransform(t math.Transform) *NodeBuilder {
	n.transform = t
	n.matrix = nil
	return n
}

// SetLocalMatrix sets an explicit static local matrix.
func (n *NodeBuilder) SetLocalMatrix(m math.Mat4) *NodeBuilder {
	n.matrix = &m
	n.transform = math.Decompose(m)
	return n
}

// LocalTransform returns the static local transform, decomposed from the
// matrix when one was set.
func (n *NodeBuilder) LocalTransform() math.Transform { return n.transform }

// LocalMatrix returns the static local matrix.
func (n *NodeBuilder) LocalMatrix() math.Mat4 {
	if n.matrix != nil {
		return *n.matrix
	}
	return n.transform.Matrix()
}

// WorldMatrix returns the static matrix from node space to root space.
func (n *NodeBuilder) WorldMatrix() math.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul(m)
	}
	return m
}

// Scale returns the scale channel.
func (n *NodeBuilder) Scale() *anim.Channel[math.Vec3] { return n.scale }

// Rotation returns the rotation channel.
func (n *NodeBuilder) Rotation() *anim.Channel[math.Quat] { return n.rotation }

// Translation returns the translation channel.
func (n *NodeBuilder) Translation() *anim.Channel[math.Vec3] { return n.translation }

// HasAnimations reports whether any channel has a non-empty track.
func (n *NodeBuilder) HasAnimations() bool {
	return n.scale.Len()+n.rotation.Len()+n.translation.Len() > 0
}

// AnimationNames returns the sorted names of the non-empty tracks on the
// node.
func (n *NodeBuilder) AnimationNames() []string {
	var names []string
	for name := range n.scale.All() {
		names = append(names, name)
	}
	for name := range n.rotation.All() {
		names = append(names, name)
	}
	for name := range n.translation.All() {
		names = append(names, name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// LocalTransformAt samples the named animation at time t. Channels
// without that track keep the static value.
func (n *NodeBuilder) LocalTransformAt(track string, t float32) math.Transform {
	out := n.transform
	if tr := n.scale.Get(track); tr != nil && tr.Len() > 0 {
		out.Scale = tr.Sample(t)
	}
	if tr := n.rotation.Get(track); tr != nil && tr.Len() > 0 {
		out.Rotation = tr.Sample(t)
	}
	if tr := n.translation.Get(track); tr != nil && tr.Len() > 0 {
		out.Translation = tr.Sample(t)
	}
	return out
}

// LocalMatrixAt is LocalTransformAt as a matrix. A node with no
// animations returns its static matrix unchanged.
func (n *NodeBuilder) LocalMatrixAt(track string, t float32) math.Mat4 {
	if !n.HasAnimations() {
		return n.LocalMatrix()
	}
	return n.LocalTransformAt(track, t).Matrix()
}
