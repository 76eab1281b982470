package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
	"github.com/Faultbox/meshforge/pkg/target"
)

var (
	ErrUnresolvedNode = errors.New("node was not compiled")
	ErrUnresolvedMesh = errors.New("mesh was not compiled")
	ErrNotSkinned     = errors.New("mesh has no joints and weights")
	ErrJointRange     = errors.New("vertex joint index outside the joint list")
)

// Lookup resolves source builders to what was compiled for them. Both
// methods return nil for a nil or unknown key.
type Lookup interface {
	Mesh(m *mesh.Builder) target.Mesh
	Node(n *NodeBuilder) target.Node
}

// Instance is one entry of a scene. GeometryAsset and ArmatureAsset may
// return nil; the compiler compiles the armature rooted at
// ArmatureAsset().Root(). Setup then binds the compiled entities.
type Instance interface {
	GeometryAsset() *mesh.Builder
	ArmatureAsset() *NodeBuilder
	Setup(dst target.Container, lookup Lookup) error
}

// RigidInstance attaches a mesh to an armature node, so it follows that
// node's animation.
type RigidInstance struct {
	Mesh *mesh.Builder
	Node *NodeBuilder
}

func (r *RigidInstance) GeometryAsset() *mesh.Builder { return r.Mesh }
func (r *RigidInstance) ArmatureAsset() *NodeBuilder  { return r.Node }

// Setup binds the mesh to the compiled node. A node that already carries a
// mesh gets a child node for this one.
func (r *RigidInstance) Setup(_ target.Container, lookup Lookup) error {
	if r.Mesh == nil {
		return nil
	}
	m := lookup.Mesh(r.Mesh)
	if m == nil {
		return fmt.Errorf("rigid %q: %w", r.Mesh.Name(), ErrUnresolvedMesh)
	}
	n := lookup.Node(r.Node)
	if n == nil {
		return fmt.Errorf("rigid %q: %w", r.Mesh.Name(), ErrUnresolvedNode)
	}
	if n.Mesh() != nil {
		n = n.CreateNode(r.Mesh.Name())
	}
	n.SetMesh(m)
	return nil
}

// FixedInstance places a mesh at a fixed world matrix under a new scene
// root, without an armature.
type FixedInstance struct {
	Mesh  *mesh.Builder
	Name  string
	World math.Mat4
}

func (f *FixedInstance) GeometryAsset() *mesh.Builder { return f.Mesh }
func (f *FixedInstance) ArmatureAsset() *NodeBuilder  { return nil }

func (f *FixedInstance) Setup(dst target.Container, lookup Lookup) error {
	if f.Mesh == nil {
		return nil
	}
	m := lookup.Mesh(f.Mesh)
	if m == nil {
		return fmt.Errorf("fixed %q: %w", f.Name, ErrUnresolvedMesh)
	}
	n := dst.CreateNode(f.Name)
	n.SetLocalMatrix(f.World)
	n.SetMesh(m)
	return nil
}

// SkinnedInstance binds a mesh to a set of joints of one armature. The
// inverse bind matrices come from the joints' static world matrices. The
// mesh must be skinned and weight only joints of the list.
type SkinnedInstance struct {
	Mesh     *mesh.Builder
	Name     string
	Armature *NodeBuilder
	// Joints defaults to every node of the armature, parents first.
	Joints []*NodeBuilder
}

func (s *SkinnedInstance) GeometryAsset() *mesh.Builder { return s.Mesh }
func (s *SkinnedInstance) ArmatureAsset() *NodeBuilder  { return s.Armature }

// JointList returns the joints the skin binds, in joint index order.
func (s *SkinnedInstance) JointList() []*NodeBuilder {
	if len(s.Joints) > 0 || s.Armature == nil {
		return s.Joints
	}
	var out []*NodeBuilder
	for n := range s.Armature.Root().All() {
		out = append(out, n)
	}
	return out
}

func (s *SkinnedInstance) Setup(dst target.Container, lookup Lookup) error {
	if s.Mesh == nil {
		return nil
	}
	if !s.Mesh.Skinned() {
		return fmt.Errorf("skinned %q: %w", s.Name, ErrNotSkinned)
	}
	m := lookup.Mesh(s.Mesh)
	if m == nil {
		return fmt.Errorf("skinned %q: %w", s.Name, ErrUnresolvedMesh)
	}
	src := s.JointList()
	if n := s.Mesh.JointCount(); n > len(src) {
		return fmt.Errorf("skinned %q: %w: mesh uses %d joints, skin has %d", s.Name, ErrJointRange, n, len(src))
	}
	joints := make([]target.Node, len(src))
	ibm := make([]math.Mat4, len(src))
	for i, j := range src {
		n := lookup.Node(j)
		if n == nil {
			return fmt.Errorf("skinned %q joint %d: %w", s.Name, i, ErrUnresolvedNode)
		}
		joints[i] = n
		ibm[i] = j.WorldMatrix().Inverse()
	}
	n := dst.CreateNode(s.Name)
	n.SetMesh(m)
	return n.SetSkin(joints, ibm)
}

// ArmatureInstance adds a skeleton with no geometry.
type ArmatureInstance struct {
	Armature *NodeBuilder
}

func (a *ArmatureInstance) GeometryAsset() *mesh.Builder { return nil }
func (a *ArmatureInstance) ArmatureAsset() *NodeBuilder  { return a.Armature }

func (a *ArmatureInstance) Setup(target.Container, Lookup) error { return nil }
