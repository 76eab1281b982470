package scene

import (
	"slices"

	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// Builder is an ordered list of instances.
type Builder struct {
	name      string
	instances []Instance
}

// New returns an empty scene.
func New(name string) *Builder {
	return &Builder{name: name}
}

// Name returns the scene name.
func (s *Builder) Name() string { return s.name }

// Add appends any instance.
func (s *Builder) Add(inst Instance) Instance {
	s.instances = append(s.instances, inst)
	return inst
}

// AddRigidMesh attaches m to node.
func (s *Builder) AddRigidMesh(m *mesh.Builder, node *NodeBuilder) *RigidInstance {
	r := &RigidInstance{Mesh: m, Node: node}
	s.Add(r)
	return r
}

// AddFixedMesh places m at world under a new root node called name.
func (s *Builder) AddFixedMesh(m *mesh.Builder, name string, world math.Mat4) *FixedInstance {
	f := &FixedInstance{Mesh: m, Name: name, World: world}
	s.Add(f)
	return f
}

// AddSkinnedMesh binds m to joints of armature; no joints means all of
// its nodes.
func (s *Builder) AddSkinnedMesh(m *mesh.Builder, name string, armature *NodeBuilder, joints ...*NodeBuilder) *SkinnedInstance {
	sk := &SkinnedInstance{Mesh: m, Name: name, Armature: armature, Joints: joints}
	s.Add(sk)
	return sk
}

// AddArmature adds a skeleton without geometry.
func (s *Builder) AddArmature(root *NodeBuilder) *ArmatureInstance {
	a := &ArmatureInstance{Armature: root}
	s.Add(a)
	return a
}

// Instances returns the instances in insertion order.
func (s *Builder) Instances() []Instance {
	return slices.Clone(s.instances)
}
