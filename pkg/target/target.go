// Package target defines the destination document the scene compiler
// writes into. Implementations own every entity they create.
package target

import (
	"github.com/Faultbox/meshforge/pkg/anim"
	"github.com/Faultbox/meshforge/pkg/math"
	"github.com/Faultbox/meshforge/pkg/mesh"
)

// Document creates compiled meshes and exposes its scenes.
type Document interface {
	// CreateMeshes compiles a batch of meshes sharing one vertex layout.
	// The result corresponds 1:1 and in order with the batch.
	CreateMeshes(batch []*mesh.Builder) ([]Mesh, error)

	// UseScene returns scene i, creating scenes up to i as needed.
	UseScene(i int) Container
}

// Container is anything nodes can be created under: a scene or a node.
type Container interface {
	CreateNode(name string) Node
}

// Mesh is a compiled mesh.
type Mesh interface {
	Index() int
	Name() string
}

// Node is a compiled node.
type Node interface {
	Container

	Index() int
	Name() string

	SetLocalMatrix(m math.Mat4)
	SetLocalTransform(t math.Transform)
	LocalMatrix() math.Mat4
	LocalTransform() math.Transform

	// The With*Animation methods attach track to one channel of the node
	// under the animation called name.
	WithScaleAnimation(name string, track *anim.Track[math.Vec3]) Node
	WithRotationAnimation(name string, track *anim.Track[math.Quat]) Node
	WithTranslationAnimation(name string, track *anim.Track[math.Vec3]) Node

	Mesh() Mesh
	SetMesh(m Mesh)

	// SetSkin binds the node's mesh to joints. inverseBindMatrices has one
	// entry per joint.
	SetSkin(joints []Node, inverseBindMatrices []math.Mat4) error
}
