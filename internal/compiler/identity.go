package compiler

import (
	"github.com/Faultbox/meshforge/pkg/mesh"
	"github.com/Faultbox/meshforge/pkg/scene"
	"github.com/Faultbox/meshforge/pkg/target"
)

// identityMap maps a builder handle to the entity compiled for it. Each
// Compile call owns its maps.
type identityMap[K comparable, V any] struct {
	entries map[K]V
}

func newIdentityMap[K comparable, V any]() *identityMap[K, V] {
	return &identityMap[K, V]{entries: make(map[K]V)}
}

func (m *identityMap[K, V]) get(k K) (V, bool) {
	v, ok := m.entries[k]
	return v, ok
}

func (m *identityMap[K, V]) has(k K) bool {
	_, ok := m.entries[k]
	return ok
}

func (m *identityMap[K, V]) put(k K, v V) {
	m.entries[k] = v
}

func (m *identityMap[K, V]) len() int {
	return len(m.entries)
}

// lookup is the read-only view of the identity maps handed to instances.
type lookup struct {
	meshes *identityMap[mesh.ID, target.Mesh]
	nodes  *identityMap[scene.NodeID, target.Node]
}

var _ scene.Lookup = lookup{}

func (l lookup) Mesh(m *mesh.Builder) target.Mesh {
	if m == nil {
		return nil
	}
	v, _ := l.meshes.get(m.ID())
	return v
}

func (l lookup) Node(n *scene.NodeBuilder) target.Node {
	if n == nil {
		return nil
	}
	v, _ := l.nodes.get(n.ID())
	return v
}
